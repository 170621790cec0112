package domain

// TokenResponse is the result of a successful issuance call. It is
// handed to the caller and not retained server-side; the only state
// kept is the refresh token id on the user record.
type TokenResponse struct {
	RefreshToken string `json:"refresh_token"`
	AccessToken  string `json:"access_token"`
	UserID       string `json:"user_id"`
}
