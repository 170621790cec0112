package domain

import "time"

// ApprovalStatus represents moderation states for an account attribute.
type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "PENDING"
	ApprovalStatusApproved ApprovalStatus = "APPROVED"
	ApprovalStatusRejected ApprovalStatus = "REJECTED"
)

// User is the domain model for an account that can authenticate.
//
// RefreshTokenID holds the identifier of the single refresh token that
// is currently valid for this user. It is overwritten on every refresh
// token issuance, which is what invalidates all previously issued
// refresh tokens.
type User struct {
	ID                 string
	Email              string
	PasswordHash       string
	Roles              []string
	RefreshTokenID     string
	EmailStatus        ApprovalStatus
	RegistrationStatus ApprovalStatus
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// CanAuthenticate reports whether both approval gates are passed.
func (u *User) CanAuthenticate() bool {
	return u.EmailStatus == ApprovalStatusApproved && u.RegistrationStatus == ApprovalStatusApproved
}
