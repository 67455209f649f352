package enum

// BanType describes the kind of ban on an account.
type BanType string

const (
	// BanTypeNone means the account is not banned.
	BanTypeNone BanType = "none"
	// BanTypePermanent means the account is banned with no expiry.
	BanTypePermanent BanType = "permanent"
	// BanTypeTemporary means the account is banned until BanExpiresAt.
	BanTypeTemporary BanType = "temporary"
)

// NameChangeRequestStatus is the state of a user-submitted rename request.
type NameChangeRequestStatus string

const (
	NameChangeRequestStatusPending  NameChangeRequestStatus = "pending"
	NameChangeRequestStatusApproved NameChangeRequestStatus = "approved"
	NameChangeRequestStatusRejected NameChangeRequestStatus = "rejected"
)
