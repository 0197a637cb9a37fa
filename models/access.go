package models

// AccessLevel is the entitlement provider's verdict for a user within an
// experience. The core trusts it unchanged.
type AccessLevel string

const (
	LevelAdmin  AccessLevel = "admin"
	LevelMember AccessLevel = "member"
	LevelNone   AccessLevel = "none"
)
