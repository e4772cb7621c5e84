package model

// UserRecord is a Perforce user account.
type UserRecord struct {
	User     string
	FullName string
	Email    string
}
