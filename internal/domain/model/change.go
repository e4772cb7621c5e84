package model

// Change is a submitted changelist as reported by "p4 changes".
// Desc is nil until the change has been enriched with "p4 describe".
type Change struct {
	Number int
	Date   string // YYYY-MM-DD in UTC; empty when the server time was unparsable.
	User   string
	Client string
	Status string
	Desc   *string
}
