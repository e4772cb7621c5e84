package model

// Workspace is a Perforce client workspace owned by a user.
type Workspace struct {
	Name string
}
