package model

// OpenedFile is a file opened for edit, add, delete or similar in some
// workspace. The server reports a variable set of fields depending on its
// version and configuration, so every field is kept in Fields; the well-known
// ones are promoted for convenience.
type OpenedFile struct {
	DepotFile string
	User      string
	Client    string
	Action    string
	Fields    map[string]string
}
