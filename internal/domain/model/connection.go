package model

// ConnectionRequest carries the fields a browser client sends with each
// query. Server, User and Ticket may be filled in from the persisted
// Credential; everything else is request-only.
type ConnectionRequest struct {
	Server     string
	User       string
	Password   string
	Ticket     string
	Client     string
	TargetUser string
	Limit      int
}

// AuthContext is the set of connection flags for a single p4 invocation.
// It is built per request and never persisted.
type AuthContext struct {
	Server string
	User   string
	Ticket string
	Client string
}

// Auth returns the AuthContext for this request.
func (r ConnectionRequest) Auth() AuthContext {
	return AuthContext{
		Server: r.Server,
		User:   r.User,
		Ticket: r.Ticket,
		Client: r.Client,
	}
}
