package application

import "github.com/ericfisherdev/p4panel/internal/domain/model"

// MergeCredential fills Server, User and Ticket in req from the persisted
// credential. Request values always win. The persisted ticket is only reused
// when the resolved server and user both match the persisted ones, so a
// ticket is never sent to a server or on behalf of a user it was not issued
// for. All other fields are returned unchanged.
func MergeCredential(req model.ConnectionRequest, cred *model.Credential) model.ConnectionRequest {
	if cred == nil {
		return req
	}

	merged := req
	if merged.Server == "" {
		merged.Server = cred.Server
	}
	if merged.User == "" {
		merged.User = cred.User
	}
	if merged.Ticket == "" && merged.Server == cred.Server && merged.User == cred.User {
		merged.Ticket = cred.Ticket
	}
	return merged
}
