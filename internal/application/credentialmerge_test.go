package application

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ericfisherdev/p4panel/internal/domain/model"
)

func TestMergeCredential(t *testing.T) {
	saved := &model.Credential{Server: "ssl:p4:1666", User: "alice", Ticket: "SAVED"}

	tests := []struct {
		name       string
		req        model.ConnectionRequest
		cred       *model.Credential
		wantServer string
		wantUser   string
		wantTicket string
	}{
		{
			name:       "empty request takes everything from saved",
			req:        model.ConnectionRequest{},
			cred:       saved,
			wantServer: "ssl:p4:1666",
			wantUser:   "alice",
			wantTicket: "SAVED",
		},
		{
			name:       "same server and user reuse saved ticket",
			req:        model.ConnectionRequest{Server: "ssl:p4:1666", User: "alice"},
			cred:       saved,
			wantServer: "ssl:p4:1666",
			wantUser:   "alice",
			wantTicket: "SAVED",
		},
		{
			name:       "different server only drops saved ticket",
			req:        model.ConnectionRequest{Server: "other:1666"},
			cred:       saved,
			wantServer: "other:1666",
			wantUser:   "alice",
			wantTicket: "",
		},
		{
			name:       "different user only drops saved ticket",
			req:        model.ConnectionRequest{User: "bob"},
			cred:       saved,
			wantServer: "ssl:p4:1666",
			wantUser:   "bob",
			wantTicket: "",
		},
		{
			name:       "request ticket wins",
			req:        model.ConnectionRequest{Ticket: "FRESH"},
			cred:       saved,
			wantServer: "ssl:p4:1666",
			wantUser:   "alice",
			wantTicket: "FRESH",
		},
		{
			name:       "no saved credential",
			req:        model.ConnectionRequest{Server: "p4:1666", User: "carol"},
			cred:       nil,
			wantServer: "p4:1666",
			wantUser:   "carol",
			wantTicket: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MergeCredential(tt.req, tt.cred)

			assert.Equal(t, tt.wantServer, got.Server)
			assert.Equal(t, tt.wantUser, got.User)
			assert.Equal(t, tt.wantTicket, got.Ticket)
		})
	}
}

func TestMergeCredential_PassesThroughOtherFields(t *testing.T) {
	req := model.ConnectionRequest{
		Password:   "hunter2",
		Client:     "alice-ws",
		TargetUser: "bob",
		Limit:      25,
	}

	got := MergeCredential(req, &model.Credential{Server: "p4:1666", User: "alice", Ticket: "T"})

	assert.Equal(t, "hunter2", got.Password)
	assert.Equal(t, "alice-ws", got.Client)
	assert.Equal(t, "bob", got.TargetUser)
	assert.Equal(t, 25, got.Limit)
}
