package connection

import (
	"encoding/json"
	"time"
)

type Provider string

const (
	ProviderLinkedIn Provider = "linkedin"
	ProviderGitHub   Provider = "github"
)

func ParseProvider(s string) (Provider, error) {
	switch p := Provider(s); p {
	case ProviderLinkedIn, ProviderGitHub:
		return p, nil
	}
	return "", ErrInvalidProvider
}

// Connection is the per (employee, provider) record. ConnectedAt is the time
// of the most recent connect and is part of the enrichment snapshot key.
type Connection struct {
	EmployeeID     string
	Provider       Provider
	Connected      bool
	ConnectedAt    *time.Time
	DisconnectedAt *time.Time
	AccessToken    *string
	ProfilePayload json.RawMessage
	UpdatedAt      time.Time
}

// Grant is what a successful OAuth exchange hands to the store.
type Grant struct {
	AccessToken string
	Profile     json.RawMessage
}

type Status struct {
	LinkedIn bool `json:"linkedin"`
	GitHub   bool `json:"github"`
}

// Snapshot holds the currently connected providers of one employee.
type Snapshot struct {
	LinkedIn *Connection
	GitHub   *Connection
}

func NewSnapshot(connections []Connection) Snapshot {
	var s Snapshot
	for i := range connections {
		c := connections[i]
		if !c.Connected {
			continue
		}
		switch c.Provider {
		case ProviderLinkedIn:
			s.LinkedIn = &c
		case ProviderGitHub:
			s.GitHub = &c
		}
	}
	return s
}

func (s Snapshot) Status() Status {
	return Status{LinkedIn: s.LinkedIn != nil, GitHub: s.GitHub != nil}
}
