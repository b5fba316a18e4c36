package domain

import (
	"time"
)

type Session struct {
	ID        string
	Remote    string
	UserAgent string
	JoinedAt  time.Time
}

func NewSession(id, remote, userAgent string) Session {
	return Session{
		ID:        id,
		Remote:    remote,
		UserAgent: userAgent,
		JoinedAt:  time.Now(),
	}
}

func (s Session) IsValid() bool {
	return s.ID != ""
}

func (s Session) String() string {
	if s.Remote == "" {
		return s.ID
	}
	return s.ID + "@" + s.Remote
}
