package auth

import "time"

// Session is a verified admin session decoded from a token
type Session struct {
	ID        string    `json:"id"`
	Subject   string    `json:"subject"`
	Role      string    `json:"role"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (c *Claims) session() *Session {
	s := &Session{
		ID:       c.ID,
		Subject:  c.Subject,
		Role:     c.Role,
		IssuedAt: c.IssuedAt.Time,
	}
	if c.ExpiresAt != nil {
		s.ExpiresAt = c.ExpiresAt.Time
	}
	return s
}
