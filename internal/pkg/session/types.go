package session

import "time"

// SessionData is the redis-resident record for one issued access token.
// A token whose jti has no session record is treated as revoked.
type SessionData struct {
	JTI            string    `json:"jti"`
	UserID         int64     `json:"user_id"`
	Email          string    `json:"email"`
	Roles          []string  `json:"roles"`
	IP             string    `json:"ip,omitempty"`
	UserAgent      string    `json:"user_agent,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
	ExpiresAt      time.Time `json:"expires_at"`
}
