package newsletter

import "time"

type Subscriber struct {
	ID               int64      `json:"id" db:"id"`
	Email            string     `json:"email" db:"email"`
	UnsubscribeToken string     `json:"-" db:"unsubscribe_token"`
	IsActive         bool       `json:"is_active" db:"is_active"`
	SubscribedAt     time.Time  `json:"subscribed_at" db:"subscribed_at"`
	UnsubscribedAt   *time.Time `json:"unsubscribed_at,omitempty" db:"unsubscribed_at"`
}
