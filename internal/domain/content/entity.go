package content

import (
	"database/sql"
	"time"
)

// Block is one editable piece of site copy, keyed by slug (homepage_hero,
// about, shipping_policy...). Hebrew is the primary language of the store;
// English fields may be empty.
type Block struct {
	ID      int64          `json:"id" db:"id"`
	Key     string         `json:"key" db:"key"`
	TitleHe string         `json:"title_he" db:"title_he"`
	TitleEn sql.NullString `json:"title_en,omitempty" db:"title_en"`
	BodyHe  string         `json:"body_he" db:"body_he"`
	BodyEn  sql.NullString `json:"body_en,omitempty" db:"body_en"`

	UpdatedBy sql.NullInt64 `json:"updated_by,omitempty" db:"updated_by"`
	CreatedAt time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt time.Time     `json:"updated_at" db:"updated_at"`
}
