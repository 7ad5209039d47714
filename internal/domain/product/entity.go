package product

import (
	"database/sql"
	"time"

	"github.com/lib/pq"
)

type Product struct {
	ID            int64          `json:"id" db:"id"`
	Slug          string         `json:"slug" db:"slug"`
	NameHe        string         `json:"name_he" db:"name_he"`
	NameEn        string         `json:"name_en" db:"name_en"`
	DescriptionHe sql.NullString `json:"description_he,omitempty" db:"description_he"`
	DescriptionEn sql.NullString `json:"description_en,omitempty" db:"description_en"`

	Price float64 `json:"price" db:"price"`

	// Two independent taxonomy fields; collection coupons match either.
	Section  string `json:"section" db:"section"`
	Category string `json:"category" db:"category"`

	Images   pq.StringArray `json:"images,omitempty" db:"images"`
	Stock    int            `json:"stock" db:"stock"`
	IsActive bool           `json:"is_active" db:"is_active"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
