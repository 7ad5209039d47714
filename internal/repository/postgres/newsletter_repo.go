package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/KobiNisim21/destiny-commerce/internal/domain/newsletter"
	xerrors "github.com/KobiNisim21/destiny-commerce/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type NewsletterRepository struct {
	db *pgxpool.Pool
}

func NewNewsletterRepository(db *pgxpool.Pool) *NewsletterRepository {
	return &NewsletterRepository{db: db}
}

// Subscribe inserts a subscriber or reactivates a previously unsubscribed
// one, keeping the operation idempotent per email.
func (r *NewsletterRepository) Subscribe(ctx context.Context, s *newsletter.Subscriber) error {
	query := `
		INSERT INTO newsletter_subscribers (email, unsubscribe_token, is_active)
		VALUES (lower($1), $2, true)
		ON CONFLICT (email) DO UPDATE
		SET is_active = true, unsubscribed_at = NULL
		RETURNING id, unsubscribe_token, is_active, subscribed_at
	`

	err := r.db.QueryRow(ctx, query, s.Email, s.UnsubscribeToken).Scan(
		&s.ID, &s.UnsubscribeToken, &s.IsActive, &s.SubscribedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	return nil
}

// Unsubscribe deactivates the subscriber owning the token.
func (r *NewsletterRepository) Unsubscribe(ctx context.Context, token string) error {
	query := `
		UPDATE newsletter_subscribers
		SET is_active = false, unsubscribed_at = $1
		WHERE unsubscribe_token = $2 AND is_active = true
	`

	result, err := r.db.Exec(ctx, query, time.Now(), token)
	if err != nil {
		return fmt.Errorf("failed to unsubscribe: %w", err)
	}

	if result.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}

	return nil
}

func (r *NewsletterRepository) FindByEmail(ctx context.Context, email string) (*newsletter.Subscriber, error) {
	query := `
		SELECT id, email, unsubscribe_token, is_active, subscribed_at, unsubscribed_at
		FROM newsletter_subscribers
		WHERE lower(email) = lower($1)
	`

	var s newsletter.Subscriber
	err := r.db.QueryRow(ctx, query, email).Scan(
		&s.ID, &s.Email, &s.UnsubscribeToken, &s.IsActive, &s.SubscribedAt, &s.UnsubscribedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find subscriber: %w", err)
	}

	return &s, nil
}

// ListActive returns every active subscriber, oldest first.
func (r *NewsletterRepository) ListActive(ctx context.Context) ([]newsletter.Subscriber, error) {
	query := `
		SELECT id, email, unsubscribe_token, is_active, subscribed_at, unsubscribed_at
		FROM newsletter_subscribers
		WHERE is_active = true
		ORDER BY subscribed_at
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscribers: %w", err)
	}
	defer rows.Close()

	var subscribers []newsletter.Subscriber
	for rows.Next() {
		var s newsletter.Subscriber
		if err := rows.Scan(
			&s.ID, &s.Email, &s.UnsubscribeToken, &s.IsActive, &s.SubscribedAt, &s.UnsubscribedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan subscriber: %w", err)
		}
		subscribers = append(subscribers, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read subscribers: %w", err)
	}

	return subscribers, nil
}
