package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/KobiNisim21/destiny-commerce/internal/domain/content"
	xerrors "github.com/KobiNisim21/destiny-commerce/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ContentRepository struct {
	db *pgxpool.Pool
}

func NewContentRepository(db *pgxpool.Pool) *ContentRepository {
	return &ContentRepository{db: db}
}

// Upsert creates or replaces the block stored under b.Key.
func (r *ContentRepository) Upsert(ctx context.Context, b *content.Block) error {
	query := `
		INSERT INTO content_blocks (key, title_he, title_en, body_he, body_en, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (key) DO UPDATE
		SET title_he = EXCLUDED.title_he, title_en = EXCLUDED.title_en,
		    body_he = EXCLUDED.body_he, body_en = EXCLUDED.body_en,
		    updated_by = EXCLUDED.updated_by, updated_at = now()
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(
		ctx, query,
		b.Key, b.TitleHe, b.TitleEn, b.BodyHe, b.BodyEn, b.UpdatedBy,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert content block: %w", err)
	}

	return nil
}

func (r *ContentRepository) FindByKey(ctx context.Context, key string) (*content.Block, error) {
	query := `
		SELECT id, key, title_he, title_en, body_he, body_en, updated_by, created_at, updated_at
		FROM content_blocks
		WHERE key = $1
	`

	var b content.Block
	err := r.db.QueryRow(ctx, query, key).Scan(
		&b.ID, &b.Key, &b.TitleHe, &b.TitleEn, &b.BodyHe, &b.BodyEn,
		&b.UpdatedBy, &b.CreatedAt, &b.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find content block: %w", err)
	}

	return &b, nil
}

func (r *ContentRepository) List(ctx context.Context) ([]content.Block, error) {
	query := `
		SELECT id, key, title_he, title_en, body_he, body_en, updated_by, created_at, updated_at
		FROM content_blocks
		ORDER BY key
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list content blocks: %w", err)
	}
	defer rows.Close()

	var blocks []content.Block
	for rows.Next() {
		var b content.Block
		if err := rows.Scan(
			&b.ID, &b.Key, &b.TitleHe, &b.TitleEn, &b.BodyHe, &b.BodyEn,
			&b.UpdatedBy, &b.CreatedAt, &b.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan content block: %w", err)
		}
		blocks = append(blocks, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read content blocks: %w", err)
	}

	return blocks, nil
}

func (r *ContentRepository) Delete(ctx context.Context, key string) error {
	query := `DELETE FROM content_blocks WHERE key = $1`

	result, err := r.db.Exec(ctx, query, key)
	if err != nil {
		return fmt.Errorf("failed to delete content block: %w", err)
	}

	if result.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}

	return nil
}
