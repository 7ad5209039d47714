package content

import (
	"context"
	"database/sql"

	"github.com/KobiNisim21/destiny-commerce/internal/domain/content"

	"go.uber.org/zap"
)

type Store interface {
	Upsert(ctx context.Context, b *content.Block) error
	FindByKey(ctx context.Context, key string) (*content.Block, error)
	List(ctx context.Context) ([]content.Block, error)
	Delete(ctx context.Context, key string) error
}

type Service struct {
	blocks Store
	logger *zap.Logger
}

func NewService(blocks Store, logger *zap.Logger) *Service {
	return &Service{blocks: blocks, logger: logger}
}

// GetBlock returns one content block for public rendering.
func (s *Service) GetBlock(ctx context.Context, key string) (*content.Block, error) {
	return s.blocks.FindByKey(ctx, key)
}

// ListBlocks returns every block for the back-office editor.
func (s *Service) ListBlocks(ctx context.Context) ([]content.Block, error) {
	return s.blocks.List(ctx)
}

// UpsertBlock creates or replaces the copy stored under key.
func (s *Service) UpsertBlock(ctx context.Context, key string, editorID int64, req *content.UpsertBlockRequest) (*content.Block, error) {
	b := &content.Block{
		Key:       key,
		TitleHe:   req.TitleHe,
		TitleEn:   sql.NullString{String: req.TitleEn, Valid: req.TitleEn != ""},
		BodyHe:    req.BodyHe,
		BodyEn:    sql.NullString{String: req.BodyEn, Valid: req.BodyEn != ""},
		UpdatedBy: sql.NullInt64{Int64: editorID, Valid: editorID > 0},
	}

	if err := s.blocks.Upsert(ctx, b); err != nil {
		return nil, err
	}

	s.logger.Info("content block saved",
		zap.String("key", key),
		zap.Int64("editor_id", editorID),
	)

	return b, nil
}

func (s *Service) DeleteBlock(ctx context.Context, key string) error {
	if err := s.blocks.Delete(ctx, key); err != nil {
		return err
	}

	s.logger.Info("content block deleted", zap.String("key", key))
	return nil
}
