package usecase

import (
	"context"

	"github.com/ponyo877/lanshare/server/domain"
)

// Repository archives chat messages outside the in-memory log so they can be
// searched. The dispatcher works without one.
type Repository interface {
	CreateMessage(ctx context.Context, message domain.ChatMessage) error
	ListMessages(ctx context.Context, limit int) ([]domain.ChatMessage, error)
	SearchMessages(ctx context.Context, pattern string, limit int) ([]domain.ChatMessage, error)
}
