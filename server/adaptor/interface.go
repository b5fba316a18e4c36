package adaptor

import (
	"context"

	"github.com/ponyo877/lanshare/server/domain"
	"github.com/ponyo877/lanshare/server/usecase"
)

type Usecase interface {
	Peers() usecase.PeerStats
	Contents() []domain.ContentItem
	Content(itemID string) (domain.ContentItem, error)
	ListMessages(limit int) []domain.ChatMessage
	SearchMessages(ctx context.Context, pattern string, limit int) ([]domain.ChatMessage, error)
	Stats() usecase.Stats
}

type Dispatcher interface {
	HandleRequest(ctx context.Context, sessionID string, req domain.Request) error
	HandleSessionClosed(ctx context.Context, sessionID string)
}

type Broadcaster interface {
	Subscribe(sessionID string) (*domain.Subscription, error)
	SendTo(sessionID string, event domain.Event) error
}
