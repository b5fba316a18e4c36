package usecase

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/ponyo877/lanshare/server/domain"
)

var (
	messageLimit int = 1000

	ErrArchiveDisabled = errors.New("message archive disabled")
	ErrInvalidPattern  = errors.New("invalid search pattern")
)

// Usecase answers the read-only queries of the HTTP API.
type Usecase struct {
	state     *domain.State
	repo      Repository
	startTime time.Time
}

type PeerStats struct {
	TotalPeers int
	Peers      []domain.Session
}

type Stats struct {
	Sessions  int
	Contents  int
	Messages  int
	Broadcast domain.BroadcastStats
	Uptime    time.Duration
}

func NewUsecase(state *domain.State, repo Repository) *Usecase {
	return &Usecase{
		state:     state,
		repo:      repo,
		startTime: time.Now(),
	}
}

func (u *Usecase) Peers() PeerStats {
	peers := u.state.Sessions.List()
	return PeerStats{
		TotalPeers: len(peers),
		Peers:      peers,
	}
}

func (u *Usecase) Contents() []domain.ContentItem {
	return u.state.Contents.Snapshot()
}

func (u *Usecase) Content(itemID string) (domain.ContentItem, error) {
	item, ok := u.state.Contents.Get(itemID)
	if !ok {
		return domain.ContentItem{}, fmt.Errorf("content %q: %w", itemID, domain.ErrContentNotFound)
	}
	return item, nil
}

// ListMessages returns up to limit of the newest messages in the live log.
func (u *Usecase) ListMessages(limit int) []domain.ChatMessage {
	return u.state.Messages.Recent(clampLimit(limit))
}

// SearchMessages runs a regular expression over the archive.
func (u *Usecase) SearchMessages(ctx context.Context, pattern string, limit int) ([]domain.ChatMessage, error) {
	if u.repo == nil {
		return nil, ErrArchiveDisabled
	}
	if _, err := regexp.Compile(pattern); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
	}
	messages, err := u.repo.SearchMessages(ctx, pattern, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("error searching messages: %w", err)
	}
	return messages, nil
}

func (u *Usecase) Stats() Stats {
	return Stats{
		Sessions:  u.state.Sessions.Count(),
		Contents:  u.state.Contents.Len(),
		Messages:  u.state.Messages.Len(),
		Broadcast: u.state.Broadcaster.Stats(),
		Uptime:    time.Since(u.startTime),
	}
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > messageLimit {
		return messageLimit
	}
	return limit
}
