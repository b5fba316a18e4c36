package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/ponyo877/lanshare/server/domain"
	"github.com/ponyo877/lanshare/server/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/ponyo877/lanshare/server/usecase"

var (
	ErrNotJoined      = errors.New("session has not joined")
	ErrAlreadyJoined  = errors.New("session already joined")
	ErrInvalidRequest = errors.New("invalid request")
	ErrPanic          = errors.New("request handler panicked")
)

// Dispatcher is the entry point for everything a session sends. It applies
// each request to the shared state and publishes the resulting events, either
// to every subscriber or to exactly one.
//
// Errors returned by HandleRequest describe the outcome for logging; whenever
// the session should hear about a failure, the dispatcher has already sent it
// an error event.
//
// Every registry mutation and the publish of its result happen under mu, so
// subscribers observe snapshots and counts in the order the mutations were
// applied.
type Dispatcher struct {
	mu      sync.Mutex
	state   *domain.State
	router  *Router
	repo    Repository
	logger  *zap.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
	now     func() time.Time
	newID   func() string
}

type Option func(*Dispatcher)

func WithRepository(repo Repository) Option {
	return func(d *Dispatcher) {
		d.repo = repo
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		d.now = now
	}
}

// WithTracer replaces the tracer taken from the global provider.
func WithTracer(tracer trace.Tracer) Option {
	return func(d *Dispatcher) {
		d.tracer = tracer
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(d *Dispatcher) {
		d.newID = newID
	}
}

func NewDispatcher(state *domain.State, logger *zap.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		state:  state,
		router: NewRouter(state),
		logger: logger,
		tracer: otel.Tracer(tracerName),
		now:    time.Now,
		newID:  func() string { return ulid.Make().String() },
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// HandleRequest applies one inbound request from sessionID. A panic while
// handling it is recovered and reported to that session only.
func (d *Dispatcher) HandleRequest(ctx context.Context, sessionID string, req domain.Request) (err error) {
	spanName := "lanshare.request"
	if req != nil {
		spanName = "lanshare." + req.Type().String()
	}
	ctx, span := d.tracer.Start(ctx, spanName,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(attribute.String("lanshare.session_id", sessionID)))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}()
	defer func() {
		if r := recover(); r != nil {
			d.metrics.RecoveredPanic()
			d.logger.Error("Recovered panic while handling request",
				zap.String("session_id", sessionID),
				zap.Any("panic", r),
				zap.Stack("stack"))
			d.sendError(sessionID, "internal error")
			err = fmt.Errorf("%s: %v: %w", sessionID, r, ErrPanic)
		}
	}()

	if req == nil {
		d.sendError(sessionID, "malformed request")
		return ErrInvalidRequest
	}
	d.metrics.Request(req.Type().String())

	if !req.IsValid() {
		d.sendError(sessionID, fmt.Sprintf("invalid %s request", req.Type()))
		return fmt.Errorf("%s from %s: %w", req.Type(), sessionID, ErrInvalidRequest)
	}

	if join, ok := req.(domain.JoinRequest); ok {
		return d.handleJoin(sessionID, join)
	}

	if !d.state.Sessions.Contains(sessionID) {
		d.sendError(sessionID, "join required")
		return fmt.Errorf("%s from %s: %w", req.Type(), sessionID, ErrNotJoined)
	}

	switch r := req.(type) {
	case domain.UploadRequest:
		return d.handleUpload(sessionID, r)
	case domain.DownloadRequest:
		return d.handleDownload(sessionID, r)
	case domain.DownloadCompletedRequest:
		return d.handleDownloadCompleted(sessionID, r)
	case domain.RevokeRequest:
		return d.handleRevoke(sessionID, r)
	case domain.PingRequest:
		return d.unicast(sessionID, domain.PongEvent{})
	case domain.ChatRequest:
		return d.handleChat(ctx, sessionID, r)
	case domain.OfferRequest:
		return d.handleOffer(sessionID, r)
	case domain.AnswerRequest:
		return d.relay("answer", r.PeerID, domain.AnswerEvent{
			ItemID:   r.ItemID,
			FromPeer: sessionID,
			SDP:      r.SDP,
		})
	case domain.IceCandidateRequest:
		return d.relay("ice_candidate", r.PeerID, domain.IceCandidateEvent{
			ItemID:    r.ItemID,
			FromPeer:  sessionID,
			Candidate: r.Candidate,
		})
	case domain.ChunkForwardRequest:
		return d.relay("chunk", r.TargetID, domain.ChunkEvent{
			ItemID:      r.ItemID,
			ChunkIndex:  r.ChunkIndex,
			TotalChunks: r.TotalChunks,
			Data:        r.Data,
			FromID:      sessionID,
			TargetID:    r.TargetID,
		})
	case domain.MetadataForwardRequest:
		return d.relay("metadata", r.TargetID, domain.MetadataEvent{
			ItemID:      r.ItemID,
			Name:        r.Name,
			Size:        r.Size,
			MimeType:    r.MimeType,
			TotalChunks: r.TotalChunks,
			FromID:      sessionID,
			TargetID:    r.TargetID,
		})
	default:
		d.sendError(sessionID, "unsupported request")
		return fmt.Errorf("%T from %s: %w", req, sessionID, ErrInvalidRequest)
	}
}

// HandleSessionClosed runs the disconnect sequence: the session is removed,
// its hosting claims are withdrawn, and the membership and content changes
// are broadcast. Closing a session that never joined does nothing.
func (d *Dispatcher) HandleSessionClosed(ctx context.Context, sessionID string) {
	_, span := d.tracer.Start(ctx, "lanshare.session_closed",
		trace.WithAttributes(attribute.String("lanshare.session_id", sessionID)))
	defer span.End()

	d.mu.Lock()
	defer d.mu.Unlock()
	count, removed := d.state.Sessions.Unregister(sessionID)
	if !removed {
		return
	}
	removedItems, snapshot := d.state.Contents.RemoveSessionHosting(sessionID)

	d.state.Broadcaster.Publish(domain.PeerLeftEvent{SessionID: sessionID, TotalPeers: count})
	for _, itemID := range removedItems {
		d.state.Broadcaster.Publish(domain.ContentRemovedEvent{ItemID: itemID})
	}
	d.state.Broadcaster.Publish(domain.ContentListEvent{Items: snapshot})

	d.metrics.SetSessions(count)
	d.metrics.SetContents(len(snapshot))
	d.logger.Info("Session left",
		zap.String("session_id", sessionID),
		zap.Int("total_peers", count),
		zap.Strings("removed_items", removedItems))
}

func (d *Dispatcher) handleJoin(sessionID string, r domain.JoinRequest) error {
	if r.SessionID != "" && r.SessionID != sessionID {
		d.sendError(sessionID, "session id mismatch")
		return fmt.Errorf("join %s as %s: %w", sessionID, r.SessionID, ErrInvalidRequest)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	session := domain.NewSession(sessionID, r.Remote, r.UserAgent)
	session.JoinedAt = d.now()
	count, err := d.state.Sessions.Register(session)
	if err != nil {
		if errors.Is(err, domain.ErrSessionExists) {
			d.sendError(sessionID, "session already joined")
			return fmt.Errorf("join %s: %w", sessionID, ErrAlreadyJoined)
		}
		d.sendError(sessionID, "invalid session")
		return fmt.Errorf("join %s: %w", sessionID, err)
	}

	d.state.Broadcaster.Publish(domain.ContentListEvent{Items: d.state.Contents.Snapshot()})
	if history := d.state.Messages.Snapshot(); len(history) > 0 {
		if err := d.state.Broadcaster.SendTo(sessionID, domain.ChatHistoryEvent{Messages: history}); err != nil {
			d.logger.Debug("Chat history not delivered", zap.String("session_id", sessionID), zap.Error(err))
		}
	}
	d.state.Broadcaster.Publish(domain.PeerJoinedEvent{Peer: session, TotalPeers: count})

	d.metrics.SetSessions(count)
	d.logger.Info("Session joined",
		zap.String("session_id", sessionID),
		zap.String("remote", session.Remote),
		zap.Int("total_peers", count))
	return nil
}

func (d *Dispatcher) handleUpload(sessionID string, r domain.UploadRequest) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	snapshot, err := d.state.Contents.Upsert(r.Item, sessionID)
	if err != nil {
		d.sendError(sessionID, "invalid content")
		return fmt.Errorf("upload from %s: %w", sessionID, err)
	}
	d.state.Broadcaster.Publish(domain.ContentListEvent{Items: snapshot})
	d.metrics.SetContents(len(snapshot))
	d.logger.Debug("Content advertised",
		zap.String("session_id", sessionID),
		zap.String("item_id", r.Item.ID),
		zap.String("kind", r.Item.Kind.String()))
	return nil
}

func (d *Dispatcher) handleDownload(sessionID string, r domain.DownloadRequest) error {
	if r.RequesterID != "" && r.RequesterID != sessionID {
		d.logger.Debug("Ignoring requester id in download request",
			zap.String("session_id", sessionID),
			zap.String("requester_id", r.RequesterID))
	}

	host, err := d.router.RouteDownload(r.ItemID, sessionID)
	if err == nil {
		err = d.state.Broadcaster.SendTo(host, domain.DownloadRequestEvent{
			HostID:      host,
			ItemID:      r.ItemID,
			RequesterID: sessionID,
		})
	}
	if err != nil {
		d.metrics.Route("download", "no_host")
		d.sendError(sessionID, fmt.Sprintf("no host available for %s", r.ItemID))
		return fmt.Errorf("download %q for %s: %w", r.ItemID, sessionID, ErrNoHost)
	}
	d.metrics.Route("download", "routed")
	return nil
}

func (d *Dispatcher) handleDownloadCompleted(sessionID string, r domain.DownloadCompletedRequest) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	snapshot, err := d.state.Contents.AddHost(r.ItemID, sessionID)
	if err != nil {
		d.sendError(sessionID, fmt.Sprintf("content %s is no longer available", r.ItemID))
		return err
	}
	d.state.Broadcaster.Publish(domain.ContentListEvent{Items: snapshot})
	return nil
}

func (d *Dispatcher) handleRevoke(sessionID string, r domain.RevokeRequest) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	deleted, snapshot, err := d.state.Contents.RemoveHost(r.ItemID, sessionID)
	if err != nil {
		d.sendError(sessionID, fmt.Sprintf("not hosting %s", r.ItemID))
		return err
	}
	if deleted {
		d.state.Broadcaster.Publish(domain.ContentRemovedEvent{ItemID: r.ItemID})
	}
	d.state.Broadcaster.Publish(domain.ContentListEvent{Items: snapshot})
	d.metrics.SetContents(len(snapshot))
	return nil
}

func (d *Dispatcher) handleChat(ctx context.Context, sessionID string, r domain.ChatRequest) error {
	content := strings.TrimSpace(r.Content)
	if content == "" {
		return nil
	}

	message := d.appendChat(sessionID, r.SenderName, content)
	d.metrics.ChatMessage()

	if d.repo != nil {
		if err := d.repo.CreateMessage(ctx, message); err != nil {
			d.logger.Warn("Failed to archive chat message",
				zap.String("message_id", message.ID),
				zap.Error(err))
		}
	}
	return nil
}

// appendChat stores and broadcasts a message in one step, so the live order
// matches the history a later joiner replays.
func (d *Dispatcher) appendChat(sessionID, senderName, content string) domain.ChatMessage {
	d.mu.Lock()
	defer d.mu.Unlock()
	message := domain.NewChatMessage(d.newID(), sessionID, senderName, content, d.now())
	d.state.Messages.Append(message)
	d.state.Broadcaster.Publish(domain.ChatEvent{Message: message})
	return message
}

func (d *Dispatcher) handleOffer(sessionID string, r domain.OfferRequest) error {
	target, err := d.router.RouteOffer(r.ItemID, sessionID, r.TargetID)
	if err != nil {
		d.metrics.Route("offer", "miss")
		d.logger.Debug("Dropping offer", zap.String("session_id", sessionID), zap.Error(err))
		return err
	}
	return d.relay("offer", target, domain.OfferEvent{
		ItemID:   r.ItemID,
		FromPeer: sessionID,
		SDP:      r.SDP,
	})
}

// relay delivers a directly addressed event. A missing target is a benign
// race with its disconnect: the event is dropped and nobody is notified.
func (d *Dispatcher) relay(kind, targetID string, event domain.Event) error {
	target, err := d.router.RouteDirect(targetID)
	if err == nil {
		if sendErr := d.state.Broadcaster.SendTo(target, event); sendErr != nil {
			err = fmt.Errorf("%s: %w", sendErr, ErrRouteMiss)
		}
	}
	if err != nil {
		d.metrics.Route(kind, "miss")
		d.logger.Debug("Dropping relayed message",
			zap.String("type", kind),
			zap.String("target_id", targetID),
			zap.Error(err))
		return err
	}
	d.metrics.Route(kind, "routed")
	return nil
}

func (d *Dispatcher) unicast(sessionID string, event domain.Event) error {
	if err := d.state.Broadcaster.SendTo(sessionID, event); err != nil {
		d.logger.Debug("Unicast not delivered",
			zap.String("session_id", sessionID),
			zap.String("type", event.Type().String()),
			zap.Error(err))
		return err
	}
	return nil
}

func (d *Dispatcher) sendError(sessionID, message string) {
	_ = d.unicast(sessionID, domain.NewErrorEvent(message))
}
