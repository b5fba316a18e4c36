package adaptor

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/ponyo877/lanshare/server/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Options struct {
	AccessCode      string
	StaticDir       string
	MaxMessageBytes int64
	PingPeriod      time.Duration
	PongWait        time.Duration
	WriteWait       time.Duration
	// TrustProxy takes client addresses from forwarding headers. Leave it
	// off unless a reverse proxy sets them.
	TrustProxy bool
	// Gatherer backs /metrics; nil uses the default registry.
	Gatherer prometheus.Gatherer
}

// Adaptor exposes the dispatcher and the read-side queries over HTTP and
// WebSocket.
type Adaptor struct {
	uc          Usecase
	dispatcher  Dispatcher
	broadcaster Broadcaster
	opts        Options
	logger      *zap.Logger
	metrics     *metrics.Metrics
	upgrader    websocket.Upgrader
	tokens      *tokenStore
}

func NewAdaptor(uc Usecase, dispatcher Dispatcher, broadcaster Broadcaster, opts Options, logger *zap.Logger, m *metrics.Metrics) *Adaptor {
	if opts.MaxMessageBytes <= 0 {
		opts.MaxMessageBytes = 1 << 20
	}
	if opts.PongWait <= 0 {
		opts.PongWait = 60 * time.Second
	}
	if opts.PingPeriod <= 0 || opts.PingPeriod >= opts.PongWait {
		opts.PingPeriod = opts.PongWait * 9 / 10
	}
	if opts.WriteWait <= 0 {
		opts.WriteWait = 10 * time.Second
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	return &Adaptor{
		uc:          uc,
		dispatcher:  dispatcher,
		broadcaster: broadcaster,
		opts:        opts,
		logger:      logger,
		metrics:     m,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Browsers on the LAN load the page from whatever address the
			// server answered on.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		tokens: newTokenStore(maxTokens),
	}
}

func (a *Adaptor) Routes() http.Handler {
	r := chi.NewRouter()
	if a.opts.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(middleware.Recoverer)

	r.Get("/healthz", a.handleHealthz)
	r.Handle("/metrics", promhttp.HandlerFor(a.opts.Gatherer, promhttp.HandlerOpts{}))
	r.Post("/api/auth", a.handleAuth)

	r.Group(func(r chi.Router) {
		r.Use(a.requireToken)
		r.Get("/ws", a.ServeWS)
		r.Get("/api/peers", a.handlePeers)
		r.Get("/api/files", a.handleFiles)
		r.Get("/api/files/{id}", a.handleFile)
		r.Get("/api/messages", a.handleMessages)
		r.Get("/api/stats", a.handleStats)
	})

	if a.opts.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(a.opts.StaticDir)))
	}
	return r
}
