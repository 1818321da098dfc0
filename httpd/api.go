// Package httpd exposes tab planning, URL building and view sessions over
// HTTP.
package httpd

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/lodastack/log"
	"golang.org/x/time/rate"

	"github.com/lodastack/meterboard/common"
	"github.com/lodastack/meterboard/embed"
	"github.com/lodastack/meterboard/limit"
	"github.com/lodastack/meterboard/meter"
	"github.com/lodastack/meterboard/model"
	"github.com/lodastack/meterboard/planner"
	"github.com/lodastack/meterboard/source"
	"github.com/lodastack/meterboard/timerange"
)

const (
	modeWaechter  = "waechter"
	modeDiagramme = "diagramme"

	defaultFanout = 8
)

// Options configure the service.
type Options struct {
	GrafanaBase string
	Dashboard   string
	Refresh     bool
	Kiosk       bool
	// TimeRange is the default catalog value of new sessions.
	TimeRange string

	Debounce   time.Duration
	SessionTTL time.Duration

	// Rate is requests per second per client, 0 disables limiting.
	Rate   float64
	Burst  int
	Fanout int
}

// Service provides HTTP service.
type Service struct {
	addr string
	ln   net.Listener

	router  *httprouter.Router
	handler http.Handler

	src      source.Source
	opts     Options
	builder  *embed.Builder
	plans    *planner.Cache
	sessions *SessionStore
	limiter  *limit.RateLimiter

	done chan struct{}

	logger *log.Logger
}

// New returns an uninitialized HTTP service.
func New(addr string, src source.Source, opts Options) *Service {
	if opts.Fanout <= 0 {
		opts.Fanout = defaultFanout
	}
	s := &Service{
		addr:     addr,
		src:      src,
		opts:     opts,
		router:   httprouter.New(),
		plans:    planner.NewCache(),
		sessions: NewSessionStore(opts.SessionTTL),
		done:     make(chan struct{}),
		logger:   log.New("INFO", "http", model.LogBackend),
	}
	s.builder = embed.NewBuilder(embed.Options{
		GrafanaBase: opts.GrafanaBase,
		Dashboard:   opts.Dashboard,
		Refresh:     opts.Refresh,
		Kiosk:       opts.Kiosk,
		Logger:      s.logger,
	})
	if opts.Rate > 0 {
		s.limiter = limit.NewRateLimiter(rate.Limit(opts.Rate), opts.Burst, 0)
	}
	s.initHandler()
	return s
}

// Handler returns the routed handler with rate limiting applied.
func (s *Service) Handler() http.Handler {
	return s.handler
}

// Start the server
func (s *Service) Start() error {
	server := http.Server{
		Handler: s.handler,
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.ln = ln

	go func() {
		err := server.Serve(s.ln)
		if err != nil {
			s.logger.Errorf("Serve error: %s", err.Error())
		}
	}()
	go s.expireSessions()
	s.logger.Infof("service listening on: %s", s.addr)
	return nil
}

// Close closes the service.
func (s *Service) Close() error {
	close(s.done)
	if s.limiter != nil {
		s.limiter.Stop()
	}
	s.sessions.CloseAll()
	if s.ln != nil {
		return s.ln.Close()
	}
	return nil
}

func (s *Service) expireSessions() {
	tick := time.NewTicker(time.Minute)
	defer tick.Stop()
	for {
		select {
		case now := <-tick.C:
			if ids := s.sessions.Expire(now); len(ids) > 0 {
				s.logger.Infof("expired %d idle sessions", len(ids))
			}
		case <-s.done:
			return
		}
	}
}

func (s *Service) initHandler() {
	s.router.GET("/api/v1/timeranges", s.handlerTimeRanges)
	s.router.GET("/api/v1/resolve", s.handlerResolve)
	s.router.POST("/api/v1/patch", s.handlerPatch)
	s.router.GET("/api/v1/urls", s.handlerBatchURLs)

	s.router.GET("/api/v1/objects/:objectid/tabs", s.handlerTabs)
	s.router.GET("/api/v1/objects/:objectid/urls", s.handlerURLs)
	s.router.PUT("/api/v1/objects", s.handlerObjectPut)
	s.router.PUT("/api/v1/settings", s.handlerSettingPut)
	s.router.GET("/api/v1/backup", s.handlerBackup)

	s.initSessionHandler()

	s.handler = s.rateLimit(s.router)
}

// rateLimit answers 429 to clients over their budget.
func (s *Service) rateLimit(next http.Handler) http.Handler {
	if s.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow(clientIP(r)) {
			(&Response{HttpStatus: http.StatusTooManyRequests, Msg: "too many requests"}).Write(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		ip, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(ip)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (s *Service) catalog() timerange.Catalog {
	return timerange.Default(time.Now())
}

func parseObjectID(v string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("objectid %q: %w", v, common.ErrInvalidParam)
	}
	return id, nil
}

// objectContext is everything needed to plan and render one object.
type objectContext struct {
	object    model.Object
	reg       *meter.Registry
	builder   *embed.Builder
	timeRange string
	plan      planner.Options
}

// load fetches the object and the grafana settings. Settings are optional:
// a failing settings read is logged and planning goes on without them.
func (s *Service) load(ctx context.Context, objectID int64, mode string) (*objectContext, error) {
	o, err := s.src.Object(ctx, objectID)
	if err != nil {
		return nil, err
	}
	settings, err := s.src.Settings(ctx, model.GrafanaCategory)
	if err != nil {
		s.logger.Errorf("load grafana settings fail, go on without: %s", err.Error())
		settings = nil
	}

	oc := &objectContext{
		object:    o,
		reg:       meter.FromObject(o, s.logger),
		builder:   s.builder,
		timeRange: s.opts.TimeRange,
	}
	base, dashboard := s.opts.GrafanaBase, s.opts.Dashboard
	if setup, ok := model.SetupFromSettings(settings); ok {
		if setup.BaseURL != "" {
			base = setup.BaseURL
		}
		if setup.DefaultDashboard != "" {
			dashboard = setup.DefaultDashboard
		}
		if setup.DefaultTimeRange != "" {
			oc.timeRange = setup.DefaultTimeRange
		}
		oc.builder = s.builder.WithDefaults(base, dashboard)
	}
	oc.plan = planner.Options{
		Waechter:    mode == modeWaechter,
		Diagramme:   mode == modeDiagramme,
		Settings:    settings,
		GrafanaBase: base,
		Dashboard:   dashboard,
		Logger:      s.logger,
	}
	return oc, nil
}

// tabs plans the object through the cache.
func (s *Service) tabs(oc *objectContext) planner.Source {
	return s.plans.Plan(oc.object, oc.plan)
}
