// Package httpapi exposes the account services over HTTP. Routes and
// action names match the endpoints the web frontend already calls.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/accounts/internal/logging"
	"github.com/dmitrijs2005/accounts/internal/server/models"
	"github.com/dmitrijs2005/accounts/internal/server/services"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

type AccountService interface {
	Register(ctx context.Context, email, password string) (*services.RegisterResult, error)
	VerifyEmail(ctx context.Context, email, code string) (*services.SessionResult, error)
	Login(ctx context.Context, email, password string) (*services.SessionResult, error)
	SessionUser(ctx context.Context, token string) (*models.PublicUser, error)
	RequestPasswordReset(ctx context.Context, email string) (*services.MessageResult, error)
	VerifyResetCode(ctx context.Context, email, code string) (*services.ResetCodeCheck, error)
	ResetPassword(ctx context.Context, email, code, newPassword string) (*services.MessageResult, error)
	DeleteAccount(ctx context.Context, token string) (*services.MessageResult, error)
}

type DonationService interface {
	Record(ctx context.Context, userID string, amount float64) (*models.Donation, error)
	List(ctx context.Context, userID string) (*services.DonationSummary, error)
}

type SubscriptionService interface {
	Subscribe(ctx context.Context, email string) (*services.SubscriptionResult, error)
	Unsubscribe(ctx context.Context, token, email string) (*services.SubscriptionResult, error)
	Status(ctx context.Context, email string) (*services.SubscriptionStatus, error)
}

// HealthFunc reports whether the backing store is reachable.
type HealthFunc func(ctx context.Context) error

type Server struct {
	address         string
	logger          logging.Logger
	accounts        AccountService
	donations       DonationService
	subscriptions   SubscriptionService
	health          HealthFunc
	limiter         *RateLimiter
	trustProxy      bool
	shutdownTimeout time.Duration
}

func NewServer(
	address string,
	l logging.Logger,
	accounts AccountService,
	donations DonationService,
	subscriptions SubscriptionService,
	health HealthFunc,
	limiter *RateLimiter,
	trustProxy bool,
	shutdownTimeout time.Duration,
) *Server {
	return &Server{
		address:         address,
		logger:          l.With("module", "http_server"),
		accounts:        accounts,
		donations:       donations,
		subscriptions:   subscriptions,
		health:          health,
		limiter:         limiter,
		trustProxy:      trustProxy,
		shutdownTimeout: shutdownTimeout,
	}
}

// Handler builds the router with every route and middleware installed.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	// Forwarding headers are client controlled unless a proxy rewrites them.
	if s.trustProxy {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(accessLog(s.logger))
	r.Use(chimiddleware.Recoverer)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusNotFound, "not_found", "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
	})

	r.Get("/healthz", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(s.limiter.Handler)

		r.Post("/auth", s.handleAuthAction)
		r.Get("/auth", s.handleSessionUser)

		r.Post("/account", s.handleAccountAction)
		r.Delete("/account", s.handleDeleteAccount)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.requireSession)

		r.Get("/donations", s.handleListDonations)
		r.Post("/donations", s.handleCreateDonation)
	})

	r.Post("/subscriptions", s.handleSubscriptionAction)

	return r
}

// Run serves until ctx is cancelled, then drains in-flight requests for up
// to the shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

func (s *Server) Serve(ctx context.Context, listen net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	stopped := make(chan error, 1)
	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout)
		defer cancel()
		stopped <- srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return <-stopped
}
