package web

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"nyota-pay/internal/config"
	"nyota-pay/internal/infra/logging"
	"nyota-pay/internal/usecase"
)

// RateLimiter is what the initiate handler needs from the redis limiter; a
// nil limiter disables throttling.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type Server struct {
	paymentUC usecase.PaymentUseCase
	limiter   RateLimiter
	rate      config.RateLimitConfig
	log       *zerolog.Logger
}

func NewServer(paymentUC usecase.PaymentUseCase, limiter RateLimiter, rate config.RateLimitConfig, logger *zerolog.Logger) *Server {
	return &Server{paymentUC: paymentUC, limiter: limiter, rate: rate, log: logger}
}

// Router builds the public API. The intake UI is served from another
// origin, so the payment routes are CORS-permissive by design.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(requestIDContext)
	r.Use(cors)

	r.Route("/api/payments", func(r chi.Router) {
		r.Post("/initiate", s.handleInitiate)
		r.Post("/status", s.handleStatus)
	})

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// requestIDContext carries chi's request id where the log helpers look for
// it, so every line for one request shares the same id.
func requestIDContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := chimw.GetReqID(r.Context()); id != "" {
			r = r.WithContext(logging.WithRequestID(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
