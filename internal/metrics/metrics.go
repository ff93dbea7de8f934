package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sns_http_requests_total",
		Help: "HTTP requests by route, method and status",
	}, []string{"route", "method", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sns_http_request_duration_seconds",
		Help:    "HTTP request latency by route",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})

	// IdempotentNoops counts writes that found the target state already in place,
	// for example a repeated follow or an unlike of a post that was never liked.
	IdempotentNoops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sns_idempotent_noops_total",
		Help: "Idempotent writes that changed nothing",
	}, []string{"op"})

	// ConversationConflicts counts creation races recovered by re-reading the winner.
	ConversationConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sns_conversation_conflicts_recovered_total",
		Help: "Conversation creations that lost a race and returned the existing row",
	})

	MessagesMarkedRead = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sns_messages_marked_read_total",
		Help: "Messages transitioned from unread to read",
	})

	EventsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sns_events_processed_total",
		Help: "Stream events handled by workers, by type and result",
	}, []string{"type", "result"})

	IdentityCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sns_identity_cache_lookups_total",
		Help: "Identity cache lookups by result (hit, miss, error)",
	}, []string{"result"})
)

// Middleware records request counts and latency keyed by the chi route pattern,
// so path parameters do not explode label cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		httpRequests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		httpDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}
