package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "knowledgehub_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "knowledgehub_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	purchasesRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "knowledgehub_purchases_recorded_total",
		Help: "Purchase rows recorded by kind; duplicates count replayed confirmations",
	}, []string{"kind", "result"}) // result: created | duplicate

	lessonValidations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "knowledgehub_lesson_validations_total",
		Help: "Lesson validation attempts by outcome",
	}, []string{"outcome"}) // validated | alreadyValidated | certificationGranted | forbidden

	certificationsIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "knowledgehub_certifications_issued_total",
		Help: "Certifications issued by the roll-up",
	})

	checkoutSessions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "knowledgehub_checkout_sessions_total",
		Help: "Checkout sessions created at the payment provider",
	}, []string{"kind", "result"})

	backfillRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "knowledgehub_backfill_runs_total",
		Help: "Entitlement backfill reconciler runs",
	}, []string{"result"})

	backfilledPurchases = promauto.NewCounter(prometheus.CounterOpts{
		Name: "knowledgehub_backfilled_lesson_purchases_total",
		Help: "Lesson purchases created by the backfill reconciler",
	})

	entitlementCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "knowledgehub_entitlement_cache_lookups_total",
		Help: "Entitlement cache lookups by result",
	}, []string{"result"}) // hit | miss | error
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObservePurchase records a purchase write attempt.
func ObservePurchase(kind string, created bool) {
	result := "duplicate"
	if created {
		result = "created"
	}
	purchasesRecorded.WithLabelValues(kind, result).Inc()
}

// ObserveValidation records a lesson validation attempt by outcome.
func ObserveValidation(outcome string) {
	lessonValidations.WithLabelValues(outcome).Inc()
}

// ObserveCertificationIssued increments the certification counter.
func ObserveCertificationIssued() {
	certificationsIssued.Inc()
}

// ObserveCheckoutSession records a checkout session attempt.
func ObserveCheckoutSession(kind, result string) {
	checkoutSessions.WithLabelValues(kind, result).Inc()
}

// ObserveBackfillRun records one reconciler pass.
func ObserveBackfillRun(result string, created int) {
	backfillRuns.WithLabelValues(result).Inc()
	if created > 0 {
		backfilledPurchases.Add(float64(created))
	}
}

// ObserveEntitlementCache records a cache lookup result.
func ObserveEntitlementCache(result string) {
	entitlementCacheLookups.WithLabelValues(result).Inc()
}
