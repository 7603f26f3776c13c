package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce         sync.Once
	apiRequestsTotal     *prometheus.CounterVec
	apiLatencySeconds    *prometheus.HistogramVec
	apiErrorsTotal       *prometheus.CounterVec
	progressWritesTotal  *prometheus.CounterVec
	courseCompletions    *prometheus.CounterVec
	certificateIssuance  *prometheus.CounterVec
	certificateEmails    *prometheus.CounterVec
	certificateLookups   *prometheus.CounterVec
	guardDecisionsTotal  *prometheus.CounterVec
	examSubmissionsTotal *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ceu_api_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ceu_api_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ceu_api_errors_total",
			Help: "Total number of error responses returned by API endpoints.",
		}, []string{"method", "route", "status"})

		progressWritesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ceu_progress_writes_total",
			Help: "Progress update writes by outcome.",
		}, []string{"outcome"})

		courseCompletions = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ceu_course_completions_total",
			Help: "Completion calls by outcome.",
		}, []string{"outcome"})

		certificateIssuance = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ceu_certificate_issuance_total",
			Help: "Certificate issuance calls by outcome.",
		}, []string{"outcome"})

		certificateEmails = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ceu_certificate_emails_total",
			Help: "Certificate notification delivery attempts by outcome.",
		}, []string{"outcome"})

		certificateLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ceu_certificate_verifications_total",
			Help: "Public certificate verification lookups by outcome.",
		}, []string{"outcome"})

		guardDecisionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ceu_guard_decisions_total",
			Help: "Course access guard decisions by variant and reason.",
		}, []string{"variant", "reason"})

		examSubmissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ceu_exam_submissions_total",
			Help: "Exam submissions by pass state.",
		}, []string{"passed"})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			progressWritesTotal,
			courseCompletions,
			certificateIssuance,
			certificateEmails,
			certificateLookups,
			guardDecisionsTotal,
			examSubmissionsTotal,
		)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// ProgressWrites counts progress update outcomes.
func ProgressWrites() *prometheus.CounterVec {
	RegisterMetrics()
	return progressWritesTotal
}

// CourseCompletions counts completion outcomes.
func CourseCompletions() *prometheus.CounterVec {
	RegisterMetrics()
	return courseCompletions
}

// CertificateIssuance counts issuer outcomes: created, existing, reissued, error.
func CertificateIssuance() *prometheus.CounterVec {
	RegisterMetrics()
	return certificateIssuance
}

// CertificateEmails counts notification outcomes: sent, failed, skipped.
func CertificateEmails() *prometheus.CounterVec {
	RegisterMetrics()
	return certificateEmails
}

// CertificateVerifications counts public lookups.
func CertificateVerifications() *prometheus.CounterVec {
	RegisterMetrics()
	return certificateLookups
}

// GuardDecisions counts access guard decisions.
func GuardDecisions() *prometheus.CounterVec {
	RegisterMetrics()
	return guardDecisionsTotal
}

// ExamSubmissions counts exam submissions.
func ExamSubmissions() *prometheus.CounterVec {
	RegisterMetrics()
	return examSubmissionsTotal
}
