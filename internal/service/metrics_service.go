package service

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the domain
// operations. It satisfies the metrics interfaces the other services declare.
type MetricsService struct {
	registry *prometheus.Registry
	handler  http.Handler

	enrollmentsTotal     prometheus.Counter
	enrollmentRejections *prometheus.CounterVec
	prereqAssignments    prometheus.Counter
	prereqCycleRejects   prometheus.Counter
	gradePromotions      prometheus.Counter
	deletionsBlocked     *prometheus.CounterVec
	prereqWalkNodes      prometheus.Histogram
}

// NewMetricsService registers the domain collectors on a fresh registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	enrollmentsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "enrollments_total",
		Help: "Total enrollments created",
	})
	enrollmentRejections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "enrollment_rejections_total",
		Help: "Enrollments rejected, by reason",
	}, []string{"reason"})
	prereqAssignments := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "prerequisite_assignments_total",
		Help: "Successful prerequisite set assignments",
	})
	prereqCycleRejects := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "prerequisite_cycle_rejections_total",
		Help: "Prerequisite assignments rejected because they would close a cycle",
	})
	gradePromotions := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "grade_promotions_total",
		Help: "Enrollments promoted to APPROVED by a passing grade",
	})
	deletionsBlocked := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "deletions_blocked_total",
		Help: "Deletions refused by referential integrity guards, by entity",
	}, []string{"entity"})
	prereqWalkNodes := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "prerequisite_walk_nodes",
		Help:    "Nodes visited per prerequisite graph walk",
		Buckets: []float64{1, 2, 5, 10, 25, 50, 100},
	})

	registry.MustRegister(
		enrollmentsTotal,
		enrollmentRejections,
		prereqAssignments,
		prereqCycleRejects,
		gradePromotions,
		deletionsBlocked,
		prereqWalkNodes,
	)

	return &MetricsService{
		registry:             registry,
		handler:              promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		enrollmentsTotal:     enrollmentsTotal,
		enrollmentRejections: enrollmentRejections,
		prereqAssignments:    prereqAssignments,
		prereqCycleRejects:   prereqCycleRejects,
		gradePromotions:      gradePromotions,
		deletionsBlocked:     deletionsBlocked,
		prereqWalkNodes:      prereqWalkNodes,
	}
}

// Handler exposes the registry for the embedding gateway's scrape endpoint.
func (m *MetricsService) Handler() http.Handler {
	return m.handler
}

// Registry exposes the underlying registry for test assertions.
func (m *MetricsService) Registry() *prometheus.Registry {
	return m.registry
}

// EnrollmentCreated increments the enrollment counter.
func (m *MetricsService) EnrollmentCreated() {
	m.enrollmentsTotal.Inc()
}

// EnrollmentRejected counts a refused enrollment by reason.
func (m *MetricsService) EnrollmentRejected(reason string) {
	m.enrollmentRejections.WithLabelValues(reason).Inc()
}

// PrerequisitesAssigned counts a successful assignment and observes the walk
// size that validated it.
func (m *MetricsService) PrerequisitesAssigned(walkNodes int) {
	m.prereqAssignments.Inc()
	m.prereqWalkNodes.Observe(float64(walkNodes))
}

// PrerequisiteCycleRejected counts a cycle rejection.
func (m *MetricsService) PrerequisiteCycleRejected() {
	m.prereqCycleRejects.Inc()
}

// GradePromotion counts a grade-forced promotion to APPROVED.
func (m *MetricsService) GradePromotion() {
	m.gradePromotions.Inc()
}

// DeletionBlocked counts a deletion refused by a guard.
func (m *MetricsService) DeletionBlocked(entity string) {
	m.deletionsBlocked.WithLabelValues(entity).Inc()
}
