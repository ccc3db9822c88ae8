// Package metrics expone contadores Prometheus del flujo de publicación y revisión.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Workflow agrupa los contadores. Un *Workflow nil es válido y no registra nada.
type Workflow struct {
	submissions     *prometheus.CounterVec
	reviews         *prometheus.CounterVec
	adoptionChanges *prometheus.CounterVec
}

// New registra los contadores en reg. Se usa un registry propio por router
// para que los tests puedan crear varios sin colisiones.
func New(reg prometheus.Registerer) *Workflow {
	w := &Workflow{
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cats_submissions_total",
			Help: "Public cat submissions by result.",
		}, []string{"result"}),
		reviews: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cats_reviews_total",
			Help: "Admin review decisions applied.",
		}, []string{"action"}),
		adoptionChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cats_adoption_changes_total",
			Help: "Adoption status changes by new status.",
		}, []string{"status"}),
	}

	if reg != nil {
		reg.MustRegister(w.submissions, w.reviews, w.adoptionChanges)
	}
	return w
}

func (w *Workflow) Submission(created bool) {
	if w == nil {
		return
	}
	result := "invalid"
	if created {
		result = "created"
	}
	w.submissions.WithLabelValues(result).Inc()
}

func (w *Workflow) Review(action string) {
	if w == nil {
		return
	}
	w.reviews.WithLabelValues(action).Inc()
}

func (w *Workflow) AdoptionChange(status string) {
	if w == nil {
		return
	}
	w.adoptionChanges.WithLabelValues(status).Inc()
}
