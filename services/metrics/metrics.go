package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"keylight-go/errcode"
)

// Recorder counts LED writes, write failures and sub-state transitions.
// A nil *Recorder is valid and records nothing.
type Recorder struct {
	writes      *prometheus.CounterVec
	failures    *prometheus.CounterVec
	transitions *prometheus.CounterVec
	level       *prometheus.GaugeVec
}

// New registers the lighting collectors with reg.
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		writes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "keylight_led_writes_total",
			Help: "Brightness writes issued per LED array",
		}, []string{"array"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "keylight_led_write_failures_total",
			Help: "Brightness writes that failed or were skipped, by error code",
		}, []string{"array", "code"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "keylight_substate_transitions_total",
			Help: "Sub-state entries per lighting controller",
		}, []string{"controller", "state"}),
		level: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "keylight_led_level",
			Help: "Last brightness level written per LED array (0-100)",
		}, []string{"array"}),
	}
	reg.MustRegister(r.writes, r.failures, r.transitions, r.level)
	return r
}

func (r *Recorder) Write(array string, level uint8) {
	if r == nil {
		return
	}
	r.writes.WithLabelValues(array).Inc()
	r.level.WithLabelValues(array).Set(float64(level))
}

func (r *Recorder) WriteFailure(array string, code errcode.Code) {
	if r == nil {
		return
	}
	r.failures.WithLabelValues(array, string(code)).Inc()
}

func (r *Recorder) Transition(controller, state string) {
	if r == nil {
		return
	}
	r.transitions.WithLabelValues(controller, state).Inc()
}

// Handler exposes the gatherer in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
