// Пакет metrics содержит счетчики Prometheus ядра редактора.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "docedit"

type Metrics struct {
	Transactions      prometheus.Counter
	CommandExecutions *prometheus.CounterVec
	CommandErrors     *prometheus.CounterVec
	RenderPasses      prometheus.Counter
	DroppedMarkers    prometheus.Counter
	ActiveSessions    prometheus.Gauge
	BootTime          prometheus.Gauge
}

func New() *Metrics {
	return &Metrics{
		Transactions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_total",
			Help:      "Total count of completed model transactions",
		}),
		CommandExecutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "command_executions_total",
			Help:      "Total count of executed editor commands",
		}, []string{"command"}),
		CommandErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "command_errors_total",
			Help:      "Total count of editor commands finished with error",
		}, []string{"command"}),
		RenderPasses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "render_passes_total",
			Help:      "Total count of model to view render passes",
		}),
		DroppedMarkers: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dropped_view_markers_total",
			Help:      "Total count of view markers dropped while parsing documents",
		}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Count of open editing sessions",
		}),
		BootTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "boot_time",
			Help:      "Server startup time",
		}),
	}
}

// Register регистрирует все метрики. Повторная регистрация не считается ошибкой.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	m.BootTime.Set(float64(time.Now().UnixMilli()))
	for _, c := range []prometheus.Collector{
		m.Transactions, m.CommandExecutions, m.CommandErrors,
		m.RenderPasses, m.DroppedMarkers, m.ActiveSessions, m.BootTime,
	} {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveCommand учитывает выполнение команды.
func (m *Metrics) ObserveCommand(name string, err error) {
	if m == nil {
		return
	}
	m.CommandExecutions.WithLabelValues(name).Inc()
	if err != nil {
		m.CommandErrors.WithLabelValues(name).Inc()
	}
}
