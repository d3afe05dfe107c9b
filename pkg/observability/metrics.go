package observability

import (
	"context"

	"github.com/aretw0/tracks/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors of the interpreter.
type Metrics struct {
	Commands     *prometheus.CounterVec
	CellsMarked  prometheus.Counter
	CommandErrs  *prometheus.CounterVec
	collectorSet []prometheus.Collector
}

// NewMetrics creates the collectors. Call Register to expose them.
func NewMetrics() *Metrics {
	m := &Metrics{
		Commands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tracks_commands_total",
				Help: "Total number of commands dispatched, by opcode",
			},
			[]string{"opcode"},
		),
		CellsMarked: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "tracks_cells_marked_total",
				Help: "Total number of unit moves that marked a cell",
			},
		),
		CommandErrs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tracks_command_errors_total",
				Help: "Total number of failed commands, by error kind",
			},
			[]string{"kind"},
		),
	}
	m.collectorSet = []prometheus.Collector{m.Commands, m.CellsMarked, m.CommandErrs}
	return m
}

// Register adds the collectors to reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.collectorSet {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Hooks returns lifecycle hooks that record into the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnCommand: func(ctx context.Context, e *domain.CommandEvent) {
			m.Commands.WithLabelValues(string(e.Opcode)).Inc()
		},
		OnMark: func(ctx context.Context, e *domain.MarkEvent) {
			m.CellsMarked.Inc()
		},
		OnError: func(ctx context.Context, e *domain.ErrorEvent) {
			m.CommandErrs.WithLabelValues(domain.ErrorKind(e.Err)).Inc()
		},
	}
}
