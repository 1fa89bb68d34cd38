// Package metrics exports simulation progress as Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cellsim/internal/simulator"
)

const namespace = "cellsim"

// Metrics implements simulator.Callback by updating its collectors.
type Metrics struct {
	steps    prometheus.Counter
	running  prometheus.Gauge
	speed    prometheus.Gauge
	power    *prometheus.GaugeVec
	fuel     prometheus.Gauge
	unmetT   prometheus.Gauge
	tOut     prometheus.Gauge
	energy   *prometheus.GaugeVec
	selfSuff prometheus.Gauge

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them with reg.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		steps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "steps_total",
			Help:      "Simulation steps performed.",
		}),
		running: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "running",
			Help:      "1 while the real-time replay is running.",
		}),
		speed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "speed",
			Help:      "Replay speed in simulated seconds per second.",
		}),
		power: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "root_power_watts",
			Help:      "Root cell power of the last step by carrier and direction.",
		}, []string{"carrier", "direction"}),
		fuel: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "root_fuel_watts",
			Help:      "Fuel power drawn by the root cell's thermal system in the last step.",
		}),
		unmetT: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "root_unmet_thermal_watts",
			Help:      "Thermal load of the root cell not covered by generation in the last step.",
		}),
		tOut: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "outdoor_temperature_celsius",
			Help:      "Outdoor temperature of the last step.",
		}),
		energy: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "energy_kwh",
			Help:      "Accumulated root cell energy by quantity.",
		}, []string{"quantity"}),
		selfSuff: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "self_sufficiency_percent",
			Help:      "Share of electrical load covered by own generation.",
		}),
		gatherer: reg,
	}

	reg.MustRegister(m.steps, m.running, m.speed, m.power, m.fuel, m.unmetT, m.tOut, m.energy, m.selfSuff)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) OnState(s simulator.State) {
	if s.Running {
		m.running.Set(1)
	} else {
		m.running.Set(0)
	}
	m.speed.Set(s.Speed)
}

func (m *Metrics) OnStep(r simulator.StepResult) {
	m.steps.Inc()
	m.power.WithLabelValues("electric", "generation").Set(r.GenE)
	m.power.WithLabelValues("electric", "load").Set(r.LoadE)
	m.power.WithLabelValues("thermal", "generation").Set(r.GenT)
	m.power.WithLabelValues("thermal", "load").Set(r.LoadT)
	m.fuel.Set(r.Fuel)
	m.unmetT.Set(max(0, r.LoadT-r.GenT))
	m.tOut.Set(r.OutdoorTemp)
}

func (m *Metrics) OnSummary(s simulator.Summary) {
	m.energy.WithLabelValues("gen_e").Set(s.GenEKWh)
	m.energy.WithLabelValues("load_e").Set(s.LoadEKWh)
	m.energy.WithLabelValues("gen_t").Set(s.GenTKWh)
	m.energy.WithLabelValues("load_t").Set(s.LoadTKWh)
	m.energy.WithLabelValues("fuel").Set(s.FuelKWh)
	m.energy.WithLabelValues("import").Set(s.ImportKWh)
	m.energy.WithLabelValues("export").Set(s.ExportKWh)
	m.selfSuff.Set(s.SelfSufficiency())
}
