package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	PurposeLive        = "live"
	PurposeCalibration = "calibration"

	ResultOK     = "ok"
	ResultNoEcho = "no_echo"
)

// Metrics holds the station's Prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	CyclesTotal        prometheus.Counter
	CycleDuration      prometheus.Histogram
	SamplesTotal       *prometheus.CounterVec
	WaterLevelPercent  prometheus.Gauge
	DistanceCM         prometheus.Gauge
	BaselineDepthCM    prometheus.Gauge
	MonitoringActive   prometheus.Gauge
	ConfigChangesTotal *prometheus.CounterVec
	UplinkSendsTotal   *prometheus.CounterVec
}

func New(deviceID string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(prometheus.WrapRegistererWith(prometheus.Labels{"device_id": deviceID}, reg))

	return &Metrics{
		registry: reg,

		CyclesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "levelmon",
			Subsystem: "cycle",
			Name:      "runs_total",
			Help:      "Total number of periodic measurement cycles",
		}),
		CycleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "levelmon",
			Subsystem: "cycle",
			Name:      "duration_seconds",
			Help:      "Duration of periodic measurement cycles",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1},
		}),
		SamplesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "levelmon",
			Subsystem: "sonar",
			Name:      "samples_total",
			Help:      "Ranging samples by purpose and result",
		}, []string{"purpose", "result"}),
		WaterLevelPercent: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "levelmon",
			Subsystem: "water",
			Name:      "level_percent",
			Help:      "Most recent fill percentage",
		}),
		DistanceCM: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "levelmon",
			Subsystem: "water",
			Name:      "distance_cm",
			Help:      "Most recent distance to the water surface",
		}),
		BaselineDepthCM: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "levelmon",
			Subsystem: "calibration",
			Name:      "baseline_depth_cm",
			Help:      "Calibrated container depth, 0 when uncalibrated",
		}),
		MonitoringActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "levelmon",
			Subsystem: "monitoring",
			Name:      "active",
			Help:      "1 while live monitoring is enabled",
		}),
		ConfigChangesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "levelmon",
			Subsystem: "config",
			Name:      "changes_total",
			Help:      "Configuration requests by kind and outcome",
		}, []string{"kind", "outcome"}),
		UplinkSendsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "levelmon",
			Subsystem: "uplink",
			Name:      "sends_total",
			Help:      "Uplink send attempts by outcome",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveSample(purpose string, ok bool) {
	result := ResultOK
	if !ok {
		result = ResultNoEcho
	}
	m.SamplesTotal.WithLabelValues(purpose, result).Inc()
}

func (m *Metrics) ObserveConfig(kind string, err error) {
	outcome := "accepted"
	if err != nil {
		outcome = "rejected"
	}
	m.ConfigChangesTotal.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) ObserveUplink(err error) {
	outcome := "sent"
	if err != nil {
		outcome = "failed"
	}
	m.UplinkSendsTotal.WithLabelValues(outcome).Inc()
}
