// Package metrics exports device activity and readings to Prometheus.
package metrics

import (
	"math"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sweeney/smartsuite/internal/actuator"
	"github.com/sweeney/smartsuite/internal/logic"
	"github.com/sweeney/smartsuite/internal/reactor"
	"github.com/sweeney/smartsuite/internal/sensor"
)

const namespace = "smartsuite"

// Metrics holds the device collectors. It implements logic.Observer.
type Metrics struct {
	registry *prometheus.Registry

	Events         *prometheus.CounterVec
	Commands       *prometheus.CounterVec
	Alerts         *prometheus.CounterVec
	PublishErrors  *prometheus.CounterVec
	SensorFailures *prometheus.CounterVec

	Temperature   prometheus.Gauge
	Humidity      prometheus.Gauge
	Smoke         prometheus.Gauge
	ServoPosition *prometheus.GaugeVec
	GasAlert      prometheus.Gauge
	MQTTConnected prometheus.Gauge
}

var _ logic.Observer = (*Metrics)(nil)

// New creates the collectors on a private registry together with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Sensor events handled by the device",
		}, []string{"event"}),

		Commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Actuator commands executed",
		}, []string{"command"}),

		Alerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_total",
			Help:      "Alerts raised",
		}, []string{"type", "severity"}),

		PublishErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Failed telemetry or alert publishes",
		}, []string{"transport"}),

		SensorFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sensor_failures_total",
			Help:      "Sensor reads that failed",
		}, []string{"sensor"}),

		Temperature: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "temperature_celsius",
			Help:      "Last valid temperature reading",
		}),

		Humidity: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "humidity_percent",
			Help:      "Last valid relative humidity reading",
		}),

		Smoke: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "smoke_ppm",
			Help:      "Last gas concentration reading",
		}),

		ServoPosition: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "servo_position_degrees",
			Help:      "Current servo angle",
		}, []string{"servo"}),

		GasAlert: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "gas_alert_active",
			Help:      "1 while the gas vent is latched open",
		}),

		MQTTConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "mqtt_connected",
			Help:      "1 when the broker link is up",
		}),
	}

	m.registry.MustRegister(
		m.Events, m.Commands, m.Alerts, m.PublishErrors, m.SensorFailures,
		m.Temperature, m.Humidity, m.Smoke, m.ServoPosition, m.GasAlert, m.MQTTConnected,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) EventObserved(e reactor.Event) {
	m.Events.WithLabelValues(sensor.EventName(e)).Inc()
}

func (m *Metrics) CommandExecuted(c reactor.Command) {
	m.Commands.WithLabelValues(actuator.CommandName(c)).Inc()
}

func (m *Metrics) AlertRaised(a logic.Alert) {
	m.Alerts.WithLabelValues(string(a.Type), string(a.Severity)).Inc()
}

func (m *Metrics) PublishFailed(transport string) {
	m.PublishErrors.WithLabelValues(transport).Inc()
}

func (m *Metrics) SensorFailed(name string) {
	m.SensorFailures.WithLabelValues(name).Inc()
}

// Update sets the reading gauges from a device state. Invalid climate
// readings leave the gauges at their previous values.
func (m *Metrics) Update(s logic.State, mqttConnected bool) {
	if !math.IsNaN(s.Temperature) {
		m.Temperature.Set(s.Temperature)
	}
	if !math.IsNaN(s.Humidity) {
		m.Humidity.Set(s.Humidity)
	}
	m.Smoke.Set(s.SmokePPM)
	m.ServoPosition.WithLabelValues("climate").Set(float64(s.ClimateServo))
	m.ServoPosition.WithLabelValues("gas").Set(float64(s.GasServo))
	m.GasAlert.Set(boolFloat(s.GasAlertActive))
	m.MQTTConnected.Set(boolFloat(mqttConnected))
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
