// Package metrics holds the runner's prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TicksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "actuation",
		Subsystem: "controller",
		Name:      "ticks_total",
		Help:      "Total control ticks run",
	}, []string{"family"})

	TickErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "actuation",
		Subsystem: "controller",
		Name:      "tick_errors_total",
		Help:      "Total control ticks that returned an error",
	}, []string{"family"})

	TickDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "actuation",
		Subsystem: "controller",
		Name:      "tick_duration_seconds",
		Help:      "Time spent computing and sending one tick",
		Buckets:   []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025},
	}, []string{"family"})

	SteerFaultTrips = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "actuation",
		Subsystem: "controller",
		Name:      "steer_fault_trips_total",
		Help:      "Ticks where the steer request was dropped to avoid an EPS fault",
	}, []string{"family"})

	CruiseSpeed = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "actuation",
		Subsystem: "controller",
		Name:      "cruise_speed_kph",
		Help:      "Current cruise set speed",
	}, []string{"family"})

	FramesSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "actuation",
		Subsystem: "bus",
		Name:      "frames_sent_total",
		Help:      "Frames written to a bus",
	}, []string{"bus"})

	FramesDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "actuation",
		Subsystem: "bus",
		Name:      "frames_dropped_total",
		Help:      "Frames not written, by reason",
	}, []string{"bus", "reason"})
)
