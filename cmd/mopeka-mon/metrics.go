package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	btRx = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bluetooth_advertisement_rx",
		Help: "The total number of bluetooth advertisement receptions",
	}, []string{"type"})
	mopekaRx = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mopeka_rx",
		Help: "The total number of advertisement reports by processing outcome",
	}, []string{"outcome"})
	tankLevelMM = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "tank_level_mm",
		Help: "The most recent propane height (mm) by name (mapped from ID)",
	}, []string{"name"})
	tankLevelIn = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "tank_level_inches",
		Help: "The most recent propane height (inches) by name (mapped from ID)",
	}, []string{"name"})
	quality = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "reading_quality_stars",
		Help: "The confidence (0-3) of the most recent tank level reading by name (mapped from ID)",
	}, []string{"name"})
	temp = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "temperature",
		Help: "The most recent temperature reported (deg fahrenheit) by name (mapped from ID)",
	}, []string{"name"})
	bat = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "battery",
		Help: "The most recent battery level reported (0-100) in percent by name (mapped from ID)",
	}, []string{"name"})
	batVolts = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "battery_volts",
		Help: "The most recent battery voltage reported by name (mapped from ID)",
	}, []string{"name"})
	rssiTelem = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "rssi",
		Help: "The most recent Receive Signal Level (RSSI) reported by name (mapped from ID)",
	}, []string{"name"})
	outletState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "outlet_state",
		Help: "The state of the specified outlet (0 = off, 1 = on) by OutletName",
	}, []string{"name"})
	publishErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mqtt_publish_errors",
		Help: "The total number of readings that could not be published to MQTT",
	})
)

func setOutletState(name string, on bool) {
	if on {
		outletState.WithLabelValues(name).Set(1.0)
	} else {
		outletState.WithLabelValues(name).Set(0.0)
	}
}
