package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang/glog"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/electronjoe/go-mopeka/pkg/hci"
	"github.com/electronjoe/go-mopeka/pkg/heater"
	"github.com/electronjoe/go-mopeka/pkg/mopeka"
	"github.com/electronjoe/go-mopeka/pkg/mqttpub"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Monitor the sensors listed in the config and serve /metrics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runMonitor(ctx)
	},
}

type readingPublisher interface {
	Publish(mqttpub.Reading) error
}

// monitor routes processed readings to metrics, heaters and MQTT.
type monitor struct {
	svc    *mopeka.Service
	names  map[hci.Address]string
	heater *heater.Controller
	pub    readingPublisher
	now    func() time.Time
}

func newMonitor(config *devicesConfig) (*monitor, error) {
	m := &monitor{
		names: make(map[hci.Address]string, len(config.IDToNames)),
		now:   time.Now,
	}
	for id, name := range config.IDToNames {
		addr, err := hci.ParseAddress(id)
		if err != nil {
			return nil, err
		}
		m.names[addr] = name
	}
	m.svc = mopeka.NewService(gattScannerFactory(m.handleReport))
	m.svc.SetHostControllerIndex(config.HCIIndex)
	for addr := range m.names {
		sensor, err := mopeka.NewSensor(addr.String())
		if err != nil {
			return nil, err
		}
		if err := m.svc.AddSensor(sensor); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *monitor) name(addr hci.Address) string {
	if name, ok := m.names[addr]; ok {
		return name
	}
	return addr.String()
}

func (m *monitor) handleReport(report []byte) {
	outcome, a := m.svc.ProcessReport(report)
	mopekaRx.WithLabelValues(outcome.String()).Inc()
	if outcome != mopeka.OutcomeProcessed {
		return
	}

	name := m.name(a.Address)
	tankLevelMM.WithLabelValues(name).Set(float64(a.TankLevelMM()))
	tankLevelIn.WithLabelValues(name).Set(a.TankLevelInches())
	quality.WithLabelValues(name).Set(float64(a.QualityStars))
	temp.WithLabelValues(name).Set(a.TemperatureFahrenheit())
	bat.WithLabelValues(name).Set(a.BatteryPercent())
	batVolts.WithLabelValues(name).Set(a.BatteryVoltage())
	rssiTelem.WithLabelValues(name).Set(float64(a.RSSI))

	glog.V(3).Infof("Received Mopeka Advertisement from %q: %s", name, a)

	if m.heater != nil {
		// Failures are logged by the controller; the next reading retries.
		_ = m.heater.Apply(name, a.TemperatureFahrenheit())
	}
	if m.pub != nil {
		if err := m.pub.Publish(mqttpub.NewReading(name, a, m.now())); err != nil {
			publishErrors.Inc()
			glog.Warningf("Failed to publish reading for %q: %v", name, err)
		}
	}
}

func runMonitor(ctx context.Context) error {
	glog.Infof("Reading YAML Config %s", configPath)
	config, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if len(config.IDToNames) == 0 {
		return fmt.Errorf("%s lists no sensors in IDToNames; run discover first", configPath)
	}

	m, err := newMonitor(config)
	if err != nil {
		return err
	}

	if len(config.HeaterObjectives) > 0 {
		outlets, err := discoverOutlets(config.OutletSubnet)
		if err != nil {
			return err
		}
		if m.heater, err = heater.NewController(config.HeaterObjectives, outlets, setOutletState); err != nil {
			return err
		}
	}

	if config.MQTT != nil {
		pub := mqttpub.New(*config.MQTT)
		defer pub.Close()
		go func() {
			if err := pub.Connect(ctx); err != nil && ctx.Err() == nil {
				glog.Errorf("MQTT: %v", err)
			}
		}()
		m.pub = pub
	}

	if err := m.svc.Start(); err != nil {
		return err
	}
	defer func() {
		if err := m.svc.Stop(); err != nil {
			glog.Errorf("Stop: %v", err)
		}
		glog.Infof("Stats %s", m.svc.Stats())
	}()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: config.MetricsAddr, Handler: mux}
	errc := make(chan error, 1)
	go func() {
		glog.Infof("Serving metrics on %s", config.MetricsAddr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
