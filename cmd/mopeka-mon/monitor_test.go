package main

import (
	"encoding/hex"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/electronjoe/go-mopeka/pkg/heater"
	"github.com/electronjoe/go-mopeka/pkg/mopeka"
	"github.com/electronjoe/go-mopeka/pkg/mqttpub"
)

const knownGoodReport = "01 00 01 76 3C C4 05 9D E7 12 0D FF 59 00 03 5D 31 2C C1 C4 3C 76 3B F9 03 02 E5 FE A0"

func decodeHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(strings.ReplaceAll(s, " ", ""))
	if err != nil {
		t.Fatal(err)
	}
	return b
}

type fakePublisher struct {
	readings []mqttpub.Reading
}

func (f *fakePublisher) Publish(r mqttpub.Reading) error {
	f.readings = append(f.readings, r)
	return nil
}

type fakeOutlet struct{ on bool }

func (f *fakeOutlet) IsOn() (bool, error) { return f.on, nil }
func (f *fakeOutlet) TurnOn() error       { f.on = true; return nil }
func (f *fakeOutlet) TurnOff() error      { f.on = false; return nil }

func TestMonitorHandleReport(t *testing.T) {
	config := &devicesConfig{
		IDToNames: map[string]string{"E7:9D:05:C4:3C:76": "monitor-test-tank"},
	}
	m, err := newMonitor(config)
	if err != nil {
		t.Fatal(err)
	}
	if got := len(m.svc.Sensors()); got != 1 {
		t.Fatalf("monitoring %d sensors, want 1", got)
	}

	blanket := &fakeOutlet{on: true}
	objs := []heater.Objective{{TankSensorName: "monitor-test-tank", OutletName: "monitor-test-blanket", HeatOnBelowF: 20, HeatOffAboveF: 40}}
	if m.heater, err = heater.NewController(objs, map[string]heater.Outlet{"monitor-test-blanket": blanket}, setOutletState); err != nil {
		t.Fatal(err)
	}
	pub := &fakePublisher{}
	m.pub = pub
	at := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return at }

	processed := testutil.ToFloat64(mopekaRx.WithLabelValues(mopeka.OutcomeProcessed.String()))
	m.handleReport(decodeHex(t, knownGoodReport))

	if got := testutil.ToFloat64(mopekaRx.WithLabelValues(mopeka.OutcomeProcessed.String())); got != processed+1 {
		t.Errorf("processed counter = %v, want %v", got, processed+1)
	}
	if got := testutil.ToFloat64(tankLevelMM.WithLabelValues("monitor-test-tank")); got != 126 {
		t.Errorf("tank_level_mm = %v, want 126", got)
	}
	if got := testutil.ToFloat64(tankLevelIn.WithLabelValues("monitor-test-tank")); got != 4.96 {
		t.Errorf("tank_level_inches = %v, want 4.96", got)
	}
	if got := testutil.ToFloat64(temp.WithLabelValues("monitor-test-tank")); got != 48.2 {
		t.Errorf("temperature = %v, want 48.2", got)
	}
	if got := testutil.ToFloat64(rssiTelem.WithLabelValues("monitor-test-tank")); got != -96 {
		t.Errorf("rssi = %v, want -96", got)
	}
	if got := testutil.ToFloat64(quality.WithLabelValues("monitor-test-tank")); got != 3 {
		t.Errorf("reading_quality_stars = %v, want 3", got)
	}

	if blanket.on {
		t.Error("blanket still on at 48.2F")
	}
	if got := testutil.ToFloat64(outletState.WithLabelValues("monitor-test-blanket")); got != 0 {
		t.Errorf("outlet_state = %v, want 0", got)
	}

	if len(pub.readings) != 1 {
		t.Fatalf("published %d readings, want 1", len(pub.readings))
	}
	r := pub.readings[0]
	if r.Name != "monitor-test-tank" || r.TankLevelMM != 126 || !r.Timestamp.Equal(at) {
		t.Errorf("published %+v", r)
	}
}

func TestMonitorHandleReportNotProcessed(t *testing.T) {
	config := &devicesConfig{
		IDToNames: map[string]string{"E7:9D:05:C4:3C:76": "monitor-test-empty"},
	}
	m, err := newMonitor(config)
	if err != nil {
		t.Fatal(err)
	}
	pub := &fakePublisher{}
	m.pub = pub

	noGap := testutil.ToFloat64(mopekaRx.WithLabelValues(mopeka.OutcomeNoGapData.String()))
	ignored := testutil.ToFloat64(mopekaRx.WithLabelValues(mopeka.OutcomeIgnored.String()))

	m.handleReport(decodeHex(t, "01 00 01 76 3C C4 05 9D E7 00 C5"))
	m.handleReport(decodeHex(t, "01 00 01 3b 69 19 46 88 c0 00 c5"))

	if got := testutil.ToFloat64(mopekaRx.WithLabelValues(mopeka.OutcomeNoGapData.String())); got != noGap+1 {
		t.Errorf("no-gap-data counter = %v, want %v", got, noGap+1)
	}
	if got := testutil.ToFloat64(mopekaRx.WithLabelValues(mopeka.OutcomeIgnored.String())); got != ignored+1 {
		t.Errorf("ignored counter = %v, want %v", got, ignored+1)
	}
	if len(pub.readings) != 0 {
		t.Errorf("published %d readings for unprocessed reports", len(pub.readings))
	}
}
