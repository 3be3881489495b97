package mopeka

import (
	"fmt"
	"sort"
	"sync"

	"github.com/electronjoe/go-mopeka/pkg/hci"
	"github.com/golang/glog"
)

// ScanMode selects which reports the service keeps.
type ScanMode int

const (
	// ModeFiltered decodes reports from monitored sensors only.
	ModeFiltered ScanMode = iota
	// ModeDiscovery looks for any sensor with its sync button pressed.
	ModeDiscovery
)

func (m ScanMode) String() string {
	switch m {
	case ModeFiltered:
		return "filtered"
	case ModeDiscovery:
		return "discovery"
	}
	return fmt.Sprintf("ScanMode(%d)", int(m))
}

// Outcome is the disjoint result of processing one report.
type Outcome int

const (
	OutcomeProcessed Outcome = iota
	OutcomeNoGapData
	OutcomeIgnored
	OutcomeError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeProcessed:
		return "processed"
	case OutcomeNoGapData:
		return "no-gap-data"
	case OutcomeIgnored:
		return "ignored"
	case OutcomeError:
		return "error"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// ReadStats counts outcomes for the current scanning session.
type ReadStats struct {
	Ignored    uint64
	Processed  uint64
	Errors     uint64
	ZeroLength uint64
}

func (r ReadStats) String() string {
	return fmt.Sprintf("ReadStats (Ignored Ad Count: %d, Processed Ad Count: %d, Error Ad Count: %d, Zero Data Ad Count: %d)",
		r.Ignored, r.Processed, r.Errors, r.ZeroLength)
}

// Scanner is the radio. It must not deliver reports synchronously from StartScanning.
type Scanner interface {
	StartScanning() error
	StopScanning() error
}

// ScannerFactory opens the scanner bound to a host controller index.
type ScannerFactory func(hciIndex int) (Scanner, error)

// Service tracks Mopeka sensors and turns raw reports into readings.
type Service struct {
	newScanner ScannerFactory

	// ctl serializes start/stop and mode changes.
	ctl         sync.Mutex
	hciIndex    int
	scanner     Scanner
	started     bool
	shouldStart bool

	// mu guards everything ProcessReport touches.
	mu         sync.Mutex
	mode       ScanMode
	monitored  map[hci.Address]*Sensor
	discovered map[hci.Address]*Sensor
	stats      ReadStats
}

// NewService returns a stopped service in filtered mode.
func NewService(newScanner ScannerFactory) *Service {
	return &Service{
		newScanner: newScanner,
		monitored:  make(map[hci.Address]*Sensor),
		discovered: make(map[hci.Address]*Sensor),
	}
}

// SetHostControllerIndex only succeeds before the scanner has been opened.
func (s *Service) SetHostControllerIndex(index int) bool {
	s.ctl.Lock()
	defer s.ctl.Unlock()
	if s.scanner != nil {
		return false
	}
	s.hciIndex = index
	return true
}

func (s *Service) Mode() ScanMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// EnterDiscoveryMode stops scanning and clears discovered sensors and stats.
// Call Start to begin discovering.
func (s *Service) EnterDiscoveryMode() error {
	return s.switchMode(ModeDiscovery)
}

// EnterFilteredMode stops scanning and returns to monitoring known sensors.
func (s *Service) EnterFilteredMode() error {
	return s.switchMode(ModeFiltered)
}

func (s *Service) switchMode(m ScanMode) error {
	s.ctl.Lock()
	defer s.ctl.Unlock()
	s.shouldStart = false
	if err := s.stop(); err != nil {
		return err
	}
	s.mu.Lock()
	s.mode = m
	if m == ModeDiscovery {
		s.discovered = make(map[hci.Address]*Sensor)
	}
	s.stats = ReadStats{}
	s.mu.Unlock()
	return nil
}

// AddSensor monitors sensor in filtered mode, replacing any sensor with the same address.
// Filtered scanning is paused while the set changes.
func (s *Service) AddSensor(sensor *Sensor) error {
	return s.updateMonitored(func(m map[hci.Address]*Sensor) bool {
		m[sensor.Address()] = sensor
		return true
	})
}

// RemoveSensor stops monitoring addr. It reports whether the sensor was known.
func (s *Service) RemoveSensor(addr hci.Address) (bool, error) {
	var found bool
	err := s.updateMonitored(func(m map[hci.Address]*Sensor) bool {
		if _, found = m[addr]; found {
			delete(m, addr)
		}
		return found
	})
	return found, err
}

func (s *Service) updateMonitored(update func(map[hci.Address]*Sensor) bool) error {
	s.ctl.Lock()
	defer s.ctl.Unlock()

	filtered := s.Mode() == ModeFiltered
	if filtered {
		if err := s.stop(); err != nil {
			return err
		}
	}
	s.mu.Lock()
	changed := update(s.monitored)
	s.mu.Unlock()

	if changed {
		glog.V(2).Infof("Monitoring %d sensors", len(s.Sensors()))
	}
	if filtered && s.shouldStart {
		return s.start()
	}
	return nil
}

// Start scans. In filtered mode nothing happens until a sensor is added.
func (s *Service) Start() error {
	s.ctl.Lock()
	defer s.ctl.Unlock()
	s.shouldStart = true
	return s.start()
}

func (s *Service) start() error {
	if s.started {
		return nil
	}

	s.mu.Lock()
	mode, n := s.mode, len(s.monitored)
	s.mu.Unlock()
	if mode == ModeFiltered && n == 0 {
		glog.V(2).Info("No sensors to monitor, not scanning")
		return nil
	}

	if s.scanner == nil {
		sc, err := s.newScanner(s.hciIndex)
		if err != nil {
			return fmt.Errorf("open scanner on hci%d: %w", s.hciIndex, err)
		}
		s.scanner = sc
	}
	if err := s.scanner.StartScanning(); err != nil {
		return fmt.Errorf("start scanning: %w", err)
	}
	s.started = true
	glog.Infof("Scanning in %s mode", mode)
	return nil
}

// Stop scanning.
func (s *Service) Stop() error {
	s.ctl.Lock()
	defer s.ctl.Unlock()
	s.shouldStart = false
	return s.stop()
}

func (s *Service) stop() error {
	if !s.started {
		return nil
	}
	if err := s.scanner.StopScanning(); err != nil {
		return fmt.Errorf("stop scanning: %w", err)
	}
	s.started = false
	return nil
}

// Scanning reports whether the radio is currently scanning.
func (s *Service) Scanning() bool {
	s.ctl.Lock()
	defer s.ctl.Unlock()
	return s.started
}

// ProcessReport handles one raw advertising report. The advertisement is
// non-nil only for OutcomeProcessed.
func (s *Service) ProcessReport(report []byte) (Outcome, *Advertisement) {
	addr, ok := hci.AddressFromReport(report)

	s.mu.Lock()
	defer s.mu.Unlock()

	if !ok {
		return s.count(OutcomeIgnored), nil
	}

	switch s.mode {
	case ModeFiltered:
		sensor := s.monitored[addr]
		if sensor == nil {
			return s.count(OutcomeIgnored), nil
		}
		a, err := Decode(report)
		switch {
		case err == nil:
			sensor.AddReading(a)
			return s.count(OutcomeProcessed), a
		case IsNoGapData(err):
			return s.count(OutcomeNoGapData), nil
		default:
			glog.Errorf("Failed to process advertisement from sensor %s: %v", addr, err)
			return s.count(OutcomeError), nil
		}

	case ModeDiscovery:
		if _, ok := s.discovered[addr]; ok {
			return s.count(OutcomeIgnored), nil
		}
		a, err := Decode(report)
		if IsNoGapData(err) {
			return s.count(OutcomeNoGapData), nil
		}
		if err != nil {
			// Most reports in discovery come from other devices.
			glog.V(4).Infof("Not a supported Mopeka sensor %s: %v", addr, err)
			return s.count(OutcomeIgnored), nil
		}
		// Mopeka recommends only discovering sensors whose sync button is pressed.
		if a.SyncButtonPressed {
			sensor := &Sensor{address: addr}
			sensor.AddReading(a)
			s.discovered[addr] = sensor
			glog.Infof("Discovered sensor %s", addr)
		}
		return s.count(OutcomeProcessed), a
	}
	return s.count(OutcomeIgnored), nil
}

func (s *Service) count(o Outcome) Outcome {
	switch o {
	case OutcomeProcessed:
		s.stats.Processed++
	case OutcomeNoGapData:
		s.stats.ZeroLength++
	case OutcomeIgnored:
		s.stats.Ignored++
	case OutcomeError:
		s.stats.Errors++
	}
	return o
}

func (s *Service) Stats() ReadStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Sensor returns the monitored sensor for addr, or nil.
func (s *Service) Sensor(addr hci.Address) *Sensor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.monitored[addr]
}

// Sensors returns the monitored sensors ordered by address.
func (s *Service) Sensors() []*Sensor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedSensors(s.monitored)
}

// Discovered returns sensors found in discovery mode ordered by address.
func (s *Service) Discovered() []*Sensor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedSensors(s.discovered)
}

func sortedSensors(m map[hci.Address]*Sensor) []*Sensor {
	out := make([]*Sensor, 0, len(m))
	for _, sensor := range m {
		out = append(out, sensor)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].address.String() < out[j].address.String()
	})
	return out
}
