package main

import (
	"fmt"
	"sync"

	"github.com/bettercap/gatt"
	"github.com/golang/glog"

	"github.com/electronjoe/go-mopeka/pkg/hci"
	"github.com/electronjoe/go-mopeka/pkg/mopeka"
)

// Report header bytes the decoder does not look at.
const (
	advInd         = 0x00
	addrTypeRandom = 0x01
)

// gattScanner drives a gatt.Device; scanning begins once the adapter powers on.
type gattScanner struct {
	dev gatt.Device

	mu          sync.Mutex
	initialized bool
	poweredOn   bool
	wantScan    bool
}

// gattScannerFactory opens the adapter and routes every advertisement, re-framed
// as a raw report, to handle.
func gattScannerFactory(handle func(report []byte)) mopeka.ScannerFactory {
	return func(hciIndex int) (mopeka.Scanner, error) {
		d, err := gatt.NewDevice(deviceOptions(hciIndex)...)
		if err != nil {
			return nil, fmt.Errorf("failed to open device: %w", err)
		}
		d.Handle(gatt.PeripheralDiscovered(func(p gatt.Peripheral, a *gatt.Advertisement, rssi int) {
			report, err := reportFromAdvertisement(p.ID(), a, rssi)
			if err != nil {
				btRx.WithLabelValues("unframeable").Inc()
				glog.V(4).Infof("Overheard advertisement from %q that cannot be framed: %v", p.ID(), err)
				return
			}
			btRx.WithLabelValues("framed").Inc()
			handle(report)
		}))
		return &gattScanner{dev: d}, nil
	}
}

func (s *gattScanner) StartScanning() error {
	s.mu.Lock()
	s.wantScan = true
	first := !s.initialized
	s.initialized = true
	on := s.poweredOn
	s.mu.Unlock()

	// Init may report the state change from the calling goroutine.
	if first {
		return s.dev.Init(s.onStateChanged)
	}
	if on {
		s.dev.Scan([]gatt.UUID{}, true)
	}
	return nil
}

func (s *gattScanner) StopScanning() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wantScan = false
	if s.poweredOn {
		s.dev.StopScanning()
	}
	return nil
}

func (s *gattScanner) onStateChanged(d gatt.Device, st gatt.State) {
	glog.Info("State:", st)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.poweredOn = st == gatt.StatePoweredOn
	if s.poweredOn && s.wantScan {
		glog.Info("scanning...")
		d.Scan([]gatt.UUID{}, true)
		return
	}
	d.StopScanning()
}

// reportFromAdvertisement rebuilds the LE Advertising Report that gatt parsed,
// so every report goes through mopeka.Decode.
func reportFromAdvertisement(id string, a *gatt.Advertisement, rssi int) ([]byte, error) {
	addr, err := hci.ParseAddress(id)
	if err != nil {
		return nil, err
	}
	var records []hci.Record
	if a.Flags != 0 {
		records = append(records, hci.Record{Type: hci.TypeFlags, Data: []byte{byte(a.Flags)}})
	}
	if len(a.ManufacturerData) > 0 {
		records = append(records, hci.Record{Type: hci.TypeManufacturerData, Data: a.ManufacturerData})
	}
	if a.LocalName != "" {
		records = append(records, hci.Record{Type: hci.TypeCompleteLocalName, Data: []byte(a.LocalName)})
	}
	return hci.EncodeReport(addr, advInd, addrTypeRandom, records, rssi)
}
