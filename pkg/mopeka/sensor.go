package mopeka

import (
	"fmt"
	"io"
	"sync"

	"github.com/electronjoe/go-mopeka/pkg/hci"
)

// Sensor is a tracked Mopeka sensor holding only its most recent reading.
type Sensor struct {
	address hci.Address

	mu   sync.Mutex
	last *Advertisement
}

// NewSensor creates a sensor for an address such as "E7:9D:05:C4:3C:76".
func NewSensor(address string) (*Sensor, error) {
	a, err := hci.ParseAddress(address)
	if err != nil {
		return nil, fmt.Errorf("new sensor: %w", err)
	}
	return &Sensor{address: a}, nil
}

func (s *Sensor) Address() hci.Address { return s.address }

// AddReading replaces any previous reading.
func (s *Sensor) AddReading(a *Advertisement) {
	s.mu.Lock()
	s.last = a
	s.mu.Unlock()
}

// Reading returns the latest reading, or nil.
func (s *Sensor) Reading() *Advertisement {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// TakeReading returns the latest reading and clears it.
func (s *Sensor) TakeReading() *Advertisement {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.last
	s.last = nil
	return a
}

func (s *Sensor) String() string {
	if a := s.Reading(); a != nil {
		return fmt.Sprintf("{MopekaSensor - MAC ADDRESS: %s %s}", s.address, a)
	}
	return fmt.Sprintf("{MopekaSensor - MAC ADDRESS: %s None}", s.address)
}

func (s *Sensor) Dump(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "MopekaSensor:\n  - MAC: %s\n", s.address); err != nil {
		return err
	}
	a := s.Reading()
	if a == nil {
		_, err := fmt.Fprintln(w, "  - Advertisement: None")
		return err
	}
	if _, err := fmt.Fprintln(w, "  - Advertisement: "); err != nil {
		return err
	}
	return a.Dump(w)
}
