package mopeka

import (
	"bytes"
	"strings"
	"testing"
)

func TestSensorReading(t *testing.T) {
	a, err := Decode(knownGood(t))
	if err != nil {
		t.Fatal(err)
	}
	s, err := NewSensor(a.Address.String())
	if err != nil {
		t.Fatal(err)
	}
	if s.Address() != a.Address {
		t.Errorf("Address() = %s, want %s", s.Address(), a.Address)
	}
	if s.Reading() != nil {
		t.Error("new sensor has a reading")
	}

	s.AddReading(a)
	if got := s.Reading(); got != a {
		t.Errorf("Reading() = %p, want %p", got, a)
	}
	if got := s.TakeReading(); got != a {
		t.Errorf("TakeReading() = %p, want %p", got, a)
	}
	if got := s.TakeReading(); got != nil {
		t.Errorf("TakeReading() after take = %v, want nil", got)
	}
}

func TestSensorKeepsLatestOnly(t *testing.T) {
	s, err := NewSensor("e7:9d:05:c4:3c:76")
	if err != nil {
		t.Fatal(err)
	}
	first := &Advertisement{RawBattery: 1}
	second := &Advertisement{RawBattery: 2}
	s.AddReading(first)
	s.AddReading(second)
	if got := s.Reading(); got != second {
		t.Errorf("Reading() = %v, want the second reading", got)
	}
}

func TestNewSensorBadAddress(t *testing.T) {
	if _, err := NewSensor("not-a-mac"); err == nil {
		t.Error("NewSensor(\"not-a-mac\") succeeded, want error")
	}
}

func TestSensorDump(t *testing.T) {
	s, err := NewSensor("E7:9D:05:C4:3C:76")
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := s.Dump(&buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Advertisement: None") {
		t.Errorf("Dump() without reading = %q", buf.String())
	}
	if !strings.Contains(s.String(), "E7:9D:05:C4:3C:76 None") {
		t.Errorf("String() = %q", s.String())
	}

	a, err := Decode(knownGood(t))
	if err != nil {
		t.Fatal(err)
	}
	s.AddReading(a)
	buf.Reset()
	if err := s.Dump(&buf); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"MAC: E7:9D:05:C4:3C:76", "Fluid Height 126 mm", "MfgData:"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("Dump() missing %q:\n%s", want, buf.String())
		}
	}
}
