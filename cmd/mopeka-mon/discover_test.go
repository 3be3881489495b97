package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/electronjoe/go-mopeka/pkg/mopeka"
)

type idleScanner struct{}

func (idleScanner) StartScanning() error { return nil }
func (idleScanner) StopScanning() error  { return nil }

func TestPrintDiscovered(t *testing.T) {
	svc := mopeka.NewService(func(int) (mopeka.Scanner, error) { return idleScanner{}, nil })
	if err := svc.EnterDiscoveryMode(); err != nil {
		t.Fatal(err)
	}
	pressed := decodeHex(t, knownGoodReport)
	pressed[16] |= 0x80
	svc.ProcessReport(pressed)

	var out bytes.Buffer
	if err := printDiscovered(&out, svc); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"Found 1 new sensors",
		"Processed Ad Count: 1",
		"MAC: E7:9D:05:C4:3C:76",
		`"E7:9D:05:C4:3C:76": tank-1`,
	} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}
