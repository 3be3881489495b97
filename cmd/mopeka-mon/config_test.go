package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleConfig = `
HCIIndex: 1
IDToNames:
  "E7:9D:05:C4:3C:76": grill-tank
  "C0:88:46:19:69:3B": rv-tank
OutletSubnet: 192.168.10.0/24
HeaterObjectives:
  - TankSensorName: grill-tank
    OutletName: tank-blanket
    HeatOnBelowF: 20
    HeatOffAboveF: 40
MQTT:
  Broker: tcp://localhost:1883
  TopicPrefix: home/tanks
`

func TestConfigParse(t *testing.T) {
	var c devicesConfig
	if err := c.Parse([]byte(sampleConfig)); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if c.HCIIndex != 1 {
		t.Errorf("HCIIndex = %d, want 1", c.HCIIndex)
	}
	if c.MetricsAddr != defaultMetricsAddr {
		t.Errorf("MetricsAddr = %q, want default %q", c.MetricsAddr, defaultMetricsAddr)
	}
	if got := c.IDToNames["E7:9D:05:C4:3C:76"]; got != "grill-tank" {
		t.Errorf("IDToNames[E7:...] = %q", got)
	}
	if len(c.HeaterObjectives) != 1 || c.HeaterObjectives[0].HeatOffAboveF != 40 {
		t.Errorf("HeaterObjectives = %+v", c.HeaterObjectives)
	}
	if c.MQTT == nil || c.MQTT.Broker != "tcp://localhost:1883" || c.MQTT.TopicPrefix != "home/tanks" {
		t.Errorf("MQTT = %+v", c.MQTT)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "bad address",
			yaml:    "IDToNames:\n  not-a-mac: grill\n",
			wantErr: "IDToNames",
		},
		{
			name:    "duplicate name",
			yaml:    "IDToNames:\n  \"E7:9D:05:C4:3C:76\": grill\n  \"C0:88:46:19:69:3B\": grill\n",
			wantErr: "used twice",
		},
		{
			name: "unknown tank",
			yaml: `IDToNames:
  "E7:9D:05:C4:3C:76": grill
OutletSubnet: 10.0.0.0/24
HeaterObjectives:
  - {TankSensorName: rv, OutletName: blanket, HeatOnBelowF: 20, HeatOffAboveF: 40}
`,
			wantErr: "not in IDToNames",
		},
		{
			name: "inverted band",
			yaml: `IDToNames:
  "E7:9D:05:C4:3C:76": grill
OutletSubnet: 10.0.0.0/24
HeaterObjectives:
  - {TankSensorName: grill, OutletName: blanket, HeatOnBelowF: 40, HeatOffAboveF: 20}
`,
			wantErr: "must be below",
		},
		{
			name: "no subnet",
			yaml: `IDToNames:
  "E7:9D:05:C4:3C:76": grill
HeaterObjectives:
  - {TankSensorName: grill, OutletName: blanket, HeatOnBelowF: 20, HeatOffAboveF: 40}
`,
			wantErr: "OutletSubnet",
		},
		{
			name:    "mqtt without broker",
			yaml:    "MQTT:\n  ClientID: x\n",
			wantErr: "Broker",
		},
		{
			name:    "malformed yaml",
			yaml:    "IDToNames: [",
			wantErr: "yaml",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c devicesConfig
			err := c.Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("Parse() succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Parse() error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devices.yml")
	if err := os.WriteFile(path, []byte(sampleConfig), 0o600); err != nil {
		t.Fatal(err)
	}
	c, err := loadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(c.IDToNames) != 2 {
		t.Errorf("len(IDToNames) = %d, want 2", len(c.IDToNames))
	}
	if _, err := loadConfig(filepath.Join(t.TempDir(), "missing.yml")); err == nil {
		t.Error("loadConfig(missing) succeeded")
	}
}

func TestShippedConfigParses(t *testing.T) {
	if _, err := loadConfig(filepath.Join("..", "..", "configs", "devices.yml")); err != nil {
		t.Errorf("configs/devices.yml: %v", err)
	}
}
