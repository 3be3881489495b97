package main

import (
	"fmt"
	"os"

	"github.com/electronjoe/go-mopeka/pkg/hci"
	"github.com/electronjoe/go-mopeka/pkg/heater"
	"github.com/electronjoe/go-mopeka/pkg/mqttpub"
	"gopkg.in/yaml.v3"
)

type devicesConfig struct {
	HCIIndex         int                `yaml:"HCIIndex"`
	MetricsAddr      string             `yaml:"MetricsAddr"`
	IDToNames        map[string]string  `yaml:"IDToNames"`
	OutletSubnet     string             `yaml:"OutletSubnet"`
	HeaterObjectives []heater.Objective `yaml:"HeaterObjectives"`
	MQTT             *mqttpub.Config    `yaml:"MQTT"`
}

const defaultMetricsAddr = ":2112"

func (c *devicesConfig) Parse(data []byte) error {
	if err := yaml.Unmarshal(data, c); err != nil {
		return err
	}
	if c.MetricsAddr == "" {
		c.MetricsAddr = defaultMetricsAddr
	}
	return c.Validate()
}

// Validate checks addresses and that every objective cites a configured sensor.
func (c *devicesConfig) Validate() error {
	names := make(map[string]bool, len(c.IDToNames))
	for id, name := range c.IDToNames {
		if _, err := hci.ParseAddress(id); err != nil {
			return fmt.Errorf("IDToNames: %w", err)
		}
		if names[name] {
			return fmt.Errorf("IDToNames: name %q used twice", name)
		}
		names[name] = true
	}
	for _, obj := range c.HeaterObjectives {
		if !names[obj.TankSensorName] {
			return fmt.Errorf("HeaterObjectives: TankSensorName %q not in IDToNames", obj.TankSensorName)
		}
		if obj.OutletName == "" {
			return fmt.Errorf("HeaterObjectives: %q has no OutletName", obj.TankSensorName)
		}
		if obj.HeatOnBelowF >= obj.HeatOffAboveF {
			return fmt.Errorf("HeaterObjectives: %q HeatOnBelowF %.1f must be below HeatOffAboveF %.1f",
				obj.TankSensorName, obj.HeatOnBelowF, obj.HeatOffAboveF)
		}
	}
	if len(c.HeaterObjectives) > 0 && c.OutletSubnet == "" {
		return fmt.Errorf("HeaterObjectives require OutletSubnet")
	}
	if c.MQTT != nil && c.MQTT.Broker == "" {
		return fmt.Errorf("MQTT: Broker is required")
	}
	return nil
}

func loadConfig(path string) (*devicesConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var config devicesConfig
	if err := config.Parse(data); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &config, nil
}
