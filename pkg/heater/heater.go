// Package heater switches smart outlets (e.g. a propane tank heater blanket)
// based on the temperature reported by tank sensors.
package heater

import (
	"fmt"

	"github.com/golang/glog"
)

// Outlet is a switchable smart plug.
type Outlet interface {
	IsOn() (bool, error)
	TurnOn() error
	TurnOff() error
}

// Objective keeps the named tank between HeatOnBelowF and HeatOffAboveF.
type Objective struct {
	TankSensorName string  `yaml:"TankSensorName"`
	OutletName     string  `yaml:"OutletName"`
	HeatOnBelowF   float64 `yaml:"HeatOnBelowF"`
	HeatOffAboveF  float64 `yaml:"HeatOffAboveF"`
}

// StateFunc observes outlet state after each evaluation.
type StateFunc func(outletName string, on bool)

// Controller applies objectives to outlets.
type Controller struct {
	objectives []Objective
	outlets    map[string]Outlet
	onState    StateFunc
}

// NewController fails if an objective names an outlet that is not in outlets.
func NewController(objectives []Objective, outlets map[string]Outlet, onState StateFunc) (*Controller, error) {
	for _, obj := range objectives {
		if _, ok := outlets[obj.OutletName]; !ok {
			return nil, fmt.Errorf("objective for %q cites undiscovered outlet %q", obj.TankSensorName, obj.OutletName)
		}
	}
	return &Controller{objectives: objectives, outlets: outlets, onState: onState}, nil
}

// Apply evaluates every objective for sensorName at tempF.
// All objectives are attempted; the first error is returned.
func (c *Controller) Apply(sensorName string, tempF float64) error {
	var firstErr error
	for _, obj := range c.objectives {
		if obj.TankSensorName != sensorName {
			continue
		}
		if err := c.apply(obj, tempF); err != nil {
			glog.Errorf("Heater objective %+v: %v", obj, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (c *Controller) apply(obj Objective, tempF float64) error {
	outlet := c.outlets[obj.OutletName]

	isOn, err := outlet.IsOn()
	if err != nil {
		return fmt.Errorf("IsOn for outlet %q: %w", obj.OutletName, err)
	}
	c.report(obj.OutletName, isOn)

	switch {
	case isOn && tempF > obj.HeatOffAboveF:
		glog.V(2).Infof("Tank %q at %.1fF, turning %q off", obj.TankSensorName, tempF, obj.OutletName)
		if err := outlet.TurnOff(); err != nil {
			return fmt.Errorf("TurnOff outlet %q: %w", obj.OutletName, err)
		}
		c.report(obj.OutletName, false)
	case !isOn && tempF < obj.HeatOnBelowF:
		glog.V(2).Infof("Tank %q at %.1fF, turning %q on", obj.TankSensorName, tempF, obj.OutletName)
		if err := outlet.TurnOn(); err != nil {
			return fmt.Errorf("TurnOn outlet %q: %w", obj.OutletName, err)
		}
		c.report(obj.OutletName, true)
	}
	return nil
}

func (c *Controller) report(name string, on bool) {
	if c.onState != nil {
		c.onState(name, on)
	}
}
