package main

import (
	"fmt"
	"time"

	"github.com/golang/glog"
	"github.com/jaedle/golang-tplink-hs100/pkg/configuration"
	"github.com/jaedle/golang-tplink-hs100/pkg/hs100"

	"github.com/electronjoe/go-mopeka/pkg/heater"
)

// discoverOutlets finds HS100 smart plugs on subnet, keyed by their configured name.
func discoverOutlets(subnet string) (map[string]heater.Outlet, error) {
	glog.Infof("Discovering Smart Outlets on %s", subnet)
	outlets, err := hs100.Discover(subnet,
		configuration.Default().WithTimeout(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("hs100.Discover %s: %w", subnet, err)
	}

	outletMap := make(map[string]heater.Outlet)
	for _, d := range outlets {
		name, err := d.GetName()
		if err != nil {
			glog.Warningf("Skipping HS100 outlet without a name: %v", err)
			continue
		}
		outletMap[name] = d
		glog.Infof("Discovered HS100 outlet with name: %s", name)
	}
	return outletMap, nil
}
