package main

import (
	"github.com/bettercap/gatt"
	"github.com/bettercap/gatt/examples/option"
	"github.com/golang/glog"
)

func deviceOptions(hciIndex int) []gatt.Option {
	if hciIndex > 0 {
		glog.Warningf("HCIIndex %d ignored on darwin", hciIndex)
	}
	return option.DefaultClientOptions
}
