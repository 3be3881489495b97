package main

import (
	"github.com/bettercap/gatt"
	"github.com/bettercap/gatt/examples/option"
)

// deviceOptions binds to hci<index>; a negative index picks the first adapter.
func deviceOptions(hciIndex int) []gatt.Option {
	if hciIndex < 0 {
		return option.DefaultClientOptions
	}
	return []gatt.Option{
		gatt.LnxMaxConnections(1),
		gatt.LnxDeviceID(hciIndex, true),
	}
}
