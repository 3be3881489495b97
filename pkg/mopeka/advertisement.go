package mopeka

import (
	"fmt"
	"io"
	"math"

	"github.com/electronjoe/go-mopeka/pkg/hci"
)

// Propane height calibration polynomial, evaluated on the raw temperature field.
// Other fluids need coefficients from Mopeka.
var propaneCoefficients = [3]float64{0.573045, -0.002822, -0.00000535}

// Advertisement is a decoded Mopeka Pro Check report. Fields are raw values;
// physical quantities are computed by the methods.
type Advertisement struct {
	RSSI    int
	Address hci.Address
	Name    string

	ManufacturerID    uint16
	HardwareID        HardwareID
	SyncButtonPressed bool

	RawBattery     uint8  // 7 bits
	RawTemperature uint8  // 7 bits
	RawTankLevel   uint16 // 14 bits
	QualityStars   uint8  // 0-3, higher is more confident
	RawXAccel      uint8
	RawYAccel      uint8

	rawMfgData []byte
}

// BatteryVoltage is the battery reading in volts.
func (a *Advertisement) BatteryVoltage() float64 {
	return float64(a.RawBattery) / 32.0
}

// BatteryPercent is based on a 3 volt CR2032 cell, clamped to [0, 100].
func (a *Advertisement) BatteryPercent() float64 {
	percent := (a.BatteryVoltage() - 2.2) / 0.65 * 100
	if percent > 100.0 {
		return 100.0
	}
	if percent < 0.0 {
		return 0.0
	}
	return math.Round(percent*10) / 10
}

// TemperatureCelsius has not been characterized against ambient temperature.
func (a *Advertisement) TemperatureCelsius() int {
	return int(a.RawTemperature) - 40
}

// CToF converts the passed celsius value to fahrenheit.
func CToF(celsius int) float64 {
	return float64(celsius*9)/5 + 32
}

func (a *Advertisement) TemperatureFahrenheit() float64 {
	return CToF(a.TemperatureCelsius())
}

// TankLevelMM is the propane depth in millimetres, truncated.
func (a *Advertisement) TankLevelMM() int {
	t := float64(a.RawTemperature)
	c := propaneCoefficients
	return int(float64(a.RawTankLevel) * (c[0] + c[1]*t + c[2]*t*t))
}

func (a *Advertisement) TankLevelInches() float64 {
	return math.Round(float64(a.TankLevelMM())/25.4*100) / 100
}

// MfgData returns a copy of the 13 byte manufacturer data record.
func (a *Advertisement) MfgData() []byte {
	return append([]byte(nil), a.rawMfgData...)
}

func (a *Advertisement) String() string {
	return fmt.Sprintf("MopekaAdvertisement - RSSI: %ddBm  Battery: %g volts %g%%  Button Pressed: %t  "+
		"Temperature %dC %gF  Confidence Stars %d  Fluid Height %d mm",
		a.RSSI,
		a.BatteryVoltage(), a.BatteryPercent(),
		a.SyncButtonPressed,
		a.TemperatureCelsius(), a.TemperatureFahrenheit(),
		a.QualityStars,
		a.TankLevelMM(),
	)
}

// Dump writes the summary followed by the manufacturer data bytes.
func (a *Advertisement) Dump(w io.Writer) error {
	if _, err := fmt.Fprintln(w, a); err != nil {
		return err
	}
	if _, err := fmt.Fprint(w, "MfgData: "); err != nil {
		return err
	}
	for _, b := range a.rawMfgData {
		if _, err := fmt.Fprintf(w, "0x%02X  ", b); err != nil {
			return err
		}
	}
	_, err := fmt.Fprint(w, "\n\n")
	return err
}
