package mopeka

import (
	"encoding/binary"

	"github.com/electronjoe/go-mopeka/pkg/hci"
	"github.com/golang/glog"
)

const (
	// ManufacturerID is the Bluetooth SIG company identifier used by Mopeka sensors.
	ManufacturerID = 0x0059

	// Manufacturer data record length, including the AD type byte.
	mfgRecordLen = 13
)

// HardwareID identifies the sensor variant.
type HardwareID byte

const (
	HardwareStdBottomUpPropane HardwareID = 0x03
	HardwareTopDownAirSpace    HardwareID = 0x04
	HardwareBottomUpWater      HardwareID = 0x05
)

// ParseHardwareID fails for any value not listed above.
func ParseHardwareID(b byte) (HardwareID, bool) {
	switch h := HardwareID(b); h {
	case HardwareStdBottomUpPropane, HardwareTopDownAirSpace, HardwareBottomUpWater:
		return h, true
	}
	return 0, false
}

func (h HardwareID) String() string {
	switch h {
	case HardwareStdBottomUpPropane:
		return "STD_BOTTOM_UP_PROPANE"
	case HardwareTopDownAirSpace:
		return "TOP_DOWN_AIR_SPACE"
	case HardwareBottomUpWater:
		return "BOTTOM_UP_WATER"
	}
	return "UNKNOWN"
}

// Decode parses a single LE Advertising Report and its trailing RSSI byte.
// Reports without any advertising data yield an error matching ErrNoGapData.
func Decode(report []byte) (*Advertisement, error) {
	if len(report) < hci.HeaderLen+1 {
		return nil, newError(KindStructural, -1, "report len %d, want at least %d", len(report), hci.HeaderLen+1)
	}

	a := &Advertisement{
		RSSI: hci.RSSIFromByte(report[len(report)-1]),
	}
	copy(a.Address[:], report[hci.AddressOffset:hci.AddressOffset+hci.AddressLen])

	gap := report[hci.HeaderLen : len(report)-1]
	if len(gap) == 0 {
		return nil, newError(KindNoGapData, -1, "no GAP data")
	}

	for off := 0; off < len(gap); {
		l := int(gap[off])
		if l == 0 {
			return nil, newError(KindStructural, hci.HeaderLen+off, "zero length GAP record")
		}
		if off+1+l > len(gap) {
			return nil, newError(KindStructural, hci.HeaderLen+off, "GAP record len %d overruns %d remaining bytes", l, len(gap)-off-1)
		}
		if err := a.processRecord(gap[off+1 : off+1+l]); err != nil {
			err.Offset = hci.HeaderLen + off
			return nil, err
		}
		off += 1 + l
	}

	if a.rawMfgData == nil {
		return nil, newError(KindIncompleteSensorData, -1, "no Mopeka manufacturer data in report from %s", a.Address)
	}
	return a, nil
}

// rec starts with the AD type byte.
func (a *Advertisement) processRecord(rec []byte) *DecodeError {
	switch rec[0] {
	case hci.TypeManufacturerData:
		return a.processMfgData(rec)
	case hci.TypeCompleteLocalName:
		name := rec[1:]
		for i, c := range name {
			if c > 0x7F {
				return newError(KindTextDecode, -1, "non-ASCII byte 0x%02X at name position %d", c, i)
			}
		}
		a.Name = string(name)
		return nil
	default:
		glog.V(4).Infof("Unsupported GAP report type 0x%02X on sensor %s", rec[0], a.Address)
		return nil
	}
}

func (a *Advertisement) processMfgData(rec []byte) *DecodeError {
	if len(rec) != mfgRecordLen {
		return newError(KindUnsupportedManufacturerData, -1, "unsupported data length 0x%X", len(rec))
	}

	a.ManufacturerID = binary.LittleEndian.Uint16(rec[1:3])
	if a.ManufacturerID != ManufacturerID {
		return newError(KindUnsupportedManufacturerData, -1, "unsupported manufacturer ID 0x%04X", a.ManufacturerID)
	}

	hw, ok := ParseHardwareID(rec[3])
	if !ok {
		return newError(KindUnsupportedManufacturerData, -1, "unknown hardware ID 0x%02X", rec[3])
	}
	if hw != HardwareStdBottomUpPropane {
		return newError(KindUnsupportedManufacturerData, -1, "unsupported hardware ID %s", hw)
	}
	a.HardwareID = hw

	a.RawBattery = rec[4] & 0x7F
	a.SyncButtonPressed = rec[5]&0x80 != 0
	a.RawTemperature = rec[5] & 0x7F
	a.RawTankLevel = (uint16(rec[7])<<8 | uint16(rec[6])) & 0x3FFF
	a.QualityStars = rec[7] >> 6
	a.RawXAccel = rec[11]
	a.RawYAccel = rec[12]

	// Set last; doubles as the "found" flag.
	a.rawMfgData = append([]byte(nil), rec...)
	return nil
}
