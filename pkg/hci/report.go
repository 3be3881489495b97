package hci

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// AD structure types used by the sensors we care about.
const (
	TypeFlags             = 0x01
	TypeCompleteLocalName = 0x09
	TypeManufacturerData  = 0xFF
)

// Fixed offsets within an LE Advertising Report as delivered by the controller.
const (
	AddressOffset = 3
	AddressLen    = 6
	DataLenOffset = 9
	HeaderLen     = 10
)

// Address is a device address in wire (little-endian) order.
type Address [AddressLen]byte

// ParseAddress parses the colon separated, most-significant-first form, e.g. "E7:9D:05:C4:3C:76".
func ParseAddress(s string) (Address, error) {
	var a Address
	parts := strings.Split(s, ":")
	if len(parts) != AddressLen {
		return a, fmt.Errorf("address %q: want %d octets, got %d", s, AddressLen, len(parts))
	}
	for i, p := range parts {
		b, err := hex.DecodeString(p)
		if err != nil || len(b) != 1 {
			return a, fmt.Errorf("address %q: bad octet %q", s, p)
		}
		a[AddressLen-1-i] = b[0]
	}
	return a, nil
}

func (a Address) String() string {
	var sb strings.Builder
	for i := AddressLen - 1; i >= 0; i-- {
		fmt.Fprintf(&sb, "%02X", a[i])
		if i > 0 {
			sb.WriteByte(':')
		}
	}
	return sb.String()
}

// AddressFromReport extracts the device address from a raw report.
func AddressFromReport(report []byte) (Address, bool) {
	var a Address
	if len(report) < AddressOffset+AddressLen {
		return a, false
	}
	copy(a[:], report[AddressOffset:AddressOffset+AddressLen])
	return a, true
}

// RSSIFromByte converts the controller's RSSI byte to dBm.
func RSSIFromByte(b byte) int {
	if b > 127 {
		return int(b) - 256
	}
	return int(b)
}

// RSSIToByte is the inverse of RSSIFromByte for values in [-128, 127].
func RSSIToByte(rssi int) (byte, error) {
	if rssi < -128 || rssi > 127 {
		return 0, fmt.Errorf("rssi %d out of range", rssi)
	}
	return byte(int8(rssi)), nil
}

// Record is a single AD structure: [len][type][data].
type Record struct {
	Type byte
	Data []byte
}

// AppendRecord appends r in length-prefixed form.
func AppendRecord(dst []byte, r Record) ([]byte, error) {
	if len(r.Data)+1 > 0xFF {
		return dst, fmt.Errorf("record type 0x%02X: data len %d too long", r.Type, len(r.Data))
	}
	dst = append(dst, byte(len(r.Data)+1), r.Type)
	return append(dst, r.Data...), nil
}

// EncodeReport builds a single LE Advertising Report:
// event type, address type, address, AD length, AD structures, RSSI.
// The leading byte carries the number of reports (always 1).
func EncodeReport(addr Address, eventType, addrType byte, records []Record, rssi int) ([]byte, error) {
	var ad []byte
	for _, r := range records {
		var err error
		if ad, err = AppendRecord(ad, r); err != nil {
			return nil, err
		}
	}
	if len(ad) > 0xFF {
		return nil, fmt.Errorf("advertising data len %d too long", len(ad))
	}
	rb, err := RSSIToByte(rssi)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, 0, HeaderLen+len(ad)+1)
	buf = append(buf, 0x01, eventType, addrType)
	buf = append(buf, addr[:]...)
	buf = append(buf, byte(len(ad)))
	buf = append(buf, ad...)
	return append(buf, rb), nil
}
