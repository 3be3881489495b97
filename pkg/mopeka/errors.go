package mopeka

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a report could not be decoded.
type ErrorKind int

const (
	// KindNoGapData means the report carried no advertising data at all.
	// Sensors send these regularly; it is not a failure.
	KindNoGapData ErrorKind = iota
	KindStructural
	KindUnsupportedManufacturerData
	KindIncompleteSensorData
	KindTextDecode
)

func (k ErrorKind) String() string {
	switch k {
	case KindNoGapData:
		return "no GAP data"
	case KindStructural:
		return "structural error"
	case KindUnsupportedManufacturerData:
		return "unsupported manufacturer data"
	case KindIncompleteSensorData:
		return "incomplete sensor data"
	case KindTextDecode:
		return "text decode error"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// DecodeError is returned by Decode for every failed report.
type DecodeError struct {
	Kind   ErrorKind
	Msg    string
	Offset int // offset into the report, -1 when not meaningful
}

func (e *DecodeError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("%s: %s (offset %d)", e.Kind, e.Msg, e.Offset)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Is matches any DecodeError of the same kind, so errors.Is(err, ErrNoGapData) works.
func (e *DecodeError) Is(target error) bool {
	t, ok := target.(*DecodeError)
	return ok && t.Kind == e.Kind
}

// ErrNoGapData is the sentinel for reports without advertising data.
var ErrNoGapData = &DecodeError{Kind: KindNoGapData, Msg: "no GAP data", Offset: -1}

func newError(kind ErrorKind, offset int, format string, args ...interface{}) *DecodeError {
	return &DecodeError{Kind: kind, Msg: fmt.Sprintf(format, args...), Offset: offset}
}

// IsNoGapData reports whether err is the benign empty-report condition.
func IsNoGapData(err error) bool {
	return errors.Is(err, ErrNoGapData)
}

// KindOf returns the kind of a decode error. ok is false for nil or foreign errors.
func KindOf(err error) (kind ErrorKind, ok bool) {
	var de *DecodeError
	if errors.As(err, &de) {
		return de.Kind, true
	}
	return 0, false
}
