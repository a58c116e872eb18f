package config

import (
	"errors"
	"strings"
)

// ErrUnsupportedLoadMethod is returned for load methods that are recognized but
// cannot be read by this toolkit.
var ErrUnsupportedLoadMethod = errors.New("unsupported data load method")

// DataLoadMethod selects where station data is loaded from.
type DataLoadMethod int

const (
	LoadUnknown    DataLoadMethod = iota
	LoadDataWindow                // serialized data window (JSON)
	LoadPickle                    // recognized, not supported
	LoadParquet                   // columnar snapshot, stored in SQLite
)

var loadMethodNames = map[DataLoadMethod]string{
	LoadUnknown:    "unknown",
	LoadDataWindow: "datawindow",
	LoadPickle:     "pickle",
	LoadParquet:    "parquet",
}

// MethodFromString parses a load method name, case-insensitive.
// Anything unrecognized maps to LoadUnknown.
func MethodFromString(s string) DataLoadMethod {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "datawindow":
		return LoadDataWindow
	case "pickle":
		return LoadPickle
	case "parquet", "snapshot", "sqlite":
		return LoadParquet
	default:
		return LoadUnknown
	}
}

func (m DataLoadMethod) String() string {
	if n, ok := loadMethodNames[m]; ok {
		return n
	}
	return loadMethodNames[LoadUnknown]
}

// MarshalYAML dumps the method by name.
func (m DataLoadMethod) MarshalYAML() (any, error) {
	return m.String(), nil
}

// Supported reports whether data can be loaded with this method.
func (m DataLoadMethod) Supported() bool {
	return m == LoadDataWindow || m == LoadParquet
}
