// Package version provides library level metadata and constants.
package version

import (
	"fmt"
	"io"
)

const (
	Name    = "redpandas"
	Version = "1.3.1"
)

// String returns the version number of this library.
func String() string {
	return Version
}

// Print writes the version number of this library to w.
func Print(w io.Writer) error {
	_, err := fmt.Fprintln(w, String())
	return err
}
