// Package mesh renders time-frequency meshes of station sensors.
package mesh

import (
	"errors"
	"fmt"

	"github.com/roman-kulish/redpandas/internal/frame"
)

// ErrNoMeshColumns indicates that none of the requested mesh columns exist.
var ErrNoMeshColumns = errors.New("no mesh columns found")

// FindYLabelTFR returns the station identifiers used as mesh panel labels, in
// row order. A row contributes once when any of the mesh columns holds data
// for it. Mesh columns missing from the frame are ignored.
func FindYLabelTFR(f *frame.Frame, meshLabels []string, sigIDLabel string) ([]string, error) {
	if !f.HasColumn(sigIDLabel) {
		return nil, fmt.Errorf("%w: %s", frame.ErrColumnNotFound, sigIDLabel)
	}

	var present []string
	for _, l := range meshLabels {
		if f.HasColumn(l) {
			present = append(present, l)
		}
	}
	if len(present) == 0 {
		return nil, fmt.Errorf("%w: %v", ErrNoMeshColumns, meshLabels)
	}

	var labels []string
	for row := 0; row < f.Len(); row++ {
		ok, err := rowHasMesh(f, row, present)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		id, err := f.String(row, sigIDLabel)
		if err != nil {
			return nil, err
		}
		labels = append(labels, id)
	}
	return labels, nil
}

func rowHasMesh(f *frame.Frame, row int, labels []string) (bool, error) {
	for _, l := range labels {
		v, err := f.Get(row, l)
		if err != nil {
			return false, err
		}
		if !frame.IsEmpty(v) {
			return true, nil
		}
	}
	return false, nil
}
