package storage

import (
	"bytes"
	"database/sql"
	"encoding/binary"
	"fmt"

	"github.com/roman-kulish/redpandas/internal/frame"
)

func closeWithError(cl interface{ Close() error }, err *error) {
	if cErr := cl.Close(); cErr != nil && *err == nil {
		*err = cErr
	}
}

func rollbackWithError(rb interface{ Rollback() error }, err *error) {
	if cErr := rb.Rollback(); cErr != nil && cErr != sql.ErrTxDone && *err == nil {
		*err = cErr
	}
}

// toCellData converts a flat frame cell into its stored form. Nil and empty
// cells are not stored.
func toCellData(snapshotID int64, row int, label string, v any) (*cellData, error) {
	if frame.IsEmpty(v) {
		return nil, nil
	}
	c := &cellData{SnapshotID: snapshotID, RowIndex: row, Label: label}

	switch t := v.(type) {
	case string:
		c.Kind = cellString
		c.Text = sql.NullString{String: t, Valid: true}
	case float64:
		c.Kind = cellFloat
		c.Number = sql.NullFloat64{Float64: t, Valid: true}
	case []float64:
		c.Kind = cellSeries
		c.Data = encodeValues(t)
	case []int:
		shape := make([]int64, len(t))
		for i, d := range t {
			shape[i] = int64(d)
		}
		c.Kind = cellShape
		c.Data = encodeValues(shape)
	default:
		return nil, fmt.Errorf("column %s, row %d: unsupported cell type %T", label, row, v)
	}
	return c, nil
}

func fromCellData(c *cellData) (any, error) {
	switch c.Kind {
	case cellString:
		return c.Text.String, nil
	case cellFloat:
		return c.Number.Float64, nil
	case cellSeries:
		out := make([]float64, len(c.Data)/8)
		if err := decodeValues(c.Data, out); err != nil {
			return nil, err
		}
		return out, nil
	case cellShape:
		shape := make([]int64, len(c.Data)/8)
		if err := decodeValues(c.Data, shape); err != nil {
			return nil, err
		}
		out := make([]int, len(shape))
		for i, d := range shape {
			out[i] = int(d)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unknown cell kind %d", c.Kind)
	}
}

func encodeValues[T float64 | int64](v []T) []byte {
	var buf bytes.Buffer
	buf.Grow(len(v) * 8)
	_ = binary.Write(&buf, binary.LittleEndian, v)
	return buf.Bytes()
}

func decodeValues[T float64 | int64](p []byte, dst []T) error {
	if len(p)%8 != 0 {
		return fmt.Errorf("corrupted cell data: %d bytes", len(p))
	}
	return binary.Read(bytes.NewReader(p), binary.LittleEndian, dst)
}
