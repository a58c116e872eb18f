package storage

import (
	"database/sql"
	"time"
)

// Snapshot describes a stored frame
type Snapshot struct {
	ID        int64     `json:"id"`
	EventName string    `json:"eventName"`
	CreatedAt time.Time `json:"createdAt"`
	Columns   []string  `json:"columns"` // column labels in frame order
	NumRows   int       `json:"numRows"`
}

type cellKind int

const (
	cellString cellKind = iota + 1
	cellFloat
	cellSeries
	cellShape
)

type cellData struct {
	SnapshotID int64
	RowIndex   int
	Label      string
	Kind       cellKind
	Text       sql.NullString
	Number     sql.NullFloat64
	Data       []byte
}
