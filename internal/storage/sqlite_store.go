package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/roman-kulish/redpandas/internal/frame"
)

// ErrNoSnapshot indicates that the requested snapshot does not exist.
var ErrNoSnapshot = errors.New("no snapshot found")

// ReadOption configures ReadSnapshot.
type ReadOption func(*readOptions)

type readOptions struct {
	columns []string
}

// WithColumns restricts the read to the given columns. Shape columns of the
// selected columns are included automatically.
func WithColumns(labels ...string) ReadOption {
	return func(o *readOptions) {
		for _, l := range labels {
			o.columns = append(o.columns, l, l+frame.NdimSuffix)
		}
	}
}

// SqliteStore keeps frame snapshots in a SQLite database
type SqliteStore struct {
	dbPath string

	writeDB     *sql.DB
	writeDBOnce sync.Once
	writeDBErr  error

	readDB     *sql.DB
	readDBOnce sync.Once
	readDBErr  error

	closeOnce sync.Once
	closeErr  error
}

var _ Store = (*SqliteStore)(nil)

// NewSqliteStore creates a store backed by the database file at dbPath.
// Connections are opened on first use.
func NewSqliteStore(dbPath string) *SqliteStore {
	return &SqliteStore{dbPath: dbPath}
}

func runSQLCommand(db *sql.DB, sql string) error {
	_, err := db.Exec(sql)
	return err
}

func (s *SqliteStore) getWriteDB() (*sql.DB, error) {
	s.writeDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "_journal_mode=WAL&_synchronous=NORMAL"))
		if err != nil {
			s.writeDBErr = fmt.Errorf("opening write connection: %w", err)
			return
		}

		if err = runSQLCommand(db, initSchemaSQL); err != nil {
			_ = db.Close()
			s.writeDBErr = fmt.Errorf("initializing schema: %w", err)
			return
		}

		s.writeDB = db
	})

	return s.writeDB, s.writeDBErr
}

func (s *SqliteStore) getReadDB() (*sql.DB, error) {
	s.readDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "mode=ro"))
		if err != nil {
			s.readDBErr = fmt.Errorf("opening read connection: %w", err)
			return
		}
		s.readDB = db
	})

	return s.readDB, s.readDBErr
}

func (s *SqliteStore) WriteSnapshot(ctx context.Context, eventName string, f *frame.Frame) (snapshotID int64, err error) {
	flat := f.Clone()
	for _, l := range flat.Columns() {
		if !needsFlatten(flat, l) {
			continue
		}
		if err = frame.ColumnFlatten(flat, l); err != nil {
			return 0, fmt.Errorf("flattening frame: %w", err)
		}
	}

	columns, err := json.Marshal(flat.Columns())
	if err != nil {
		return 0, fmt.Errorf("marshaling columns: %w", err)
	}

	db, err := s.getWriteDB()
	if err != nil {
		return 0, fmt.Errorf("getting write connection: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer rollbackWithError(tx, &err)

	result, err := tx.ExecContext(ctx, insertSnapshotSQL, eventName, string(columns), flat.Len())
	if err != nil {
		return 0, fmt.Errorf("inserting snapshot: %w", err)
	}
	if snapshotID, err = result.LastInsertId(); err != nil {
		return 0, fmt.Errorf("getting snapshot ID: %w", err)
	}

	for row := 0; row < flat.Len(); row++ {
		if err = storeRow(ctx, tx, snapshotID, flat, row); err != nil {
			return 0, err
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing transaction: %w", err)
	}
	return snapshotID, nil
}

func needsFlatten(f *frame.Frame, label string) bool {
	cells, _ := f.Column(label)
	for _, c := range cells {
		if frame.IsMultiDimensional(c) {
			return true
		}
	}
	return false
}

// storeRow batch inserts every non-empty cell of a row.
func storeRow(ctx context.Context, tx *sql.Tx, snapshotID int64, f *frame.Frame, row int) error {
	const valuesPlaceholder = "(?, ?, ?, ?, ?, ?, ?)"

	var (
		sb     strings.Builder
		values []any
	)
	sb.WriteString(insertCellSQL)

	for _, l := range f.Columns() {
		v, err := f.Get(row, l)
		if err != nil {
			return err
		}
		data, err := toCellData(snapshotID, row, l, v)
		if err != nil {
			return err
		}
		if data == nil {
			continue
		}

		if len(values) > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(valuesPlaceholder)
		values = append(values,
			data.SnapshotID,
			data.RowIndex,
			data.Label,
			data.Kind,
			data.Text,
			data.Number,
			data.Data,
		)
	}
	if len(values) == 0 {
		return nil
	}

	if _, err := tx.ExecContext(ctx, sb.String(), values...); err != nil {
		return fmt.Errorf("batch inserting cells of row %d: %w", row, err)
	}
	return nil
}

func (s *SqliteStore) ReadSnapshot(ctx context.Context, id int64, opts ...ReadOption) (f *frame.Frame, err error) {
	var o readOptions
	for _, opt := range opts {
		opt(&o)
	}

	db, err := s.getReadDB()
	if err != nil {
		return nil, fmt.Errorf("getting read connection: %w", err)
	}

	snap, err := scanSnapshot(db.QueryRowContext(ctx, selectSnapshotSQL, id))
	if err != nil {
		return nil, err
	}

	columns := snap.Columns
	if len(o.columns) > 0 {
		columns = columns[:0:0]
		for _, c := range snap.Columns {
			for _, want := range o.columns {
				if c == want {
					columns = append(columns, c)
					break
				}
			}
		}
	}

	query, args := cellsQuery(id, o.columns)
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying cells: %w", err)
	}
	defer closeWithError(rows, &err)

	frameRows := make([]frame.Row, snap.NumRows)
	for i := range frameRows {
		frameRows[i] = frame.Row{}
	}

	for rows.Next() {
		var c cellData
		if err = rows.Scan(&c.RowIndex, &c.Label, &c.Kind, &c.Text, &c.Number, &c.Data); err != nil {
			return nil, fmt.Errorf("scanning cell: %w", err)
		}
		if c.RowIndex < 0 || c.RowIndex >= snap.NumRows {
			return nil, fmt.Errorf("cell %s: row %d out of range", c.Label, c.RowIndex)
		}
		v, err := fromCellData(&c)
		if err != nil {
			return nil, fmt.Errorf("decoding cell %s, row %d: %w", c.Label, c.RowIndex, err)
		}
		frameRows[c.RowIndex][c.Label] = v
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("reading cells: %w", err)
	}

	f = frame.New(columns...)
	for _, r := range frameRows {
		f.AddRow(r)
	}
	return f, nil
}

func cellsQuery(id int64, columns []string) (string, []any) {
	args := []any{id}
	if len(columns) == 0 {
		return selectCellsSQL + " ORDER BY row_index", args
	}

	var sb strings.Builder
	sb.WriteString(selectCellsSQL)
	sb.WriteString(" AND label IN (")
	for i, c := range columns {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("?")
		args = append(args, c)
	}
	sb.WriteString(") ORDER BY row_index")
	return sb.String(), args
}

func (s *SqliteStore) LatestSnapshot(ctx context.Context, eventName string) (*Snapshot, error) {
	db, err := s.getReadDB()
	if err != nil {
		return nil, fmt.Errorf("getting read connection: %w", err)
	}
	return scanSnapshot(db.QueryRowContext(ctx, selectLatestSnapshotSQL, eventName))
}

func (s *SqliteStore) Snapshots(ctx context.Context) (snapshots []*Snapshot, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	rows, err := db.QueryContext(ctx, selectSnapshotsSQL)
	if err != nil {
		err = fmt.Errorf("querying snapshots: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var snap *Snapshot
		if snap, err = scanSnapshot(rows); err != nil {
			return
		}
		snapshots = append(snapshots, snap)
	}
	err = rows.Err()
	return
}

func scanSnapshot(row interface{ Scan(...any) error }) (*Snapshot, error) {
	var (
		snap    Snapshot
		columns string
	)
	if err := row.Scan(&snap.ID, &snap.EventName, &snap.CreatedAt, &columns, &snap.NumRows); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoSnapshot
		}
		return nil, fmt.Errorf("scanning snapshot: %w", err)
	}
	if err := json.Unmarshal([]byte(columns), &snap.Columns); err != nil {
		return nil, fmt.Errorf("unmarshaling columns of snapshot %d: %w", snap.ID, err)
	}
	return &snap, nil
}

func (s *SqliteStore) Close() error {
	s.closeOnce.Do(func() {
		var writeErr, readErr error

		if s.writeDB != nil {
			_ = runSQLCommand(s.writeDB, initIndexesSQL)

			writeErr = s.writeDB.Close()
			s.writeDB = nil
		}

		if s.readDB != nil {
			readErr = s.readDB.Close()
			s.readDB = nil
		}

		s.closeErr = errors.Join(writeErr, readErr)
	})

	return s.closeErr
}
