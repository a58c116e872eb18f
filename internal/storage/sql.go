package storage

const (
	initSchemaSQL = `
PRAGMA foreign_keys = ON;

CREATE TABLE IF NOT EXISTS snapshots
(
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    event_name TEXT     NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    columns    TEXT     NOT NULL,
    num_rows   INTEGER  NOT NULL
);

CREATE TABLE IF NOT EXISTS cells
(
    snapshot_id INTEGER NOT NULL REFERENCES snapshots (id) ON DELETE CASCADE,
    row_index   INTEGER NOT NULL,
    label       TEXT    NOT NULL,
    kind        INTEGER NOT NULL,
    text        TEXT,
    number      REAL,
    data        BLOB,
    PRIMARY KEY (snapshot_id, row_index, label)
);`

	initIndexesSQL = `
CREATE INDEX IF NOT EXISTS idx_snapshots_event ON snapshots (event_name, id);`

	insertSnapshotSQL = `
INSERT INTO snapshots (event_name,
                       created_at,
                       columns,
                       num_rows)
VALUES (?, CURRENT_TIMESTAMP, ?, ?)`

	insertCellSQL = `
INSERT INTO cells (snapshot_id,
                   row_index,
                   label,
                   kind,
                   text,
                   number,
                   data)
VALUES `

	selectSnapshotSQL = `
SELECT 
    id, 
    event_name, 
    created_at, 
    columns, 
    num_rows 
FROM snapshots 
WHERE 
    id = ?`

	selectLatestSnapshotSQL = `
SELECT 
    id, 
    event_name, 
    created_at, 
    columns, 
    num_rows 
FROM snapshots 
WHERE 
    event_name = ? 
ORDER BY id DESC 
LIMIT 1`

	selectSnapshotsSQL = `
SELECT 
    id, 
    event_name, 
    created_at, 
    columns, 
    num_rows 
FROM snapshots 
ORDER BY id`

	selectCellsSQL = `
SELECT 
    row_index, 
    label, 
    kind, 
    text, 
    number, 
    data 
FROM cells 
WHERE 
    snapshot_id = ?`
)
