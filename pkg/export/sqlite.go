package export

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SchemaVersion is stored in the meta table of exported databases.
const SchemaVersion = "1"

// SaveSQLite writes the rows to a fresh SQLite database at path. Parent
// links use row indices, so the hierarchy can be queried with a recursive
// CTE.
func SaveSQLite(rows []Row, title, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing database: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := createSchema(db); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if err := insertRows(db, rows); err != nil {
		return fmt.Errorf("insert rows: %w", err)
	}
	if err := insertMeta(db, title, len(rows)); err != nil {
		return fmt.Errorf("insert meta: %w", err)
	}
	return db.Close()
}

func createSchema(db *sql.DB) error {
	rowsSQL := `
		CREATE TABLE nodes (
			idx INTEGER PRIMARY KEY,
			parent_idx INTEGER REFERENCES nodes(idx),
			depth INTEGER NOT NULL,
			text TEXT NOT NULL,
			path TEXT NOT NULL,
			expandable INTEGER NOT NULL,
			expanded INTEGER NOT NULL,
			checkable INTEGER NOT NULL,
			checked INTEGER NOT NULL,
			is_last INTEGER NOT NULL
		)
	`
	if _, err := db.Exec(rowsSQL); err != nil {
		return fmt.Errorf("create nodes table: %w", err)
	}
	if _, err := db.Exec(`CREATE INDEX idx_nodes_parent ON nodes(parent_idx)`); err != nil {
		return fmt.Errorf("create parent index: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE meta (key TEXT PRIMARY KEY, value TEXT NOT NULL)`); err != nil {
		return fmt.Errorf("create meta table: %w", err)
	}
	return nil
}

func insertRows(db *sql.DB, rows []Row) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO nodes (idx, parent_idx, depth, text, path, expandable, expanded, checkable, checked, is_last)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range rows {
		var parent *int
		if r.Parent >= 0 {
			parent = &r.Parent
		}
		_, err := stmt.Exec(r.Index, parent, r.Depth, r.Text, r.Path,
			r.Expandable, r.Expanded, r.Checkable, r.Checked, r.Last)
		if err != nil {
			return fmt.Errorf("insert row %d: %w", r.Index, err)
		}
	}
	return tx.Commit()
}

func insertMeta(db *sql.DB, title string, count int) error {
	meta := [][2]string{
		{"schema_version", SchemaVersion},
		{"title", title},
		{"row_count", fmt.Sprint(count)},
		{"exported_at", time.Now().UTC().Format(time.RFC3339)},
	}
	for _, kv := range meta {
		if _, err := db.Exec(`INSERT INTO meta (key, value) VALUES (?, ?)`, kv[0], kv[1]); err != nil {
			return err
		}
	}
	return nil
}
