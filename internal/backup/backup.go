package backup

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/nimasrn/repair-desk/pkg/logger"
	"github.com/pkg/errors"
)

const (
	ManifestFile    = "manifest.json"
	manifestVersion = 1
	timestampLayout = "20060102_150405"
)

// Tables lists every backed up table in foreign key order.
var Tables = []string{
	"users",
	"clients",
	"appliance_categories",
	"manufacturers",
	"appliances",
	"services",
	"notifications",
	"notification_receipts",
	"push_subscriptions",
	"notification_outbox",
	"notification_deliveries",
	"spare_parts_catalog",
}

// compositeKeys holds the ordering of tables without a serial id.
var compositeKeys = map[string]string{
	"notification_receipts": "notification_id, user_id",
}

func orderBy(table string) string {
	if cols, ok := compositeKeys[table]; ok {
		return cols
	}
	return "id"
}

var identifier = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

type Manifest struct {
	Version   int            `json:"version"`
	CreatedAt time.Time      `json:"created_at"`
	Tables    []string       `json:"tables"`
	Rows      map[string]int `json:"rows"`
}

type Row map[string]any

// Service dumps and restores the whole database as JSON files.
type Service struct {
	db  *sql.DB
	now func() time.Time
}

func New(db *sql.DB) *Service {
	return &Service{db: db, now: time.Now}
}

// Backup writes one <table>.json per table plus a manifest into a new
// timestamped directory below baseDir and returns that directory.
func (s *Service) Backup(ctx context.Context, baseDir string) (string, *Manifest, error) {
	created := s.now().UTC()
	dir := filepath.Join(baseDir, created.Format(timestampLayout))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", nil, errors.Wrap(err, "failed to create backup directory")
	}

	manifest := &Manifest{
		Version:   manifestVersion,
		CreatedAt: created,
		Tables:    Tables,
		Rows:      make(map[string]int, len(Tables)),
	}
	for _, table := range Tables {
		rows, err := s.dumpTable(ctx, table)
		if err != nil {
			return "", nil, errors.Wrapf(err, "failed to dump %s", table)
		}
		if err := writeJSON(filepath.Join(dir, table+".json"), rows); err != nil {
			return "", nil, err
		}
		manifest.Rows[table] = len(rows)
	}
	if err := writeJSON(filepath.Join(dir, ManifestFile), manifest); err != nil {
		return "", nil, err
	}

	logger.Info("backup written", "dir", dir, "tables", len(Tables))
	return dir, manifest, nil
}

func (s *Service) dumpTable(ctx context.Context, table string) ([]Row, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT * FROM %s ORDER BY %s", table, orderBy(table)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	out := []Row{}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(Row, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = values[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// Restore replaces the content of every table with the backup in dir.
// Everything happens in one transaction, a failure leaves the database as
// it was.
func (s *Service) Restore(ctx context.Context, dir string) (*Manifest, error) {
	var manifest Manifest
	if err := readJSON(filepath.Join(dir, ManifestFile), &manifest); err != nil {
		return nil, errors.Wrap(err, "failed to read manifest")
	}
	if manifest.Version != manifestVersion {
		return nil, fmt.Errorf("unsupported backup version %d", manifest.Version)
	}

	data := make(map[string][]Row, len(Tables))
	for _, table := range Tables {
		var rows []Row
		err := readJSON(filepath.Join(dir, table+".json"), &rows)
		if errors.Is(err, os.ErrNotExist) {
			// tables added after the backup was taken start empty
			continue
		}
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read %s", table)
		}
		data[table] = rows
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	for i := len(Tables) - 1; i >= 0; i-- {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+Tables[i]); err != nil {
			return nil, errors.Wrapf(err, "failed to clear %s", Tables[i])
		}
	}
	for _, table := range Tables {
		for _, row := range data[table] {
			if err := insertRow(ctx, tx, table, row); err != nil {
				return nil, errors.Wrapf(err, "failed to restore %s", table)
			}
		}
	}
	for _, table := range Tables {
		if _, ok := compositeKeys[table]; ok {
			continue
		}
		if _, err := tx.ExecContext(ctx, resetSequenceSQL(table)); err != nil {
			return nil, errors.Wrapf(err, "failed to reset sequence of %s", table)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "failed to commit restore")
	}

	logger.Info("backup restored", "dir", dir, "created_at", manifest.CreatedAt)
	return &manifest, nil
}

func insertRow(ctx context.Context, tx *sql.Tx, table string, row Row) error {
	cols := make([]string, 0, len(row))
	for col := range row {
		if !identifier.MatchString(col) {
			return fmt.Errorf("invalid column name %q", col)
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)

	placeholders := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, col := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = argValue(row[col])
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(cols, ", "), strings.Join(placeholders, ", "))
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

func argValue(v any) any {
	switch t := v.(type) {
	case json.Number:
		return t.String()
	case map[string]any, []any:
		raw, _ := json.Marshal(t)
		return string(raw)
	}
	return v
}

func resetSequenceSQL(table string) string {
	return fmt.Sprintf(
		"SELECT setval(pg_get_serial_sequence('%s', 'id'), COALESCE((SELECT MAX(id) FROM %s), 0) + 1, false)",
		table, table)
}

// List returns the backup directories below baseDir, newest first.
func List(baseDir string) ([]string, error) {
	entries, err := os.ReadDir(baseDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var dirs []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(baseDir, e.Name(), ManifestFile)); err == nil {
			dirs = append(dirs, e.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dirs)))
	return dirs, nil
}

func writeJSON(path string, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "failed to encode %s", filepath.Base(path))
	}
	return errors.Wrapf(os.WriteFile(path, raw, 0o644), "failed to write %s", filepath.Base(path))
}

func readJSON(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	dec := json.NewDecoder(f)
	dec.UseNumber()
	return dec.Decode(v)
}
