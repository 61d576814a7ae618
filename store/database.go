// Package store persists device configuration and display history
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const defaultHistoryLimit = 50

type Database struct {
	db *sql.DB
}

func NewDatabase(dbPath string) (*Database, error) {
	// Create directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// both frame processes write here
	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	database := &Database{db: db}

	// Create table if it doesn't exist
	if err := database.createTable(); err != nil {
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return database, nil
}

func (d *Database) createTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS display_history (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		image_name   TEXT NOT NULL,
		source       TEXT NOT NULL,
		displayed_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_display_history_displayed_at ON display_history(displayed_at);
	`
	_, err := d.db.Exec(query)
	return err
}

// RecordDisplay appends a successful render to the history.
func (d *Database) RecordDisplay(name, source string, at time.Time) error {
	query := `INSERT INTO display_history (image_name, source, displayed_at) VALUES (?, ?, ?)`
	_, err := d.db.Exec(query, name, source, at.UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to record display: %w", err)
	}
	return nil
}

// GetHistory returns the most recent renders, newest first.
func (d *Database) GetHistory(limit int) ([]DisplayEvent, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	query := `
		SELECT id, image_name, source, displayed_at
		FROM display_history
		ORDER BY displayed_at DESC, id DESC
		LIMIT ?
	`
	rows, err := d.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	events := []DisplayEvent{}
	for rows.Next() {
		var e DisplayEvent
		var ms int64
		if err := rows.Scan(&e.ID, &e.ImageName, &e.Source, &ms); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		e.DisplayedAt = time.UnixMilli(ms).UTC()
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return events, nil
}

// RenameImage rewrites history rows so they follow a local rename.
func (d *Database) RenameImage(oldName, newName string) error {
	query := `UPDATE display_history SET image_name = ? WHERE image_name = ?`
	if _, err := d.db.Exec(query, newName, oldName); err != nil {
		return fmt.Errorf("failed to rename history rows: %w", err)
	}
	return nil
}

func (d *Database) Close() error {
	return d.db.Close()
}
