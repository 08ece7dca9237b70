// ABOUTME: Journal repository over the local SQLite database
// ABOUTME: Records webhook deliveries and cascade firings for recovery and inspection
package db

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/oklog/ulid/v2"

	"github.com/avriosolutions/gehn/cascade"
)

// Delivery status constants.
const (
	DeliveryReceived  = "received"
	DeliveryProcessed = "processed"
	DeliveryFailed    = "failed"
)

// Firing status constants.
const (
	FiringIntended  = "intended"
	FiringCreated   = "created"
	FiringCompleted = "completed"
)

// Delivery is one journaled webhook delivery.
type Delivery struct {
	ID           string
	ReceivedAt   time.Time
	ResourceType string
	ResourceKey  string
	ActionType   string
	Status       string
	Error        string
}

// Journal is the repository for the local journal. It implements
// cascade.Journal for the engine's duplicate-successor guard and records
// every webhook delivery for inspection.
type Journal struct {
	db *sql.DB
}

// Open opens (creating if needed) the journal database at path and ensures
// the schema exists. The journal owns the connection; call Close when done.
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, err
	}
	// Single connection avoids SQLite "database locked" errors.
	conn.SetMaxOpenConns(1)

	if err := InitSchema(conn); err != nil {
		conn.Close()
		return nil, err
	}
	return &Journal{db: conn}, nil
}

// Close releases the underlying database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

// RecordDelivery inserts a new delivery row and returns its ID.
func (j *Journal) RecordDelivery(resourceType, resourceKey, actionType string) (string, error) {
	id := ulid.Make().String()
	_, err := j.db.Exec(`
		INSERT INTO deliveries (id, received_at, resource_type, resource_key, action_type, status)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id, time.Now().UTC(), resourceType, resourceKey, actionType, DeliveryReceived,
	)
	if err != nil {
		return "", err
	}
	return id, nil
}

// CompleteDelivery marks a delivery processed or failed.
func (j *Journal) CompleteDelivery(id string, processErr error) error {
	status := DeliveryProcessed
	errText := ""
	if processErr != nil {
		status = DeliveryFailed
		errText = processErr.Error()
	}
	_, err := j.db.Exec(`UPDATE deliveries SET status = ?, error = ? WHERE id = ?`, status, errText, id)
	return err
}

// ListDeliveries returns the most recent deliveries, newest first.
func (j *Journal) ListDeliveries(limit int) ([]Delivery, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.db.Query(`
		SELECT id, received_at, resource_type, resource_key, action_type, status, COALESCE(error, '')
		FROM deliveries
		ORDER BY received_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Delivery
	for rows.Next() {
		var d Delivery
		if err := rows.Scan(&d.ID, &d.ReceivedAt, &d.ResourceType, &d.ResourceKey, &d.ActionType, &d.Status, &d.Error); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// FindFiring returns the firing record for a work item/template pair, or nil.
func (j *Journal) FindFiring(workItemKey, templateKey string) (*cascade.Firing, error) {
	row := j.db.QueryRow(`
		SELECT work_item_key, template_key, COALESCE(resulting_work_item_key, ''),
		       COALESCE(resulting_title, ''), status
		FROM cascade_firings
		WHERE work_item_key = ? AND template_key = ?`,
		workItemKey, templateKey)

	var f cascade.Firing
	var status string
	err := row.Scan(&f.WorkItemKey, &f.TemplateKey, &f.ResultingWorkItemKey, &f.ResultingTitle, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	f.Completed = status == FiringCompleted
	return &f, nil
}

// RecordFiringIntent writes the intent row before the successor is created.
func (j *Journal) RecordFiringIntent(workItemKey, templateKey string) error {
	_, err := j.db.Exec(`
		INSERT INTO cascade_firings (work_item_key, template_key, status, fired_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(work_item_key, template_key) DO NOTHING`,
		workItemKey, templateKey, FiringIntended, time.Now().UTC(),
	)
	return err
}

// MarkFiringCreated records the successor the remote API handed back.
func (j *Journal) MarkFiringCreated(workItemKey, templateKey, resultKey, resultTitle string) error {
	_, err := j.db.Exec(`
		UPDATE cascade_firings
		SET resulting_work_item_key = ?, resulting_title = ?, status = ?
		WHERE work_item_key = ? AND template_key = ?`,
		resultKey, resultTitle, FiringCreated, workItemKey, templateKey,
	)
	return err
}

// MarkFiringCompleted records that the predecessor update also landed.
func (j *Journal) MarkFiringCompleted(workItemKey, templateKey string) error {
	_, err := j.db.Exec(`
		UPDATE cascade_firings
		SET status = ?
		WHERE work_item_key = ? AND template_key = ?`,
		FiringCompleted, workItemKey, templateKey,
	)
	return err
}
