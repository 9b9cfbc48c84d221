package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/apex/log"
	_ "github.com/go-sql-driver/mysql"

	"oceanwatch/config"
	"oceanwatch/lifecycle"
	"oceanwatch/models"
)

// Database is the MySQL persistence gateway. It implements
// lifecycle.Gateway: atomic single-row insert and update, no transactions
// spanning rows, no retries.
type Database struct {
	db *sql.DB
}

// NewDatabase opens and pings a MySQL connection from config.
func NewDatabase(cfg *config.Config) (*Database, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&multiStatements=true",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	log.Infof("Database connected to %s:%s/%s", cfg.DBHost, cfg.DBPort, cfg.DBName)

	return &Database{db: db}, nil
}

// NewWithDB wraps an existing connection. Used by tests.
func NewWithDB(db *sql.DB) *Database {
	return &Database{db: db}
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.db.Close()
}

// EnsureReportsTable creates the reports table if it doesn't exist.
func (d *Database) EnsureReportsTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS reports (
			id BIGINT NOT NULL AUTO_INCREMENT,
			description TEXT NOT NULL,
			hazard_type VARCHAR(64) NOT NULL,
			severity VARCHAR(32) NOT NULL,
			latitude DOUBLE,
			longitude DOUBLE,
			contact_name VARCHAR(255),
			contact_phone VARCHAR(64),
			media_url VARCHAR(512),
			status ENUM('pending', 'validated', 'resolved', 'false') NOT NULL DEFAULT 'pending',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			PRIMARY KEY (id),
			INDEX status_index (status),
			INDEX created_at_index (created_at),
			INDEX latitude_index (latitude),
			INDEX longitude_index (longitude)
		)
	`

	_, err := d.db.ExecContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to create reports table: %w", err)
	}

	log.Info("Reports table ensured")
	return nil
}

// EnsureModerationEventsTable creates the moderation audit table if it
// doesn't exist.
func (d *Database) EnsureModerationEventsTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS moderation_events (
			seq BIGINT NOT NULL AUTO_INCREMENT,
			ts TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			actor VARCHAR(255),
			actor_ip VARCHAR(64),
			action VARCHAR(64) NOT NULL,
			report_id BIGINT NOT NULL,
			details JSON,
			PRIMARY KEY (seq),
			INDEX report_id_index (report_id)
		)
	`

	_, err := d.db.ExecContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to create moderation_events table: %w", err)
	}

	log.Info("Moderation events table ensured")
	return nil
}

// Insert stores a new report and returns its persistence-assigned id.
func (d *Database) Insert(ctx context.Context, r *models.Report) (int64, error) {
	query := `
		INSERT INTO reports (description, hazard_type, severity, latitude, longitude,
			contact_name, contact_phone, media_url, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := d.db.ExecContext(ctx, query,
		r.Description,
		r.HazardType,
		string(r.Severity),
		r.Latitude,
		r.Longitude,
		nullableStr(r.ContactName),
		nullableStr(r.ContactPhone),
		nullableStr(r.MediaURL),
		string(r.Status),
		r.CreatedAt,
		r.UpdatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert report: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get report id: %w", err)
	}

	return id, nil
}

const reportColumns = `id, description, hazard_type, severity, latitude, longitude, contact_name, contact_phone, media_url, status, created_at, updated_at`

// SelectAll returns reports matching the filter. NewestFirst orders by
// created_at descending.
func (d *Database) SelectAll(ctx context.Context, f lifecycle.Filter) ([]models.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports`
	var args []interface{}
	if f.Status != nil {
		query += ` WHERE status = ?`
		args = append(args, string(*f.Status))
	}
	if f.NewestFirst {
		query += ` ORDER BY created_at DESC, id DESC`
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select reports: %w", err)
	}
	defer rows.Close()

	reports := make([]models.Report, 0)
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, *r)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reports: %w", err)
	}

	return reports, nil
}

// GetByID returns a single report or lifecycle.ErrReportNotFound.
func (d *Database) GetByID(ctx context.Context, id int64) (*models.Report, error) {
	row := d.db.QueryRowContext(ctx, `SELECT `+reportColumns+` FROM reports WHERE id = ?`, id)
	r, err := scanReport(row)
	if err == sql.ErrNoRows {
		return nil, lifecycle.ErrReportNotFound
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// UpdateStatus sets the status and updated_at of an existing report. The
// update is unconditional (last-writer-wins); only existence is checked.
func (d *Database) UpdateStatus(ctx context.Context, id int64, status models.Status, updatedAt time.Time) error {
	var exists int
	err := d.db.QueryRowContext(ctx, "SELECT 1 FROM reports WHERE id = ?", id).Scan(&exists)
	if err != nil {
		if err == sql.ErrNoRows {
			return lifecycle.ErrReportNotFound
		}
		return fmt.Errorf("failed to check if report exists: %w", err)
	}

	_, err = d.db.ExecContext(ctx,
		`UPDATE reports SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), updatedAt, id)
	if err != nil {
		return fmt.Errorf("failed to update report status: %w", err)
	}

	log.Infof("Report %d status set to %s", id, status)
	return nil
}

// ModerationEvent is a moderation/audit row.
type ModerationEvent struct {
	Actor    string
	ActorIP  string
	Action   string
	ReportID int64
	Details  any
}

// InsertModerationEvent appends an audit row (best-effort). Callers should
// treat failures as non-fatal; the primary operation must not depend on it.
func (d *Database) InsertModerationEvent(ctx context.Context, ev ModerationEvent) error {
	var detailsJSON []byte
	if ev.Details != nil {
		if b, err := json.Marshal(ev.Details); err == nil {
			detailsJSON = b
		}
	}

	_, err := d.db.ExecContext(ctx, `
		INSERT INTO moderation_events (actor, actor_ip, action, report_id, details)
		VALUES (?, ?, ?, ?, ?)
	`,
		nullableStr(ev.Actor),
		nullableStr(ev.ActorIP),
		ev.Action,
		ev.ReportID,
		nullableBytes(detailsJSON),
	)
	if err != nil {
		return fmt.Errorf("insert moderation_events: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanReport(row rowScanner) (*models.Report, error) {
	var r models.Report
	var lat, lng sql.NullFloat64
	var contactName, contactPhone, mediaURL sql.NullString
	var status, severity string

	err := row.Scan(
		&r.ID,
		&r.Description,
		&r.HazardType,
		&severity,
		&lat,
		&lng,
		&contactName,
		&contactPhone,
		&mediaURL,
		&status,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan report: %w", err)
	}

	r.Severity = models.Severity(severity)
	r.Status = models.Status(status)
	if lat.Valid {
		r.Latitude = &lat.Float64
	}
	if lng.Valid {
		r.Longitude = &lng.Float64
	}
	r.ContactName = contactName.String
	r.ContactPhone = contactPhone.String
	r.MediaURL = mediaURL.String

	return &r, nil
}

func nullableStr(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullableBytes(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return b
}
