// internal/apiserver/db.go
package apiserver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/signalnine/wildguard/internal/protocol"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a report id does not exist
var ErrNotFound = errors.New("report not found")

const schema = `
CREATE TABLE IF NOT EXISTS reports (
	id TEXT PRIMARY KEY,
	type TEXT NOT NULL,
	priority TEXT NOT NULL,
	status TEXT NOT NULL,
	latitude REAL,
	longitude REAL,
	description TEXT NOT NULL,
	reported_at TEXT NOT NULL,
	reporter_phone TEXT,
	trust_score INTEGER
);
CREATE INDEX IF NOT EXISTS idx_reports_status ON reports(status);
CREATE INDEX IF NOT EXISTS idx_reports_reported_at ON reports(reported_at);

CREATE TABLE IF NOT EXISTS verifications (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	report_id TEXT NOT NULL,
	action TEXT NOT NULL,
	notes TEXT,
	reward_amount REAL,
	follow_up INTEGER NOT NULL DEFAULT 0,
	verified_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_verifications_report ON verifications(report_id);

CREATE TABLE IF NOT EXISTS public_reports (
	id TEXT PRIMARY KEY,
	type TEXT NOT NULL,
	animal TEXT,
	location TEXT NOT NULL,
	urgency TEXT NOT NULL,
	description TEXT NOT NULL,
	contact TEXT,
	submitted_at TEXT NOT NULL,
	status TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS contacts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	email TEXT NOT NULL,
	subject TEXT,
	message TEXT NOT NULL,
	received_at TEXT NOT NULL
);
`

// DB wraps the SQLite store behind the demo API
type DB struct {
	db *sql.DB
}

// NewDB opens or creates the database and seeds it on first open
func NewDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// SQLite takes one writer at a time, and every pooled :memory:
	// connection would get its own empty database
	conn.SetMaxOpenConns(1)
	conn.SetConnMaxLifetime(0)

	if _, err := conn.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		conn.Close()
		return nil, err
	}
	if path != ":memory:" {
		if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
			conn.Close()
			return nil, err
		}
	}

	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	d := &DB{db: conn}
	if err := d.seed(context.Background(), time.Now().UTC()); err != nil {
		conn.Close()
		return nil, fmt.Errorf("seed: %w", err)
	}
	return d, nil
}

// newDBFromConn wraps an open connection without touching the schema
func newDBFromConn(conn *sql.DB) *DB {
	return &DB{db: conn}
}

// Close closes the database connection
func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) seed(ctx context.Context, now time.Time) error {
	var n int
	if err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reports`).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	for _, r := range seedReports(now) {
		if err := d.InsertReport(ctx, r); err != nil {
			return err
		}
	}
	for _, r := range seedPublicReports(now) {
		if err := d.InsertPublicReport(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

// ReportQuery filters ListReports. Zero fields match everything.
type ReportQuery struct {
	Status   string
	Priority string
	ReportID string
	Limit    int
}

const reportColumns = `id, type, priority, status, latitude, longitude, description, reported_at, reporter_phone, trust_score`

// execer is satisfied by both *sql.DB and *sql.Tx
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// InsertReport stores a rangers report
func (d *DB) InsertReport(ctx context.Context, r protocol.Report) error {
	return insertReport(ctx, d.db, r)
}

func insertReport(ctx context.Context, ex execer, r protocol.Report) error {
	var lat, lng sql.NullFloat64
	if r.Location != nil {
		lat = sql.NullFloat64{Float64: r.Location.Latitude, Valid: true}
		lng = sql.NullFloat64{Float64: r.Location.Longitude, Valid: true}
	}
	var phone sql.NullString
	var trust sql.NullInt64
	if r.Reporter != nil {
		phone = sql.NullString{String: r.Reporter.PhoneNumber, Valid: true}
		trust = sql.NullInt64{Int64: int64(r.Reporter.TrustScore), Valid: true}
	}

	_, err := ex.ExecContext(ctx, `
		INSERT INTO reports (`+reportColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.Type, r.Priority, r.Status, lat, lng, r.Description,
		r.ReportedAt.UTC().Format(time.RFC3339), phone, trust)
	return err
}

// ListReports returns reports newest first
func (d *DB) ListReports(ctx context.Context, q ReportQuery) ([]protocol.Report, error) {
	var where []string
	var args []interface{}
	if q.Status != "" {
		where = append(where, "status = ?")
		args = append(args, q.Status)
	}
	if q.Priority != "" {
		where = append(where, "priority = ?")
		args = append(args, q.Priority)
	}
	if q.ReportID != "" {
		where = append(where, "id = ?")
		args = append(args, q.ReportID)
	}

	query := `SELECT ` + reportColumns + ` FROM reports`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY reported_at DESC`
	if q.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, q.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanReports(rows)
}

// GetReport returns a single report or ErrNotFound
func (d *DB) GetReport(ctx context.Context, id string) (protocol.Report, error) {
	reports, err := d.ListReports(ctx, ReportQuery{ReportID: id, Limit: 1})
	if err != nil {
		return protocol.Report{}, err
	}
	if len(reports) == 0 {
		return protocol.Report{}, ErrNotFound
	}
	return reports[0], nil
}

// statusForAction maps a verification action to the status it sets
var statusForAction = map[string]string{
	protocol.ActionApprove:     protocol.StatusVerified,
	protocol.ActionReject:      protocol.StatusRejected,
	protocol.ActionInvestigate: protocol.StatusInvestigating,
}

// VerifyReport applies a verification decision and records it
func (d *DB) VerifyReport(ctx context.Context, id string, vr protocol.VerifyRequest, at time.Time) (protocol.Report, error) {
	status, ok := statusForAction[vr.Action]
	if !ok {
		return protocol.Report{}, fmt.Errorf("unknown action %q", vr.Action)
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return protocol.Report{}, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `UPDATE reports SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return protocol.Report{}, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return protocol.Report{}, err
	} else if n == 0 {
		return protocol.Report{}, ErrNotFound
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO verifications (report_id, action, notes, reward_amount, follow_up, verified_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, id, vr.Action, vr.Notes, vr.RewardAmount, vr.FollowUpRequired, at.UTC().Format(time.RFC3339))
	if err != nil {
		return protocol.Report{}, err
	}

	if err := tx.Commit(); err != nil {
		return protocol.Report{}, err
	}
	return d.GetReport(ctx, id)
}

// Stats computes the dashboard counters as of now
func (d *DB) Stats(ctx context.Context, now time.Time) (protocol.DashboardStats, error) {
	var s protocol.DashboardStats
	now = now.UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).Format(time.RFC3339)

	err := d.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN status = 'pending' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN priority = 'urgent' AND status IN ('pending', 'investigating') THEN 1 ELSE 0 END), 0)
		FROM reports
	`).Scan(&s.TotalReports, &s.PendingVerifications, &s.UrgentReports)
	if err != nil {
		return s, err
	}

	err = d.db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT report_id) FROM verifications
		WHERE action = 'approve' AND verified_at >= ?
	`, dayStart).Scan(&s.VerifiedToday)
	return s, err
}

// InsertPublicReport stores a public-site submission
func (d *DB) InsertPublicReport(ctx context.Context, r protocol.PublicReport) error {
	return insertPublicReport(ctx, d.db, r)
}

func insertPublicReport(ctx context.Context, ex execer, r protocol.PublicReport) error {
	_, err := ex.ExecContext(ctx, `
		INSERT INTO public_reports (id, type, animal, location, urgency, description, contact, submitted_at, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.Type, r.Animal, r.Location, r.Urgency, r.Description, r.Contact,
		r.Timestamp.UTC().Format(time.RFC3339), r.Status)
	return err
}

// SubmitPublicReport stores a public submission together with the rangers
// report it becomes. Either both rows are written or neither is.
func (d *DB) SubmitPublicReport(ctx context.Context, public protocol.PublicReport, ranger protocol.Report) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertPublicReport(ctx, tx, public); err != nil {
		return fmt.Errorf("public report: %w", err)
	}
	if err := insertReport(ctx, tx, ranger); err != nil {
		return fmt.Errorf("rangers report: %w", err)
	}
	return tx.Commit()
}

// ListPublicReports returns public submissions newest first
func (d *DB) ListPublicReports(ctx context.Context, limit int) ([]protocol.PublicReport, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, type, animal, location, urgency, description, contact, submitted_at, status
		FROM public_reports
		ORDER BY submitted_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reports := []protocol.PublicReport{}
	for rows.Next() {
		var r protocol.PublicReport
		var animal, contact sql.NullString
		var ts string
		if err := rows.Scan(&r.ID, &r.Type, &animal, &r.Location, &r.Urgency, &r.Description, &contact, &ts, &r.Status); err != nil {
			return nil, err
		}
		r.Animal = animal.String
		r.Contact = contact.String
		r.Timestamp, _ = time.Parse(time.RFC3339, ts)
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

// PublicActivity counts public submissions in the trailing hour, day and week
func (d *DB) PublicActivity(ctx context.Context, now time.Time) (protocol.RecentActivity, error) {
	var a protocol.RecentActivity
	err := d.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN submitted_at >= ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN submitted_at >= ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN submitted_at >= ? THEN 1 ELSE 0 END), 0)
		FROM public_reports
	`,
		now.Add(-time.Hour).UTC().Format(time.RFC3339),
		now.Add(-24*time.Hour).UTC().Format(time.RFC3339),
		now.Add(-7*24*time.Hour).UTC().Format(time.RFC3339),
	).Scan(&a.LastHour, &a.LastDay, &a.LastWeek)
	return a, err
}

// InsertContact stores a contact-form message
func (d *DB) InsertContact(ctx context.Context, c protocol.ContactRequest, at time.Time) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO contacts (name, email, subject, message, received_at)
		VALUES (?, ?, ?, ?, ?)
	`, c.Name, c.Email, c.Subject, c.Message, at.UTC().Format(time.RFC3339))
	return err
}

func scanReports(rows *sql.Rows) ([]protocol.Report, error) {
	reports := []protocol.Report{}
	for rows.Next() {
		var r protocol.Report
		var lat, lng sql.NullFloat64
		var ts string
		var phone sql.NullString
		var trust sql.NullInt64

		err := rows.Scan(&r.ID, &r.Type, &r.Priority, &r.Status, &lat, &lng, &r.Description, &ts, &phone, &trust)
		if err != nil {
			return nil, err
		}

		r.ReportedAt, _ = time.Parse(time.RFC3339, ts)
		if lat.Valid && lng.Valid {
			r.Location = &protocol.Location{Latitude: lat.Float64, Longitude: lng.Float64}
		}
		if phone.Valid {
			r.Reporter = &protocol.Reporter{PhoneNumber: phone.String, TrustScore: int(trust.Int64)}
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}
