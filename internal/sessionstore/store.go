package sessionstore

import (
	"bunker-backend/internal/components/assert"
	"bunker-backend/internal/components/chrono"
	"bunker-backend/internal/components/telemetry"
	"bunker-backend/internal/db"
	"bunker-backend/internal/scrapers/ecampus"
	"bunker-backend/internal/service"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mazen160/go-random"
	"go.opentelemetry.io/otel/codes"
)

var tracer = telemetry.Tracer("bunker.sessionstore")

const (
	report_store_create = "store.create"
	report_store_get    = "store.get"
	report_store_purge  = "store.purge-expired"
)

// DefaultLifetime is how long a session stays valid after login.
const DefaultLifetime = 7 * 24 * time.Hour

const sessionIdLength = 48

// ErrNotFound is returned for unknown and expired sessions alike.
var ErrNotFound = errors.New("session not found")

type ManualEntry struct {
	Id        string    `json:"id"`
	Subject   string    `json:"subject"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// Data is everything remembered between the login and later requests of the same
// browser session.
type Data struct {
	Id               string
	Username         string
	StudentName      string
	Subjects         []service.Subject
	Timetable        ecampus.WeeklySchedule
	ManualAttendance []ManualEntry
	CreatedAt        time.Time
	ExpiresAt        time.Time
}

type Options struct {
	// Lifetime defaults to DefaultLifetime.
	Lifetime time.Duration
	// Time defaults to chrono.StandardTime.
	Time chrono.TimeAPI
	// Tel defaults to telemetry.SlogAPI.
	Tel telemetry.API
}

type Store struct {
	db       *sql.DB
	qry      *db.Queries
	makeTx   db.MakeTx
	lifetime time.Duration
	time     chrono.TimeAPI
	tel      telemetry.API
}

// Open opens the database described by config and prepares the schema.
func Open(ctx context.Context, config Config, opts Options) (Store, error) {
	database, err := config.OpenDB()
	if err != nil {
		return Store{}, err
	}
	store, err := NewStore(ctx, database, opts)
	if err != nil {
		database.Close()
		return Store{}, err
	}
	return store, nil
}

// NewStore creates the session tables if needed and returns a Store over database.
func NewStore(ctx context.Context, database *sql.DB, opts Options) (Store, error) {
	assert.NotNil(database)

	if opts.Lifetime <= 0 {
		opts.Lifetime = DefaultLifetime
	}
	if opts.Time == nil {
		opts.Time = chrono.NewStandardTime()
	}
	if opts.Tel == nil {
		opts.Tel = telemetry.SlogAPI{}
	}

	// executed one statement at a time, remote libsql rejects batches in Exec
	for _, stmt := range strings.Split(db.Schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		_, err := database.ExecContext(ctx, stmt)
		if err != nil {
			return Store{}, fmt.Errorf("session store: apply schema: %w", err)
		}
	}

	return Store{
		db:       database,
		qry:      db.New(database),
		makeTx:   db.NewMakeTx(database),
		lifetime: opts.Lifetime,
		time:     opts.Time,
		tel:      telemetry.NewScopedAPI("sessionstore", opts.Tel),
	}, nil
}

func (s Store) Close() error {
	return s.db.Close()
}

// Create persists the result of a login and returns the new session's id. The
// username must already be normalized and non-empty.
func (s Store) Create(ctx context.Context, username string, result service.LoginResult) (string, error) {
	assert.NotEmptyStr(username)

	ctx, span := tracer.Start(ctx, "Create")
	defer span.End()

	id, err := random.String(sessionIdLength)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to generate session id")
		s.tel.ReportBroken(report_store_create, err)
		return "", err
	}

	subjects, timetable, err := encodeData(result.Subjects, result.WeeklySchedule)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to encode session data")
		return "", err
	}

	now := s.time.Now()
	err = s.qry.CreateSession(ctx, db.CreateSessionParams{
		ID:          id,
		Username:    username,
		StudentName: result.StudentName,
		Subjects:    subjects,
		Timetable:   timetable,
		CreatedAt:   now.Unix(),
		ExpiresAt:   now.Add(s.lifetime).Unix(),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to insert session row")
		s.tel.ReportBroken(report_store_create, err)
		return "", err
	}
	return id, nil
}

func encodeData(subjects []service.Subject, timetable ecampus.WeeklySchedule) (string, string, error) {
	if subjects == nil {
		subjects = []service.Subject{}
	}
	if timetable == nil {
		timetable = ecampus.WeeklySchedule{}
	}
	encodedSubjects, err := json.Marshal(subjects)
	if err != nil {
		return "", "", fmt.Errorf("encode subjects: %w", err)
	}
	encodedTimetable, err := json.Marshal(timetable)
	if err != nil {
		return "", "", fmt.Errorf("encode timetable: %w", err)
	}
	return string(encodedSubjects), string(encodedTimetable), nil
}

func (s Store) getRow(ctx context.Context, qry *db.Queries, id string) (db.Session, error) {
	row, err := qry.GetSession(ctx, db.GetSessionParams{
		ID:  id,
		Now: s.time.Now().Unix(),
	})
	if errors.Is(err, sql.ErrNoRows) {
		return db.Session{}, ErrNotFound
	}
	return row, err
}

// Get returns a live session with its manual attendance log, expired sessions are
// reported as ErrNotFound.
func (s Store) Get(ctx context.Context, id string) (Data, error) {
	ctx, span := tracer.Start(ctx, "Get")
	defer span.End()

	row, err := s.getRow(ctx, s.qry, id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to query session")
			s.tel.ReportBroken(report_store_get, err)
		}
		return Data{}, err
	}

	data := Data{
		Id:          row.ID,
		Username:    row.Username,
		StudentName: row.StudentName,
		CreatedAt:   time.Unix(row.CreatedAt, 0).In(chrono.IST),
		ExpiresAt:   time.Unix(row.ExpiresAt, 0).In(chrono.IST),
	}
	err = json.Unmarshal([]byte(row.Subjects), &data.Subjects)
	if err != nil {
		s.tel.ReportBroken(report_store_get, fmt.Errorf("decode subjects: %w", err), id)
		return Data{}, err
	}
	err = json.Unmarshal([]byte(row.Timetable), &data.Timetable)
	if err != nil {
		s.tel.ReportBroken(report_store_get, fmt.Errorf("decode timetable: %w", err), id)
		return Data{}, err
	}

	entries, err := s.qry.GetManualAttendance(ctx, id)
	if err != nil {
		s.tel.ReportBroken(report_store_get, fmt.Errorf("query manual attendance: %w", err), id)
		return Data{}, err
	}
	data.ManualAttendance = make([]ManualEntry, len(entries))
	for i, e := range entries {
		data.ManualAttendance[i] = ManualEntry{
			Id:        e.ID,
			Subject:   e.Subject,
			Status:    e.Status,
			Timestamp: time.UnixMilli(e.RecordedAt).In(chrono.IST),
		}
	}

	return data, nil
}

// UpdateData replaces the subjects and timetable of a live session, used after the
// portal has been scraped again.
func (s Store) UpdateData(ctx context.Context, id string, subjects []service.Subject, timetable ecampus.WeeklySchedule) error {
	encodedSubjects, encodedTimetable, err := encodeData(subjects, timetable)
	if err != nil {
		return err
	}

	tx, discard, commit, err := s.makeTx(ctx)
	if err != nil {
		return err
	}
	defer discard()

	_, err = s.getRow(ctx, tx, id)
	if err != nil {
		return err
	}
	err = tx.UpdateSessionData(ctx, db.UpdateSessionDataParams{
		Subjects:  encodedSubjects,
		Timetable: encodedTimetable,
		ID:        id,
	})
	if err != nil {
		return err
	}
	return commit()
}

// AddManualEntry appends a self reported attendance mark to a live session.
func (s Store) AddManualEntry(ctx context.Context, id, subject, status string) (ManualEntry, error) {
	tx, discard, commit, err := s.makeTx(ctx)
	if err != nil {
		return ManualEntry{}, err
	}
	defer discard()

	_, err = s.getRow(ctx, tx, id)
	if err != nil {
		return ManualEntry{}, err
	}

	now := s.time.Now()
	entry := ManualEntry{
		Id:        uuid.NewString(),
		Subject:   subject,
		Status:    status,
		Timestamp: now,
	}
	err = tx.AddManualAttendance(ctx, db.AddManualAttendanceParams{
		ID:         entry.Id,
		SessionID:  id,
		Subject:    subject,
		Status:     status,
		RecordedAt: now.UnixMilli(),
	})
	if err != nil {
		return ManualEntry{}, err
	}
	return entry, commit()
}

// ClearManual empties the manual attendance log of a live session.
func (s Store) ClearManual(ctx context.Context, id string) error {
	tx, discard, commit, err := s.makeTx(ctx)
	if err != nil {
		return err
	}
	defer discard()

	_, err = s.getRow(ctx, tx, id)
	if err != nil {
		return err
	}
	err = tx.DeleteManualAttendance(ctx, id)
	if err != nil {
		return err
	}
	return commit()
}

// Delete removes a session and its manual log, deleting an unknown session is not
// an error.
func (s Store) Delete(ctx context.Context, id string) error {
	tx, discard, commit, err := s.makeTx(ctx)
	if err != nil {
		return err
	}
	defer discard()

	err = tx.DeleteManualAttendance(ctx, id)
	if err != nil {
		return err
	}
	err = tx.DeleteSession(ctx, id)
	if err != nil {
		return err
	}
	return commit()
}

// PurgeExpired deletes every expired session and returns how many were removed.
func (s Store) PurgeExpired(ctx context.Context) (int64, error) {
	ctx, span := tracer.Start(ctx, "PurgeExpired")
	defer span.End()

	tx, discard, commit, err := s.makeTx(ctx)
	if err != nil {
		return 0, err
	}
	defer discard()

	removed, err := tx.DeleteExpiredSessions(ctx, s.time.Now().Unix())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to delete expired sessions")
		s.tel.ReportBroken(report_store_purge, err)
		return 0, err
	}
	_, err = tx.DeleteOrphanedManualAttendance(ctx)
	if err != nil {
		s.tel.ReportBroken(report_store_purge, err)
		return 0, err
	}
	err = commit()
	if err != nil {
		return 0, err
	}

	s.tel.ReportCount(report_store_purge, removed)
	return removed, nil
}
