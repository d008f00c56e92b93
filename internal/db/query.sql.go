// source: query.sql

package db

import (
	"context"
)

const addManualAttendance = `-- name: AddManualAttendance :exec
insert into manual_attendance(id, session_id, subject, status, recorded_at)
values (?, ?, ?, ?, ?)
`

type AddManualAttendanceParams struct {
	ID         string
	SessionID  string
	Subject    string
	Status     string
	RecordedAt int64
}

func (q *Queries) AddManualAttendance(ctx context.Context, arg AddManualAttendanceParams) error {
	_, err := q.db.ExecContext(ctx, addManualAttendance,
		arg.ID,
		arg.SessionID,
		arg.Subject,
		arg.Status,
		arg.RecordedAt,
	)
	return err
}

const createSession = `-- name: CreateSession :exec
insert into session(id, username, student_name, subjects, timetable, created_at, expires_at)
values (?, ?, ?, ?, ?, ?, ?)
`

type CreateSessionParams struct {
	ID          string
	Username    string
	StudentName string
	Subjects    string
	Timetable   string
	CreatedAt   int64
	ExpiresAt   int64
}

func (q *Queries) CreateSession(ctx context.Context, arg CreateSessionParams) error {
	_, err := q.db.ExecContext(ctx, createSession,
		arg.ID,
		arg.Username,
		arg.StudentName,
		arg.Subjects,
		arg.Timetable,
		arg.CreatedAt,
		arg.ExpiresAt,
	)
	return err
}

const deleteExpiredSessions = `-- name: DeleteExpiredSessions :execrows
delete from session where expires_at <= ?
`

func (q *Queries) DeleteExpiredSessions(ctx context.Context, expiresAt int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteExpiredSessions, expiresAt)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteManualAttendance = `-- name: DeleteManualAttendance :exec
delete from manual_attendance where session_id = ?
`

func (q *Queries) DeleteManualAttendance(ctx context.Context, sessionID string) error {
	_, err := q.db.ExecContext(ctx, deleteManualAttendance, sessionID)
	return err
}

const deleteOrphanedManualAttendance = `-- name: DeleteOrphanedManualAttendance :execrows
delete from manual_attendance
where session_id not in (select id from session)
`

func (q *Queries) DeleteOrphanedManualAttendance(ctx context.Context) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteOrphanedManualAttendance)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteSession = `-- name: DeleteSession :exec
delete from session where id = ?
`

func (q *Queries) DeleteSession(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, deleteSession, id)
	return err
}

const getManualAttendance = `-- name: GetManualAttendance :many
select id, session_id, subject, status, recorded_at from manual_attendance
where session_id = ?
order by rowid asc
`

func (q *Queries) GetManualAttendance(ctx context.Context, sessionID string) ([]ManualAttendance, error) {
	rows, err := q.db.QueryContext(ctx, getManualAttendance, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ManualAttendance
	for rows.Next() {
		var i ManualAttendance
		if err := rows.Scan(
			&i.ID,
			&i.SessionID,
			&i.Subject,
			&i.Status,
			&i.RecordedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getSession = `-- name: GetSession :one
select id, username, student_name, subjects, timetable, created_at, expires_at from session
where id = ?1 and expires_at > ?2
`

type GetSessionParams struct {
	ID  string
	Now int64
}

func (q *Queries) GetSession(ctx context.Context, arg GetSessionParams) (Session, error) {
	row := q.db.QueryRowContext(ctx, getSession, arg.ID, arg.Now)
	var i Session
	err := row.Scan(
		&i.ID,
		&i.Username,
		&i.StudentName,
		&i.Subjects,
		&i.Timetable,
		&i.CreatedAt,
		&i.ExpiresAt,
	)
	return i, err
}

const updateSessionData = `-- name: UpdateSessionData :exec
update session set subjects = ?, timetable = ?
where id = ?
`

type UpdateSessionDataParams struct {
	Subjects  string
	Timetable string
	ID        string
}

func (q *Queries) UpdateSessionData(ctx context.Context, arg UpdateSessionDataParams) error {
	_, err := q.db.ExecContext(ctx, updateSessionData, arg.Subjects, arg.Timetable, arg.ID)
	return err
}
