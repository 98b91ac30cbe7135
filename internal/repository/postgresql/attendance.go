package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pinnacle-hris/payroll-engine/internal/domain/attendance"
	"github.com/pinnacle-hris/payroll-engine/internal/pkg/database"
)

const attendanceColumns = `id, employee_id, date, in_time, out_time, shift, log_in_source, log_out_source,
	status, doc_status, amended_from, note, created_at, updated_at`

// pgUniqueViolation is the SQLSTATE of a unique constraint failure.
const pgUniqueViolation = "23505"

type attendanceRepositoryImpl struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepositoryImpl{db: db}
}

func scanAttendance(row pgx.Row) (attendance.AttendanceRecord, error) {
	var (
		rec     attendance.AttendanceRecord
		in, out pgtype.Time
	)
	err := row.Scan(
		&rec.ID, &rec.EmployeeID, &rec.Date, &in, &out, &rec.ShiftID, &rec.LogInSource, &rec.LogOutSource,
		&rec.Status, &rec.DocStatus, &rec.AmendedFrom, &rec.Note, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return attendance.AttendanceRecord{}, err
	}
	rec.In, rec.Out = clockValue(in), clockValue(out)
	return rec, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// Create implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) Create(ctx context.Context, rec attendance.AttendanceRecord) (attendance.AttendanceRecord, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO attendance_records (
			id, employee_id, date, in_time, out_time, shift, log_in_source, log_out_source,
			status, doc_status, amended_from, note
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING ` + attendanceColumns

	created, err := scanAttendance(q.QueryRow(ctx, query,
		rec.ID, rec.EmployeeID, dateParam(&rec.Date), clockParam(rec.In), clockParam(rec.Out), rec.ShiftID,
		rec.LogInSource, rec.LogOutSource, rec.Status, rec.DocStatus, rec.AmendedFrom, rec.Note,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return attendance.AttendanceRecord{}, attendance.ErrAttendanceExists
		}
		return attendance.AttendanceRecord{}, fmt.Errorf("failed to create attendance record: %w", err)
	}
	return created, nil
}

// GetByID implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) GetByID(ctx context.Context, id string) (attendance.AttendanceRecord, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + attendanceColumns + ` FROM attendance_records WHERE id = $1`

	rec, err := scanAttendance(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.AttendanceRecord{}, attendance.ErrAttendanceNotFound
		}
		return attendance.AttendanceRecord{}, fmt.Errorf("failed to get attendance record with id %s: %w", id, err)
	}
	return rec, nil
}

// GetActive implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) GetActive(ctx context.Context, employeeID string, date time.Time) (*attendance.AttendanceRecord, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + attendanceColumns + `
		FROM attendance_records
		WHERE employee_id = $1 AND date = $2 AND doc_status <> $3
	`

	rec, err := scanAttendance(q.QueryRow(ctx, query, employeeID, dateParam(&date), attendance.DocCancelled))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get active attendance: %w", err)
	}
	return &rec, nil
}

// ListSubmitted implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) ListSubmitted(ctx context.Context, employeeID string, from, to time.Time) ([]attendance.AttendanceRecord, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + attendanceColumns + `
		FROM attendance_records
		WHERE employee_id = $1 AND doc_status = $2 AND date BETWEEN $3 AND $4
		ORDER BY date
	`

	rows, err := q.Query(ctx, query, employeeID, attendance.DocSubmitted, dateParam(&from), dateParam(&to))
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance records: %w", err)
	}
	defer rows.Close()

	var records []attendance.AttendanceRecord
	for rows.Next() {
		rec, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance record: %w", err)
		}
		records = append(records, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// Cancel implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) Cancel(ctx context.Context, id string, note string) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE attendance_records
		SET doc_status = $1,
			note = CASE WHEN COALESCE(note, '') = '' THEN $2 ELSE note || E'\n' || $2 END,
			updated_at = NOW()
		WHERE id = $3
	`

	tag, err := q.Exec(ctx, query, attendance.DocCancelled, note, id)
	if err != nil {
		return fmt.Errorf("failed to cancel attendance record with id %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return attendance.ErrAttendanceNotFound
	}
	return nil
}

// CountAmendments implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) CountAmendments(ctx context.Context, employeeID string, from, to time.Time) (int, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT COUNT(*)
		FROM attendance_records
		WHERE employee_id = $1 AND amended_from IS NOT NULL AND date BETWEEN $2 AND $3
	`

	var count int
	if err := q.QueryRow(ctx, query, employeeID, dateParam(&from), dateParam(&to)).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count amendments: %w", err)
	}
	return count, nil
}

type checkinRepositoryImpl struct {
	db *database.DB
}

func NewCheckinRepository(db *database.DB) attendance.CheckinRepository {
	return &checkinRepositoryImpl{db: db}
}

// Create implements attendance.CheckinRepository.
func (r *checkinRepositoryImpl) Create(ctx context.Context, c attendance.Checkin) (attendance.Checkin, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO employee_checkins (id, employee_id, time, log_type, shift)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	if err := q.QueryRow(ctx, query, c.ID, c.EmployeeID, c.Time, c.LogType, c.ShiftID).Scan(&c.CreatedAt); err != nil {
		return attendance.Checkin{}, fmt.Errorf("failed to create checkin: %w", err)
	}
	return c, nil
}

// ListBetween implements attendance.CheckinRepository.
func (r *checkinRepositoryImpl) ListBetween(ctx context.Context, employeeIDs []string, from, to time.Time) ([]attendance.Checkin, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, employee_id, time, log_type, shift, created_at
		FROM employee_checkins
		WHERE time >= $1 AND time < $2 AND (cardinality($3::text[]) = 0 OR employee_id = ANY($3))
		ORDER BY time
	`

	if employeeIDs == nil {
		employeeIDs = []string{}
	}
	rows, err := q.Query(ctx, query, from, to, employeeIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list checkins: %w", err)
	}
	defer rows.Close()

	var checkins []attendance.Checkin
	for rows.Next() {
		var c attendance.Checkin
		if err := rows.Scan(&c.ID, &c.EmployeeID, &c.Time, &c.LogType, &c.ShiftID, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan checkin: %w", err)
		}
		checkins = append(checkins, c)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return checkins, nil
}
