package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pinnacle-hris/payroll-engine/internal/domain/holiday"
	"github.com/pinnacle-hris/payroll-engine/internal/domain/shift"
	"github.com/pinnacle-hris/payroll-engine/internal/pkg/database"
)

type shiftRepositoryImpl struct {
	db *database.DB
}

func NewShiftRepository(db *database.DB) shift.ShiftRepository {
	return &shiftRepositoryImpl{db: db}
}

// GetShiftType implements shift.ShiftRepository.
func (r *shiftRepositoryImpl) GetShiftType(ctx context.Context, name string) (shift.ShiftType, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT name, start_time, end_time, created_at, updated_at FROM shift_types WHERE name = $1`

	var (
		st         shift.ShiftType
		start, end pgtype.Time
	)
	err := q.QueryRow(ctx, query, name).Scan(&st.Name, &start, &end, &st.CreatedAt, &st.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return shift.ShiftType{}, fmt.Errorf("%w: %s", shift.ErrShiftNotFound, name)
		}
		return shift.ShiftType{}, fmt.Errorf("failed to get shift type %s: %w", name, err)
	}
	st.Start, st.End = *clockValue(start), *clockValue(end)
	return st, nil
}

// ListVariations implements shift.ShiftRepository.
func (r *shiftRepositoryImpl) ListVariations(ctx context.Context, companyID string, from, to time.Time) ([]shift.ShiftVariation, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, company_id, date, start_time, end_time, employees, created_at
		FROM shift_variations
		WHERE company_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date, created_at
	`

	rows, err := q.Query(ctx, query, companyID, dateParam(&from), dateParam(&to))
	if err != nil {
		return nil, fmt.Errorf("failed to list shift variations: %w", err)
	}
	defer rows.Close()

	var variations []shift.ShiftVariation
	for rows.Next() {
		var (
			v          shift.ShiftVariation
			start, end pgtype.Time
		)
		if err := rows.Scan(&v.ID, &v.CompanyID, &v.Date, &start, &end, &v.Employees, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan shift variation: %w", err)
		}
		v.Start, v.End = *clockValue(start), *clockValue(end)
		variations = append(variations, v)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return variations, nil
}

type holidayRepositoryImpl struct {
	db *database.DB
}

func NewHolidayRepository(db *database.DB) holiday.HolidayRepository {
	return &holidayRepositoryImpl{db: db}
}

// ListBetween implements holiday.HolidayRepository.
func (r *holidayRepositoryImpl) ListBetween(ctx context.Context, holidayList string, from, to time.Time) ([]holiday.Holiday, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT holiday_list, date, description
		FROM holidays
		WHERE holiday_list = $1 AND date BETWEEN $2 AND $3
		ORDER BY date
	`

	rows, err := q.Query(ctx, query, holidayList, dateParam(&from), dateParam(&to))
	if err != nil {
		return nil, fmt.Errorf("failed to list holidays: %w", err)
	}
	defer rows.Close()

	var holidays []holiday.Holiday
	for rows.Next() {
		var h holiday.Holiday
		if err := rows.Scan(&h.HolidayList, &h.Date, &h.Description); err != nil {
			return nil, fmt.Errorf("failed to scan holiday: %w", err)
		}
		holidays = append(holidays, h)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return holidays, nil
}
