package attendance

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	mysql "github.com/go-sql-driver/mysql"

	"HRM-backend/internal/platform/db"
)

var (
	ErrDuplicate      = errors.New("attendance already exists")
	ErrRecordNotFound = errors.New("attendance not found")
)

const selectAttendance = `
	SELECT a.attendance_id, a.employee_id, e.employee_code, e.name,
	       DATE_FORMAT(a.attended_on, '%Y-%m-%d') AS attended_on, a.status,
	       a.check_in, a.check_out, a.worked_hours, a.overtime_hours,
	       a.day_type, a.marked_by, a.approved_by, a.note, a.created_at, a.updated_at
	FROM attendances a
	JOIN employees e ON e.employee_id = a.employee_id
	`

type Store struct{ db db.DBTX }

func NewStore(conn db.DBTX) *Store { return &Store{db: conn} }

// Insert adds a new record. (employee_id, attended_on) is UNIQUE; a second
// insert for the same pair returns ErrDuplicate and leaves the first intact.
func (s *Store) Insert(ctx context.Context, a *Attendance) error {
	res, err := s.db.ExecContext(ctx, `
	INSERT INTO attendances
	  (employee_id, attended_on, status, check_in, check_out, worked_hours, overtime_hours,
	   day_type, marked_by, approved_by, note, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, UTC_TIMESTAMP(), UTC_TIMESTAMP())`,
		a.EmployeeID, a.AttendedOn, string(a.Status), a.CheckIn, a.CheckOut, a.WorkedHours, a.OvertimeHours,
		db.NullString(a.DayType), db.NullString(a.MarkedBy), db.NullString(a.ApprovedBy), db.NullString(a.Note),
	)
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.AttendanceID = uint64(id)
	return nil
}

func (s *Store) GetByID(ctx context.Context, id uint64) (Attendance, error) {
	row := s.db.QueryRowContext(ctx, selectAttendance+`WHERE a.attendance_id = ?`, id)
	var r attendanceRow
	if err := scanAttendance(row, &r); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Attendance{}, ErrRecordNotFound
		}
		return Attendance{}, err
	}
	return r.toModel(), nil
}

// Update writes the amendable columns only.
func (s *Store) Update(ctx context.Context, a Attendance) error {
	res, err := s.db.ExecContext(ctx, `
	UPDATE attendances
	SET status = ?, check_out = ?, worked_hours = ?, overtime_hours = ?,
	    note = ?, approved_by = ?, updated_at = UTC_TIMESTAMP()
	WHERE attendance_id = ?`,
		string(a.Status), a.CheckOut, a.WorkedHours, a.OvertimeHours,
		db.NullString(a.Note), db.NullString(a.ApprovedBy), a.AttendanceID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id uint64) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM attendances WHERE attendance_id = ?`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Exists: whether the employee already has a record on the day.
func (s *Store) Exists(ctx context.Context, employeeID uint64, on string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `
	SELECT 1 FROM attendances
	WHERE employee_id = ? AND attended_on = ? LIMIT 1`, employeeID, on,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// List: dynamic WHERE + ORDER + LIMIT/OFFSET
func (s *Store) List(ctx context.Context, q ListQuery) ([]Attendance, int64, error) {
	var (
		buf    bytes.Buffer
		args   []any
		wheres []string
	)

	buf.WriteString(selectAttendance)
	if q.EmployeeCode != nil && *q.EmployeeCode != "" {
		wheres = append(wheres, "e.employee_code = ?")
		args = append(args, *q.EmployeeCode)
	}
	if q.On != nil && *q.On != "" {
		wheres = append(wheres, "a.attended_on = ?")
		args = append(args, *q.On)
	} else {
		if q.From != nil && *q.From != "" {
			wheres = append(wheres, "a.attended_on >= ?")
			args = append(args, *q.From)
		}
		if q.To != nil && *q.To != "" {
			wheres = append(wheres, "a.attended_on <= ?")
			args = append(args, *q.To)
		}
	}
	if q.Status != nil && *q.Status != "" {
		wheres = append(wheres, "a.status = ?")
		args = append(args, *q.Status)
	}
	if len(wheres) > 0 {
		buf.WriteString(" WHERE " + strings.Join(wheres, " AND "))
	}

	switch q.Sort {
	case SortAttendedOnAsc:
		buf.WriteString(" ORDER BY a.attended_on ASC, a.attendance_id ASC")
	case SortCheckInDesc:
		buf.WriteString(" ORDER BY a.check_in DESC, a.attendance_id DESC")
	case SortCheckInAsc:
		buf.WriteString(" ORDER BY a.check_in ASC, a.attendance_id ASC")
	default:
		buf.WriteString(" ORDER BY a.attended_on DESC, a.attendance_id DESC")
	}

	limit := q.Limit
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	buf.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, q.Offset))

	rows, err := s.db.QueryContext(ctx, buf.String(), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Attendance
	for rows.Next() {
		var r attendanceRow
		if err := scanAttendance(rows, &r); err != nil {
			return nil, 0, err
		}
		out = append(out, r.toModel())
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var cnt bytes.Buffer
	cnt.WriteString("SELECT COUNT(*) FROM attendances a JOIN employees e ON e.employee_id = a.employee_id")
	if len(wheres) > 0 {
		cnt.WriteString(" WHERE " + strings.Join(wheres, " AND "))
	}
	var total int64
	if err := s.db.QueryRowContext(ctx, cnt.String(), args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Stats: presence days and overtime per employee over [from, to] (TOP N by presence).
func (s *Store) Stats(ctx context.Context, from, to time.Time, limit int) ([]StatsRow, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `
	SELECT e.employee_code,
	       SUM(CASE WHEN a.status IN (?, ?) THEN 1 ELSE 0 END) AS present_days,
	       SUM(CASE WHEN a.status = ? THEN 1 ELSE 0 END)       AS leave_days,
	       COALESCE(SUM(a.overtime_hours), 0)                  AS overtime_hours
	FROM attendances a
	JOIN employees e ON e.employee_id = a.employee_id
	WHERE a.attended_on BETWEEN ? AND ?
	GROUP BY e.employee_code
	ORDER BY present_days DESC, e.employee_code ASC
	LIMIT ?`,
		string(StatusPresent), string(StatusHalfDay), string(StatusLeave),
		from.Format(DateLayout), to.Format(DateLayout), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StatsRow
	for rows.Next() {
		var row StatsRow
		if err := rows.Scan(&row.EmployeeCode, &row.PresentDays, &row.LeaveDays, &row.OvertimeHours); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// PresenceEmployeeIDs returns one employee id per record dated in [from, to)
// whose status is one of statuses.
func (s *Store) PresenceEmployeeIDs(ctx context.Context, from, to time.Time, statuses []Status) ([]uint64, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	args := []any{from.Format(DateLayout), to.Format(DateLayout)}
	for _, st := range statuses {
		args = append(args, string(st))
	}
	rows, err := s.db.QueryContext(ctx, `
	SELECT employee_id FROM attendances
	WHERE attended_on >= ? AND attended_on < ?
	AND status IN (`+db.Placeholders(len(statuses))+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("query presence: %w", err)
	}
	defer rows.Close()

	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read presence: %w", err)
	}
	return ids, nil
}

// ===== helpers =====

type scanner interface {
	Scan(dest ...any) error
}

func scanAttendance(s scanner, r *attendanceRow) error {
	return s.Scan(&r.AttendanceID, &r.EmployeeID, &r.EmployeeCode, &r.EmployeeName,
		&r.AttendedOn, &r.Status, &r.CheckIn, &r.CheckOut, &r.WorkedHours, &r.OvertimeHours,
		&r.DayType, &r.MarkedBy, &r.ApprovedBy, &r.Note, &r.CreatedAt, &r.UpdatedAt)
}

func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}
