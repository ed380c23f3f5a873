package attendance

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"HRM-backend/internal/employee"
	"HRM-backend/internal/platform/mail"
	"HRM-backend/internal/settings"
)

// ===== Error model (same shape as threshold / notification) =====
type Code string

const (
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeNotFound        Code = "NOT_FOUND"
	CodeConflict        Code = "CONFLICT"
	CodeInternal        Code = "INTERNAL"
)

type APIError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string      { return fmt.Sprintf("%s: %s", e.Code, e.Message) }
func ErrInvalid(msg string) *APIError  { return &APIError{Code: CodeInvalidArgument, Message: msg} }
func ErrNotFound(msg string) *APIError { return &APIError{Code: CodeNotFound, Message: msg} }
func ErrConflict(msg string) *APIError { return &APIError{Code: CodeConflict, Message: msg} }
func ErrInternal(msg string) *APIError { return &APIError{Code: CodeInternal, Message: msg} }

func toHTTPStatus(err error) int {
	var api *APIError
	if errors.As(err, &api) {
		switch api.Code {
		case CodeInvalidArgument:
			return 400
		case CodeNotFound:
			return 404
		case CodeConflict:
			return 409
		default:
			return 500
		}
	}
	return 500
}

// ===== Collaborators =====

type Repository interface {
	Insert(ctx context.Context, a *Attendance) error
	GetByID(ctx context.Context, id uint64) (Attendance, error)
	Update(ctx context.Context, a Attendance) error
	Delete(ctx context.Context, id uint64) (int64, error)
	Exists(ctx context.Context, employeeID uint64, on string) (bool, error)
	List(ctx context.Context, q ListQuery) ([]Attendance, int64, error)
	Stats(ctx context.Context, from, to time.Time, limit int) ([]StatsRow, error)
}

type EmployeeLookup interface {
	ByCode(ctx context.Context, code string) (employee.Profile, error)
	ByID(ctx context.Context, id uint64) (employee.Profile, error)
}

// Enqueuer schedules a threshold re-evaluation of a day. It must not block.
type Enqueuer interface {
	Enqueue(date time.Time) bool
}

type SettingsProvider interface {
	Settings(ctx context.Context) (settings.Notification, error)
}

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// ===== Service =====

type Options struct {
	Location           *time.Location
	MaxImportRows      int
	MaxErrorsInSummary int
}

type Service struct {
	store     Repository
	employees EmployeeLookup
	queue     Enqueuer
	mailer    mail.Sender
	settings  SettingsProvider
	clock     Clock
	validate  *validator.Validate
	opts      Options
}

func NewService(store Repository, employees EmployeeLookup, queue Enqueuer, mailer mail.Sender, sp SettingsProvider, opts Options) *Service {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.MaxImportRows <= 0 {
		opts.MaxImportRows = 5000
	}
	if opts.MaxErrorsInSummary <= 0 {
		opts.MaxErrorsInSummary = 100
	}
	return &Service{
		store:     store,
		employees: employees,
		queue:     queue,
		mailer:    mailer,
		settings:  sp,
		clock:     realClock{},
		validate:  newValidator(),
		opts:      opts,
	}
}

func (s *Service) now() time.Time { return s.clock.Now().In(s.opts.Location) }

// POST /attendances
func (s *Service) Create(ctx context.Context, in CreateAttendanceRequest) (AttendanceResponse, error) {
	if strings.TrimSpace(in.EmployeeCode) == "" {
		return AttendanceResponse{}, ErrInvalid("employee_code is required")
	}
	status, ok := ParseStatus(in.Status)
	if !ok {
		return AttendanceResponse{}, ErrInvalid(fmt.Sprintf("invalid status %q", in.Status))
	}
	onStr := "today"
	if in.AttendedOn != nil && *in.AttendedOn != "" {
		onStr = *in.AttendedOn
	}
	day, err := parseDate(onStr, s.now(), s.opts.Location)
	if err != nil {
		return AttendanceResponse{}, ErrInvalid("attended_on must be YYYY-MM-DD or 'today'")
	}

	emp, err := s.employees.ByCode(ctx, in.EmployeeCode)
	if err != nil {
		if errors.Is(err, employee.ErrNotFound) {
			return AttendanceResponse{}, ErrNotFound("employee not found: " + in.EmployeeCode)
		}
		return AttendanceResponse{}, err
	}

	worked, overtime, err := deriveHours(utcPtr(in.CheckIn), utcPtr(in.CheckOut), emp.StandardHours, 0)
	if err != nil {
		return AttendanceResponse{}, ErrInvalid(err.Error())
	}

	a := Attendance{
		EmployeeID:    emp.EmployeeID,
		EmployeeCode:  emp.EmployeeCode,
		EmployeeName:  emp.Name,
		AttendedOn:    day.Format(DateLayout),
		Status:        status,
		CheckIn:       utcPtr(in.CheckIn),
		CheckOut:      utcPtr(in.CheckOut),
		WorkedHours:   worked,
		OvertimeHours: overtime,
		DayType:       in.DayType,
		Note:          in.Note,
	}
	if in.MarkedBy != nil && strings.TrimSpace(*in.MarkedBy) != "" {
		mb := employee.NormalizeCode(*in.MarkedBy)
		a.MarkedBy = &mb
	}

	if err := s.store.Insert(ctx, &a); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return AttendanceResponse{}, ErrConflict(fmt.Sprintf("attendance already exists for %s on %s", emp.EmployeeCode, a.AttendedOn))
		}
		return AttendanceResponse{}, err
	}

	s.enqueue(day)
	return a.toDTO(), nil
}

// PATCH /attendances/:id
func (s *Service) Update(ctx context.Context, id uint64, in UpdateAttendanceRequest) (AttendanceResponse, error) {
	a, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return AttendanceResponse{}, ErrNotFound("attendance not found")
		}
		return AttendanceResponse{}, err
	}
	emp, err := s.employees.ByID(ctx, a.EmployeeID)
	if err != nil {
		if errors.Is(err, employee.ErrNotFound) {
			return AttendanceResponse{}, ErrNotFound("employee not found")
		}
		return AttendanceResponse{}, err
	}

	if in.Status != nil {
		st, ok := ParseStatus(*in.Status)
		if !ok {
			return AttendanceResponse{}, ErrInvalid(fmt.Sprintf("invalid status %q", *in.Status))
		}
		a.Status = st
	}
	if in.CheckOut != nil {
		a.CheckOut = utcPtr(in.CheckOut)
	}
	if in.Note != nil {
		a.Note = in.Note
	}
	if in.ApprovedBy != nil && strings.TrimSpace(*in.ApprovedBy) != "" {
		if !a.IsProxy() {
			return AttendanceResponse{}, ErrInvalid("only proxy-marked attendance needs approval")
		}
		approver := employee.NormalizeCode(*in.ApprovedBy)
		if emp.SupervisorCode != "" && approver != emp.SupervisorCode {
			return AttendanceResponse{}, ErrInvalid("approver must be the employee's supervisor")
		}
		a.ApprovedBy = &approver
	}

	worked, overtime, err := deriveHours(a.CheckIn, a.CheckOut, emp.StandardHours, a.WorkedHours)
	if err != nil {
		return AttendanceResponse{}, ErrInvalid(err.Error())
	}
	a.WorkedHours, a.OvertimeHours = worked, overtime

	if err := s.store.Update(ctx, a); err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return AttendanceResponse{}, ErrNotFound("attendance not found")
		}
		return AttendanceResponse{}, err
	}

	if day, err := time.ParseInLocation(DateLayout, a.AttendedOn, s.opts.Location); err == nil {
		s.enqueue(day)
	}
	return a.toDTO(), nil
}

// DELETE /attendances/:id (administrative hard delete)
func (s *Service) Delete(ctx context.Context, id uint64) error {
	n, err := s.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound("attendance not found")
	}
	return nil
}

// GET /attendances/:id
func (s *Service) Get(ctx context.Context, id uint64) (AttendanceResponse, error) {
	a, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return AttendanceResponse{}, ErrNotFound("attendance not found")
		}
		return AttendanceResponse{}, err
	}
	return a.toDTO(), nil
}

// HEAD /attendances?employee_code=&on=
func (s *Service) Exists(ctx context.Context, employeeCode, onStr string) (bool, error) {
	if employeeCode == "" {
		return false, ErrInvalid("employee_code is required")
	}
	on, err := parseDate(onStr, s.now(), s.opts.Location)
	if err != nil {
		return false, ErrInvalid("on must be YYYY-MM-DD or 'today'")
	}
	emp, err := s.employees.ByCode(ctx, employeeCode)
	if err != nil {
		if errors.Is(err, employee.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return s.store.Exists(ctx, emp.EmployeeID, on.Format(DateLayout))
}

// GET /attendances
func (s *Service) List(ctx context.Context, q ListQuery) (ListResponse, error) {
	if q.Sort == "" {
		q.Sort = DefaultSort
	}
	if q.Limit <= 0 {
		q.Limit = DefaultPageLimit
	}
	if q.Limit > MaxPageLimit {
		q.Limit = MaxPageLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	if q.EmployeeCode != nil {
		c := employee.NormalizeCode(*q.EmployeeCode)
		q.EmployeeCode = &c
	}
	for _, p := range []*string{q.On, q.From, q.To} {
		if p == nil || *p == "" {
			continue
		}
		d, err := parseDate(*p, s.now(), s.opts.Location)
		if err != nil {
			return ListResponse{}, ErrInvalid("dates must be YYYY-MM-DD or 'today'")
		}
		*p = d.Format(DateLayout)
	}
	if q.Status != nil && *q.Status != "" {
		st, ok := ParseStatus(*q.Status)
		if !ok {
			return ListResponse{}, ErrInvalid(fmt.Sprintf("invalid status %q", *q.Status))
		}
		v := string(st)
		q.Status = &v
	}

	rows, total, err := s.store.List(ctx, q)
	if err != nil {
		return ListResponse{}, err
	}
	out := make([]AttendanceResponse, 0, len(rows))
	for i := 0; i < len(rows); i++ {
		out = append(out, rows[i].toDTO())
	}
	return ListResponse{Items: out, Total: total}, nil
}

// GET /attendances/stats
func (s *Service) Stats(ctx context.Context, req StatsRequest) ([]StatsRow, error) {
	from, err := time.ParseInLocation(DateLayout, req.From, s.opts.Location)
	if err != nil {
		return nil, ErrInvalid("from must be YYYY-MM-DD")
	}
	to, err := time.ParseInLocation(DateLayout, req.To, s.opts.Location)
	if err != nil {
		return nil, ErrInvalid("to must be YYYY-MM-DD")
	}
	if to.Before(from) {
		return nil, ErrInvalid("to must be >= from")
	}
	return s.store.Stats(ctx, from, to, req.Limit)
}

func (s *Service) enqueue(day time.Time) {
	if s.queue == nil {
		return
	}
	if !s.queue.Enqueue(day) {
		log.Printf("[WARN] threshold evaluation for %s was not queued", day.Format(DateLayout))
	}
}
