package attendance

import "time"

const (
	SortAttendedOnDesc = "attended_on_desc"
	SortAttendedOnAsc  = "attended_on_asc"
	SortCheckInDesc    = "check_in_desc"
	SortCheckInAsc     = "check_in_asc"
	DefaultPageLimit   = 50
	MaxPageLimit       = 200
	DefaultSort        = SortAttendedOnDesc
	DateLayout         = "2006-01-02"
)

type CreateAttendanceRequest struct {
	EmployeeCode string     `json:"employee_code" binding:"required"`
	AttendedOn   *string    `json:"attended_on,omitempty"` // "YYYY-MM-DD" or "today"
	Status       string     `json:"status" binding:"required"`
	CheckIn      *time.Time `json:"check_in,omitempty"`
	CheckOut     *time.Time `json:"check_out,omitempty"`
	DayType      *string    `json:"day_type,omitempty"`
	MarkedBy     *string    `json:"marked_by,omitempty"`
	Note         *string    `json:"note,omitempty"`
}

// UpdateAttendanceRequest is the only way to amend a record after creation.
type UpdateAttendanceRequest struct {
	Status     *string    `json:"status,omitempty"`
	CheckOut   *time.Time `json:"check_out,omitempty"`
	Note       *string    `json:"note,omitempty"`
	ApprovedBy *string    `json:"approved_by,omitempty"`
}

type AttendanceResponse struct {
	AttendanceID  uint64     `json:"attendance_id"`
	EmployeeCode  string     `json:"employee_code"`
	EmployeeName  string     `json:"employee_name"`
	AttendedOn    string     `json:"attended_on"`
	Status        string     `json:"status"`
	CheckIn       *time.Time `json:"check_in,omitempty"`
	CheckOut      *time.Time `json:"check_out,omitempty"`
	WorkedHours   float64    `json:"worked_hours"`
	OvertimeHours float64    `json:"overtime_hours"`
	DayType       *string    `json:"day_type,omitempty"`
	MarkedBy      *string    `json:"marked_by,omitempty"`
	ApprovedBy    *string    `json:"approved_by,omitempty"`
	Proxy         bool       `json:"proxy"`
	Note          *string    `json:"note,omitempty"`
}

type ListQuery struct {
	EmployeeCode *string
	On           *string
	From         *string
	To           *string
	Status       *string
	Limit        int
	Offset       int
	Sort         string
}

type ListResponse struct {
	Items []AttendanceResponse `json:"items"`
	Total int64                `json:"total"`
}

type StatsRequest struct {
	From  string // YYYY-MM-DD
	To    string // YYYY-MM-DD
	Limit int
}

type StatsRow struct {
	EmployeeCode  string  `json:"employee_code"`
	PresentDays   int64   `json:"present_days"`
	LeaveDays     int64   `json:"leave_days"`
	OvertimeHours float64 `json:"overtime_hours"`
}

// ImportRow is one line of a bulk import (JSON body or uploaded sheet).
type ImportRow struct {
	EmployeeCode string   `json:"employeeCode" validate:"required"`
	EmployeeName string   `json:"employeeName"`
	Date         string   `json:"date" validate:"required,datetime=2006-01-02"`
	Status       string   `json:"status" validate:"required"`
	CheckIn      string   `json:"checkIn"`
	CheckOut     string   `json:"checkOut"`
	WorkedHours  *float64 `json:"workedHours" validate:"omitempty,gte=0,lte=24"`
	DayType      string   `json:"dayType"`

	parseErr string
}

type ImportResult struct {
	Success   int      `json:"success"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors"`
	EmailSent bool     `json:"emailSent"`
}
