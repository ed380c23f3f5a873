package attendance

import (
	"strings"
	"time"
)

type Status string

const (
	StatusPresent Status = "Present"
	StatusAbsent  Status = "Absent"
	StatusLeave   Status = "Leave"
	StatusHalfDay Status = "Half-Day"
	StatusHoliday Status = "Holiday"
	StatusWeekend Status = "Weekend"
)

var allStatuses = []Status{StatusPresent, StatusAbsent, StatusLeave, StatusHalfDay, StatusHoliday, StatusWeekend}

// ParseStatus accepts any casing and "halfday"/"half day" spellings.
func ParseStatus(s string) (Status, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer(" ", "", "_", "", "-", "").Replace(key)
	for _, st := range allStatuses {
		if strings.ReplaceAll(strings.ToLower(string(st)), "-", "") == key {
			return st, true
		}
	}
	return "", false
}

// row as scanned from attendances JOIN employees
type attendanceRow struct {
	AttendanceID  uint64
	EmployeeID    uint64
	EmployeeCode  string
	EmployeeName  string
	AttendedOn    string
	Status        string
	CheckIn       *time.Time
	CheckOut      *time.Time
	WorkedHours   float64
	OvertimeHours float64
	DayType       *string
	MarkedBy      *string
	ApprovedBy    *string
	Note          *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Attendance struct {
	AttendanceID  uint64
	EmployeeID    uint64
	EmployeeCode  string
	EmployeeName  string
	AttendedOn    string // YYYY-MM-DD
	Status        Status
	CheckIn       *time.Time
	CheckOut      *time.Time
	WorkedHours   float64
	OvertimeHours float64
	DayType       *string
	MarkedBy      *string
	ApprovedBy    *string
	Note          *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsProxy reports whether someone other than the employee marked the record.
func (a Attendance) IsProxy() bool {
	return a.MarkedBy != nil && *a.MarkedBy != "" && !strings.EqualFold(*a.MarkedBy, a.EmployeeCode)
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func (r attendanceRow) toModel() Attendance {
	return Attendance{
		AttendanceID:  r.AttendanceID,
		EmployeeID:    r.EmployeeID,
		EmployeeCode:  r.EmployeeCode,
		EmployeeName:  r.EmployeeName,
		AttendedOn:    r.AttendedOn,
		Status:        Status(r.Status),
		CheckIn:       utcPtr(r.CheckIn),
		CheckOut:      utcPtr(r.CheckOut),
		WorkedHours:   r.WorkedHours,
		OvertimeHours: r.OvertimeHours,
		DayType:       r.DayType,
		MarkedBy:      r.MarkedBy,
		ApprovedBy:    r.ApprovedBy,
		Note:          r.Note,
		CreatedAt:     r.CreatedAt.UTC(),
		UpdatedAt:     r.UpdatedAt.UTC(),
	}
}

func (a Attendance) toDTO() AttendanceResponse {
	return AttendanceResponse{
		AttendanceID:  a.AttendanceID,
		EmployeeCode:  a.EmployeeCode,
		EmployeeName:  a.EmployeeName,
		AttendedOn:    a.AttendedOn,
		Status:        string(a.Status),
		CheckIn:       a.CheckIn,
		CheckOut:      a.CheckOut,
		WorkedHours:   a.WorkedHours,
		OvertimeHours: a.OvertimeHours,
		DayType:       a.DayType,
		MarkedBy:      a.MarkedBy,
		ApprovedBy:    a.ApprovedBy,
		Proxy:         a.IsProxy(),
		Note:          a.Note,
	}
}
