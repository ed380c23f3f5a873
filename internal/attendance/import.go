package attendance

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"HRM-backend/internal/employee"
	"HRM-backend/internal/platform/mail"
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// POST /attendances/import
//
// Rows are processed one by one; a failing row never stops the batch.
func (s *Service) Import(ctx context.Context, rows []ImportRow) (ImportResult, error) {
	if len(rows) == 0 {
		return ImportResult{}, ErrInvalid("no rows to import")
	}
	if len(rows) > s.opts.MaxImportRows {
		return ImportResult{}, ErrInvalid(fmt.Sprintf("too many rows: %d (max %d)", len(rows), s.opts.MaxImportRows))
	}

	res := ImportResult{Errors: []string{}}
	var (
		dates []time.Time
		seen  = map[string]bool{}
	)
	for i, row := range rows {
		day, err := s.importRow(ctx, row)
		if err != nil {
			res.Failed++
			res.Errors = append(res.Errors, fmt.Sprintf("Row %d: %s", i+1, err.Error()))
			continue
		}
		res.Success++
		if key := day.Format(DateLayout); !seen[key] {
			seen[key] = true
			dates = append(dates, day)
		}
	}

	for _, d := range dates {
		s.enqueue(d)
	}

	if res.Failed > 0 {
		res.EmailSent = s.sendImportSummary(ctx, len(rows), res)
	}
	log.Printf("[INFO] attendance import: total=%d success=%d failed=%d email=%v", len(rows), res.Success, res.Failed, res.EmailSent)
	return res, nil
}

// importRow validates and inserts a single row; the error text is shown to the user.
func (s *Service) importRow(ctx context.Context, row ImportRow) (time.Time, error) {
	if row.parseErr != "" {
		return time.Time{}, errors.New(row.parseErr)
	}
	row.Date = normalizeDateString(row.Date, s.now())
	if err := s.validate.Struct(row); err != nil {
		return time.Time{}, describeValidation(err)
	}

	emp, err := s.employees.ByCode(ctx, row.EmployeeCode)
	if err != nil {
		if errors.Is(err, employee.ErrNotFound) {
			return time.Time{}, fmt.Errorf("employee %s not found", describeEmployee(row))
		}
		log.Printf("[ERROR] import: resolve %s: %v", row.EmployeeCode, err)
		return time.Time{}, errors.New("failed to resolve employee")
	}

	status, ok := ParseStatus(row.Status)
	if !ok {
		return time.Time{}, fmt.Errorf("invalid status %q", row.Status)
	}

	day, err := time.ParseInLocation(DateLayout, row.Date, s.opts.Location)
	if err != nil {
		return time.Time{}, errors.New("date must be YYYY-MM-DD")
	}
	checkIn, err := parseClock(row.CheckIn, day, s.opts.Location)
	if err != nil {
		return time.Time{}, fmt.Errorf("checkIn: %v", err)
	}
	checkOut, err := parseClock(row.CheckOut, day, s.opts.Location)
	if err != nil {
		return time.Time{}, fmt.Errorf("checkOut: %v", err)
	}

	exists, err := s.store.Exists(ctx, emp.EmployeeID, row.Date)
	if err != nil {
		log.Printf("[ERROR] import: exists %s %s: %v", emp.EmployeeCode, row.Date, err)
		return time.Time{}, errors.New("failed to check existing attendance")
	}
	if exists {
		return time.Time{}, fmt.Errorf("attendance already exists for %s on %s", emp.EmployeeCode, row.Date)
	}

	var fallback float64
	if row.WorkedHours != nil {
		fallback = *row.WorkedHours
	}
	worked, overtime, err := deriveHours(checkIn, checkOut, emp.StandardHours, fallback)
	if err != nil {
		return time.Time{}, err
	}

	a := Attendance{
		EmployeeID:    emp.EmployeeID,
		EmployeeCode:  emp.EmployeeCode,
		EmployeeName:  emp.Name,
		AttendedOn:    row.Date,
		Status:        status,
		CheckIn:       checkIn,
		CheckOut:      checkOut,
		WorkedHours:   worked,
		OvertimeHours: overtime,
	}
	if dt := strings.TrimSpace(row.DayType); dt != "" {
		a.DayType = &dt
	}
	if err := s.store.Insert(ctx, &a); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return time.Time{}, fmt.Errorf("attendance already exists for %s on %s", emp.EmployeeCode, row.Date)
		}
		log.Printf("[ERROR] import: insert %s %s: %v", emp.EmployeeCode, row.Date, err)
		return time.Time{}, errors.New("failed to save attendance")
	}
	return day, nil
}

func describeEmployee(row ImportRow) string {
	if row.EmployeeName != "" {
		return fmt.Sprintf("%s (%s)", row.EmployeeCode, row.EmployeeName)
	}
	return row.EmployeeCode
}

func describeValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", fe.Field())
	case "datetime":
		return fmt.Errorf("%s must be YYYY-MM-DD", fe.Field())
	case "gte", "lte":
		return fmt.Errorf("%s must be between 0 and 24", fe.Field())
	default:
		return fmt.Errorf("%s is invalid", fe.Field())
	}
}

// ===== summary mail =====

var summaryTmpl = template.Must(template.New("import_summary").Parse(`<!DOCTYPE html>
<html><body style="font-family:Arial,sans-serif">
<h2>Attendance import finished with errors</h2>
<table cellpadding="4">
<tr><td>Total rows</td><td>{{.Total}}</td></tr>
<tr><td>Imported</td><td>{{.Success}}</td></tr>
<tr><td>Failed</td><td>{{.Failed}}</td></tr>
<tr><td>Success rate</td><td>{{printf "%.1f" .Rate}}%</td></tr>
</table>
<h3>Errors</h3>
<ol>{{range .Errors}}<li>{{.}}</li>{{end}}</ol>
{{if .Omitted}}<p>... and {{.Omitted}} more</p>{{end}}
<p style="color:#888">Generated {{.GeneratedAt}}</p>
</body></html>`))

type summaryView struct {
	Total, Success, Failed int
	Rate                   float64
	Errors                 []string
	Omitted                int
	GeneratedAt            string
}

func (s *Service) renderSummary(total int, res ImportResult) (mail.Message, error) {
	v := summaryView{
		Total:       total,
		Success:     res.Success,
		Failed:      res.Failed,
		Errors:      res.Errors,
		GeneratedAt: s.now().Format(time.RFC1123),
	}
	if total > 0 {
		v.Rate = float64(res.Success) * 100 / float64(total)
	}
	if len(v.Errors) > s.opts.MaxErrorsInSummary {
		v.Omitted = len(v.Errors) - s.opts.MaxErrorsInSummary
		v.Errors = v.Errors[:s.opts.MaxErrorsInSummary]
	}
	var buf bytes.Buffer
	if err := summaryTmpl.Execute(&buf, v); err != nil {
		return mail.Message{}, err
	}
	return mail.Message{
		Subject:  fmt.Sprintf("Attendance import: %d of %d rows failed", res.Failed, total),
		HTMLBody: buf.String(),
	}, nil
}

func (s *Service) sendImportSummary(ctx context.Context, total int, res ImportResult) bool {
	if s.mailer == nil {
		return false
	}
	var to string
	if s.settings != nil {
		st, err := s.settings.Settings(ctx)
		if err != nil {
			log.Printf("[WARN] import summary: load settings: %v", err)
		}
		to = st.OpsRecipient
	}
	if to == "" {
		log.Printf("[WARN] import summary: no ops recipient configured")
		return false
	}

	msg, err := s.renderSummary(total, res)
	if err != nil {
		log.Printf("[ERROR] import summary: render: %v", err)
		return false
	}
	msg.To = to
	if err := s.mailer.Send(ctx, msg); err != nil {
		log.Printf("[ERROR] import summary: send to %s: %v", to, err)
		return false
	}
	return true
}
