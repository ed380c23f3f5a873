package employee

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

const (
	DefaultStandardHours = 8.0
	UnknownCategory      = "Unknown"
)

// Profile is the joined view employee → organization → category.
type Profile struct {
	EmployeeID       uint64
	EmployeeCode     string
	Name             string
	OrganizationID   uint64
	OrganizationName string
	CategoryID       uint64
	CategoryName     string
	StandardHours    float64
	SupervisorCode   string
}

type profileRow struct {
	EmployeeID       uint64
	EmployeeCode     string
	Name             string
	OrganizationID   uint64
	OrganizationName *string
	CategoryID       *uint64
	CategoryName     *string
	StandardHours    *float64
	SupervisorCode   *string
}

func (r profileRow) toModel() Profile {
	p := Profile{
		EmployeeID:     r.EmployeeID,
		EmployeeCode:   r.EmployeeCode,
		Name:           r.Name,
		OrganizationID: r.OrganizationID,
		CategoryName:   UnknownCategory,
		StandardHours:  DefaultStandardHours,
	}
	if r.OrganizationName != nil {
		p.OrganizationName = *r.OrganizationName
	}
	if r.CategoryID != nil {
		p.CategoryID = *r.CategoryID
	}
	if r.CategoryName != nil && *r.CategoryName != "" {
		p.CategoryName = *r.CategoryName
	}
	if r.StandardHours != nil && *r.StandardHours > 0 {
		p.StandardHours = *r.StandardHours
	}
	if r.SupervisorCode != nil {
		p.SupervisorCode = NormalizeCode(*r.SupervisorCode)
	}
	return p
}

// NormalizeCode folds full-width input ("ＥＭＰ００１") and case so that
// codes typed on any keyboard match the stored form.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(norm.NFKC.String(code)))
}
