package threshold

import (
	"fmt"
	"strings"
)

// Rule pools attendance counts across all of its criteria and compares the
// total once against Threshold.
type Rule struct {
	ID        uint64      `json:"rule_id"`
	Name      string      `json:"name"`
	Active    bool        `json:"active"`
	Threshold int         `json:"threshold"`
	Criteria  []Criterion `json:"criteria"`
}

// Criterion selects one organization + employee category. A nil Subtype
// matches every subtype under that pair.
type Criterion struct {
	OrganizationID   uint64  `json:"organization_id"`
	OrganizationName string  `json:"organization_name,omitempty"`
	CategoryID       uint64  `json:"category_id"`
	CategoryName     string  `json:"category_name,omitempty"`
	Subtype          *string `json:"subtype,omitempty"`
}

// ===== requests =====

type CriterionInput struct {
	OrganizationID uint64  `json:"organization_id"`
	CategoryID     uint64  `json:"category_id"`
	Subtype        *string `json:"subtype,omitempty"`
}

type RuleRequest struct {
	Name      string           `json:"name"`
	Active    *bool            `json:"active,omitempty"`
	Threshold *int             `json:"threshold"`
	Criteria  []CriterionInput `json:"criteria"`
}

type ActiveRequest struct {
	Active *bool `json:"active"`
}

func (in RuleRequest) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return ErrInvalid("name is required")
	}
	if in.Threshold == nil {
		return ErrInvalid("threshold is required")
	}
	if *in.Threshold < 0 {
		return ErrInvalid("threshold must be >= 0")
	}
	for i, c := range in.Criteria {
		if c.OrganizationID == 0 || c.CategoryID == 0 {
			return ErrInvalid(fmt.Sprintf("criteria[%d]: organization_id and category_id are required", i))
		}
	}
	return nil
}

func (in RuleRequest) toModel() Rule {
	r := Rule{
		Name:      strings.TrimSpace(in.Name),
		Active:    true,
		Threshold: *in.Threshold,
		Criteria:  make([]Criterion, 0, len(in.Criteria)),
	}
	if in.Active != nil {
		r.Active = *in.Active
	}
	for _, c := range in.Criteria {
		cr := Criterion{OrganizationID: c.OrganizationID, CategoryID: c.CategoryID}
		if c.Subtype != nil {
			if s := strings.TrimSpace(*c.Subtype); s != "" {
				cr.Subtype = &s
			}
		}
		r.Criteria = append(r.Criteria, cr)
	}
	return r
}
