package alerting

import (
	"time"

	"HRM-backend/internal/attendance"
	"HRM-backend/internal/threshold"
)

type Breach struct {
	Rule          threshold.Rule
	Date          string
	Total         int
	Organizations []string
	Categories    []string
	Labels        []string
}

func (b Breach) ExceededBy() int { return b.Total - b.Rule.Threshold }

// Evaluate pools the counts of every criterion of each active rule and
// reports the rules whose total is strictly above their threshold.
func Evaluate(date time.Time, counts Counts, rules []threshold.Rule) []Breach {
	var out []Breach
	for _, r := range rules {
		if !r.Active || len(r.Criteria) == 0 {
			continue
		}
		b := Breach{Rule: r, Date: date.Format(attendance.DateLayout)}
		for _, c := range r.Criteria {
			b.Total += countFor(counts, c)
			b.Organizations = appendUnique(b.Organizations, c.OrganizationName)
			b.Categories = appendUnique(b.Categories, c.CategoryName)
			b.Labels = append(b.Labels, label(c))
		}
		if b.Total > r.Threshold {
			out = append(out, b)
		}
	}
	return out
}

func countFor(counts Counts, c threshold.Criterion) int {
	if c.Subtype != nil {
		return counts[Key{OrganizationID: c.OrganizationID, CategoryName: c.CategoryName, Subtype: *c.Subtype}]
	}
	n := 0
	for k, v := range counts {
		if k.OrganizationID == c.OrganizationID && k.CategoryName == c.CategoryName {
			n += v
		}
	}
	return n
}

func label(c threshold.Criterion) string {
	s := c.OrganizationName + " - " + c.CategoryName
	if c.Subtype != nil {
		s += " (" + *c.Subtype + ")"
	}
	return s
}

func appendUnique(xs []string, v string) []string {
	if v == "" {
		return xs
	}
	for _, x := range xs {
		if x == v {
			return xs
		}
	}
	return append(xs, v)
}
