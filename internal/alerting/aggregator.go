package alerting

import (
	"context"
	"fmt"
	"time"

	"HRM-backend/internal/attendance"
	"HRM-backend/internal/employee"
)

// Statuses that count toward headcount thresholds.
var PresenceStatuses = []attendance.Status{attendance.StatusPresent, attendance.StatusLeave}

// Key groups attendance by organization, category name and subtype.
// Subtype is "" while attendance carries no subtype.
type Key struct {
	OrganizationID uint64
	CategoryName   string
	Subtype        string
}

// Counts only holds keys with count >= 1.
type Counts map[Key]int

type PresenceSource interface {
	PresenceEmployeeIDs(ctx context.Context, from, to time.Time, statuses []attendance.Status) ([]uint64, error)
}

type EmployeeResolver interface {
	ResolveMany(ctx context.Context, ids []uint64) (map[uint64]employee.Profile, error)
}

type Aggregator struct {
	records   PresenceSource
	employees EmployeeResolver
	loc       *time.Location
}

func NewAggregator(records PresenceSource, employees EmployeeResolver, loc *time.Location) *Aggregator {
	if loc == nil {
		loc = time.UTC
	}
	return &Aggregator{records: records, employees: employees, loc: loc}
}

// DayBounds returns the [start, end) window of date's calendar day in loc.
func DayBounds(date time.Time, loc *time.Location) (time.Time, time.Time) {
	d := date.In(loc)
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

// Aggregate counts present/leave records of the day. Records whose employee
// cannot be resolved are skipped; a failed query aborts with an error.
func (a *Aggregator) Aggregate(ctx context.Context, date time.Time) (Counts, error) {
	start, end := DayBounds(date, a.loc)

	ids, err := a.records.PresenceEmployeeIDs(ctx, start, end, PresenceStatuses)
	if err != nil {
		return nil, fmt.Errorf("aggregate %s: %w", start.Format(attendance.DateLayout), err)
	}
	counts := Counts{}
	if len(ids) == 0 {
		return counts, nil
	}

	profiles, err := a.employees.ResolveMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("aggregate %s: resolve employees: %w", start.Format(attendance.DateLayout), err)
	}
	for _, id := range ids {
		p, ok := profiles[id]
		if !ok {
			continue
		}
		cat := p.CategoryName
		if cat == "" {
			cat = employee.UnknownCategory
		}
		counts[Key{OrganizationID: p.OrganizationID, CategoryName: cat}]++
	}
	return counts, nil
}
