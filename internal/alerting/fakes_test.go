package alerting

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"HRM-backend/internal/attendance"
	"HRM-backend/internal/employee"
	"HRM-backend/internal/notification"
	"HRM-backend/internal/platform/mail"
	"HRM-backend/internal/settings"
	"HRM-backend/internal/threshold"
)

type record struct {
	employeeID uint64
	on         time.Time
	status     attendance.Status
}

type fakeRecords struct {
	rows  []record
	err   error
	calls int
}

func (f *fakeRecords) PresenceEmployeeIDs(ctx context.Context, from, to time.Time, statuses []attendance.Status) ([]uint64, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	var ids []uint64
	for _, r := range f.rows {
		if r.on.Before(from) || !r.on.Before(to) {
			continue
		}
		for _, st := range statuses {
			if r.status == st {
				ids = append(ids, r.employeeID)
			}
		}
	}
	return ids, nil
}

type fakeDirectory map[uint64]employee.Profile

func (d fakeDirectory) ResolveMany(ctx context.Context, ids []uint64) (map[uint64]employee.Profile, error) {
	out := map[uint64]employee.Profile{}
	for _, id := range ids {
		if p, ok := d[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

type fakeRules struct {
	rules []threshold.Rule
	err   error
}

func (f fakeRules) ActiveRules(ctx context.Context) ([]threshold.Rule, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []threshold.Rule
	for _, r := range f.rules {
		if r.Active {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeNotes struct {
	mu        sync.Mutex
	created   []notification.Notification
	mailed    map[string]string
	createErr error
}

func newFakeNotes() *fakeNotes { return &fakeNotes{mailed: map[string]string{}} }

func (f *fakeNotes) Create(ctx context.Context, n notification.Notification) (notification.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return notification.Notification{}, f.createErr
	}
	for _, c := range f.created {
		if c.DedupKey == n.DedupKey {
			return notification.Notification{}, notification.ErrDuplicate
		}
	}
	n.ID = "N" + string(rune('A'+len(f.created)))
	f.created = append(f.created, n)
	return n, nil
}

func (f *fakeNotes) MarkEmailSent(ctx context.Context, id, recipient string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mailed[id] = recipient
	return nil
}

// fakeMailer fails every message whose subject contains failOn.
type fakeMailer struct {
	mu     sync.Mutex
	sent   []mail.Message
	failOn string
}

func (f *fakeMailer) Send(ctx context.Context, m mail.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOn != "" && strings.Contains(m.Subject, f.failOn) {
		return errors.New("smtp: connection refused")
	}
	f.sent = append(f.sent, m)
	return nil
}

type fakeSettings struct{ n settings.Notification }

func (f fakeSettings) Settings(ctx context.Context) (settings.Notification, error) { return f.n, nil }

var day = time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

const (
	acmeID  = 10
	otherID = 20
)

func profile(id uint64, org uint64, orgName, cat string) employee.Profile {
	return employee.Profile{EmployeeID: id, EmployeeCode: "E" + string(rune('0'+id)), OrganizationID: org, OrganizationName: orgName, CategoryName: cat}
}

func crit(org uint64, orgName, cat string) threshold.Criterion {
	return threshold.Criterion{OrganizationID: org, OrganizationName: orgName, CategoryName: cat}
}
