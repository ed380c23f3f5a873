package attendance

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"HRM-backend/internal/employee"
	"HRM-backend/internal/platform/mail"
	"HRM-backend/internal/settings"
)

type memStore struct {
	mu     sync.Mutex
	nextID uint64
	rows   map[uint64]Attendance
}

func newMemStore() *memStore { return &memStore{rows: map[uint64]Attendance{}} }

func (m *memStore) Insert(ctx context.Context, a *Attendance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.EmployeeID == a.EmployeeID && r.AttendedOn == a.AttendedOn {
			return ErrDuplicate
		}
	}
	m.nextID++
	a.AttendanceID = m.nextID
	m.rows[a.AttendanceID] = *a
	return nil
}

func (m *memStore) GetByID(ctx context.Context, id uint64) (Attendance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.rows[id]
	if !ok {
		return Attendance{}, ErrRecordNotFound
	}
	return a, nil
}

func (m *memStore) Update(ctx context.Context, a Attendance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[a.AttendanceID]; !ok {
		return ErrRecordNotFound
	}
	m.rows[a.AttendanceID] = a
	return nil
}

func (m *memStore) Delete(ctx context.Context, id uint64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return 0, nil
	}
	delete(m.rows, id)
	return 1, nil
}

func (m *memStore) Exists(ctx context.Context, employeeID uint64, on string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.EmployeeID == employeeID && r.AttendedOn == on {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) List(ctx context.Context, q ListQuery) ([]Attendance, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Attendance
	for _, r := range m.rows {
		if q.On != nil && r.AttendedOn != *q.On {
			continue
		}
		if q.Status != nil && string(r.Status) != *q.Status {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AttendanceID < out[j].AttendanceID })
	return out, int64(len(out)), nil
}

func (m *memStore) Stats(ctx context.Context, from, to time.Time, limit int) ([]StatsRow, error) {
	return nil, nil
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

type fakeEmployees struct {
	byCode map[string]employee.Profile
}

func newFakeEmployees(ps ...employee.Profile) *fakeEmployees {
	f := &fakeEmployees{byCode: map[string]employee.Profile{}}
	for _, p := range ps {
		f.byCode[p.EmployeeCode] = p
	}
	return f
}

func (f *fakeEmployees) ByCode(ctx context.Context, code string) (employee.Profile, error) {
	p, ok := f.byCode[employee.NormalizeCode(code)]
	if !ok {
		return employee.Profile{}, employee.ErrNotFound
	}
	return p, nil
}

func (f *fakeEmployees) ByID(ctx context.Context, id uint64) (employee.Profile, error) {
	for _, p := range f.byCode {
		if p.EmployeeID == id {
			return p, nil
		}
	}
	return employee.Profile{}, employee.ErrNotFound
}

type fakeQueue struct {
	mu    sync.Mutex
	dates []string
}

func (q *fakeQueue) Enqueue(d time.Time) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.dates = append(q.dates, d.Format(DateLayout))
	return true
}

func (q *fakeQueue) got() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]string(nil), q.dates...)
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (f *fakeMailer) Send(ctx context.Context, m mail.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, m)
	return nil
}

type fakeSettings struct{ n settings.Notification }

func (f fakeSettings) Settings(ctx context.Context) (settings.Notification, error) {
	return f.n, nil
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

var errBoom = errors.New("boom")

var (
	alice = employee.Profile{EmployeeID: 1, EmployeeCode: "EMP001", Name: "Alice", OrganizationID: 10, OrganizationName: "Acme", CategoryName: "Contractor", StandardHours: 8}
	bob   = employee.Profile{EmployeeID: 2, EmployeeCode: "EMP002", Name: "Bob", OrganizationID: 10, OrganizationName: "Acme", CategoryName: "Contractor", StandardHours: 8, SupervisorCode: "EMP003"}
	carol = employee.Profile{EmployeeID: 3, EmployeeCode: "EMP003", Name: "Carol", OrganizationID: 10, OrganizationName: "Acme", CategoryName: "Staff", StandardHours: 7.5}
)

type fixture struct {
	svc    *Service
	store  *memStore
	queue  *fakeQueue
	mailer *fakeMailer
}

func newFixture() fixture {
	f := fixture{store: newMemStore(), queue: &fakeQueue{}, mailer: &fakeMailer{}}
	f.svc = NewService(f.store, newFakeEmployees(alice, bob, carol), f.queue, f.mailer,
		fakeSettings{n: settings.Notification{OpsRecipient: "ops@example.com"}},
		Options{Location: time.UTC, MaxErrorsInSummary: 2})
	f.svc.clock = fixedClock{t: time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)}
	return f
}
