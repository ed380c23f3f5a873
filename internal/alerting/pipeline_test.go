package alerting

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"HRM-backend/internal/notification"
	"HRM-backend/internal/settings"
	"HRM-backend/internal/threshold"
)

func acmeRule() threshold.Rule {
	return threshold.Rule{ID: 1, Name: "Acme contractors", Active: true, Threshold: 3,
		Criteria: []threshold.Criterion{crit(acmeID, "Acme", "Contractor")}}
}

func acmeBreach() Breach {
	return Evaluate(day, Counts{{OrganizationID: acmeID, CategoryName: "Contractor"}: 4}, []threshold.Rule{acmeRule()})[0]
}

func TestNotifyPersistsAndMails(t *testing.T) {
	notes, mailer := newFakeNotes(), &fakeMailer{}
	n := NewNotifier(notes, mailer, nil, fakeSettings{n: settings.Notification{AlertRecipient: "boss@example.com"}}, "hr@example.com")

	out, err := n.Notify(context.Background(), acmeBreach())
	require.NoError(t, err)
	assert.True(t, out.Persisted)
	assert.True(t, out.EmailSent)
	assert.False(t, out.PushSent)

	require.Len(t, notes.created, 1)
	rec := notes.created[0]
	assert.Equal(t, notification.TypeThresholdExceeded, rec.Type)
	assert.Equal(t, notification.PriorityHigh, rec.Priority)
	assert.Equal(t, "Attendance threshold exceeded: Contractor", rec.Title)
	assert.Equal(t, "threshold:1:2025-04-01", rec.DedupKey)
	assert.Equal(t, uint64(acmeID), *rec.OrganizationID)
	assert.Equal(t, notification.Details{
		RuleID: 1, RuleName: "Acme contractors", CategoryName: "Contractor", OrganizationName: "Acme",
		CurrentCount: 4, Threshold: 3, ExceededBy: 1, Date: "2025-04-01", Breakdown: []string{"Acme - Contractor"},
		OrganizationIDs: []uint64{acmeID},
	}, rec.Details)

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "boss@example.com", mailer.sent[0].To)
	assert.Contains(t, mailer.sent[0].HTMLBody, "Acme - Contractor")
	assert.Equal(t, "boss@example.com", notes.mailed[rec.ID])
}

func TestNotifyPooledRuleListsEveryOrganization(t *testing.T) {
	rule := threshold.Rule{ID: 3, Name: "Pooled", Active: true, Threshold: 2, Criteria: []threshold.Criterion{
		crit(acmeID, "Acme", "Contractor"),
		crit(otherID, "Globex", "Contractor"),
		crit(acmeID, "Acme", "Intern"),
	}}
	counts := Counts{
		{OrganizationID: acmeID, CategoryName: "Contractor"}:  1,
		{OrganizationID: otherID, CategoryName: "Contractor"}: 2,
	}
	breaches := Evaluate(day, counts, []threshold.Rule{rule})
	require.Len(t, breaches, 1)

	notes := newFakeNotes()
	_, err := NewNotifier(notes, &fakeMailer{}, nil, nil, "hr@example.com").Notify(context.Background(), breaches[0])
	require.NoError(t, err)

	require.Len(t, notes.created, 1)
	rec := notes.created[0]
	assert.Equal(t, uint64(acmeID), *rec.OrganizationID)
	assert.Equal(t, []uint64{acmeID, otherID}, rec.Details.OrganizationIDs)
}

func TestNotifyFallsBackToDefaultRecipient(t *testing.T) {
	notes, mailer := newFakeNotes(), &fakeMailer{}
	n := NewNotifier(notes, mailer, nil, fakeSettings{}, "hr@example.com")

	_, err := n.Notify(context.Background(), acmeBreach())
	require.NoError(t, err)
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "hr@example.com", mailer.sent[0].To)
}

func TestNotifyMailFailureKeepsRecord(t *testing.T) {
	notes, mailer := newFakeNotes(), &fakeMailer{failOn: "Acme"}
	n := NewNotifier(notes, mailer, nil, nil, "hr@example.com")

	out, err := n.Notify(context.Background(), acmeBreach())
	require.NoError(t, err)
	assert.True(t, out.Persisted)
	assert.False(t, out.EmailSent)
	assert.Len(t, notes.created, 1)
	assert.Empty(t, notes.mailed)
}

func TestNotifyDuplicateSkipsMail(t *testing.T) {
	notes, mailer := newFakeNotes(), &fakeMailer{}
	n := NewNotifier(notes, mailer, nil, nil, "hr@example.com")

	_, err := n.Notify(context.Background(), acmeBreach())
	require.NoError(t, err)
	out, err := n.Notify(context.Background(), acmeBreach())
	require.NoError(t, err)
	assert.True(t, out.Duplicate)
	assert.False(t, out.Persisted)
	assert.Len(t, notes.created, 1)
	assert.Len(t, mailer.sent, 1)
}

func TestNotifyPersistFailure(t *testing.T) {
	notes, mailer := newFakeNotes(), &fakeMailer{}
	notes.createErr = errors.New("insert failed")
	n := NewNotifier(notes, mailer, nil, nil, "hr@example.com")

	_, err := n.Notify(context.Background(), acmeBreach())
	require.Error(t, err)
	assert.Empty(t, mailer.sent)
}

func TestPipelineAcme(t *testing.T) {
	recs, dir := acmeFixture()
	notes, mailer := newFakeNotes(), &fakeMailer{}
	p := NewPipeline(NewAggregator(recs, dir, nil), fakeRules{rules: []threshold.Rule{acmeRule()}},
		NewNotifier(notes, mailer, nil, nil, "hr@example.com"), nil)

	rep, err := p.Run(context.Background(), day)
	require.NoError(t, err)
	assert.Equal(t, "2025-04-01", rep.Date)
	assert.Equal(t, []CountEntry{{OrganizationID: acmeID, CategoryName: "Contractor", Count: 4}}, rep.Counts)
	assert.Equal(t, 1, rep.RulesEvaluated)
	require.Len(t, rep.Breaches, 1)
	assert.Equal(t, 1, rep.Breaches[0].ExceededBy)
	assert.True(t, rep.Breaches[0].Outcome.EmailSent)
}

func TestPipelineBreachIsolation(t *testing.T) {
	recs, dir := acmeFixture()
	dir[6] = profile(6, otherID, "Globex", "Intern")
	recs.rows = append(recs.rows, record{6, day, "Present"})

	first := acmeRule()
	second := threshold.Rule{ID: 2, Name: "Globex interns", Active: true, Threshold: 0,
		Criteria: []threshold.Criterion{crit(otherID, "Globex", "Intern")}}

	notes, mailer := newFakeNotes(), &fakeMailer{failOn: "Acme contractors"}
	p := NewPipeline(NewAggregator(recs, dir, nil), fakeRules{rules: []threshold.Rule{first, second}},
		NewNotifier(notes, mailer, nil, nil, "hr@example.com"), nil)

	rep, err := p.Run(context.Background(), day)
	require.NoError(t, err)
	require.Len(t, rep.Breaches, 2)
	assert.True(t, rep.Breaches[0].Outcome.Persisted)
	assert.False(t, rep.Breaches[0].Outcome.EmailSent)
	assert.True(t, rep.Breaches[1].Outcome.Persisted)
	assert.True(t, rep.Breaches[1].Outcome.EmailSent)
	assert.Len(t, notes.created, 2)
}

func TestPipelineAbortsWithoutSideEffects(t *testing.T) {
	notes, mailer := newFakeNotes(), &fakeMailer{}
	notifier := NewNotifier(notes, mailer, nil, nil, "hr@example.com")

	p := NewPipeline(NewAggregator(&fakeRecords{err: errors.New("timeout")}, fakeDirectory{}, nil),
		fakeRules{rules: []threshold.Rule{acmeRule()}}, notifier, nil)
	_, err := p.Run(context.Background(), day)
	require.Error(t, err)

	recs, dir := acmeFixture()
	p = NewPipeline(NewAggregator(recs, dir, nil), fakeRules{err: errors.New("rules table missing")}, notifier, nil)
	_, err = p.Run(context.Background(), day)
	require.Error(t, err)

	assert.Empty(t, notes.created)
	assert.Empty(t, mailer.sent)
}

func TestPipelineRerunIsDeduplicated(t *testing.T) {
	recs, dir := acmeFixture()
	notes, mailer := newFakeNotes(), &fakeMailer{}
	p := NewPipeline(NewAggregator(recs, dir, nil), fakeRules{rules: []threshold.Rule{acmeRule()}},
		NewNotifier(notes, mailer, nil, nil, "hr@example.com"), nil)

	_, err := p.Run(context.Background(), day)
	require.NoError(t, err)
	rep, err := p.Run(context.Background(), day)
	require.NoError(t, err)
	require.Len(t, rep.Breaches, 1)
	assert.True(t, rep.Breaches[0].Outcome.Duplicate)
	assert.Len(t, notes.created, 1)
	assert.Len(t, mailer.sent, 1)
}
