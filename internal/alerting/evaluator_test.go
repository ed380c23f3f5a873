package alerting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"HRM-backend/internal/threshold"
)

func TestEvaluateAcmeExample(t *testing.T) {
	counts := Counts{{OrganizationID: acmeID, CategoryName: "Contractor"}: 4}
	rules := []threshold.Rule{{ID: 1, Name: "Acme contractors", Active: true, Threshold: 3,
		Criteria: []threshold.Criterion{crit(acmeID, "Acme", "Contractor")}}}

	breaches := Evaluate(day, counts, rules)
	require.Len(t, breaches, 1)
	b := breaches[0]
	assert.Equal(t, 4, b.Total)
	assert.Equal(t, 1, b.ExceededBy())
	assert.Equal(t, "2025-04-01", b.Date)
	assert.Equal(t, []string{"Acme"}, b.Organizations)
	assert.Equal(t, []string{"Contractor"}, b.Categories)
	assert.Equal(t, []string{"Acme - Contractor"}, b.Labels)
}

func TestEvaluateStrictComparison(t *testing.T) {
	rule := threshold.Rule{ID: 1, Active: true, Threshold: 10, Criteria: []threshold.Criterion{crit(acmeID, "Acme", "Staff")}}
	key := Key{OrganizationID: acmeID, CategoryName: "Staff"}

	assert.Empty(t, Evaluate(day, Counts{key: 10}, []threshold.Rule{rule}))
	assert.Len(t, Evaluate(day, Counts{key: 11}, []threshold.Rule{rule}), 1)
}

func TestEvaluatePoolsCriteria(t *testing.T) {
	counts := Counts{}
	counts[Key{OrganizationID: acmeID, CategoryName: "X"}] = 3
	counts[Key{OrganizationID: acmeID, CategoryName: "Y"}] = 3
	counts[Key{OrganizationID: otherID, CategoryName: "X"}] = 50
	rule := threshold.Rule{ID: 7, Active: true, Threshold: 5, Criteria: []threshold.Criterion{
		crit(acmeID, "Acme", "X"),
		crit(acmeID, "Acme", "Y"),
	}}

	breaches := Evaluate(day, counts, []threshold.Rule{rule})
	require.Len(t, breaches, 1, "3 + 3 > 5 even though each criterion alone is under the limit")
	assert.Equal(t, 6, breaches[0].Total)
	assert.Equal(t, []string{"Acme"}, breaches[0].Organizations)
	assert.Equal(t, []string{"X", "Y"}, breaches[0].Categories)
	assert.Equal(t, []string{"Acme - X", "Acme - Y"}, breaches[0].Labels)
}

func TestEvaluateSubtype(t *testing.T) {
	night := "night"
	counts := Counts{}
	counts[Key{OrganizationID: acmeID, CategoryName: "Staff"}] = 2
	counts[Key{OrganizationID: acmeID, CategoryName: "Staff", Subtype: "night"}] = 3

	withSubtype := threshold.Rule{ID: 1, Active: true, Threshold: 2, Criteria: []threshold.Criterion{
		{OrganizationID: acmeID, OrganizationName: "Acme", CategoryName: "Staff", Subtype: &night},
	}}
	anySubtype := threshold.Rule{ID: 2, Active: true, Threshold: 4, Criteria: []threshold.Criterion{
		crit(acmeID, "Acme", "Staff"),
	}}

	breaches := Evaluate(day, counts, []threshold.Rule{withSubtype, anySubtype})
	require.Len(t, breaches, 2)
	assert.Equal(t, 3, breaches[0].Total)
	assert.Equal(t, []string{"Acme - Staff (night)"}, breaches[0].Labels)
	assert.Equal(t, 5, breaches[1].Total)
}

func TestEvaluateSkipsInactiveAndEmptyRules(t *testing.T) {
	counts := Counts{{OrganizationID: acmeID, CategoryName: "Staff"}: 100}
	rules := []threshold.Rule{
		{ID: 1, Active: false, Threshold: 0, Criteria: []threshold.Criterion{crit(acmeID, "Acme", "Staff")}},
		{ID: 2, Active: true, Threshold: 0},
	}
	assert.Empty(t, Evaluate(day, counts, rules))
	assert.Empty(t, Evaluate(day, counts, nil))
}

func TestEvaluateMissingKeysAreZero(t *testing.T) {
	rule := threshold.Rule{ID: 1, Active: true, Threshold: 0, Criteria: []threshold.Criterion{crit(otherID, "Globex", "Intern")}}
	assert.Empty(t, Evaluate(day, Counts{}, []threshold.Rule{rule}))
}
