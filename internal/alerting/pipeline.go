package alerting

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"HRM-backend/internal/attendance"
	"HRM-backend/internal/threshold"
)

type Aggregate interface {
	Aggregate(ctx context.Context, date time.Time) (Counts, error)
}

type RuleProvider interface {
	ActiveRules(ctx context.Context) ([]threshold.Rule, error)
}

type BreachNotifier interface {
	Notify(ctx context.Context, b Breach) (Outcome, error)
}

type CountEntry struct {
	OrganizationID uint64 `json:"organization_id"`
	CategoryName   string `json:"category_name"`
	Subtype        string `json:"subtype,omitempty"`
	Count          int    `json:"count"`
}

type BreachReport struct {
	RuleID     uint64   `json:"rule_id"`
	RuleName   string   `json:"rule_name"`
	Total      int      `json:"total"`
	Threshold  int      `json:"threshold"`
	ExceededBy int      `json:"exceeded_by"`
	Labels     []string `json:"labels"`
	Outcome    Outcome  `json:"outcome"`
	Error      string   `json:"error,omitempty"`
}

type Report struct {
	Date           string         `json:"date"`
	Counts         []CountEntry   `json:"counts"`
	RulesEvaluated int            `json:"rules_evaluated"`
	Breaches       []BreachReport `json:"breaches"`
}

// Pipeline is one evaluation pass: aggregate, load rules, evaluate, notify.
type Pipeline struct {
	agg      Aggregate
	rules    RuleProvider
	notifier BreachNotifier
	loc      *time.Location
}

func NewPipeline(agg Aggregate, rules RuleProvider, notifier BreachNotifier, loc *time.Location) *Pipeline {
	if loc == nil {
		loc = time.UTC
	}
	return &Pipeline{agg: agg, rules: rules, notifier: notifier, loc: loc}
}

// Run fails before notifying anything when counts or rules cannot be
// loaded. Each breach is notified independently of the others.
func (p *Pipeline) Run(ctx context.Context, date time.Time) (Report, error) {
	day, _ := DayBounds(date, p.loc)
	rep := Report{Date: day.Format(attendance.DateLayout), Counts: []CountEntry{}, Breaches: []BreachReport{}}

	counts, err := p.agg.Aggregate(ctx, day)
	if err != nil {
		return rep, err
	}
	rules, err := p.rules.ActiveRules(ctx)
	if err != nil {
		return rep, fmt.Errorf("load threshold rules: %w", err)
	}
	rep.Counts = sortedCounts(counts)
	rep.RulesEvaluated = len(rules)

	for _, b := range Evaluate(day, counts, rules) {
		br := BreachReport{
			RuleID:     b.Rule.ID,
			RuleName:   b.Rule.Name,
			Total:      b.Total,
			Threshold:  b.Rule.Threshold,
			ExceededBy: b.ExceededBy(),
			Labels:     b.Labels,
		}
		out, err := p.notifier.Notify(ctx, b)
		if err != nil {
			log.Printf("[ERROR] threshold %q on %s: %v", b.Rule.Name, b.Date, err)
			br.Error = err.Error()
		}
		br.Outcome = out
		rep.Breaches = append(rep.Breaches, br)
	}

	log.Printf("[INFO] threshold check %s: keys=%d rules=%d breaches=%d", rep.Date, len(rep.Counts), rep.RulesEvaluated, len(rep.Breaches))
	return rep, nil
}

func sortedCounts(c Counts) []CountEntry {
	out := make([]CountEntry, 0, len(c))
	for k, v := range c {
		out = append(out, CountEntry{OrganizationID: k.OrganizationID, CategoryName: k.CategoryName, Subtype: k.Subtype, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OrganizationID != out[j].OrganizationID {
			return out[i].OrganizationID < out[j].OrganizationID
		}
		if out[i].CategoryName != out[j].CategoryName {
			return out[i].CategoryName < out[j].CategoryName
		}
		return out[i].Subtype < out[j].Subtype
	})
	return out
}
