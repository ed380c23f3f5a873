package threshold

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	mysql "github.com/go-sql-driver/mysql"

	"HRM-backend/internal/employee"
	"HRM-backend/internal/platform/db"
)

var (
	ErrRuleNotFound  = errors.New("threshold rule not found")
	ErrDuplicateName = errors.New("threshold rule name already exists")
	ErrUnknownRef    = errors.New("criterion references an unknown organization or category")
)

const selectCriteria = `
	SELECT c.rule_id, c.organization_id, o.name, c.category_id, ec.name, c.subtype
	FROM threshold_criteria c
	JOIN threshold_rules r ON r.rule_id = c.rule_id
	LEFT JOIN organizations o ON o.organization_id = c.organization_id
	LEFT JOIN employee_categories ec ON ec.category_id = c.category_id
	`

type Store struct {
	conn *sql.DB
}

func NewStore(conn *sql.DB) *Store { return &Store{conn: conn} }

// List returns rules ordered by id with their criteria in position order.
// Both reads share one read-only transaction.
func (s *Store) List(ctx context.Context, activeOnly bool) ([]Rule, error) {
	var out []Rule
	err := db.ReadOnly(ctx, s.conn, func(ctx context.Context, tx db.DBTX) error {
		var err error
		out, err = listRules(ctx, tx, activeOnly)
		return err
	})
	return out, err
}

func listRules(ctx context.Context, tx db.DBTX, activeOnly bool) ([]Rule, error) {
	q := `SELECT rule_id, name, active, threshold FROM threshold_rules`
	cq := selectCriteria
	if activeOnly {
		q += ` WHERE active = 1`
		cq += ` WHERE r.active = 1`
	}
	q += ` ORDER BY rule_id`
	cq += ` ORDER BY c.rule_id, c.position`

	rows, err := tx.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	var (
		out   []Rule
		index = map[uint64]int{}
	)
	for rows.Next() {
		var r Rule
		if err := rows.Scan(&r.ID, &r.Name, &r.Active, &r.Threshold); err != nil {
			rows.Close()
			return nil, err
		}
		r.Criteria = []Criterion{}
		index[r.ID] = len(out)
		out = append(out, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	crit, err := tx.QueryContext(ctx, cq)
	if err != nil {
		return nil, err
	}
	defer crit.Close()
	for crit.Next() {
		ruleID, c, err := scanCriterion(crit)
		if err != nil {
			return nil, err
		}
		if i, ok := index[ruleID]; ok {
			out[i].Criteria = append(out[i].Criteria, c)
		}
	}
	return out, crit.Err()
}

func (s *Store) Get(ctx context.Context, id uint64) (Rule, error) {
	var r Rule
	err := s.conn.QueryRowContext(ctx, `
	SELECT rule_id, name, active, threshold FROM threshold_rules WHERE rule_id = ?`, id,
	).Scan(&r.ID, &r.Name, &r.Active, &r.Threshold)
	if errors.Is(err, sql.ErrNoRows) {
		return Rule{}, ErrRuleNotFound
	}
	if err != nil {
		return Rule{}, err
	}

	rows, err := s.conn.QueryContext(ctx, selectCriteria+`WHERE c.rule_id = ? ORDER BY c.position`, id)
	if err != nil {
		return Rule{}, err
	}
	defer rows.Close()
	r.Criteria = []Criterion{}
	for rows.Next() {
		_, c, err := scanCriterion(rows)
		if err != nil {
			return Rule{}, err
		}
		r.Criteria = append(r.Criteria, c)
	}
	return r, rows.Err()
}

// Create writes the rule and its criteria in one transaction.
func (s *Store) Create(ctx context.Context, r *Rule) error {
	return db.RunInTx(ctx, s.conn, nil, func(ctx context.Context, tx db.DBTX) error {
		res, err := tx.ExecContext(ctx, `
		INSERT INTO threshold_rules (name, active, threshold, created_at, updated_at)
		VALUES (?, ?, ?, UTC_TIMESTAMP(), UTC_TIMESTAMP())`,
			r.Name, r.Active, r.Threshold)
		if err != nil {
			return mapErr(err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		r.ID = uint64(id)
		return insertCriteria(ctx, tx, r.ID, r.Criteria)
	})
}

// Replace overwrites name, flag, limit and the whole criteria list.
func (s *Store) Replace(ctx context.Context, r Rule) error {
	return db.RunInTx(ctx, s.conn, nil, func(ctx context.Context, tx db.DBTX) error {
		if err := lockRule(ctx, tx, r.ID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
		UPDATE threshold_rules SET name = ?, active = ?, threshold = ?, updated_at = UTC_TIMESTAMP()
		WHERE rule_id = ?`, r.Name, r.Active, r.Threshold, r.ID); err != nil {
			return mapErr(err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM threshold_criteria WHERE rule_id = ?`, r.ID); err != nil {
			return err
		}
		return insertCriteria(ctx, tx, r.ID, r.Criteria)
	})
}

func (s *Store) SetActive(ctx context.Context, id uint64, active bool) error {
	return db.RunInTx(ctx, s.conn, nil, func(ctx context.Context, tx db.DBTX) error {
		if err := lockRule(ctx, tx, id); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
		UPDATE threshold_rules SET active = ?, updated_at = UTC_TIMESTAMP() WHERE rule_id = ?`, active, id)
		return err
	})
}

func (s *Store) Delete(ctx context.Context, id uint64) error {
	return db.RunInTx(ctx, s.conn, nil, func(ctx context.Context, tx db.DBTX) error {
		if err := lockRule(ctx, tx, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM threshold_criteria WHERE rule_id = ?`, id); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `DELETE FROM threshold_rules WHERE rule_id = ?`, id)
		return err
	})
}

// ===== helpers =====

func lockRule(ctx context.Context, tx db.DBTX, id uint64) error {
	var one int
	err := tx.QueryRowContext(ctx, `SELECT 1 FROM threshold_rules WHERE rule_id = ? FOR UPDATE`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrRuleNotFound
	}
	return err
}

func insertCriteria(ctx context.Context, tx db.DBTX, ruleID uint64, cs []Criterion) error {
	if len(cs) == 0 {
		return nil
	}
	var (
		values []string
		args   []any
	)
	for i, c := range cs {
		values = append(values, "(?, ?, ?, ?, ?)")
		args = append(args, ruleID, i, c.OrganizationID, c.CategoryID, db.NullString(c.Subtype))
	}
	_, err := tx.ExecContext(ctx, `
	INSERT INTO threshold_criteria (rule_id, position, organization_id, category_id, subtype)
	VALUES `+strings.Join(values, ", "), args...)
	return mapErr(err)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCriterion(s scanner) (uint64, Criterion, error) {
	var (
		ruleID           uint64
		c                Criterion
		orgName, catName sql.NullString
		subtype          sql.NullString
	)
	if err := s.Scan(&ruleID, &c.OrganizationID, &orgName, &c.CategoryID, &catName, &subtype); err != nil {
		return 0, Criterion{}, err
	}
	c.OrganizationName = orgName.String
	c.CategoryName = catName.String
	if c.CategoryName == "" {
		c.CategoryName = employee.UnknownCategory
	}
	if subtype.Valid && subtype.String != "" {
		st := subtype.String
		c.Subtype = &st
	}
	return ruleID, c, nil
}

func mapErr(err error) error {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case 1062:
			return ErrDuplicateName
		case 1452:
			return ErrUnknownRef
		}
	}
	return err
}
