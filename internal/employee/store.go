package employee

import (
	"context"
	"database/sql"
	"errors"

	"HRM-backend/internal/platform/db"
)

var ErrNotFound = errors.New("employee not found")

const selectProfile = `
	SELECT e.employee_id, e.employee_code, e.name, e.organization_id,
	       o.name, e.category_id, c.name, e.standard_hours, e.supervisor_code
	FROM employees e
	LEFT JOIN organizations o ON o.organization_id = e.organization_id
	LEFT JOIN employee_categories c ON c.category_id = e.category_id
	`

// resolveBatch keeps IN lists far below MySQL's placeholder limit.
const resolveBatch = 1000

// Directory is the read-only join used by attendance and alerting.
type Directory struct {
	db    db.DBTX
	batch int
}

func NewDirectory(conn db.DBTX) *Directory { return &Directory{db: conn, batch: resolveBatch} }

func (d *Directory) ByCode(ctx context.Context, code string) (Profile, error) {
	row := d.db.QueryRowContext(ctx, selectProfile+`WHERE e.employee_code = ? LIMIT 1`, NormalizeCode(code))
	return scanOne(row)
}

func (d *Directory) ByID(ctx context.Context, id uint64) (Profile, error) {
	row := d.db.QueryRowContext(ctx, selectProfile+`WHERE e.employee_id = ? LIMIT 1`, id)
	return scanOne(row)
}

// ResolveMany returns the profiles it could find; unknown ids are absent.
// Large id sets are looked up in batches.
func (d *Directory) ResolveMany(ctx context.Context, ids []uint64) (map[uint64]Profile, error) {
	out := make(map[uint64]Profile, len(ids))
	uniq := dedupIDs(ids)
	for start := 0; start < len(uniq); start += d.batch {
		end := min(start+d.batch, len(uniq))
		if err := d.resolveInto(ctx, uniq[start:end], out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (d *Directory) resolveInto(ctx context.Context, ids []uint64, out map[uint64]Profile) error {
	args := make([]any, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}
	rows, err := d.db.QueryContext(ctx, selectProfile+`WHERE e.employee_id IN (`+db.Placeholders(len(ids))+`)`, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var r profileRow
		if err := scanRow(rows, &r); err != nil {
			return err
		}
		p := r.toModel()
		out[p.EmployeeID] = p
	}
	return rows.Err()
}

// ===== helpers =====

type scanner interface {
	Scan(dest ...any) error
}

func scanRow(s scanner, r *profileRow) error {
	return s.Scan(&r.EmployeeID, &r.EmployeeCode, &r.Name, &r.OrganizationID,
		&r.OrganizationName, &r.CategoryID, &r.CategoryName, &r.StandardHours, &r.SupervisorCode)
}

func scanOne(row *sql.Row) (Profile, error) {
	var r profileRow
	if err := scanRow(row, &r); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Profile{}, ErrNotFound
		}
		return Profile{}, err
	}
	return r.toModel(), nil
}

func dedupIDs(ids []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
