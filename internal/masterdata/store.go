package masterdata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"HRM-backend/internal/platform/db"
)

type Store struct{ db db.DBTX }

func NewStore(conn db.DBTX) *Store { return &Store{db: conn} }

// GET /organizations, /employee-categories
func (s *Store) List(ctx context.Context, k Kind) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT %s, name FROM %s ORDER BY name, %s`, k.IDCol, k.Table, k.IDCol))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := make([]Entry, 0, 16)
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Name); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

func (s *Store) Get(ctx context.Context, k Kind, id uint64) (Entry, error) {
	var e Entry
	err := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT %s, name FROM %s WHERE %s = ?`, k.IDCol, k.Table, k.IDCol), id).
		Scan(&e.ID, &e.Name)
	return e, err
}

func (s *Store) Create(ctx context.Context, k Kind, name string) (Entry, error) {
	res, err := s.db.ExecContext(ctx, fmt.Sprintf(`INSERT INTO %s (name) VALUES (?)`, k.Table), name)
	if err != nil {
		return Entry{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Entry{}, err
	}
	return Entry{ID: uint64(id), Name: name}, nil
}

// Rename returns sql.ErrNoRows for a missing id. MySQL reports 0 affected
// rows for an unchanged name, so that case is resolved with a lookup.
func (s *Store) Rename(ctx context.Context, k Kind, id uint64, name string) error {
	res, err := s.db.ExecContext(ctx, fmt.Sprintf(`UPDATE %s SET name = ? WHERE %s = ?`, k.Table, k.IDCol), name, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	_, err = s.Get(ctx, k, id)
	return err
}

func (s *Store) Delete(ctx context.Context, k Kind, id uint64) error {
	res, err := s.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE %s = ?`, k.Table, k.IDCol), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func isNoRows(err error) bool { return errors.Is(err, sql.ErrNoRows) }
