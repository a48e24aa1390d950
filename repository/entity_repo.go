package repository

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"taste_match/models"
	"taste_match/utils"
)

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type entityTable struct {
	name     string
	idColumn string
}

// SQLEntityStore 基于 Users / Restaurant 表的实体库，state_id 列可为空
type SQLEntityStore struct {
	db     *sql.DB
	tables map[models.EntityKind]entityTable
}

func NewSQLEntityStore(db *sql.DB, userTable, restaurantTable string) (*SQLEntityStore, error) {
	for _, name := range []string{userTable, restaurantTable} {
		if !identPattern.MatchString(name) {
			return nil, fmt.Errorf("repository: invalid table name %q", name)
		}
	}
	return &SQLEntityStore{
		db: db,
		tables: map[models.EntityKind]entityTable{
			models.EntityUser:       {name: userTable, idColumn: "user_id"},
			models.EntityRestaurant: {name: restaurantTable, idColumn: "restaurant_id"},
		},
	}, nil
}

func (s *SQLEntityStore) table(kind models.EntityKind) (entityTable, error) {
	t, ok := s.tables[kind]
	if !ok {
		return entityTable{}, fmt.Errorf("repository: unknown entity kind %q", kind)
	}
	return t, nil
}

func (s *SQLEntityStore) GetVersion(ctx context.Context, ref models.EntityRef) (int64, bool, error) {
	t, err := s.table(ref.Kind)
	if err != nil {
		return 0, false, err
	}

	var v sql.NullInt64
	q := fmt.Sprintf(`SELECT state_id FROM %s WHERE %s = ?`, t.name, t.idColumn)
	if err := s.db.QueryRowContext(ctx, q, ref.ID).Scan(&v); err != nil {
		if utils.IsSQLNoRowsError(err) {
			return 0, false, ref.NotFound()
		}
		return 0, false, err
	}
	return v.Int64, v.Valid, nil
}

func (s *SQLEntityStore) GetVersions(ctx context.Context, kind models.EntityKind, ids []int64) (map[int64]sql.NullInt64, error) {
	out := make(map[int64]sql.NullInt64, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	t, err := s.table(kind)
	if err != nil {
		return nil, err
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	q := fmt.Sprintf(`SELECT %s, state_id FROM %s WHERE %s IN (%s)`, t.idColumn, t.name, t.idColumn, placeholders)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var v sql.NullInt64
		if err := rows.Scan(&id, &v); err != nil {
			return nil, err
		}
		out[id] = v
	}
	return out, rows.Err()
}

func (s *SQLEntityStore) SetVersionIfAbsent(ctx context.Context, ref models.EntityRef, version int64) (bool, error) {
	t, err := s.table(ref.Kind)
	if err != nil {
		return false, err
	}
	q := fmt.Sprintf(`UPDATE %s SET state_id = ? WHERE %s = ? AND state_id IS NULL`, t.name, t.idColumn)
	res, err := s.db.ExecContext(ctx, q, version, ref.ID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *SQLEntityStore) SetVersion(ctx context.Context, ref models.EntityRef, version int64) error {
	t, err := s.table(ref.Kind)
	if err != nil {
		return err
	}
	q := fmt.Sprintf(`UPDATE %s SET state_id = ? WHERE %s = ?`, t.name, t.idColumn)
	res, err := s.db.ExecContext(ctx, q, version, ref.ID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// MySQL 对未变化的行也返回 0，需要再确认实体是否存在
		if _, _, err := s.GetVersion(ctx, ref); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLEntityStore) ListIDs(ctx context.Context, kind models.EntityKind, limit int) ([]int64, error) {
	t, err := s.table(kind)
	if err != nil {
		return nil, err
	}
	q := fmt.Sprintf(`SELECT %s FROM %s ORDER BY %s`, t.idColumn, t.name, t.idColumn)
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
