// Package repository holds the parameterized SQL for every entity. Each repository
// receives its *sql.DB through its constructor.
package repository

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"tradehub/internal/common/database"
	apperrors "tradehub/internal/common/errors"
)

// column maps one updatable request field onto a fixed column name.
type column struct {
	name   string
	encode func(v interface{}) (interface{}, error)
}

func plain(name string) column { return column{name: name} }

// jsonList stores a list of strings as JSON text.
func jsonList(name string) column {
	return column{name: name, encode: func(v interface{}) (interface{}, error) {
		items, ok := v.([]interface{})
		if !ok {
			if s, ok := v.([]string); ok {
				data, err := json.Marshal(s)
				return string(data), err
			}
			return nil, fmt.Errorf("expected a list")
		}
		terms := make([]string, 0, len(items))
		for _, it := range items {
			s, ok := it.(string)
			if !ok {
				return nil, fmt.Errorf("expected a list of strings")
			}
			terms = append(terms, s)
		}
		data, err := json.Marshal(terms)
		return string(data), err
	}}
}

// integer converts JSON numbers to int64.
func integer(name string) column {
	return column{name: name, encode: func(v interface{}) (interface{}, error) {
		switch n := v.(type) {
		case float64:
			if n != float64(int64(n)) {
				return nil, fmt.Errorf("expected an integer")
			}
			return int64(n), nil
		case int:
			return int64(n), nil
		case int64:
			return n, nil
		}
		return nil, fmt.Errorf("expected an integer")
	}}
}

// buildUpdate renders an UPDATE whose SET list comes only from allowed. Field values
// are always bound as parameters. where holds the key columns, bound after the
// SET values.
func buildUpdate(table string, allowed map[string]column, fields map[string]interface{}, where []string, whereArgs ...interface{}) (string, []interface{}, error) {
	if len(fields) == 0 {
		return "", nil, apperrors.NewInvalidInputError("no fields to update")
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		if _, ok := allowed[k]; !ok {
			return "", nil, apperrors.NewInvalidInputError(fmt.Sprintf("field %q cannot be updated", k))
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	sets := make([]string, 0, len(keys)+1)
	args := make([]interface{}, 0, len(keys)+len(whereArgs))
	for _, k := range keys {
		col := allowed[k]
		val := fields[k]
		if col.encode != nil {
			encoded, err := col.encode(val)
			if err != nil {
				return "", nil, apperrors.NewInvalidInputError(fmt.Sprintf("%s: %v", k, err))
			}
			val = encoded
		}
		args = append(args, val)
		sets = append(sets, fmt.Sprintf("%s = $%d", col.name, len(args)))
	}
	sets = append(sets, "updated_at = NOW()")

	conds := make([]string, 0, len(where))
	for _, w := range where {
		args = append(args, whereArgs[len(conds)])
		conds = append(conds, fmt.Sprintf("%s = $%d", w, len(args)))
	}

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s", table, strings.Join(sets, ", "), strings.Join(conds, " AND "))
	return query, args, nil
}

// lookupErr maps a single-row read failure.
func lookupErr(code apperrors.ErrorCode, id, queryName string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.NewNotFoundError(code, id)
	}
	return apperrors.StoreError(queryName, err)
}

// writeErr maps an insert/update failure.
func writeErr(queryName string, err error) error {
	switch {
	case database.IsUniqueViolation(err):
		return apperrors.NewConflictError(queryName)
	case database.IsForeignKeyViolation(err):
		return apperrors.NewInvalidInputError("referenced record does not exist")
	}
	return apperrors.StoreError(queryName, err)
}

// requireAffected turns a zero-row update into a not-found error.
func requireAffected(res sql.Result, code apperrors.ErrorCode, id, queryName string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return apperrors.StoreError(queryName, err)
	}
	if n == 0 {
		return apperrors.NewNotFoundError(code, id)
	}
	return nil
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func itoa(n int) string { return strconv.Itoa(n) }
