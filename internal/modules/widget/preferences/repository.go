package preferences

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Adbay/widget-weather/internal/modules/widget/types"
)

//go:embed sql/list-preferences.sql
var listPreferencesSQL string

//go:embed sql/get-preference.sql
var getPreferenceSQL string

//go:embed sql/upsert-preference.sql
var upsertPreferenceSQL string

//go:embed sql/insert-preference-if-absent.sql
var insertPreferenceIfAbsentSQL string

//go:embed sql/delete-preference.sql
var deletePreferenceSQL string

// ErrEmptyName is returned when a preference name is blank.
var ErrEmptyName = errors.New("preference name is empty")

// Repository is the SQLite-backed configuration source. It is also a Loader.
type Repository interface {
	Loader
	List(ctx context.Context) ([]types.Preference, error)
	Get(ctx context.Context, name string) (value string, ok bool, err error)
	Set(ctx context.Context, name, value string) error
	// SetDefault stores value only if name has no value yet and reports whether it did.
	SetDefault(ctx context.Context, name, value string) (bool, error)
	Delete(ctx context.Context, name string) (bool, error)
}

type repositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) Load(ctx context.Context) (types.Preferences, error) {
	list, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	prefs := make(types.Preferences, len(list))
	for _, p := range list {
		prefs[p.Name] = p.Value
	}
	return prefs, nil
}

func (r *repositoryImpl) List(ctx context.Context) ([]types.Preference, error) {
	rows, err := r.db.QueryContext(ctx, listPreferencesSQL)
	if err != nil {
		return nil, fmt.Errorf("list preferences: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close preferences rows", "error", err)
		}
	}()

	out := []types.Preference{}
	for rows.Next() {
		var p types.Preference
		if err := rows.Scan(&p.Name, &p.Value, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *repositoryImpl) Get(ctx context.Context, name string) (string, bool, error) {
	var value string
	err := r.db.QueryRowContext(ctx, getPreferenceSQL, name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get preference %q: %w", name, err)
	}
	return value, true, nil
}

func (r *repositoryImpl) Set(ctx context.Context, name, value string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	if _, err := r.db.ExecContext(ctx, upsertPreferenceSQL, name, value); err != nil {
		return fmt.Errorf("set preference %q: %w", name, err)
	}
	return nil
}

func (r *repositoryImpl) SetDefault(ctx context.Context, name, value string) (bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return false, ErrEmptyName
	}
	res, err := r.db.ExecContext(ctx, insertPreferenceIfAbsentSQL, name, value)
	if err != nil {
		return false, fmt.Errorf("seed preference %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *repositoryImpl) Delete(ctx context.Context, name string) (bool, error) {
	res, err := r.db.ExecContext(ctx, deletePreferenceSQL, name)
	if err != nil {
		return false, fmt.Errorf("delete preference %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
