package settings

import (
	"context"
	"database/sql"
	"errors"
	"sync"
)

type themeRepo struct {
	db *sql.DB
}

func NewThemeRepo(db *sql.DB) ThemeRepo {
	return &themeRepo{db: db}
}

func (r *themeRepo) Load(ctx context.Context) (Theme, bool, error) {
	var t string
	err := r.db.QueryRowContext(ctx, `SELECT theme FROM global_settings WHERE id = 1`).Scan(&t)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return Theme(t), true, nil
}

func (r *themeRepo) Init(ctx context.Context, t Theme) (Theme, error) {
	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO global_settings (id, theme, updated_at)
		VALUES (1, $1, now())
		ON CONFLICT (id) DO NOTHING
	`, string(t)); err != nil {
		return "", err
	}
	stored, _, err := r.Load(ctx)
	return stored, err
}

func (r *themeRepo) Save(ctx context.Context, t Theme) (Theme, error) {
	var saved string
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO global_settings (id, theme, updated_at)
		VALUES (1, $1, now())
		ON CONFLICT (id) DO UPDATE SET theme = EXCLUDED.theme, updated_at = EXCLUDED.updated_at
		RETURNING theme
	`, string(t)).Scan(&saved)
	if err != nil {
		return "", err
	}
	return Theme(saved), nil
}

// MemoryThemeRepo holds the global theme in process memory.
type MemoryThemeRepo struct {
	mu    sync.Mutex
	theme Theme
	set   bool
}

func NewMemoryThemeRepo() *MemoryThemeRepo {
	return &MemoryThemeRepo{}
}

func (m *MemoryThemeRepo) Load(_ context.Context) (Theme, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.theme, m.set, nil
}

func (m *MemoryThemeRepo) Init(_ context.Context, t Theme) (Theme, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.set {
		m.theme, m.set = t, true
	}
	return m.theme, nil
}

func (m *MemoryThemeRepo) Save(_ context.Context, t Theme) (Theme, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.theme, m.set = t, true
	return m.theme, nil
}
