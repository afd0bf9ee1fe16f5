package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
	ThemeAuto  Theme = "auto"

	DefaultTheme = ThemeLight
)

var ErrInvalidTheme = errors.New("Invalid theme. Must be light, dark, or auto")

func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark || t == ThemeAuto
}

// ThemeRepo persists the single global settings record.
type ThemeRepo interface {
	// Load reports false when the record has not been created yet.
	Load(ctx context.Context) (Theme, bool, error)
	// Init creates the record with t unless it exists, and returns the stored theme.
	Init(ctx context.Context, t Theme) (Theme, error)
	Save(ctx context.Context, t Theme) (Theme, error)
}

type ThemeService struct {
	repo ThemeRepo
	log  *slog.Logger
}

func NewThemeService(repo ThemeRepo, log *slog.Logger) *ThemeService {
	if log == nil {
		log = slog.Default()
	}
	return &ThemeService{repo: repo, log: log.With("component", "settings")}
}

// GetTheme never fails: store errors are logged and the default is returned.
// A missing record is created with the default.
func (s *ThemeService) GetTheme(ctx context.Context) Theme {
	t, ok, err := s.repo.Load(ctx)
	if err != nil {
		s.log.Error("load global theme", "err", err)
		return DefaultTheme
	}
	if ok {
		return t
	}
	t, err = s.repo.Init(ctx, DefaultTheme)
	if err != nil {
		s.log.Error("create global settings", "err", err)
		return DefaultTheme
	}
	return t
}

func (s *ThemeService) SetTheme(ctx context.Context, t Theme) (Theme, error) {
	if !t.Valid() {
		return "", ErrInvalidTheme
	}
	saved, err := s.repo.Save(ctx, t)
	if err != nil {
		return "", fmt.Errorf("save global theme: %w", err)
	}
	s.log.Info("global theme updated", "theme", saved)
	return saved, nil
}
