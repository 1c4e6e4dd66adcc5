package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/abs-valuers/abs_backend/models"
	"github.com/abs-valuers/abs_backend/repositories"
	"github.com/abs-valuers/abs_backend/utils"
)

const configCacheKey = "site_config"

var (
	ErrUnknownSection = errors.New("unknown config section")
	ErrInvalidSection = errors.New("invalid config section value")
)

// ConfigStore owns the active SiteConfig. Readers get copies.
type ConfigStore struct {
	persist ConfigPersistence
	cache   repositories.DeviceStore
	logger  echo.Logger

	mu    sync.RWMutex
	cfg   models.SiteConfig
	theme models.ThemeVars
}

func NewConfigStore(persist ConfigPersistence, cache repositories.DeviceStore, logger echo.Logger) *ConfigStore {
	s := &ConfigStore{persist: persist, cache: cache, logger: logger}
	s.set(models.DefaultSiteConfig())
	return s
}

// Load replaces the active configuration with defaults overlaid by the stored override.
func (s *ConfigStore) Load(ctx context.Context) {
	payload, err := s.loadPayload(ctx)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			s.logger.Warnf("site config override unavailable, using defaults: %v", err)
		}
		s.set(models.DefaultSiteConfig())
		return
	}
	cfg := models.DefaultSiteConfig()
	if err := json.Unmarshal(payload, &cfg); err != nil {
		s.logger.Warnf("site config override is malformed, using defaults: %v", err)
		cfg = models.DefaultSiteConfig()
	}
	s.set(cfg)
}

func (s *ConfigStore) loadPayload(ctx context.Context) ([]byte, error) {
	if s.cache != nil {
		if b, err := s.cache.CacheGet(ctx, configCacheKey); err == nil {
			return b, nil
		}
	}
	if s.persist == nil {
		return nil, repositories.ErrNotFound
	}
	return s.persist.LoadOverride(ctx)
}

func (s *ConfigStore) Current() models.SiteConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneConfig(s.cfg)
}

func (s *ConfigStore) Theme() models.ThemeVars {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.theme
}

func (s *ConfigStore) View() models.SiteConfigView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.SiteConfigView{Config: cloneConfig(s.cfg), Theme: s.theme, PageTitle: s.cfg.Seo.Title}
}

// ThemeCSS renders the theme variables as a :root rule.
func (s *ConfigStore) ThemeCSS() string {
	t := s.Theme()
	return fmt.Sprintf(":root{--color-primary:%s;--color-primary-light:%s;--color-primary-dark:%s;}\n",
		t.Primary, t.PrimaryLight, t.PrimaryDark)
}

// UpdateConfig replaces an array section wholesale and shallow-merges an object section.
func (s *ConfigStore) UpdateConfig(ctx context.Context, section string, data json.RawMessage) (models.SiteConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := cloneConfig(s.cfg)
	if err := applySection(&next, section, data); err != nil {
		return models.SiteConfig{}, err
	}
	if err := s.save(ctx, next); err != nil {
		return models.SiteConfig{}, err
	}
	s.setLocked(next)
	return cloneConfig(next), nil
}

func (s *ConfigStore) ResetConfig(ctx context.Context) (models.SiteConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg := models.DefaultSiteConfig()
	if err := s.save(ctx, cfg); err != nil {
		return models.SiteConfig{}, err
	}
	s.setLocked(cfg)
	return cloneConfig(cfg), nil
}

func (s *ConfigStore) save(ctx context.Context, cfg models.SiteConfig) error {
	payload, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	if s.persist != nil {
		if err := s.persist.SaveOverride(ctx, payload); err != nil {
			return fmt.Errorf("persist site config: %w", err)
		}
	}
	if s.cache != nil {
		if err := s.cache.CacheSet(ctx, configCacheKey, payload, time.Hour); err != nil {
			s.logger.Warnf("site config cache not refreshed: %v", err)
		}
	}
	return nil
}

func (s *ConfigStore) set(cfg models.SiteConfig) {
	s.mu.Lock()
	s.setLocked(cfg)
	s.mu.Unlock()
}

func (s *ConfigStore) setLocked(cfg models.SiteConfig) {
	s.cfg = cfg
	s.theme = ThemeFor(cfg.Theme.PrimaryColor)
}

// ThemeFor derives the light and dark shades of a primary color.
func ThemeFor(primary string) models.ThemeVars {
	return models.ThemeVars{
		Primary:      primary,
		PrimaryLight: utils.AdjustColor(primary, 40),
		PrimaryDark:  utils.AdjustColor(primary, -30),
	}
}

func cloneConfig(cfg models.SiteConfig) models.SiteConfig {
	cfg.Banks = append([]string(nil), cfg.Banks...)
	return cfg
}

func sectionTarget(cfg *models.SiteConfig, section string) (any, bool) {
	switch section {
	case "hero":
		return &cfg.Hero, true
	case "seo":
		return &cfg.Seo, true
	case "theme":
		return &cfg.Theme, true
	case "contact":
		return &cfg.Contact, true
	case "features":
		return &cfg.Features, true
	case "stats":
		return &cfg.Stats, true
	case "banks":
		return &cfg.Banks, true
	}
	return nil, false
}

func applySection(cfg *models.SiteConfig, section string, data json.RawMessage) error {
	target, ok := sectionTarget(cfg, section)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSection, section)
	}
	data = bytes.TrimSpace(data)

	if banks, isArray := target.(*[]string); isArray {
		if len(data) == 0 || data[0] != '[' {
			return fmt.Errorf("%w: %s expects an array", ErrInvalidSection, section)
		}
		var next []string
		if err := json.Unmarshal(data, &next); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidSection, err)
		}
		if next == nil {
			next = []string{}
		}
		*banks = next
		return nil
	}

	if len(data) == 0 || data[0] != '{' {
		return fmt.Errorf("%w: %s expects an object", ErrInvalidSection, section)
	}
	var patch map[string]json.RawMessage
	if err := json.Unmarshal(data, &patch); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSection, err)
	}
	current, err := json.Marshal(target)
	if err != nil {
		return err
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(current, &merged); err != nil {
		return err
	}
	for k, v := range patch {
		if _, known := merged[k]; !known {
			return fmt.Errorf("%w: unknown key %q in %s", ErrInvalidSection, k, section)
		}
		merged[k] = v
	}
	out, err := json.Marshal(merged)
	if err != nil {
		return err
	}

	// Zero first so nested objects are replaced, not merged.
	v := reflect.ValueOf(target).Elem()
	v.Set(reflect.Zero(v.Type()))
	dec := json.NewDecoder(bytes.NewReader(out))
	dec.DisallowUnknownFields()
	if err := dec.Decode(target); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSection, err)
	}
	if theme, ok := target.(*models.ThemeConfig); ok && !utils.IsHexColor(theme.PrimaryColor) {
		return fmt.Errorf("%w: primaryColor must be #rrggbb", ErrInvalidSection)
	}
	return nil
}
