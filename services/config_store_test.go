package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abs-valuers/abs_backend/models"
	"github.com/abs-valuers/abs_backend/repositories"
)

func TestConfigStore_ObjectSectionIsShallowMerged(t *testing.T) {
	t.Parallel()

	store := NewConfigStore(&memoryPersistence{}, nil, quietLogger())
	before := store.Current()

	cfg, err := store.UpdateConfig(context.Background(), "hero", json.RawMessage(`{"badge":"New Badge"}`))
	require.NoError(t, err)

	assert.Equal(t, "New Badge", cfg.Hero.Badge)
	assert.Equal(t, before.Hero.TitleLine1, cfg.Hero.TitleLine1)
	assert.Equal(t, before.Hero.Description, cfg.Hero.Description)
	assert.Equal(t, before.Seo, cfg.Seo)
}

func TestConfigStore_ArraySectionIsReplaced(t *testing.T) {
	t.Parallel()

	store := NewConfigStore(&memoryPersistence{}, nil, quietLogger())

	cfg, err := store.UpdateConfig(context.Background(), "banks", json.RawMessage(`["A","B"]`))
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, cfg.Banks)

	_, err = store.UpdateConfig(context.Background(), "banks", json.RawMessage(`{"0":"A"}`))
	assert.ErrorIs(t, err, ErrInvalidSection)
}

func TestConfigStore_RejectsBadInput(t *testing.T) {
	t.Parallel()

	store := NewConfigStore(&memoryPersistence{}, nil, quietLogger())
	ctx := context.Background()

	_, err := store.UpdateConfig(ctx, "footer", json.RawMessage(`{}`))
	assert.ErrorIs(t, err, ErrUnknownSection)

	_, err = store.UpdateConfig(ctx, "hero", json.RawMessage(`{"subtitle":"x"}`))
	assert.ErrorIs(t, err, ErrInvalidSection)

	_, err = store.UpdateConfig(ctx, "theme", json.RawMessage(`{"primaryColor":"blue"}`))
	assert.ErrorIs(t, err, ErrInvalidSection)

	assert.Equal(t, models.DefaultSiteConfig(), store.Current())
}

func TestConfigStore_ThemeShadesFollowPrimary(t *testing.T) {
	t.Parallel()

	store := NewConfigStore(&memoryPersistence{}, nil, quietLogger())
	_, err := store.UpdateConfig(context.Background(), "theme", json.RawMessage(`{"primaryColor":"#2563eb"}`))
	require.NoError(t, err)

	theme := store.Theme()
	assert.Equal(t, "#2563eb", theme.Primary)
	assert.Equal(t, "#338aff", theme.PrimaryLight)
	assert.Equal(t, "#1945a4", theme.PrimaryDark)
	assert.Contains(t, store.ThemeCSS(), "--color-primary-light:#338aff")
}

func TestConfigStore_PersistAndReset(t *testing.T) {
	t.Parallel()

	persist := &memoryPersistence{}
	cache := repositories.NewMemoryDeviceStore()
	ctx := context.Background()

	store := NewConfigStore(persist, cache, quietLogger())
	_, err := store.UpdateConfig(ctx, "stats", json.RawMessage(`{"clients":1234}`))
	require.NoError(t, err)

	reloaded := NewConfigStore(persist, nil, quietLogger())
	reloaded.Load(ctx)
	assert.Equal(t, 1234, reloaded.Current().Stats.Clients)

	cfg, err := reloaded.ResetConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultSiteConfig(), cfg)

	again := NewConfigStore(persist, nil, quietLogger())
	again.Load(ctx)
	assert.Equal(t, models.DefaultSiteConfig(), again.Current())
}

func TestConfigStore_MalformedOverrideFallsBackToDefaults(t *testing.T) {
	t.Parallel()

	store := NewConfigStore(&memoryPersistence{payload: []byte(`{"hero":`)}, nil, quietLogger())
	store.Load(context.Background())
	assert.Equal(t, models.DefaultSiteConfig(), store.Current())
}

func TestConfigStore_PersistFailureKeepsConfig(t *testing.T) {
	t.Parallel()

	store := NewConfigStore(&memoryPersistence{err: errors.New("offline")}, nil, quietLogger())
	_, err := store.UpdateConfig(context.Background(), "hero", json.RawMessage(`{"badge":"x"}`))
	require.Error(t, err)
	assert.Equal(t, models.DefaultSiteConfig().Hero.Badge, store.Current().Hero.Badge)
}

func TestConfigStore_CurrentReturnsCopy(t *testing.T) {
	t.Parallel()

	store := NewConfigStore(&memoryPersistence{}, nil, quietLogger())
	cfg := store.Current()
	cfg.Banks[0] = "mutated"
	assert.NotEqual(t, "mutated", store.Current().Banks[0])
}
