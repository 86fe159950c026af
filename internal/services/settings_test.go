package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clubstack/internal/domain"
)

func TestSettingsService(t *testing.T) {
	ctx := context.Background()

	t.Run("set then get", func(t *testing.T) {
		repo := newFakeSettingsRepo()
		svc := NewSettingsService(repo, 5*time.Second)

		setting, err := svc.Set(ctx, adminActor(), domain.SettingWaitlistOpen, "true")
		require.NoError(t, err)
		assert.Equal(t, "true", setting.Value)

		got, err := svc.Get(ctx, domain.SettingWaitlistOpen)
		require.NoError(t, err)
		assert.Equal(t, "true", got.Value)
	})

	t.Run("set overwrites", func(t *testing.T) {
		repo := newFakeSettingsRepo()
		svc := NewSettingsService(repo, 5*time.Second)

		_, err := svc.Set(ctx, adminActor(), domain.SettingWaitlistOpen, "true")
		require.NoError(t, err)
		setting, err := svc.Set(ctx, adminActor(), domain.SettingWaitlistOpen, "false")
		require.NoError(t, err)
		assert.Equal(t, "false", setting.Value)
	})

	t.Run("unknown key", func(t *testing.T) {
		svc := NewSettingsService(newFakeSettingsRepo(), 5*time.Second)
		_, err := svc.Get(ctx, "missing")
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("non-admin cannot write", func(t *testing.T) {
		svc := NewSettingsService(newFakeSettingsRepo(), 5*time.Second)
		_, err := svc.Set(ctx, memberActor(), domain.SettingWaitlistOpen, "true")
		require.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("empty key rejected", func(t *testing.T) {
		svc := NewSettingsService(newFakeSettingsRepo(), 5*time.Second)
		_, err := svc.Set(ctx, adminActor(), "", "x")
		require.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}
