package services

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/onboard-rag/internal/adapters/driven/config/file"
	"github.com/custodia-labs/onboard-rag/internal/core/domain"
)

func newConfigStore(t *testing.T) *file.ConfigStore {
	t.Helper()
	store, err := file.NewConfigStoreAt(filepath.Join(t.TempDir(), "config.toml"))
	require.NoError(t, err)
	return store
}

func TestSettingsService_Get_ReturnsDefaults(t *testing.T) {
	service := NewSettingsService(newConfigStore(t))

	settings, err := service.Get()
	require.NoError(t, err)

	assert.Equal(t, domain.DefaultAppSettings(), *settings)
}

func TestSettingsService_Get_ReturnsStoredValues(t *testing.T) {
	store := newConfigStore(t)
	require.NoError(t, store.Set("embedding.provider", "openai"))
	require.NoError(t, store.Set("embedding.api_key", "sk-test"))
	require.NoError(t, store.Set("embedding.dimensions", 1536))
	require.NoError(t, store.Set("embedding.timeout", "5s"))
	require.NoError(t, store.Set("storage.timeout", 3))
	require.NoError(t, store.Set("chunking.size", 300))
	require.NoError(t, store.Set("chunking.overlap", 0))
	require.NoError(t, store.Set("embedding.requests_per_second", 2.5))

	settings, err := NewSettingsService(store).Get()
	require.NoError(t, err)

	assert.Equal(t, domain.EmbeddingProviderOpenAI, settings.Embedding.Provider)
	assert.Equal(t, "sk-test", settings.Embedding.APIKey)
	assert.Equal(t, 1536, settings.Embedding.Dimensions)
	assert.Equal(t, 5*time.Second, settings.Embedding.Timeout)
	assert.Equal(t, 3*time.Second, settings.Storage.Timeout)
	assert.Equal(t, 300, settings.Chunking.Size)
	assert.Equal(t, 0, settings.Chunking.Overlap, "an explicit zero is not replaced by the default")
	assert.InDelta(t, 2.5, settings.Embedding.RequestsPerSecond, 1e-9)
}

func TestSettingsService_Get_InvalidProviderFallsBack(t *testing.T) {
	store := newConfigStore(t)
	require.NoError(t, store.Set("embedding.provider", "invalid_provider"))

	settings, err := NewSettingsService(store).Get()
	require.NoError(t, err)
	assert.Equal(t, domain.EmbeddingProviderHistogram, settings.Embedding.Provider)
}

func TestSettingsService_Get_InvalidDuration(t *testing.T) {
	store := newConfigStore(t)
	require.NoError(t, store.Set("embedding.timeout", "soon"))

	_, err := NewSettingsService(store).Get()
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSettingsService_Get_EnvironmentOverrides(t *testing.T) {
	t.Setenv("ONBOARD_RAG_EMBEDDING_DIMENSIONS", "64")
	t.Setenv("OPENAI_API_KEY", "sk-env")

	store := newConfigStore(t)
	require.NoError(t, store.LoadEnv(map[string]string{"OPENAI_API_KEY": "embedding.api_key"}))

	settings, err := NewSettingsService(store).Get()
	require.NoError(t, err)
	assert.Equal(t, 64, settings.Embedding.Dimensions)
	assert.Equal(t, "sk-env", settings.Embedding.APIKey)
}

func TestSettingsService_SaveRoundTrip(t *testing.T) {
	store := newConfigStore(t)
	service := NewSettingsService(store)

	settings := domain.DefaultAppSettings()
	settings.Storage.DSN = "postgres://localhost/rag"
	settings.Embedding.Provider = domain.EmbeddingProviderOpenAI
	settings.Embedding.APIKey = "sk-saved"
	settings.Embedding.Timeout = 45 * time.Second
	settings.Query.DefaultTopK = 8
	settings.Verbose = true

	require.NoError(t, service.Save(&settings))

	reloaded, err := file.NewConfigStoreAt(store.Path())
	require.NoError(t, err)
	got, err := NewSettingsService(reloaded).Get()
	require.NoError(t, err)
	assert.Equal(t, settings, *got)
}

func TestSettingsService_Save_KeepsExistingAPIKey(t *testing.T) {
	store := newConfigStore(t)
	require.NoError(t, store.Set("embedding.api_key", "sk-existing"))
	service := NewSettingsService(store)

	settings := domain.DefaultAppSettings()
	require.NoError(t, service.Save(&settings))

	assert.Equal(t, "sk-existing", store.GetString("embedding.api_key"))
}

func TestSettingsService_Set(t *testing.T) {
	tests := []struct {
		key   string
		value string
		check func(t *testing.T, s *domain.AppSettings)
	}{
		{"storage.dsn", "memory://", func(t *testing.T, s *domain.AppSettings) {
			assert.Equal(t, "memory://", s.Storage.DSN)
		}},
		{"chunking.size", "250", func(t *testing.T, s *domain.AppSettings) {
			assert.Equal(t, 250, s.Chunking.Size)
		}},
		{"embedding.provider", "openai", func(t *testing.T, s *domain.AppSettings) {
			assert.Equal(t, domain.EmbeddingProviderOpenAI, s.Embedding.Provider)
		}},
		{"embedding.timeout", "1m30s", func(t *testing.T, s *domain.AppSettings) {
			assert.Equal(t, 90*time.Second, s.Embedding.Timeout)
		}},
		{"embedding.requests_per_second", "0.5", func(t *testing.T, s *domain.AppSettings) {
			assert.InDelta(t, 0.5, s.Embedding.RequestsPerSecond, 1e-9)
		}},
		{"log.verbose", "true", func(t *testing.T, s *domain.AppSettings) {
			assert.True(t, s.Verbose)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			service := NewSettingsService(newConfigStore(t))
			require.NoError(t, service.Set(tt.key, tt.value))

			settings, err := service.Get()
			require.NoError(t, err)
			tt.check(t, settings)
		})
	}
}

func TestSettingsService_Set_Invalid(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"no.such.key", "x"},
		{"chunking.size", "big"},
		{"embedding.provider", "ollama"},
		{"embedding.timeout", "later"},
		{"embedding.requests_per_second", "fast"},
		{"log.verbose", "maybe"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			service := NewSettingsService(newConfigStore(t))

			err := service.Set(tt.key, tt.value)
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.key, verr.Fields[0].Field)
		})
	}
}

func TestSettingsService_Validate(t *testing.T) {
	store := newConfigStore(t)
	service := NewSettingsService(store)
	require.NoError(t, service.Validate())

	require.NoError(t, service.Set("embedding.provider", "openai"))
	err := service.Validate()

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "embedding.api_key", verr.Fields[0].Field)
}

func TestSettingsService_GetDefaults(t *testing.T) {
	service := NewSettingsService(newConfigStore(t))
	assert.Equal(t, domain.DefaultAppSettings(), service.GetDefaults())
}

func TestSettingKeys_AllSettable(t *testing.T) {
	for _, key := range SettingKeys() {
		_, ok := settingKinds[key]
		assert.True(t, ok, key)
	}
	assert.Len(t, SettingKeys(), len(settingKinds))
}
