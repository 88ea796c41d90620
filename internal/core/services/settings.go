package services

import (
	"fmt"
	"strconv"
	"time"

	"github.com/custodia-labs/onboard-rag/internal/core/domain"
	"github.com/custodia-labs/onboard-rag/internal/core/ports/driven"
	"github.com/custodia-labs/onboard-rag/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	KeyStorageDSN       = "storage.dsn"
	KeyStorageTimeout   = "storage.timeout"
	KeyChunkSize        = "chunking.size"
	KeyChunkOverlap     = "chunking.overlap"
	KeyEmbedProvider    = "embedding.provider"
	KeyEmbedDimensions  = "embedding.dimensions"
	KeyEmbedModel       = "embedding.model"
	KeyEmbedBaseURL     = "embedding.base_url"
	KeyEmbedAPIKey      = "embedding.api_key"
	KeyEmbedTimeout     = "embedding.timeout"
	KeyEmbedRate        = "embedding.requests_per_second"
	KeyEmbedConcurrency = "embedding.concurrency"
	KeyQueryDefaultTopK = "query.default_top_k"
	KeyLogVerbose       = "log.verbose"
)

type settingKind int

const (
	kindString settingKind = iota
	kindInt
	kindFloat
	kindBool
	kindDuration
	kindProvider
)

var settingKinds = map[string]settingKind{
	KeyStorageDSN:       kindString,
	KeyStorageTimeout:   kindDuration,
	KeyChunkSize:        kindInt,
	KeyChunkOverlap:     kindInt,
	KeyEmbedProvider:    kindProvider,
	KeyEmbedDimensions:  kindInt,
	KeyEmbedModel:       kindString,
	KeyEmbedBaseURL:     kindString,
	KeyEmbedAPIKey:      kindString,
	KeyEmbedTimeout:     kindDuration,
	KeyEmbedRate:        kindFloat,
	KeyEmbedConcurrency: kindInt,
	KeyQueryDefaultTopK: kindInt,
	KeyLogVerbose:       kindBool,
}

// SettingKeys returns every key Set accepts, in display order.
func SettingKeys() []string {
	return []string{
		KeyStorageDSN, KeyStorageTimeout,
		KeyChunkSize, KeyChunkOverlap,
		KeyEmbedProvider, KeyEmbedDimensions, KeyEmbedModel, KeyEmbedBaseURL, KeyEmbedAPIKey,
		KeyEmbedTimeout, KeyEmbedRate, KeyEmbedConcurrency,
		KeyQueryDefaultTopK,
		KeyLogVerbose,
	}
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get resolves current application settings. Unset keys take their defaults;
// an unknown provider falls back to the default provider. A duration that
// cannot be parsed is an error.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	storeTimeout, err := s.getDuration(KeyStorageTimeout, defaults.Storage.Timeout)
	if err != nil {
		return nil, err
	}
	embedTimeout, err := s.getDuration(KeyEmbedTimeout, defaults.Embedding.Timeout)
	if err != nil {
		return nil, err
	}

	return &domain.AppSettings{
		Storage: domain.StorageSettings{
			DSN:     s.getString(KeyStorageDSN, defaults.Storage.DSN),
			Timeout: storeTimeout,
		},
		Chunking: domain.ChunkingSettings{
			Size:    s.getInt(KeyChunkSize, defaults.Chunking.Size),
			Overlap: s.getInt(KeyChunkOverlap, defaults.Chunking.Overlap),
		},
		Embedding: domain.EmbeddingSettings{
			Provider:          s.getProvider(defaults.Embedding.Provider),
			Dimensions:        s.getInt(KeyEmbedDimensions, defaults.Embedding.Dimensions),
			Model:             s.getString(KeyEmbedModel, defaults.Embedding.Model),
			BaseURL:           s.configStore.GetString(KeyEmbedBaseURL), // empty means the provider default
			APIKey:            s.configStore.GetString(KeyEmbedAPIKey),
			Timeout:           embedTimeout,
			RequestsPerSecond: s.getFloat(KeyEmbedRate, defaults.Embedding.RequestsPerSecond),
			Concurrency:       s.getInt(KeyEmbedConcurrency, defaults.Embedding.Concurrency),
		},
		Query: domain.QuerySettings{
			DefaultTopK: s.getInt(KeyQueryDefaultTopK, defaults.Query.DefaultTopK),
		},
		Verbose: s.configStore.GetBool(KeyLogVerbose),
	}, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{KeyStorageDSN, settings.Storage.DSN},
		{KeyStorageTimeout, settings.Storage.Timeout.String()},
		{KeyChunkSize, settings.Chunking.Size},
		{KeyChunkOverlap, settings.Chunking.Overlap},
		{KeyEmbedProvider, settings.Embedding.Provider.String()},
		{KeyEmbedDimensions, settings.Embedding.Dimensions},
		{KeyEmbedModel, settings.Embedding.Model},
		{KeyEmbedBaseURL, settings.Embedding.BaseURL},
		{KeyEmbedTimeout, settings.Embedding.Timeout.String()},
		{KeyEmbedRate, settings.Embedding.RequestsPerSecond},
		{KeyEmbedConcurrency, settings.Embedding.Concurrency},
		{KeyQueryDefaultTopK, settings.Query.DefaultTopK},
		{KeyLogVerbose, settings.Verbose},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	// An empty key is left alone so a key supplied via the environment is not wiped.
	if settings.Embedding.APIKey != "" {
		if err := s.configStore.Set(KeyEmbedAPIKey, settings.Embedding.APIKey); err != nil {
			return fmt.Errorf("save %s: %w", KeyEmbedAPIKey, err)
		}
	}
	return nil
}

// Set parses value according to the key's type and persists it.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := settingKinds[key]
	if !ok {
		return domain.NewValidationError(key, "unknown setting")
	}

	var parsed any
	switch kind {
	case kindString:
		parsed = value
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			return domain.NewValidationError(key, "must be an integer")
		}
		parsed = n
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return domain.NewValidationError(key, "must be a number")
		}
		parsed = f
	case kindBool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return domain.NewValidationError(key, "must be true or false")
		}
		parsed = b
	case kindDuration:
		d, err := time.ParseDuration(value)
		if err != nil {
			return domain.NewValidationError(key, "must be a duration such as 30s")
		}
		parsed = d.String()
	case kindProvider:
		p := domain.EmbeddingProvider(value)
		if !p.IsValid() {
			return domain.NewValidationError(key, fmt.Sprintf("unknown provider %q", value))
		}
		parsed = p.String()
	}

	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Validate checks that the current settings are usable.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return settings.Validate()
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

func (s *SettingsService) has(key string) bool {
	_, ok := s.configStore.Get(key)
	return ok
}

func (s *SettingsService) getString(key, defaultValue string) string {
	if v := s.configStore.GetString(key); v != "" {
		return v
	}
	return defaultValue
}

func (s *SettingsService) getInt(key string, defaultValue int) int {
	if !s.has(key) {
		return defaultValue
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultValue float64) float64 {
	if !s.has(key) {
		return defaultValue
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getProvider(defaultValue domain.EmbeddingProvider) domain.EmbeddingProvider {
	p := domain.EmbeddingProvider(s.configStore.GetString(KeyEmbedProvider))
	if p.IsValid() {
		return p
	}
	return defaultValue
}

// getDuration accepts Go duration strings or a bare number of seconds.
func (s *SettingsService) getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	v, ok := s.configStore.Get(key)
	if !ok {
		return defaultValue, nil
	}
	switch val := v.(type) {
	case string:
		if val == "" {
			return defaultValue, nil
		}
		if d, err := time.ParseDuration(val); err == nil {
			return d, nil
		}
		if secs, err := strconv.ParseFloat(val, 64); err == nil {
			return time.Duration(secs * float64(time.Second)), nil
		}
		return 0, domain.NewValidationError(key, fmt.Sprintf("invalid duration %q", val))
	case int64:
		return time.Duration(val) * time.Second, nil
	case int:
		return time.Duration(val) * time.Second, nil
	case float64:
		return time.Duration(val * float64(time.Second)), nil
	default:
		return 0, domain.NewValidationError(key, fmt.Sprintf("invalid duration %v", v))
	}
}
