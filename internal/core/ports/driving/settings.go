package driving

import "github.com/custodia-labs/onboard-rag/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get resolves current application settings, applying defaults for unset keys.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// Set updates a single setting by its dotted key.
	Set(key, value string) error

	// Validate checks that the current settings are usable.
	Validate() error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings
}
