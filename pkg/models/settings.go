package models

import (
	"encoding/json"
	"fmt"

	"github.com/grafana/grafana-plugin-sdk-go/backend"
)

// SettingsError represents an error specifically related to datasource
// settings.
type SettingsError struct {
	Msg string
	Err error // Wrapped error
}

func (e *SettingsError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("datasource settings error: %s: %v", e.Msg, e.Err)
	}
	return fmt.Sprintf("datasource settings error: %s", e.Msg)
}

func (e *SettingsError) Unwrap() error {
	return e.Err
}

// MetricsSettings configures the metrics service connection.
type MetricsSettings struct {
	Endpoint string `json:"endpoint"`
	Region   string `json:"region,omitempty"`
}

// LogServiceSettings configures the log search service connection.
type LogServiceSettings struct {
	Endpoint string `json:"endpoint"`
	Project  string `json:"project,omitempty"`
	Store    string `json:"store,omitempty"` // default store when a query names none
}

// RUMSettings configures the real-user-monitoring service connection.
type RUMSettings struct {
	Endpoint string `json:"endpoint"`
	AppID    string `json:"appId,omitempty"`
}

// Settings holds the configuration for the datasource. Each service block is
// optional; partial configuration (for example metrics only) is supported and
// unconfigured services are never probed.
type Settings struct {
	Metrics    *MetricsSettings    `json:"metrics,omitempty"`
	LogService *LogServiceSettings `json:"logService,omitempty"`
	RUM        *RUMSettings        `json:"rum,omitempty"`

	Secrets *SecretSettings `json:"-"`
}

// SecretSettings holds the access-key pair shared by all configured services.
type SecretSettings struct {
	AccessKeyID     string
	AccessKeySecret string
}

// ConfiguredCount reports how many service blocks are present.
func (s *Settings) ConfiguredCount() int {
	n := 0
	if s.Metrics != nil {
		n++
	}
	if s.LogService != nil {
		n++
	}
	if s.RUM != nil {
		n++
	}
	return n
}

// LoadSettings unmarshals the JSON data and decrypted secure JSON data from
// Grafana's DataSourceInstanceSettings into a Settings struct. Secrets are
// required only when at least one service block is configured.
func LoadSettings(source backend.DataSourceInstanceSettings) (*Settings, error) {
	settings := Settings{}
	if err := json.Unmarshal(source.JSONData, &settings); err != nil {
		return nil, &SettingsError{Msg: "could not unmarshal Settings JSON", Err: err}
	}

	secrets, err := loadSecretSettings(source.DecryptedSecureJSONData, settings.ConfiguredCount() > 0)
	if err != nil {
		return nil, err
	}
	settings.Secrets = secrets

	return &settings, nil
}

// loadSecretSettings extracts the access-key pair from the decrypted map.
func loadSecretSettings(source map[string]string, required bool) (*SecretSettings, error) {
	keyID := source["accessKeyId"]
	keySecret := source["accessKeySecret"]

	if required {
		if keyID == "" {
			return nil, &SettingsError{Msg: "access key ID is missing in secure settings"}
		}
		if keySecret == "" {
			return nil, &SettingsError{Msg: "access key secret is missing in secure settings"}
		}
	}

	return &SecretSettings{
		AccessKeyID:     keyID,
		AccessKeySecret: keySecret,
	}, nil
}
