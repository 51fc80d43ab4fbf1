package validator

import (
	"testing"

	"cloudmonitor-grafana-plugin/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSettings() *models.Settings {
	return &models.Settings{
		Metrics: &models.MetricsSettings{Endpoint: "https://metrics.example.com"},
		Secrets: &models.SecretSettings{AccessKeyID: "k", AccessKeySecret: "s"},
	}
}

func TestValidateSettings(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(s *models.Settings) *models.Settings
		expectErr string
	}{
		{
			name:   "valid metrics-only settings",
			mutate: func(s *models.Settings) *models.Settings { return s },
		},
		{
			name: "all services valid",
			mutate: func(s *models.Settings) *models.Settings {
				s.LogService = &models.LogServiceSettings{Endpoint: "https://logs.example.com"}
				s.RUM = &models.RUMSettings{Endpoint: "https://rum.example.com"}
				return s
			},
		},
		{
			name:      "nil settings",
			mutate:    func(*models.Settings) *models.Settings { return nil },
			expectErr: "settings cannot be nil",
		},
		{
			name: "no services configured",
			mutate: func(s *models.Settings) *models.Settings {
				s.Metrics = nil
				return s
			},
			expectErr: "no monitoring service is configured",
		},
		{
			name: "empty endpoint",
			mutate: func(s *models.Settings) *models.Settings {
				s.Metrics.Endpoint = ""
				return s
			},
			expectErr: "endpoint cannot be empty",
		},
		{
			name: "relative endpoint",
			mutate: func(s *models.Settings) *models.Settings {
				s.LogService = &models.LogServiceSettings{Endpoint: "logs.example.com/api"}
				return s
			},
			expectErr: "endpoint must be an absolute URL",
		},
		{
			name: "missing secrets",
			mutate: func(s *models.Settings) *models.Settings {
				s.Secrets = nil
				return s
			},
			expectErr: "access-key pair is required",
		},
		{
			name: "empty access key secret",
			mutate: func(s *models.Settings) *models.Settings {
				s.Secrets.AccessKeySecret = ""
				return s
			},
			expectErr: "access-key pair is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSettings(tt.mutate(validSettings()))
			if tt.expectErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectErr)
		})
	}
}
