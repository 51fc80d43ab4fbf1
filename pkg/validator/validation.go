// Package validator checks datasource settings before they are used for
// querying.
package validator

import (
	"net/url"

	"cloudmonitor-grafana-plugin/pkg/models"
)

// ValidateSettings verifies that the settings can serve queries: at least one
// service configured, every configured endpoint a valid absolute URL, and the
// access-key pair present.
func ValidateSettings(settings *models.Settings) error {
	if settings == nil {
		return &models.SettingsError{Msg: "settings cannot be nil"}
	}
	if settings.ConfiguredCount() == 0 {
		return &models.SettingsError{Msg: "no monitoring service is configured"}
	}

	if settings.Metrics != nil {
		if err := validateEndpoint("metrics", settings.Metrics.Endpoint); err != nil {
			return err
		}
	}
	if settings.LogService != nil {
		if err := validateEndpoint("log service", settings.LogService.Endpoint); err != nil {
			return err
		}
	}
	if settings.RUM != nil {
		if err := validateEndpoint("RUM", settings.RUM.Endpoint); err != nil {
			return err
		}
	}

	if settings.Secrets == nil || settings.Secrets.AccessKeyID == "" || settings.Secrets.AccessKeySecret == "" {
		return &models.SettingsError{Msg: "access-key pair is required when a service is configured"}
	}
	return nil
}

func validateEndpoint(service, endpoint string) error {
	if endpoint == "" {
		return &models.SettingsError{Msg: service + " endpoint cannot be empty"}
	}
	u, err := url.Parse(endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return &models.SettingsError{Msg: service + " endpoint must be an absolute URL"}
	}
	return nil
}
