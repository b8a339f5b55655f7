package conf

import (
	"net/url"
	"strings"

	"github.com/recdeck/recdeck/internal/errors"
)

// ValidateSettings checks the loaded settings for inconsistencies that would
// break the client at runtime. It collects all problems instead of stopping
// at the first one.
func ValidateSettings(settings *Settings) error {
	var errs []error

	if err := validateStoreSettings(&settings.Store); err != nil {
		errs = append(errs, err)
	}
	if err := validateNotifySettings(&settings.Notify); err != nil {
		errs = append(errs, err)
	}
	if err := validateDevServerSettings(&settings.DevServer); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func validateStoreSettings(s *StoreSettings) error {
	if s.BaseURL == "" {
		return errors.Newf("store.baseurl must not be empty").
			Category(errors.CategoryConfiguration).
			Context("setting", "store.baseurl").
			Build()
	}

	u, err := url.Parse(s.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.Newf("store.baseurl must be an absolute http(s) URL: %s", s.BaseURL).
			Category(errors.CategoryConfiguration).
			Context("setting", "store.baseurl").
			Build()
	}

	if s.Timeout < 0 {
		return errors.Newf("store.timeout must not be negative").
			Category(errors.CategoryConfiguration).
			Context("setting", "store.timeout").
			Build()
	}

	if s.CacheTTL < 0 {
		return errors.Newf("store.cachettl must not be negative").
			Category(errors.CategoryConfiguration).
			Context("setting", "store.cachettl").
			Build()
	}

	return nil
}

func validateNotifySettings(s *NotifySettings) error {
	if !s.Enabled {
		return nil
	}

	if s.Broker == "" {
		return errors.Newf("notify.broker is required when notifications are enabled").
			Category(errors.CategoryConfiguration).
			Context("setting", "notify.broker").
			Build()
	}
	if s.Topic == "" {
		return errors.Newf("notify.topic is required when notifications are enabled").
			Category(errors.CategoryConfiguration).
			Context("setting", "notify.topic").
			Build()
	}

	return nil
}

func validateDevServerSettings(s *DevServerSettings) error {
	if s.Listen == "" {
		return errors.Newf("devserver.listen must not be empty").
			Category(errors.CategoryConfiguration).
			Context("setting", "devserver.listen").
			Build()
	}

	if !strings.HasPrefix(s.BasePath, "/") {
		return errors.Newf("devserver.basepath must start with '/': %s", s.BasePath).
			Category(errors.CategoryConfiguration).
			Context("setting", "devserver.basepath").
			Build()
	}

	switch s.Backend {
	case "memory", "sqlite":
	default:
		return errors.Newf("devserver.backend must be 'memory' or 'sqlite', got %q", s.Backend).
			Category(errors.CategoryConfiguration).
			Context("setting", "devserver.backend").
			Build()
	}

	if s.Backend == "sqlite" && s.Database == "" {
		return errors.Newf("devserver.database is required with the sqlite backend").
			Category(errors.CategoryConfiguration).
			Context("setting", "devserver.database").
			Build()
	}

	return nil
}
