package conf

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSettings() *Settings {
	return &Settings{
		Main: MainSettings{Name: "recdeck", Log: LogConfig{Enabled: true, Path: "logs"}},
		Store: StoreSettings{
			BaseURL:  "http://localhost:8090/data",
			Timeout:  30 * time.Second,
			CacheTTL: 30 * time.Second,
		},
		Notify: NotifySettings{Enabled: false},
		DevServer: DevServerSettings{
			Listen:   "localhost:8090",
			BasePath: "/data",
			Backend:  "memory",
		},
	}
}

func TestValidateSettings(t *testing.T) {
	t.Parallel()

	t.Run("valid settings pass", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, ValidateSettings(validSettings()))
	})

	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantMsg string
	}{
		{
			name:    "empty base URL",
			mutate:  func(s *Settings) { s.Store.BaseURL = "" },
			wantMsg: "store.baseurl",
		},
		{
			name:    "relative base URL",
			mutate:  func(s *Settings) { s.Store.BaseURL = "data" },
			wantMsg: "store.baseurl",
		},
		{
			name:    "non-http scheme",
			mutate:  func(s *Settings) { s.Store.BaseURL = "ftp://example.com/data" },
			wantMsg: "store.baseurl",
		},
		{
			name:    "negative timeout",
			mutate:  func(s *Settings) { s.Store.Timeout = -time.Second },
			wantMsg: "store.timeout",
		},
		{
			name: "notify enabled without broker",
			mutate: func(s *Settings) {
				s.Notify.Enabled = true
				s.Notify.Broker = ""
			},
			wantMsg: "notify.broker",
		},
		{
			name:    "bad devserver backend",
			mutate:  func(s *Settings) { s.DevServer.Backend = "postgres" },
			wantMsg: "devserver.backend",
		},
		{
			name:    "basepath without slash",
			mutate:  func(s *Settings) { s.DevServer.BasePath = "data" },
			wantMsg: "basepath",
		},
		{
			name: "sqlite backend without database",
			mutate: func(s *Settings) {
				s.DevServer.Backend = "sqlite"
				s.DevServer.Database = ""
			},
			wantMsg: "devserver.database",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := validSettings()
			tt.mutate(s)

			err := ValidateSettings(s)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestValidateSettingsCollectsAllErrors(t *testing.T) {
	t.Parallel()

	s := validSettings()
	s.Store.BaseURL = ""
	s.DevServer.Backend = "bogus"

	err := ValidateSettings(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.baseurl")
	assert.Contains(t, err.Error(), "devserver.backend")
}
