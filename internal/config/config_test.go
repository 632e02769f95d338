package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

var stisVars = []string{
	"STIS_BASE_URL", "STIS_BROWSER_PATHS", "STIS_REMOTE_URL", "STIS_LOGIN", "STIS_PASSWORD",
	"STIS_NAV_TIMEOUT", "STIS_FIELD_TIMEOUT", "STIS_EDITOR_TIMEOUT", "STIS_AUTOCOMPLETE_TIMEOUT",
	"STIS_POLL_INTERVAL", "STIS_SUBMIT_RETRIES", "STIS_SURNAME_FIRST",
}

// clearEnv empties every STIS_* variable for the duration of the test
func clearEnv(t *testing.T) {
	t.Helper()
	for _, v := range stisVars {
		t.Setenv(v, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(cfg, Default()) {
		t.Errorf("Load() = %+v, want defaults %+v", cfg, Default())
	}
	if got := cfg.TeamURL("1234"); got != "https://registr.ping-pong.cz/htm/auth/klub/druzstva/vysledky/?druzstvo=1234" {
		t.Errorf("TeamURL = %s", got)
	}
}

func TestLoadEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("STIS_BASE_URL", "http://localhost:8080/")
	t.Setenv("STIS_BROWSER_PATHS", strings.Join([]string{"/usr/bin/chromium", "/usr/bin/google-chrome"}, string(os.PathListSeparator)))
	t.Setenv("STIS_NAV_TIMEOUT", "45s")
	t.Setenv("STIS_SUBMIT_RETRIES", "5")
	t.Setenv("STIS_SURNAME_FIRST", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LoginURL() != "http://localhost:8080/htm/auth/login.php" {
		t.Errorf("LoginURL = %s", cfg.LoginURL())
	}
	if !reflect.DeepEqual(cfg.ExecPaths, []string{"/usr/bin/chromium", "/usr/bin/google-chrome"}) {
		t.Errorf("ExecPaths = %v", cfg.ExecPaths)
	}
	if cfg.NavTimeout != 45*time.Second || cfg.SubmitRetries != 5 || !cfg.SurnameFirst {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	os.Unsetenv("STIS_LOGIN")
	os.Unsetenv("STIS_PASSWORD")
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("STIS_LOGIN=oddil\nSTIS_PASSWORD=heslo123\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		os.Unsetenv("STIS_LOGIN")
		os.Unsetenv("STIS_PASSWORD")
	})

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"), path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Login != "oddil" || cfg.Password != "heslo123" {
		t.Errorf("credentials = %q/%q", cfg.Login, cfg.Password)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		env, value string
	}{
		{"STIS_NAV_TIMEOUT", "soon"},
		{"STIS_FIELD_TIMEOUT", "-1s"},
		{"STIS_SUBMIT_RETRIES", "0"},
		{"STIS_SUBMIT_RETRIES", "many"},
		{"STIS_SURNAME_FIRST", "maybe"},
	}
	for _, tt := range tests {
		t.Run(tt.env+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.env, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("Load with %s=%s should fail", tt.env, tt.value)
			}
		})
	}
}
