package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/google/go-cmp/cmp"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		want    *Config
		wantErr bool
	}{
		{
			name:    "missing token",
			env:     map[string]string{},
			wantErr: true,
		},
		{
			name: "token only, defaults applied",
			env:  map[string]string{"TELEGRAM_BOT_TOKEN": "test-token"},
			want: &Config{
				TelegramBotToken: "test-token",
				DatabasePath:     "./data/streaker.db",
				LogLevel:         "info",
				Timezone:         "UTC",
				RefreshInterval:  time.Minute,
			},
		},
		{
			name: "all values set",
			env: map[string]string{
				"TELEGRAM_BOT_TOKEN": "tok",
				"DATABASE_PATH":      "/tmp/streaker.db",
				"LOG_LEVEL":          "debug",
				"ALLOWED_USERS":      "111,222,333",
				"TIMEZONE":           "America/Denver",
				"HTTP_ADDR":          ":8080",
				"REFRESH_INTERVAL":   "5m",
			},
			want: &Config{
				TelegramBotToken: "tok",
				DatabasePath:     "/tmp/streaker.db",
				LogLevel:         "debug",
				AllowedUsers:     []int64{111, 222, 333},
				Timezone:         "America/Denver",
				HTTPAddr:         ":8080",
				RefreshInterval:  5 * time.Minute,
			},
		},
		{
			name: "allowed users with spaces",
			env: map[string]string{
				"TELEGRAM_BOT_TOKEN": "tok",
				"ALLOWED_USERS":      " 10 , 20 , ",
			},
			want: &Config{
				TelegramBotToken: "tok",
				DatabasePath:     "./data/streaker.db",
				LogLevel:         "info",
				AllowedUsers:     []int64{10, 20},
				Timezone:         "UTC",
				RefreshInterval:  time.Minute,
			},
		},
		{
			name: "invalid user id",
			env: map[string]string{
				"TELEGRAM_BOT_TOKEN": "tok",
				"ALLOWED_USERS":      "123,abc",
			},
			wantErr: true,
		},
		{
			name: "invalid timezone",
			env: map[string]string{
				"TELEGRAM_BOT_TOKEN": "tok",
				"TIMEZONE":           "Nowhere/Special",
			},
			wantErr: true,
		},
		{
			name: "invalid refresh interval",
			env: map[string]string{
				"TELEGRAM_BOT_TOKEN": "tok",
				"REFRESH_INTERVAL":   "soon",
			},
			wantErr: true,
		},
	}

	keys := []string{
		"TELEGRAM_BOT_TOKEN", "DATABASE_PATH", "LOG_LEVEL", "ALLOWED_USERS",
		"TIMEZONE", "HTTP_ADDR", "REFRESH_INTERVAL",
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range keys {
				t.Setenv(key, "")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			got, err := Load()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Load() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLocation(t *testing.T) {
	tests := []struct {
		tz   string
		want string
	}{
		{tz: "", want: "UTC"},
		{tz: "Europe/Berlin", want: "Europe/Berlin"},
		{tz: "bogus", want: "UTC"},
	}
	for _, tt := range tests {
		cfg := &Config{Timezone: tt.tz}
		if diff := cmp.Diff(tt.want, cfg.Location().String()); diff != "" {
			t.Errorf("Location(%q) mismatch (-want +got):\n%s", tt.tz, diff)
		}
	}
}

func TestIsUserAllowed(t *testing.T) {
	tests := []struct {
		name         string
		allowedUsers []int64
		userID       int64
		want         bool
	}{
		{
			name:         "empty list allows everyone",
			allowedUsers: nil,
			userID:       42,
			want:         true,
		},
		{
			name:         "user in list",
			allowedUsers: []int64{10, 20, 30},
			userID:       20,
			want:         true,
		},
		{
			name:         "user not in list",
			allowedUsers: []int64{10, 20, 30},
			userID:       99,
			want:         false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{AllowedUsers: tt.allowedUsers}
			got := cfg.IsUserAllowed(tt.userID)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("IsUserAllowed() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "STREAKER_TEST_FROM_FILE=file\nSTREAKER_TEST_PRESET=file\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("STREAKER_TEST_PRESET", "env")
	t.Cleanup(func() { _ = os.Unsetenv("STREAKER_TEST_FROM_FILE") })

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if diff := cmp.Diff("file", os.Getenv("STREAKER_TEST_FROM_FILE")); diff != "" {
		t.Errorf("value from file (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff("env", os.Getenv("STREAKER_TEST_PRESET")); diff != "" {
		t.Errorf("preset value must win (-want +got):\n%s", diff)
	}

	if err := LoadDotEnv(filepath.Join(dir, "missing.env")); err != nil {
		t.Errorf("missing file should be ignored, got %v", err)
	}
}
