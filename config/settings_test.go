package config

import (
	"testing"
)

func TestLoadSettingsDefaults(t *testing.T) {
	for _, key := range []string{"SERVER_PORT", "UPLOAD_PATH", "STORE_DRIVER", "MAX_UPLOAD_MB", "ALLOWED_ORIGINS", "NOTIFY_EMAIL"} {
		t.Setenv(key, "")
	}
	s := LoadSettings()
	if s.Port != "8080" || s.StoreDriver != StoreDriverMySQL {
		t.Fatalf("unexpected defaults: %+v", s)
	}
	if s.MaxUploadBytes != 50<<20 || s.UploadPath != "./uploads" {
		t.Fatalf("unexpected limits: %+v", s)
	}
	if len(s.AllowedOrigins) != 1 || s.NotifyEmail {
		t.Fatalf("unexpected origins/notify: %+v", s)
	}
}

func TestLoadSettingsOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "Memory")
	t.Setenv("MAX_UPLOAD_MB", "5")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("NOTIFY_EMAIL", "1")
	s := LoadSettings()
	if s.StoreDriver != StoreDriverMemory || s.MaxUploadBytes != 5<<20 || !s.NotifyEmail {
		t.Fatalf("overrides ignored: %+v", s)
	}
	if len(s.AllowedOrigins) != 2 || s.AllowedOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected origins: %v", s.AllowedOrigins)
	}
}

func TestMailConfigRequiresHostAndFrom(t *testing.T) {
	t.Setenv("SMTP_HOST", "")
	t.Setenv("SMTP_FROM", "")
	if err := MailConfigFromEnv().Send([]string{"pi@example.org"}, "s", "b"); err == nil {
		t.Fatal("expected unconfigured smtp to fail")
	}
	if err := MailConfigFromEnv().Send(nil, "s", "b"); err != nil {
		t.Fatalf("no recipients should be a no-op: %v", err)
	}
}
