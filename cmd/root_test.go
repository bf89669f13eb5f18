package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestResolveSettingsPrecedence(t *testing.T) {
	path := writeConfig(t, "address = \"ws://from-config:3000\"\nlog_level = \"warn\"\n")
	keychain := func() string { return "from-keychain" }

	tests := []struct {
		name        string
		address     string
		jwt         string
		env         string
		verbose     bool
		wantAddress string
		wantJWT     string
		wantLevel   string
	}{
		{
			name:        "config and keychain",
			wantAddress: "ws://from-config:3000",
			wantJWT:     "from-keychain",
			wantLevel:   "warn",
		},
		{
			name:        "env beats keychain",
			env:         "from-env",
			wantAddress: "ws://from-config:3000",
			wantJWT:     "from-env",
			wantLevel:   "warn",
		},
		{
			name:        "flags beat everything",
			address:     " grpc://from-flag:50051 ",
			jwt:         "from-flag",
			env:         "from-env",
			verbose:     true,
			wantAddress: "grpc://from-flag:50051",
			wantJWT:     "from-flag",
			wantLevel:   "debug",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvJWT, tt.env)
			s, err := resolveSettings(path, tt.address, tt.jwt, tt.verbose, keychain)
			if err != nil {
				t.Fatalf("resolveSettings: %v", err)
			}
			if s.address != tt.wantAddress {
				t.Errorf("address = %q, want %q", s.address, tt.wantAddress)
			}
			if s.jwt != tt.wantJWT {
				t.Errorf("jwt = %q, want %q", s.jwt, tt.wantJWT)
			}
			if s.level != tt.wantLevel {
				t.Errorf("level = %q, want %q", s.level, tt.wantLevel)
			}
		})
	}
}

func TestResolveSettingsMissingFileUsesDefaults(t *testing.T) {
	t.Setenv(EnvJWT, "")
	s, err := resolveSettings(filepath.Join(t.TempDir(), "absent.toml"), "", "", false, nil)
	if err != nil {
		t.Fatalf("resolveSettings: %v", err)
	}
	if s.address != "" {
		t.Errorf("address = %q, want empty for the library default", s.address)
	}
	if s.jwt != "" {
		t.Errorf("jwt = %q, want empty", s.jwt)
	}
	if s.cfg.Samples.Collection != "entities" {
		t.Errorf("collection = %q", s.cfg.Samples.Collection)
	}
}

func TestResolveSettingsInvalidConfig(t *testing.T) {
	path := writeConfig(t, "log_level = \"loud\"\n")
	if _, err := resolveSettings(path, "", "", false, nil); err == nil {
		t.Fatal("expected a validation error")
	}
}

func TestPromptJWT(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "trims", input: "  abc.def.ghi \r\n", want: "abc.def.ghi"},
		{name: "no newline", input: "token", want: "token"},
		{name: "empty", input: "\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			got, err := promptJWT(strings.NewReader(tt.input), &out)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("promptJWT: %v", err)
			}
			if got != tt.want {
				t.Errorf("jwt = %q, want %q", got, tt.want)
			}
			if !strings.HasPrefix(out.String(), "Enter JWT: ") {
				t.Errorf("prompt not printed: %q", out.String())
			}
			if strings.Contains(out.String(), "\x1b[2K") {
				t.Error("non-interactive output must not be cleared")
			}
		})
	}
}
