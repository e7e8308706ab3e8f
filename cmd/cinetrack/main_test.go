package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cinetrack/cinetrack/internal/auth"
	"github.com/cinetrack/cinetrack/internal/config"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := strings.Join([]string{
		"database:",
		"  path: " + filepath.Join(dir, "cinetrack.db"),
		"storage:",
		"  data_dir: " + dir,
		"auth:",
		"  jwt_secret: cli-secret",
		"tmdb:",
		"  mock: true",
		"logging:",
		"  level: error",
		"",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := runCommand(t, "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	if strings.TrimSpace(out) != config.Version {
		t.Errorf("version output = %q", out)
	}
}

func TestTokenCommand(t *testing.T) {
	cfgPath := writeConfig(t)

	out, err := runCommand(t, "--config", cfgPath, "token", "user-7")
	if err != nil {
		t.Fatalf("token error = %v", err)
	}
	claims, err := auth.NewService("cli-secret").ValidateToken(strings.TrimSpace(out))
	if err != nil {
		t.Fatalf("issued token does not validate: %v", err)
	}
	if claims.Subject != "user-7" {
		t.Errorf("subject = %q, want user-7", claims.Subject)
	}

	if _, err := runCommand(t, "--config", cfgPath, "token", auth.LocalUserID); err == nil {
		t.Error("token for the local user should be rejected")
	}
}

func TestMigrateAndList(t *testing.T) {
	cfgPath := writeConfig(t)

	out, err := runCommand(t, "--config", cfgPath, "migrate")
	if err != nil {
		t.Fatalf("migrate error = %v", err)
	}
	if !strings.Contains(out, "up to date") {
		t.Errorf("migrate output = %q", out)
	}

	out, err = runCommand(t, "--config", cfgPath, "list")
	if err != nil {
		t.Fatalf("list error = %v", err)
	}
	if !strings.Contains(out, "empty") {
		t.Errorf("list output = %q", out)
	}

	out, err = runCommand(t, "--config", cfgPath, "reclassify")
	if err != nil {
		t.Fatalf("reclassify error = %v", err)
	}
	if !strings.Contains(out, "Processed 0") {
		t.Errorf("reclassify output = %q", out)
	}
}

func TestDevDBPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"./data/cinetrack.db", "./data/cinetrack_dev.db"},
		{"/var/lib/cinetrack/watch.sqlite", "/var/lib/cinetrack/watch_dev.sqlite"},
		{"store", "store_dev"},
	}
	for _, tt := range tests {
		if got := devDBPath(tt.in); got != tt.want {
			t.Errorf("devDBPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRenderTable(t *testing.T) {
	out := renderTable([]string{"Type", "ID"}, [][]string{{"movie", "603"}, {"tv"}}, []columnAlignment{alignLeft, alignRight})
	if !strings.Contains(out, "movie") || !strings.Contains(out, "603") {
		t.Errorf("table output = %q", out)
	}
	if renderTable(nil, nil, nil) != "" {
		t.Error("no headers should render nothing")
	}
}

func TestWriteExport(t *testing.T) {
	entries := []exportEntry{{ExternalID: 95396, Type: "tv", Title: "Severance", Status: "show_watching", LastWatchedSeason: 1, Added: "2025-06-15"}}

	var buf bytes.Buffer
	if err := writeExport(&buf, "yaml", entries); err != nil {
		t.Fatalf("writeExport(yaml) error = %v", err)
	}
	for _, want := range []string{"external_id: 95396", "title: Severance", "last_watched_season: 1"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("yaml output missing %q:\n%s", want, buf.String())
		}
	}

	buf.Reset()
	if err := writeExport(&buf, "json", entries); err != nil {
		t.Fatalf("writeExport(json) error = %v", err)
	}
	if !strings.Contains(buf.String(), `"externalId": 95396`) {
		t.Errorf("json output = %s", buf.String())
	}
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	cfgPath := writeConfig(t)
	if _, err := runCommand(t, "--config", cfgPath, "export", "--format", "csv"); err == nil {
		t.Error("export with an unknown format should fail")
	}
}
