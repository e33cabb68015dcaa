package config

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigFromEnvWithDefaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing-config.yaml"))
	t.Setenv("SHEET_CSV_URL", "https://docs.example.com/sheet/pub?output=csv")
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("MANAGER_SLACK_IDS", "U12345, U67890")

	cfg := LoadConfig()

	if cfg.SheetCSVURL != "https://docs.example.com/sheet/pub?output=csv" {
		t.Fatalf("unexpected sheet url: %q", cfg.SheetCSVURL)
	}
	if cfg.UseSampleData {
		t.Fatal("sample data must stay off when a sheet url is set")
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("unexpected http addr default: %q", cfg.HTTPAddr)
	}
	if cfg.ReportOutputDir != "./exports" {
		t.Fatalf("unexpected report output dir default: %q", cfg.ReportOutputDir)
	}
	if cfg.ExternalHTTPTimeoutSeconds != int(defaultExternalHTTPTimeout/time.Second) {
		t.Fatalf("unexpected external HTTP timeout default: %d", cfg.ExternalHTTPTimeoutSeconds)
	}
	if cfg.Location == nil || cfg.Location.String() != "UTC" {
		t.Fatalf("unexpected location: %v", cfg.Location)
	}
	if len(cfg.ManagerSlackIDs) != 2 || !cfg.IsManagerID("U67890") {
		t.Fatalf("unexpected manager IDs: %v", cfg.ManagerSlackIDs)
	}
	if cfg.SlackConfigured() || cfg.LLMConfigured() {
		t.Fatal("expected Slack and LLM to be unconfigured")
	}
	if cfg.Schema.OrgName != 20 || cfg.Schema.Delimiter != ',' {
		t.Fatalf("expected default schema, got %+v", cfg.Schema)
	}
}

func TestLoadConfigFallsBackToSampleData(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing-config.yaml"))
	t.Setenv("TIMEZONE", "UTC")

	cfg := LoadConfig()
	if !cfg.UseSampleData {
		t.Fatal("expected sample data when sheet url is missing")
	}
}

func TestLoadConfigYAMLAndEnvOverride(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	content := `
sheet_csv_url: "https://yaml.example.com/csv"
slack_bot_token: "yaml-bot"
slack_app_token: "yaml-app"
llm_provider: "anthropic"
anthropic_api_key: "yaml-anthropic"
timezone: "Asia/Seoul"
report_output_dir: "/tmp/yaml-exports"
refresh_schedule: "*/10 * * * *"
external_http_timeout_seconds: 75
columns:
  org_name: 3
  manager_name: -1
  delimiter: "\\t"
aliases:
  "틀린이름": "맞는이름"
region_contacts:
  김해시: ["U111AAAAA", "김담당"]
`
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("CONFIG_PATH", cfgPath)
	t.Setenv("SHEET_CSV_URL", "https://env.example.com/csv")
	t.Setenv("EXTERNAL_HTTP_TIMEOUT_SECONDS", "120")
	t.Setenv("REFRESH_SCHEDULE", "")

	cfg := LoadConfig()

	if cfg.SheetCSVURL != "https://env.example.com/csv" {
		t.Fatalf("expected sheet url from env override, got %q", cfg.SheetCSVURL)
	}
	if cfg.ReportOutputDir != "/tmp/yaml-exports" {
		t.Fatalf("expected report output dir from yaml, got %q", cfg.ReportOutputDir)
	}
	if cfg.ExternalHTTPTimeoutSeconds != 120 {
		t.Fatalf("expected external HTTP timeout from env override, got %d", cfg.ExternalHTTPTimeoutSeconds)
	}
	if cfg.RefreshSchedule != "" {
		t.Fatalf("expected empty env var to clear refresh schedule, got %q", cfg.RefreshSchedule)
	}
	if !cfg.SlackConfigured() || !cfg.LLMConfigured() {
		t.Fatal("expected Slack and LLM to be configured from yaml")
	}
	if cfg.Schema.OrgName != 3 || cfg.Schema.ManagerName != -1 || cfg.Schema.Delimiter != '\t' {
		t.Fatalf("unexpected schema: %+v", cfg.Schema)
	}
	if cfg.Schema.Boxes != 21 {
		t.Fatalf("expected unset columns to keep defaults, got boxes=%d", cfg.Schema.Boxes)
	}
	if cfg.Aliases["틀린이름"] != "맞는이름" {
		t.Fatalf("unexpected aliases: %v", cfg.Aliases)
	}
	if len(cfg.RegionContacts["김해시"]) != 2 {
		t.Fatalf("unexpected region contacts: %v", cfg.RegionContacts)
	}
}

func TestLoadConfigLLMWithoutKeyDisables(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing-config.yaml"))
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("LLM_PROVIDER", "openai")

	cfg := LoadConfig()
	if cfg.LLMConfigured() {
		t.Fatalf("expected provider to be cleared without a key, got %q", cfg.LLMProvider)
	}
}

func TestColumnConfigSchemaErrors(t *testing.T) {
	neg := -1
	if _, err := (ColumnConfig{OrgName: &neg}).Schema(); err == nil {
		t.Fatal("expected error when org_name column is absent")
	}
	if _, err := (ColumnConfig{Delimiter: ";;"}).Schema(); err == nil {
		t.Fatal("expected error for multi-character delimiter")
	}
	if _, err := (ColumnConfig{Delimiter: `"`}).Schema(); err == nil {
		t.Fatal("expected error for quote delimiter")
	}
	s, err := (ColumnConfig{Delimiter: ";"}).Schema()
	if err != nil || s.Delimiter != ';' {
		t.Fatalf("unexpected schema for ';': %+v err=%v", s, err)
	}
}

func TestParseClock(t *testing.T) {
	hour, min, err := ParseClock("09:45")
	if err != nil {
		t.Fatalf("ParseClock returned error: %v", err)
	}
	if hour != 9 || min != 45 {
		t.Fatalf("unexpected clock parse result: %02d:%02d", hour, min)
	}

	if _, _, err := ParseClock("24:00"); err == nil {
		t.Fatal("expected ParseClock to fail for out-of-range hour")
	}
	if _, _, err := ParseClock("bad"); err == nil {
		t.Fatal("expected ParseClock to fail for malformed input")
	}
}

func TestEnvOverrideHelpers(t *testing.T) {
	s := "initial"
	t.Setenv("RB_TEST_STR", "value")
	envOverride(&s, "RB_TEST_STR")
	if s != "value" {
		t.Fatalf("envOverride failed, got %q", s)
	}

	i := 1
	t.Setenv("RB_TEST_INT", "42")
	envOverrideInt(&i, "RB_TEST_INT")
	if i != 42 {
		t.Fatalf("envOverrideInt failed, got %d", i)
	}

	f := 0.1
	t.Setenv("RB_TEST_FLOAT", "0.75")
	envOverrideFloat(&f, "RB_TEST_FLOAT")
	if f != 0.75 {
		t.Fatalf("envOverrideFloat failed, got %f", f)
	}

	b := false
	t.Setenv("RB_TEST_BOOL", "1")
	envOverrideBool(&b, "RB_TEST_BOOL")
	if !b {
		t.Fatalf("envOverrideBool failed, got %v", b)
	}
}

func TestLoadConfigPartialSlackFatal(t *testing.T) {
	if os.Getenv("TEST_PARTIAL_SLACK_FATAL") == "1" {
		_ = os.Setenv("CONFIG_PATH", filepath.Join(os.TempDir(), "no-config.yaml"))
		_ = os.Setenv("SLACK_BOT_TOKEN", "xoxb-test")
		_ = os.Unsetenv("SLACK_APP_TOKEN")
		LoadConfig()
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=TestLoadConfigPartialSlackFatal")
	cmd.Env = append(os.Environ(), "TEST_PARTIAL_SLACK_FATAL=1")
	err := cmd.Run()
	if err == nil {
		t.Fatal("expected subprocess to exit with failure")
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected ExitError, got: %v", err)
	}
}

func TestLoadConfigInvalidTimezoneFatal(t *testing.T) {
	if os.Getenv("TEST_INVALID_TZ_FATAL") == "1" {
		_ = os.Setenv("CONFIG_PATH", filepath.Join(os.TempDir(), "no-config.yaml"))
		_ = os.Setenv("TIMEZONE", "Mars/Colony")
		LoadConfig()
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=TestLoadConfigInvalidTimezoneFatal")
	cmd.Env = append(os.Environ(), "TEST_INVALID_TZ_FATAL=1")
	err := cmd.Run()
	if err == nil {
		t.Fatal("expected subprocess to exit with failure")
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected ExitError, got: %v", err)
	}
}
