package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"rosterbot/internal/sheet"

	"gopkg.in/yaml.v3"
)

const defaultExternalHTTPTimeout = 90 * time.Second
const defaultExternalHTTPTimeoutSeconds = int(defaultExternalHTTPTimeout / time.Second)

// ColumnConfig is the YAML form of sheet.Schema. Indexes are zero-based;
// -1 marks a column the sheet does not have.
type ColumnConfig struct {
	Timestamp   *int   `yaml:"timestamp"`
	Region      *int   `yaml:"region"`
	OrgName     *int   `yaml:"org_name"`
	Boxes       *int   `yaml:"boxes"`
	Quantity    *int   `yaml:"quantity"`
	Remarks     *int   `yaml:"remarks"`
	ManagerName *int   `yaml:"manager_name"`
	Delimiter   string `yaml:"delimiter"`
}

type Config struct {
	SheetCSVURL   string            `yaml:"sheet_csv_url"`
	UseSampleData bool              `yaml:"use_sample_data"`
	RosterPath    string            `yaml:"roster_path"`
	Columns       ColumnConfig      `yaml:"columns"`
	Aliases       map[string]string `yaml:"aliases"`

	RefreshSchedule string `yaml:"refresh_schedule"`
	HTTPAddr        string `yaml:"http_addr"`

	SlackBotToken   string              `yaml:"slack_bot_token"`
	SlackAppToken   string              `yaml:"slack_app_token"`
	ReportChannelID string              `yaml:"report_channel_id"`
	ManagerSlackIDs []string            `yaml:"manager_slack_ids"`
	RegionContacts  map[string][]string `yaml:"region_contacts"`
	NudgeDay        string              `yaml:"nudge_day"`
	NudgeTime       string              `yaml:"nudge_time"`

	LLMProvider     string  `yaml:"llm_provider"`
	LLMModel        string  `yaml:"llm_model"`
	LLMConfidence   float64 `yaml:"llm_confidence_threshold"`
	AnthropicAPIKey string  `yaml:"anthropic_api_key"`
	OpenAIAPIKey    string  `yaml:"openai_api_key"`

	ReportOutputDir            string `yaml:"report_output_dir"`
	ExternalHTTPTimeoutSeconds int    `yaml:"external_http_timeout_seconds"`
	Timezone                   string `yaml:"timezone"`
	TeamName                   string `yaml:"team_name"`

	Location *time.Location `yaml:"-"` // computed from Timezone, not from YAML
	Schema   sheet.Schema   `yaml:"-"` // computed from Columns
}

func LoadConfig() Config {
	var cfg Config

	configPath := "config.yaml"
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		configPath = envPath
	}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			log.Fatalf("Error parsing %s: %v", configPath, err)
		}
		log.Printf("Loaded config from %s", configPath)
	}

	envOverride(&cfg.SheetCSVURL, "SHEET_CSV_URL")
	envOverrideBool(&cfg.UseSampleData, "USE_SAMPLE_DATA")
	envOverride(&cfg.RosterPath, "ROSTER_PATH")
	envOverrideAllowEmpty(&cfg.RefreshSchedule, "REFRESH_SCHEDULE")
	envOverride(&cfg.HTTPAddr, "HTTP_ADDR")
	envOverride(&cfg.SlackBotToken, "SLACK_BOT_TOKEN")
	envOverride(&cfg.SlackAppToken, "SLACK_APP_TOKEN")
	envOverride(&cfg.ReportChannelID, "REPORT_CHANNEL_ID")
	envOverride(&cfg.NudgeDay, "NUDGE_DAY")
	envOverride(&cfg.NudgeTime, "NUDGE_TIME")
	envOverride(&cfg.LLMProvider, "LLM_PROVIDER")
	envOverride(&cfg.LLMModel, "LLM_MODEL")
	envOverrideFloat(&cfg.LLMConfidence, "LLM_CONFIDENCE_THRESHOLD")
	envOverride(&cfg.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	envOverride(&cfg.OpenAIAPIKey, "OPENAI_API_KEY")
	envOverride(&cfg.ReportOutputDir, "REPORT_OUTPUT_DIR")
	envOverrideInt(&cfg.ExternalHTTPTimeoutSeconds, "EXTERNAL_HTTP_TIMEOUT_SECONDS")
	envOverride(&cfg.Timezone, "TIMEZONE")
	envOverride(&cfg.TeamName, "TEAM_NAME")

	if ids := os.Getenv("MANAGER_SLACK_IDS"); ids != "" {
		cfg.ManagerSlackIDs = splitList(ids)
	}

	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}
	if cfg.ReportOutputDir == "" {
		cfg.ReportOutputDir = "./exports"
	}
	if cfg.ExternalHTTPTimeoutSeconds == 0 {
		cfg.ExternalHTTPTimeoutSeconds = defaultExternalHTTPTimeoutSeconds
	}
	if cfg.NudgeTime == "" {
		cfg.NudgeTime = "10:00"
	}
	if cfg.LLMConfidence == 0 {
		cfg.LLMConfidence = 0.70
	}
	if cfg.TeamName == "" {
		cfg.TeamName = "제출 현황"
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "Asia/Seoul"
	}

	if (cfg.SlackBotToken == "") != (cfg.SlackAppToken == "") {
		log.Fatalf("Partial Slack config: slack_bot_token and slack_app_token are required together")
	}
	if !cfg.SlackConfigured() {
		log.Printf("WARNING: Slack is not configured. Only the HTTP API will be served.")
	}
	if cfg.SheetCSVURL == "" && !cfg.UseSampleData {
		log.Printf("WARNING: sheet_csv_url is not set. Sample data will be used.")
		cfg.UseSampleData = true
	}

	switch cfg.LLMProvider {
	case "":
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			log.Printf("WARNING: anthropic_api_key is not set, alias suggestions disabled")
			cfg.LLMProvider = ""
		}
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			log.Printf("WARNING: openai_api_key is not set, alias suggestions disabled")
			cfg.LLMProvider = ""
		}
	default:
		log.Fatalf("llm_provider must be 'anthropic' or 'openai', got '%s'", cfg.LLMProvider)
	}

	if strings.EqualFold(cfg.Timezone, "Local") {
		cfg.Location = time.Local
	} else {
		loc, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			log.Fatalf("invalid timezone '%s': %v", cfg.Timezone, err)
		}
		cfg.Location = loc
	}

	if cfg.NudgeDay != "" {
		if _, _, err := parseClock(cfg.NudgeTime); err != nil {
			log.Fatalf("invalid nudge_time '%s': %v", cfg.NudgeTime, err)
		}
	}
	if cfg.LLMConfidence < 0 || cfg.LLMConfidence > 1 {
		log.Fatalf("invalid llm_confidence_threshold '%f': must be between 0 and 1", cfg.LLMConfidence)
	}
	if cfg.ExternalHTTPTimeoutSeconds < 5 {
		log.Fatalf("invalid external_http_timeout_seconds '%d': must be >= 5", cfg.ExternalHTTPTimeoutSeconds)
	}

	schema, err := cfg.Columns.Schema()
	if err != nil {
		log.Fatalf("invalid columns: %v", err)
	}
	cfg.Schema = schema

	return cfg
}

// Schema overlays the configured column indexes on the default layout.
func (c ColumnConfig) Schema() (sheet.Schema, error) {
	s := sheet.DefaultSchema()
	set := func(dst *int, src *int) {
		if src != nil {
			*dst = *src
		}
	}
	set(&s.Timestamp, c.Timestamp)
	set(&s.Region, c.Region)
	set(&s.OrgName, c.OrgName)
	set(&s.Boxes, c.Boxes)
	set(&s.Quantity, c.Quantity)
	set(&s.Remarks, c.Remarks)
	set(&s.ManagerName, c.ManagerName)

	switch c.Delimiter {
	case "":
	case `\t`, "tab":
		s.Delimiter = '\t'
	default:
		r, size := utf8.DecodeRuneInString(c.Delimiter)
		if size != len(c.Delimiter) || r == '"' {
			return sheet.Schema{}, fmt.Errorf("delimiter must be a single character other than '\"', got %q", c.Delimiter)
		}
		s.Delimiter = r
	}

	if s.OrgName < 0 {
		return sheet.Schema{}, fmt.Errorf("org_name column is required")
	}
	return s, nil
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func envOverrideAllowEmpty(field *string, envKey string) {
	if val, ok := os.LookupEnv(envKey); ok {
		*field = val
	}
}

func envOverrideInt(field *int, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			log.Fatalf("invalid %s '%s': %v", envKey, val, err)
		}
		*field = parsed
	}
}

func envOverrideBool(field *bool, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = strings.EqualFold(val, "true") || val == "1"
	}
}

func envOverrideFloat(field *float64, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.ParseFloat(val, 64)
		if err != nil {
			log.Fatalf("invalid %s '%s': %v", envKey, val, err)
		}
		*field = parsed
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c Config) IsManagerID(userID string) bool {
	for _, id := range c.ManagerSlackIDs {
		if strings.TrimSpace(id) == userID {
			return true
		}
	}
	return false
}

func (c Config) SlackConfigured() bool {
	return c.SlackBotToken != "" && c.SlackAppToken != ""
}

func (c Config) LLMConfigured() bool {
	return c.LLMProvider != ""
}

func parseClock(s string) (int, int, error) {
	var hour, min int
	_, err := fmt.Sscanf(s, "%d:%d", &hour, &min)
	if err != nil {
		return 0, 0, err
	}
	if hour < 0 || hour > 23 || min < 0 || min > 59 {
		return 0, 0, fmt.Errorf("time out of range: %02d:%02d", hour, min)
	}
	return hour, min, nil
}

// ParseClock parses "HH:MM".
func ParseClock(s string) (int, int, error) {
	return parseClock(s)
}
