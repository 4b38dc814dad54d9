package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type ValueSource string

const (
	SourceUnknown ValueSource = "unknown"
	SourceConfig  ValueSource = "config"
	SourceEnv     ValueSource = "env"
	SourceCLI     ValueSource = "cli"
	SourceDefault ValueSource = "default"
)

const (
	DriverBbolt  = "bbolt"
	DriverSQLite = "sqlite"
)

type ResolvedValue struct {
	Value  string      `json:"value"`
	Source ValueSource `json:"source"`
	From   string      `json:"from,omitempty"`
}

// ResolveOptions carries the CLI overrides and the path defaults, which
// depend on the project root and are computed by the caller.
type ResolveOptions struct {
	ConfigPath        string
	DefaultConfigPath string
	DefaultDBPath     string
	DefaultSQLitePath string

	CLIDBPath  string
	CLIHistory string
	CLIAddr    string
	CLIModel   string
}

type ResolvedConfig struct {
	ConfigPath string `json:"config_path"`

	DBPath            ResolvedValue `json:"db_path"`
	HistoryDriver     ResolvedValue `json:"history_driver"`
	HistorySQLitePath ResolvedValue `json:"history_sqlite_path"`
	RetentionDays     ResolvedValue `json:"history_retention_days"`

	VarianceThreshold ResolvedValue `json:"weighing_variance_threshold_kg"`
	AdviceTolerance   ResolvedValue `json:"weighing_advice_tolerance_kg"`

	AdvisorModel       ResolvedValue `json:"advisor_model"`
	AdvisorAPIKey      ResolvedValue `json:"advisor_api_key"`
	AdvisorTimeout     ResolvedValue `json:"advisor_timeout"`
	AdvisorTemperature ResolvedValue `json:"advisor_temperature"`
	AdvisorMaxTokens   ResolvedValue `json:"advisor_max_tokens"`

	ServerAddr ResolvedValue `json:"server_addr"`
}

type fileConfig struct {
	DBPath  string `yaml:"db_path"`
	History struct {
		Driver        string `yaml:"driver"`
		SQLitePath    string `yaml:"sqlite_path"`
		RetentionDays string `yaml:"retention_days"`
	} `yaml:"history"`
	Weighing struct {
		VarianceThresholdKg string `yaml:"variance_threshold_kg"`
		AdviceToleranceKg   string `yaml:"advice_tolerance_kg"`
	} `yaml:"weighing"`
	Advisor struct {
		Model       string `yaml:"model"`
		APIKey      string `yaml:"api_key"`
		Timeout     string `yaml:"timeout"`
		Temperature string `yaml:"temperature"`
		MaxTokens   string `yaml:"max_tokens"`
	} `yaml:"advisor"`
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
}

// LoadDotEnv loads KEY=value files into the process environment without
// overriding variables that are already set. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

// ResolveConfig resolves every setting with precedence CLI > env > config
// file > default, remembering where each value came from.
func ResolveConfig(opts ResolveOptions) (ResolvedConfig, error) {
	path := strings.TrimSpace(opts.ConfigPath)
	if path == "" {
		path = strings.TrimSpace(os.Getenv("CONFERENTE_CONFIG"))
	}
	if path == "" {
		path = opts.DefaultConfigPath
	}

	out := ResolvedConfig{ConfigPath: path}

	def := func(dst *ResolvedValue, v string) {
		apply(dst, v, SourceDefault, "built-in default")
	}
	def(&out.DBPath, opts.DefaultDBPath)
	def(&out.HistoryDriver, DriverBbolt)
	def(&out.HistorySQLitePath, opts.DefaultSQLitePath)
	def(&out.RetentionDays, "0")
	def(&out.VarianceThreshold, "0.01")
	def(&out.AdviceTolerance, "0.05")
	def(&out.AdvisorTimeout, "30s")
	def(&out.AdvisorTemperature, "0.4")
	def(&out.AdvisorMaxTokens, "1024")
	def(&out.ServerAddr, "127.0.0.1:8765")

	cfg, err := loadConfig(path)
	if err != nil {
		return out, err
	}
	if cfg != nil {
		apply(&out.DBPath, cfg.DBPath, SourceConfig, path)
		apply(&out.HistoryDriver, cfg.History.Driver, SourceConfig, path)
		apply(&out.HistorySQLitePath, cfg.History.SQLitePath, SourceConfig, path)
		apply(&out.RetentionDays, cfg.History.RetentionDays, SourceConfig, path)
		apply(&out.VarianceThreshold, cfg.Weighing.VarianceThresholdKg, SourceConfig, path)
		apply(&out.AdviceTolerance, cfg.Weighing.AdviceToleranceKg, SourceConfig, path)
		apply(&out.AdvisorModel, cfg.Advisor.Model, SourceConfig, path)
		apply(&out.AdvisorAPIKey, cfg.Advisor.APIKey, SourceConfig, path)
		apply(&out.AdvisorTimeout, cfg.Advisor.Timeout, SourceConfig, path)
		apply(&out.AdvisorTemperature, cfg.Advisor.Temperature, SourceConfig, path)
		apply(&out.AdvisorMaxTokens, cfg.Advisor.MaxTokens, SourceConfig, path)
		apply(&out.ServerAddr, cfg.Server.Addr, SourceConfig, path)
	}

	applyEnv(&out.DBPath, "CONFERENTE_DB")
	applyEnv(&out.HistoryDriver, "CONFERENTE_HISTORY")
	applyEnv(&out.HistorySQLitePath, "CONFERENTE_HISTORY_SQLITE")
	applyEnv(&out.RetentionDays, "CONFERENTE_RETENTION_DAYS")
	applyEnv(&out.VarianceThreshold, "CONFERENTE_VARIANCE_KG")
	applyEnv(&out.AdviceTolerance, "CONFERENTE_ADVICE_TOLERANCE_KG")
	applyEnv(&out.AdvisorModel, "CONFERENTE_ADVISOR_MODEL")
	applyEnv(&out.AdvisorAPIKey, "ANTHROPIC_API_KEY")
	applyEnv(&out.AdvisorTimeout, "CONFERENTE_ADVISOR_TIMEOUT")
	applyEnv(&out.AdvisorTemperature, "CONFERENTE_ADVISOR_TEMPERATURE")
	applyEnv(&out.AdvisorMaxTokens, "CONFERENTE_ADVISOR_MAX_TOKENS")
	applyEnv(&out.ServerAddr, "CONFERENTE_ADDR")

	apply(&out.DBPath, opts.CLIDBPath, SourceCLI, "--db")
	apply(&out.HistoryDriver, opts.CLIHistory, SourceCLI, "--history")
	apply(&out.ServerAddr, opts.CLIAddr, SourceCLI, "--addr")
	apply(&out.AdvisorModel, opts.CLIModel, SourceCLI, "--model")

	out.DBPath.Value = expandUserPath(out.DBPath.Value)
	out.HistorySQLitePath.Value = expandUserPath(out.HistorySQLitePath.Value)
	out.HistoryDriver.Value = strings.ToLower(out.HistoryDriver.Value)

	return out, nil
}

// Settings is the typed view of a ResolvedConfig.
type Settings struct {
	DBPath            string
	HistoryDriver     string
	HistorySQLitePath string
	RetentionDays     int

	VarianceThreshold float64
	AdviceTolerance   float64

	AdvisorModel       string
	AdvisorAPIKey      string
	AdvisorTimeout     time.Duration
	AdvisorTemperature float64
	AdvisorMaxTokens   int

	ServerAddr string
}

// Settings parses the resolved strings. Every malformed value is reported,
// naming where it came from.
func (r ResolvedConfig) Settings() (Settings, error) {
	s := Settings{
		DBPath:            r.DBPath.Value,
		HistoryDriver:     r.HistoryDriver.Value,
		HistorySQLitePath: r.HistorySQLitePath.Value,
		AdvisorModel:      r.AdvisorModel.Value,
		AdvisorAPIKey:     r.AdvisorAPIKey.Value,
		ServerAddr:        r.ServerAddr.Value,
	}

	var errs []error
	bad := func(name string, v ResolvedValue, err error) {
		errs = append(errs, fmt.Errorf("%s=%q (%s %s): %w", name, v.Value, v.Source, v.From, err))
	}

	switch s.HistoryDriver {
	case DriverBbolt, DriverSQLite:
	default:
		bad("history.driver", r.HistoryDriver, errors.New("want bbolt or sqlite"))
	}

	var err error
	if s.RetentionDays, err = strconv.Atoi(r.RetentionDays.Value); err != nil || s.RetentionDays < 0 {
		bad("history.retention_days", r.RetentionDays, errors.New("want a non-negative integer"))
	}
	if s.VarianceThreshold, err = parseNonNegative(r.VarianceThreshold.Value); err != nil {
		bad("weighing.variance_threshold_kg", r.VarianceThreshold, err)
	}
	if s.AdviceTolerance, err = parseNonNegative(r.AdviceTolerance.Value); err != nil {
		bad("weighing.advice_tolerance_kg", r.AdviceTolerance, err)
	}
	if s.AdvisorTimeout, err = time.ParseDuration(r.AdvisorTimeout.Value); err != nil || s.AdvisorTimeout <= 0 {
		bad("advisor.timeout", r.AdvisorTimeout, errors.New("want a positive duration"))
	}
	if s.AdvisorTemperature, err = parseNonNegative(r.AdvisorTemperature.Value); err != nil || s.AdvisorTemperature > 1 {
		bad("advisor.temperature", r.AdvisorTemperature, errors.New("want a number in [0, 1]"))
	}
	if s.AdvisorMaxTokens, err = strconv.Atoi(r.AdvisorMaxTokens.Value); err != nil || s.AdvisorMaxTokens <= 0 {
		bad("advisor.max_tokens", r.AdvisorMaxTokens, errors.New("want a positive integer"))
	}

	return s, errors.Join(errs...)
}

// Entries lists every value under its file key, for display.
func (r ResolvedConfig) Entries() []Entry {
	key := r.AdvisorAPIKey
	key.Value = Mask(key.Value)
	return []Entry{
		{"db_path", r.DBPath},
		{"history.driver", r.HistoryDriver},
		{"history.sqlite_path", r.HistorySQLitePath},
		{"history.retention_days", r.RetentionDays},
		{"weighing.variance_threshold_kg", r.VarianceThreshold},
		{"weighing.advice_tolerance_kg", r.AdviceTolerance},
		{"advisor.model", r.AdvisorModel},
		{"advisor.api_key", key},
		{"advisor.timeout", r.AdvisorTimeout},
		{"advisor.temperature", r.AdvisorTemperature},
		{"advisor.max_tokens", r.AdvisorMaxTokens},
		{"server.addr", r.ServerAddr},
	}
}

type Entry struct {
	Key   string
	Value ResolvedValue
}

// Mask hides all but the last four characters of a secret.
func Mask(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 4 {
		return "****"
	}
	return "****" + secret[len(secret)-4:]
}

func parseNonNegative(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f < 0 {
		return 0, errors.New("must not be negative")
	}
	return f, nil
}

func apply(dst *ResolvedValue, raw string, source ValueSource, from string) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return
	}
	*dst = ResolvedValue{Value: v, Source: source, From: from}
}

func applyEnv(dst *ResolvedValue, envKey string) {
	if v := strings.TrimSpace(os.Getenv(envKey)); v != "" {
		*dst = ResolvedValue{Value: v, Source: SourceEnv, From: envKey}
	}
}

func loadConfig(path string) (*fileConfig, error) {
	if path == "" {
		return nil, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var cfg fileConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &cfg, nil
}

func expandUserPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
