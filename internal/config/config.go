package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mthomas-dev/vaccine-analytics/internal/sharecalc"
)

const (
	defaultPort           = "8080"
	defaultRateLimitRPS   = 25.0
	defaultRateLimitBurst = 50

	defaultInputDir  = "data/raw"
	defaultOutputDir = "output"

	defaultSupplyTable = "with_covid_continent"
)

// Default static sets of the Gavi share methodology. The exclusion list
// names the ancillary-supply lines of the shipment dataset, the funding
// label marks fully Gavi-funded lines, and the transition countries are the
// six countries projected to move off Gavi support by 2030.
var (
	defaultNonDoseProducts = []string{
		"AD-Syringe, 0.5 ml",
		"AD-Syringe, 0.1 ml",
		"RUP-2.0 ml",
		"RUP-5.0 ml",
		"Safety Box, 5 Litre",
	}

	defaultFundingKeep = "GAVI"

	defaultTransitionCountries = []string{
		"Sao Tome & Principe",
		"Nigeria",
		"Kenya",
		"Ghana",
		"Djibouti",
		"Cote d'Ivoire",
	}

	// Alternate spellings seen across the source datasets, resolved to the
	// names the shipment table uses.
	defaultCountryAliases = map[string]string{
		"Côte d'Ivoire":         "Cote d'Ivoire",
		"Ivory Coast":           "Cote d'Ivoire",
		"Sao Tome and Principe": "Sao Tome & Principe",
		"São Tomé and Príncipe": "Sao Tome & Principe",
	}
)

// Config aggregates runtime configuration resolved from multiple sources.
// Precedence: CLI flags > YAML config > Environment variables > Defaults
type Config struct {
	InputDir    string
	OutputDir   string
	SupplyTable string
	Rules       sharecalc.RuleSet
	Demand      DemandConfig
	MI4A        MI4AConfig
	Server      ServerConfig
}

// DemandConfig controls the demand pipeline's measured/projected split and
// its headline year.
type DemandConfig struct {
	LastMeasuredYear int
	TargetYear       int
}

// MI4AConfig bounds the purchase-database aggregation.
type MI4AConfig struct {
	FromYear int
	ToYear   int
}

// ServerConfig configures the results preview server.
type ServerConfig struct {
	Port                 string
	ShutdownGracePeriod  time.Duration
	ReadHeaderTimeout    time.Duration
	WriteTimeout         time.Duration
	IdleTimeout          time.Duration
	EnableRequestLogging bool
	RateLimitRPS         float64
	RateLimitBurst       int
}

// yamlConfig represents the YAML configuration file structure.
type yamlConfig struct {
	InputDir    string     `yaml:"input_dir"`
	OutputDir   string     `yaml:"output_dir"`
	SupplyTable string     `yaml:"supply_table"`
	Rules       yamlRules  `yaml:"rules"`
	Demand      yamlDemand `yaml:"demand"`
	MI4A        yamlMI4A   `yaml:"mi4a"`
	Server      yamlServer `yaml:"server"`
}

type yamlRules struct {
	NonDoseProducts     []string          `yaml:"non_dose_products"`
	FundingKeep         string            `yaml:"funding_keep"`
	TransitionCountries []string          `yaml:"transition_countries"`
	CountryAliases      map[string]string `yaml:"country_aliases"`
}

type yamlDemand struct {
	LastMeasuredYear int `yaml:"last_measured_year"`
	TargetYear       int `yaml:"target_year"`
}

type yamlMI4A struct {
	FromYear int `yaml:"from_year"`
	ToYear   int `yaml:"to_year"`
}

type yamlServer struct {
	Port                 string        `yaml:"port"`
	ShutdownGracePeriod  string        `yaml:"shutdown_grace_period"`
	ReadHeaderTimeout    string        `yaml:"read_header_timeout"`
	WriteTimeout         string        `yaml:"write_timeout"`
	IdleTimeout          string        `yaml:"idle_timeout"`
	EnableRequestLogging *bool         `yaml:"enable_request_logging"`
	RateLimit            yamlRateLimit `yaml:"rate_limit"`
}

// Pointer fields distinguish "absent from the file" from an explicit
// zero, which is a meaningful value here (zero disables limiting).
type yamlRateLimit struct {
	RPS   *float64 `yaml:"rps"`
	Burst *int     `yaml:"burst"`
}

// CLIOverrides holds command-line flag overrides.
type CLIOverrides struct {
	ConfigFile     string
	InputDir       *string
	OutputDir      *string
	Port           *string
	RateLimitRPS   *float64
	RateLimitBurst *int
}

// Load extracts configuration from multiple sources with precedence:
// CLI flags > YAML config > Environment variables > Defaults
func Load(overrides *CLIOverrides) (Config, error) {
	cfg := defaultConfig()

	if overrides != nil && overrides.ConfigFile != "" {
		yamlCfg, err := loadFromFile(overrides.ConfigFile)
		if err != nil {
			return Config{}, fmt.Errorf("load YAML config: %w", err)
		}
		applyYAMLConfig(&cfg, yamlCfg)
	}

	applyEnvConfig(&cfg)

	if overrides != nil {
		applyCLIOverrides(&cfg, overrides)
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// DefaultRules returns a copy of the built-in Gavi share rule set.
func DefaultRules() sharecalc.RuleSet {
	aliases := make(map[string]string, len(defaultCountryAliases))
	for alias, canonical := range defaultCountryAliases {
		aliases[alias] = canonical
	}
	return sharecalc.RuleSet{
		NonDoseProducts:     append([]string(nil), defaultNonDoseProducts...),
		FundingKeep:         defaultFundingKeep,
		TransitionCountries: append([]string(nil), defaultTransitionCountries...),
		CountryAliases:      aliases,
	}
}

func defaultConfig() Config {
	return Config{
		InputDir:    defaultInputDir,
		OutputDir:   defaultOutputDir,
		SupplyTable: defaultSupplyTable,
		Rules:       DefaultRules(),
		Demand: DemandConfig{
			LastMeasuredYear: 2024,
			TargetYear:       2030,
		},
		MI4A: MI4AConfig{
			FromYear: 2019,
			ToYear:   2021,
		},
		Server: ServerConfig{
			Port:                 defaultPort,
			ShutdownGracePeriod:  10 * time.Second,
			ReadHeaderTimeout:    5 * time.Second,
			WriteTimeout:         15 * time.Second,
			IdleTimeout:          60 * time.Second,
			EnableRequestLogging: true,
			RateLimitRPS:         defaultRateLimitRPS,
			RateLimitBurst:       defaultRateLimitBurst,
		},
	}
}

func loadFromFile(path string) (*yamlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	return &yamlCfg, nil
}

func applyYAMLConfig(cfg *Config, yamlCfg *yamlConfig) {
	if yamlCfg.InputDir != "" {
		cfg.InputDir = yamlCfg.InputDir
	}
	if yamlCfg.OutputDir != "" {
		cfg.OutputDir = yamlCfg.OutputDir
	}
	if yamlCfg.SupplyTable != "" {
		cfg.SupplyTable = yamlCfg.SupplyTable
	}

	if len(yamlCfg.Rules.NonDoseProducts) > 0 {
		cfg.Rules.NonDoseProducts = yamlCfg.Rules.NonDoseProducts
	}
	if yamlCfg.Rules.FundingKeep != "" {
		cfg.Rules.FundingKeep = yamlCfg.Rules.FundingKeep
	}
	if len(yamlCfg.Rules.TransitionCountries) > 0 {
		cfg.Rules.TransitionCountries = yamlCfg.Rules.TransitionCountries
	}
	for alias, canonical := range yamlCfg.Rules.CountryAliases {
		cfg.Rules.CountryAliases[alias] = canonical
	}

	if yamlCfg.Demand.LastMeasuredYear > 0 {
		cfg.Demand.LastMeasuredYear = yamlCfg.Demand.LastMeasuredYear
	}
	if yamlCfg.Demand.TargetYear > 0 {
		cfg.Demand.TargetYear = yamlCfg.Demand.TargetYear
	}
	if yamlCfg.MI4A.FromYear > 0 {
		cfg.MI4A.FromYear = yamlCfg.MI4A.FromYear
	}
	if yamlCfg.MI4A.ToYear > 0 {
		cfg.MI4A.ToYear = yamlCfg.MI4A.ToYear
	}

	if yamlCfg.Server.Port != "" {
		cfg.Server.Port = yamlCfg.Server.Port
	}
	applyDuration(&cfg.Server.ShutdownGracePeriod, yamlCfg.Server.ShutdownGracePeriod)
	applyDuration(&cfg.Server.ReadHeaderTimeout, yamlCfg.Server.ReadHeaderTimeout)
	applyDuration(&cfg.Server.WriteTimeout, yamlCfg.Server.WriteTimeout)
	applyDuration(&cfg.Server.IdleTimeout, yamlCfg.Server.IdleTimeout)
	if yamlCfg.Server.EnableRequestLogging != nil {
		cfg.Server.EnableRequestLogging = *yamlCfg.Server.EnableRequestLogging
	}
	if yamlCfg.Server.RateLimit.RPS != nil {
		cfg.Server.RateLimitRPS = *yamlCfg.Server.RateLimit.RPS
	}
	if yamlCfg.Server.RateLimit.Burst != nil {
		cfg.Server.RateLimitBurst = *yamlCfg.Server.RateLimit.Burst
	}
}

func applyDuration(target *time.Duration, raw string) {
	if raw == "" {
		return
	}
	if d, err := time.ParseDuration(raw); err == nil {
		*target = d
	}
}

func applyEnvConfig(cfg *Config) {
	if dir := strings.TrimSpace(os.Getenv("INPUT_DIR")); dir != "" {
		cfg.InputDir = dir
	}
	if dir := strings.TrimSpace(os.Getenv("OUTPUT_DIR")); dir != "" {
		cfg.OutputDir = dir
	}
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		cfg.Server.Port = port
	}
	if rps := strings.TrimSpace(os.Getenv("RATE_LIMIT_RPS")); rps != "" {
		if value, err := strconv.ParseFloat(rps, 64); err == nil && value >= 0 {
			cfg.Server.RateLimitRPS = value
		}
	}
	if burst := strings.TrimSpace(os.Getenv("RATE_LIMIT_BURST")); burst != "" {
		if value, err := strconv.Atoi(burst); err == nil && value >= 0 {
			cfg.Server.RateLimitBurst = value
		}
	}
}

func applyCLIOverrides(cfg *Config, overrides *CLIOverrides) {
	if overrides.InputDir != nil && *overrides.InputDir != "" {
		cfg.InputDir = *overrides.InputDir
	}
	if overrides.OutputDir != nil && *overrides.OutputDir != "" {
		cfg.OutputDir = *overrides.OutputDir
	}
	if overrides.Port != nil && *overrides.Port != "" {
		cfg.Server.Port = *overrides.Port
	}
	if overrides.RateLimitRPS != nil && *overrides.RateLimitRPS >= 0 {
		cfg.Server.RateLimitRPS = *overrides.RateLimitRPS
	}
	if overrides.RateLimitBurst != nil && *overrides.RateLimitBurst >= 0 {
		cfg.Server.RateLimitBurst = *overrides.RateLimitBurst
	}
}

func validateConfig(cfg Config) error {
	if cfg.InputDir == "" {
		return fmt.Errorf("input directory cannot be empty")
	}
	if cfg.OutputDir == "" {
		return fmt.Errorf("output directory cannot be empty")
	}
	if strings.TrimSpace(cfg.Rules.FundingKeep) == "" {
		return fmt.Errorf("rules.funding_keep cannot be empty")
	}
	if len(cfg.Rules.TransitionCountries) == 0 {
		return fmt.Errorf("rules.transition_countries cannot be empty")
	}
	if cfg.Demand.TargetYear < cfg.Demand.LastMeasuredYear {
		return fmt.Errorf("demand.target_year must not precede demand.last_measured_year")
	}
	if cfg.MI4A.FromYear > cfg.MI4A.ToYear {
		return fmt.Errorf("mi4a.from_year must not exceed mi4a.to_year")
	}
	if cfg.Server.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be >= 0")
	}
	if cfg.Server.RateLimitBurst < 0 {
		return fmt.Errorf("RATE_LIMIT_BURST must be >= 0")
	}
	return nil
}
