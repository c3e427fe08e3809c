package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/seer-cli/internal/ingest"
	"github.com/sells-group/seer-cli/internal/seer"
	"github.com/sells-group/seer-cli/internal/stats"
	"github.com/sells-group/seer-cli/internal/store"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
	Ingest     IngestConfig     `yaml:"ingest" mapstructure:"ingest"`
	AAPC       stats.AAPCConfig `yaml:"aapc" mapstructure:"aapc"`
	Validation ValidationConfig `yaml:"validation" mapstructure:"validation"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// PoolConfig returns the Postgres pool tuning.
func (s StoreConfig) PoolConfig() *store.PoolConfig {
	return &store.PoolConfig{MaxConns: s.MaxConns, MinConns: s.MinConns}
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// IngestConfig configures where extracts come from and how they are read.
// SourceURL takes precedence over SourceDir. MortalityURL, when set, is
// fetched over HTTP even when the text extracts come from SourceDir.
type IngestConfig struct {
	SourceDir    string `yaml:"source_dir" mapstructure:"source_dir"`
	SourceURL    string `yaml:"source_url" mapstructure:"source_url"`
	MortalityURL string `yaml:"mortality_url" mapstructure:"mortality_url"`
	Charset      string `yaml:"charset" mapstructure:"charset"`
	Delimiter    string `yaml:"delimiter" mapstructure:"delimiter"`
	RulesFile    string `yaml:"rules_file" mapstructure:"rules_file"`
	UserAgent    string `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs  int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries   int    `yaml:"max_retries" mapstructure:"max_retries"`
}

// Rules returns the parse rule set: the rules file when one is configured,
// the built-in rules otherwise, with the configured delimiter applied.
func (c IngestConfig) Rules() (seer.Rules, error) {
	rules := seer.DefaultRules()
	if c.RulesFile != "" {
		r, err := seer.LoadRules(c.RulesFile)
		if err != nil {
			return seer.Rules{}, err
		}
		rules = r
	}
	if c.Delimiter != "" {
		rules.Separator = c.Delimiter
	}
	return rules, rules.Validate()
}

// ValidationConfig lists the ingestion benchmarks. Empty means the built-in
// five-year survival checks.
type ValidationConfig struct {
	Benchmarks []ingest.Benchmark `yaml:"benchmarks" mapstructure:"benchmarks"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("SEER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	def := stats.DefaultAAPCConfig()
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 1)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("ingest.source_dir", "data")
	v.SetDefault("ingest.source_url", "")
	v.SetDefault("ingest.mortality_url", "")
	v.SetDefault("ingest.charset", "windows-1252")
	v.SetDefault("ingest.delimiter", "")
	v.SetDefault("ingest.rules_file", "")
	v.SetDefault("ingest.user_agent", "seer-cli/1.0")
	v.SetDefault("ingest.timeout_secs", 60)
	v.SetDefault("ingest.max_retries", 3)
	v.SetDefault("aapc.start_year", def.StartYear)
	v.SetDefault("aapc.end_year", def.EndYear)
	v.SetDefault("aapc.artifact_years", def.ArtifactYears)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings the given command mode depends on.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch c.Store.Driver {
	case "sqlite":
	case "postgres":
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required for postgres")
		}
	default:
		errs = append(errs, "store.driver must be postgres or sqlite")
	}

	switch mode {
	case "ingest":
		errs = append(errs, c.validateIngest()...)
	case "serve":
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
		errs = append(errs, c.validateIngest()...)
	case "migrate", "status":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateIngest() []string {
	var errs []string
	if c.Ingest.SourceDir == "" && c.Ingest.SourceURL == "" {
		errs = append(errs, "ingest.source_dir or ingest.source_url is required")
	}
	if len([]rune(c.Ingest.Delimiter)) > 1 {
		errs = append(errs, "ingest.delimiter must be a single character")
	}
	if c.AAPC.StartYear != 0 && c.AAPC.EndYear != 0 && c.AAPC.StartYear > c.AAPC.EndYear {
		errs = append(errs, "aapc.start_year must not be after aapc.end_year")
	}
	for _, b := range c.Validation.Benchmarks {
		if b.Name == "" || b.Dataset == "" {
			errs = append(errs, "validation.benchmarks entries need name and dataset")
			continue
		}
		if b.Min > b.Max {
			errs = append(errs, "validation benchmark "+b.Name+": min must not exceed max")
		}
	}
	return errs
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
