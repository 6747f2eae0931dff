package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete gsd configuration
type Config struct {
	Planning   PlanningConfig   `mapstructure:"planning" yaml:"planning"`
	Executor   ExecutorConfig   `mapstructure:"executor" yaml:"executor"`
	Completion CompletionConfig `mapstructure:"completion" yaml:"completion"`
	Logging    LoggingConfig    `mapstructure:"logging" yaml:"logging"`
	UI         UIConfig         `mapstructure:"ui" yaml:"ui"`
}

// PlanningConfig locates the project's planning documents
type PlanningConfig struct {
	// Dir is the planning directory relative to the project root (default: ".planning")
	Dir string `mapstructure:"dir" yaml:"dir"`
	// PlanPattern is the glob matched against file names in a phase directory
	// to find plans (default: "*-PLAN.md")
	PlanPattern string `mapstructure:"plan_pattern" yaml:"plan_pattern"`
	// ContextFiles are planning documents passed to every plan execution as
	// additional context, relative to Dir (default: STATE.md, PROJECT.md)
	ContextFiles []string `mapstructure:"context_files" yaml:"context_files"`
	// AssetsDir overrides the embedded workflow/template/reference texts.
	// Relative to Dir (default: "assets"); missing files fall back to the
	// embedded defaults.
	AssetsDir string `mapstructure:"assets_dir" yaml:"assets_dir"`
}

// ExecutorConfig controls how each plan's subprocess is launched
type ExecutorConfig struct {
	// Command is the agent CLI executed once per plan (default: "pi")
	Command string `mapstructure:"command" yaml:"command"`
	// PrintFlag requests non-interactive run-to-completion mode (default: "-p")
	PrintFlag string `mapstructure:"print_flag" yaml:"print_flag"`
	// NoSessionFlag disables session persistence so every run starts fresh
	// (default: "--no-session")
	NoSessionFlag string `mapstructure:"no_session_flag" yaml:"no_session_flag"`
	// UnitTimeoutMinutes kills a single plan after this many minutes (0 = disabled).
	// Other plans in the same wave keep running.
	UnitTimeoutMinutes int `mapstructure:"unit_timeout_minutes" yaml:"unit_timeout_minutes"`
}

// CompletionConfig controls completion marker handling
type CompletionConfig struct {
	// WatchMarkers reports summaries as they are written while a wave runs (default: true)
	WatchMarkers bool `mapstructure:"watch_markers" yaml:"watch_markers"`
	// WarnMissingSummary warns when a plan succeeds without writing its summary (default: true)
	WarnMissingSummary bool `mapstructure:"warn_missing_summary" yaml:"warn_missing_summary"`
}

// LoggingConfig controls structured run logging
type LoggingConfig struct {
	// Enabled writes a JSON log for every run (default: true)
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// Level is the minimum level: debug, info, warn, error (default: "info")
	Level string `mapstructure:"level" yaml:"level"`
	// Dir is the log directory relative to planning.dir (default: "logs")
	Dir string `mapstructure:"dir" yaml:"dir"`
	// MaxSizeMB rotates the log once it reaches this size; 0 disables rotation (default: 10)
	MaxSizeMB int `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	// MaxBackups is the number of rotated logs kept (default: 3)
	MaxBackups int `mapstructure:"max_backups" yaml:"max_backups"`
	// Compress gzips rotated logs (default: false)
	Compress bool `mapstructure:"compress" yaml:"compress"`
}

// UIConfig controls operator-facing output
type UIConfig struct {
	// Color is one of "auto", "always", "never" (default: "auto")
	Color string `mapstructure:"color" yaml:"color"`
	// TUI shows the live wave progress view instead of line notifications (default: false)
	TUI bool `mapstructure:"tui" yaml:"tui"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Planning: PlanningConfig{
			Dir:          ".planning",
			PlanPattern:  "*-PLAN.md",
			ContextFiles: []string{"STATE.md", "PROJECT.md"},
			AssetsDir:    "assets",
		},
		Executor: ExecutorConfig{
			Command:            "pi",
			PrintFlag:          "-p",
			NoSessionFlag:      "--no-session",
			UnitTimeoutMinutes: 0,
		},
		Completion: CompletionConfig{
			WatchMarkers:       true,
			WarnMissingSummary: true,
		},
		Logging: LoggingConfig{
			Enabled:    true,
			Level:      "info",
			Dir:        "logs",
			MaxSizeMB:  10,
			MaxBackups: 3,
			Compress:   false,
		},
		UI: UIConfig{
			Color: "auto",
			TUI:   false,
		},
	}
}

// UnitTimeout returns the per-plan timeout as a time.Duration (0 means disabled)
func (c *ExecutorConfig) UnitTimeout() time.Duration {
	return time.Duration(c.UnitTimeoutMinutes) * time.Minute
}

// LogDir resolves the log directory against the project root.
func (c *Config) LogDir(root string) string {
	if filepath.IsAbs(c.Logging.Dir) {
		return c.Logging.Dir
	}
	return filepath.Join(root, c.Planning.Dir, c.Logging.Dir)
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("planning.dir", defaults.Planning.Dir)
	viper.SetDefault("planning.plan_pattern", defaults.Planning.PlanPattern)
	viper.SetDefault("planning.context_files", defaults.Planning.ContextFiles)
	viper.SetDefault("planning.assets_dir", defaults.Planning.AssetsDir)

	viper.SetDefault("executor.command", defaults.Executor.Command)
	viper.SetDefault("executor.print_flag", defaults.Executor.PrintFlag)
	viper.SetDefault("executor.no_session_flag", defaults.Executor.NoSessionFlag)
	viper.SetDefault("executor.unit_timeout_minutes", defaults.Executor.UnitTimeoutMinutes)

	viper.SetDefault("completion.watch_markers", defaults.Completion.WatchMarkers)
	viper.SetDefault("completion.warn_missing_summary", defaults.Completion.WarnMissingSummary)

	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.dir", defaults.Logging.Dir)
	viper.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	viper.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)
	viper.SetDefault("logging.compress", defaults.Logging.Compress)

	viper.SetDefault("ui.color", defaults.UI.Color)
	viper.SetDefault("ui.tui", defaults.UI.TUI)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "gsd")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".gsd"
	}
	return filepath.Join(home, ".config", "gsd")
}

// LocalConfigFile is a per-project config file in the working directory.
// It takes precedence over the user config file.
const LocalConfigFile = ".gsd.yaml"

// ConfigFile returns the path to the user config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// ValidColorModes returns the accepted ui.color values
func ValidColorModes() []string {
	return []string{"auto", "always", "never"}
}
