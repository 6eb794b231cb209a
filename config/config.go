package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	logger "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration for the source manager.
type Config struct {
	GitLab       GitLabConfig       `yaml:"gitlab"`
	RootGroup    string             `yaml:"root_group"`    // Managed namespace prefix, e.g. "kathra-projects"
	MailDomain   string             `yaml:"mail_domain"`   // Domain for synthesized commit identities
	Workspace    WorkspaceConfig    `yaml:"workspace"`
	TokenRefresh TokenRefreshConfig `yaml:"token_refresh"`
}

// GitLabConfig describes the hosting provider instance.
type GitLabConfig struct {
	URL      string `yaml:"url"`
	APIToken string `yaml:"api_token"` // Inline, ${ENV_VAR}, or file path
}

// WorkspaceConfig holds local working-directory settings.
type WorkspaceConfig struct {
	Root           string `yaml:"root"`            // Defaults to the OS temp directory
	KeepAfterGit   bool   `yaml:"keep_after_git"`  // Keep working folders for debugging
	CreateAttempts int    `yaml:"create_attempts"` // Directory name generation retry bound
}

// TokenRefreshConfig drives the background token pre-provisioning.
type TokenRefreshConfig struct {
	Interval       Duration `yaml:"interval"`
	TechnicalUsers []string `yaml:"technical_users"`
}

// Duration parses Go duration strings ("30s", "5m") from YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

const (
	defaultRootGroup      = "kathra-projects"
	defaultMailDomain     = "kathra.org"
	defaultCreateAttempts = 3
	defaultInterval       = Duration(30 * time.Second)
)

// envVarPattern matches ${VAR_NAME} placeholders.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)}`)

// Load reads and parses a configuration file, expanding environment
// variables, resolving token file paths and applying defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}

	var cfg Config
	if unmarshalErr := yaml.Unmarshal(data, &cfg); unmarshalErr != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", unmarshalErr)
	}

	cfg.GitLab.URL = expandEnv(cfg.GitLab.URL)
	cfg.GitLab.APIToken = resolveToken(cfg.GitLab.APIToken)
	applyDefaults(&cfg)

	if validateErr := validate(&cfg); validateErr != nil {
		return nil, validateErr
	}

	return &cfg, nil
}

// FindConfigFile searches for a configuration file in standard locations.
// Returns the path to the first file found or an error if none is found.
func FindConfigFile() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = ""
	}

	locations := []string{
		".",
		".config",
		"configs",
	}
	if homeDir != "" {
		locations = append(
			locations,
			homeDir,
			filepath.Join(homeDir, ".config"),
		)
	}

	patterns := []string{
		".sourcemanager.yaml",
		".sourcemanager.yml",
		"sourcemanager.yaml",
		"sourcemanager.yml",
	}

	for _, loc := range locations {
		for _, pat := range patterns {
			p := filepath.Join(loc, pat)
			if _, statErr := os.Stat(p); statErr == nil {
				return p, nil
			}
		}
	}

	return "", errors.New("config file not found in default locations")
}

// expandEnv expands ${ENV_VAR} references in raw.
func expandEnv(raw string) string {
	return envVarPattern.ReplaceAllStringFunc(raw, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		logger.Warnf("Environment variable %q is not set", varName)
		return ""
	})
}

// resolveToken expands environment variable references (${VAR}) and, if the
// resulting string is a path to an existing file, reads the token from the file.
func resolveToken(raw string) string {
	if raw == "" {
		return raw
	}

	resolved := expandEnv(raw)

	// If the resolved value is a path to an existing file, read the token from it
	if _, statErr := os.Stat(resolved); statErr == nil {
		data, readErr := os.ReadFile(resolved)
		if readErr != nil {
			logger.Warnf("Failed to read token file %q: %v", resolved, readErr)
			return resolved
		}
		logger.Infof("Read token from file %q", resolved)
		return strings.TrimSpace(string(data))
	}

	return resolved
}

func applyDefaults(cfg *Config) {
	if cfg.RootGroup == "" {
		cfg.RootGroup = defaultRootGroup
	}
	if cfg.MailDomain == "" {
		cfg.MailDomain = defaultMailDomain
	}
	if cfg.Workspace.Root == "" {
		cfg.Workspace.Root = os.TempDir()
	}
	if cfg.Workspace.CreateAttempts <= 0 {
		cfg.Workspace.CreateAttempts = defaultCreateAttempts
	}
	if cfg.TokenRefresh.Interval <= 0 {
		cfg.TokenRefresh.Interval = defaultInterval
	}
}

// validate checks for required configuration values.
func validate(cfg *Config) error {
	if cfg.GitLab.URL == "" {
		return errors.New("gitlab.url is required")
	}
	if !strings.HasPrefix(cfg.GitLab.URL, "http://") && !strings.HasPrefix(cfg.GitLab.URL, "https://") {
		return fmt.Errorf("gitlab.url %q must be an http(s) URL", cfg.GitLab.URL)
	}
	if cfg.GitLab.APIToken == "" {
		return errors.New(
			"gitlab.api_token is required (set inline, via ${ENV_VAR}, or as file path)",
		)
	}
	if strings.Contains(cfg.RootGroup, "/") {
		return fmt.Errorf("root_group %q must be a single top-level group", cfg.RootGroup)
	}
	return nil
}
