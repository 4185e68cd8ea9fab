package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"gitstrap/internal/retry"
)

// Defaults mirror the reference bootstrap: wait up to ~5 minutes for DNS
// (150 probes, 2s apart), retry the clone 10 times 5s apart, install the
// pip manifest shipped inside the acquired tree, then run setup.py.
const (
	DefaultBranch         = "master"
	DefaultPropertiesFile = "deployment.properties"
)

type RemoteCfg struct {
	URL  string `yaml:"url" json:"url"`
	Host string `yaml:"host" json:"host"` // resolved before any clone attempt
}

type DeploymentCfg struct {
	DiscoveryDir   string `yaml:"discovery_dir" json:"discovery_dir"`     // parent searched for a single deployment dir
	PropertiesFile string `yaml:"properties_file" json:"properties_file"` // KEY=value file inside the deployment root
	DefaultBranch  string `yaml:"default_branch" json:"default_branch"`
}

type RetryCfg struct {
	MaxAttempts  int `yaml:"max_attempts" json:"max_attempts"`
	DelaySeconds int `yaml:"delay_seconds" json:"delay_seconds"`
}

type SourceCfg struct {
	Destination string `yaml:"destination" json:"destination"` // relative to the deployment root
	MarkerFile  string `yaml:"marker_file" json:"marker_file"` // installer entrypoint expected after a clone
}

type DependenciesCfg struct {
	Manifest       string   `yaml:"manifest" json:"manifest"` // relative to the acquired source root
	PackageManager []string `yaml:"package_manager" json:"package_manager"`
}

type InstallerCfg struct {
	Command []string `yaml:"command" json:"command"` // run inside the acquired source root
}

type PrometheusCfg struct {
	Port int `yaml:"port" json:"port"` // 0 disables the listener
}

type LoggingCfg struct {
	Dir           string `yaml:"dir" json:"dir"`
	RetentionDays int    `yaml:"retention_days" json:"retention_days"`
}

type Config struct {
	Remote       RemoteCfg       `yaml:"remote" json:"remote"`
	Deployment   DeploymentCfg   `yaml:"deployment" json:"deployment"`
	DNSWait      RetryCfg        `yaml:"dns_wait" json:"dns_wait"`
	Clone        RetryCfg        `yaml:"clone" json:"clone"`
	Source       SourceCfg       `yaml:"source" json:"source"`
	Dependencies DependenciesCfg `yaml:"dependencies" json:"dependencies"`
	Installer    InstallerCfg    `yaml:"installer" json:"installer"`
	Prometheus   PrometheusCfg   `yaml:"prometheus" json:"prometheus"`
	Logging      LoggingCfg      `yaml:"logging" json:"logging"`
	HistoryDB    string          `yaml:"history_db" json:"history_db"`
}

var errRelativeDiscoveryDir = errors.New("deployment.discovery_dir must be absolute")

// Load reads the orchestrator configuration. A missing file is a soft
// condition: the bootstrap must be runnable with no arguments on a fresh
// host, so built-in defaults apply and only a malformed file is fatal.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := &Config{}
			if err := cfg.validateAndDefault(); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	cfg, err := decode(f)
	if err != nil {
		return nil, err
	}
	if err := cfg.validateAndDefault(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(r io.Reader) (*Config, error) {
	cfg := &Config{}
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(cfg); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return cfg, nil
}

func (c *Config) validateAndDefault() error {
	if c.Remote.URL == "" {
		c.Remote.URL = "https://github.com/cons3rt/pybart.git"
	}
	if c.Remote.Host == "" {
		c.Remote.Host = "github.com"
	}
	if c.Deployment.DiscoveryDir == "" {
		c.Deployment.DiscoveryDir = "/opt/gitstrap"
	}
	if !filepath.IsAbs(c.Deployment.DiscoveryDir) {
		return fmt.Errorf("%w: %s", errRelativeDiscoveryDir, c.Deployment.DiscoveryDir)
	}
	if c.Deployment.PropertiesFile == "" {
		c.Deployment.PropertiesFile = DefaultPropertiesFile
	}
	if c.Deployment.DefaultBranch == "" {
		c.Deployment.DefaultBranch = DefaultBranch
	}

	// Reference bootstrap ceilings: 150 x 2s DNS, 10 x 5s clone
	if c.DNSWait.MaxAttempts <= 0 {
		c.DNSWait.MaxAttempts = 150
	}
	if c.DNSWait.DelaySeconds <= 0 {
		c.DNSWait.DelaySeconds = 2
	}
	if c.Clone.MaxAttempts <= 0 {
		c.Clone.MaxAttempts = 10
	}
	if c.Clone.DelaySeconds <= 0 {
		c.Clone.DelaySeconds = 5
	}

	if c.Source.Destination == "" {
		c.Source.Destination = "src/pybart"
	}
	if c.Source.MarkerFile == "" {
		c.Source.MarkerFile = "setup.py"
	}

	if c.Dependencies.Manifest == "" {
		c.Dependencies.Manifest = "cfg/requirements.txt"
	}
	if len(c.Dependencies.PackageManager) == 0 {
		c.Dependencies.PackageManager = []string{"pip", "install", "-r"}
	}
	if len(c.Installer.Command) == 0 {
		c.Installer.Command = []string{"python", "setup.py", "install"}
	}

	if c.Logging.Dir == "" {
		c.Logging.Dir = "/var/log/gitstrap"
	}
	if c.Logging.RetentionDays <= 0 {
		c.Logging.RetentionDays = 30
	}
	if c.HistoryDB == "" {
		c.HistoryDB = "/var/lib/gitstrap/history.db"
	}

	return nil
}

func (c *Config) DNSPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts: c.DNSWait.MaxAttempts,
		Delay:       time.Duration(c.DNSWait.DelaySeconds) * time.Second,
	}
}

func (c *Config) ClonePolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts: c.Clone.MaxAttempts,
		Delay:       time.Duration(c.Clone.DelaySeconds) * time.Second,
	}
}

func (c *Config) PrometheusAddress() string {
	return fmt.Sprintf(":%d", c.Prometheus.Port)
}
