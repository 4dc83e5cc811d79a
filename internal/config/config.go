package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type Settings struct {
	ListenAddr   string `envconfig:"LISTEN_ADDR" default:":8000"`
	DataPath     string `envconfig:"DATA_PATH" default:"/app/data"`
	DatabasePath string `envconfig:"DATABASE_PATH" default:""`
	LogPath      string `envconfig:"LOG_PATH" default:""`

	// Spawn policy
	AllowedBaseDirs []string `envconfig:"ALLOWED_BASE_DIRS" default:"/home"`
	AllowedCommands []string `envconfig:"ALLOWED_COMMANDS" default:"claude,python,node,npm,git"`
	DefaultCommand  string   `envconfig:"DEFAULT_COMMAND" default:"claude"`

	// Session limits
	MaxSessions              int `envconfig:"MAX_SESSIONS" default:"10"`
	MaxSubscribersPerSession int `envconfig:"MAX_SUBSCRIBERS_PER_SESSION" default:"5"`
	SubscriberBuffer         int `envconfig:"SUBSCRIBER_BUFFER" default:"1000"`
	ScrollbackLines          int `envconfig:"SCROLLBACK_LINES" default:"1000"`

	// Timeouts
	PublishTimeout  time.Duration `envconfig:"PUBLISH_TIMEOUT" default:"5s"`
	StopGracePeriod time.Duration `envconfig:"STOP_GRACE_PERIOD" default:"5s"`

	// PolicyFile optionally points at a YAML file whose non-empty fields
	// override the whitelist and limit settings above.
	PolicyFile string `envconfig:"POLICY_FILE" default:""`
}

var Cfg Settings

func Load() {
	if err := envconfig.Process("SHELLBOARD", &Cfg); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if Cfg.DatabasePath == "" {
		Cfg.DatabasePath = filepath.Join(Cfg.DataPath, "shellboard.db")
	}
	if Cfg.LogPath == "" {
		Cfg.LogPath = filepath.Join(Cfg.DataPath, "shellboard.log")
	}

	if Cfg.PolicyFile != "" {
		if err := applyPolicyFile(&Cfg, Cfg.PolicyFile); err != nil {
			log.Fatalf("failed to load policy file %s: %v", Cfg.PolicyFile, err)
		}
	}
}

// policyFile mirrors the overridable subset of Settings.
type policyFile struct {
	AllowedBaseDirs          []string `yaml:"allowed_base_dirs"`
	AllowedCommands          []string `yaml:"allowed_commands"`
	DefaultCommand           string   `yaml:"default_command"`
	MaxSessions              int      `yaml:"max_sessions"`
	MaxSubscribersPerSession int      `yaml:"max_subscribers_per_session"`
	SubscriberBuffer         int      `yaml:"subscriber_buffer"`
	ScrollbackLines          int      `yaml:"scrollback_lines"`
	PublishTimeout           string   `yaml:"publish_timeout"`
	StopGracePeriod          string   `yaml:"stop_grace_period"`
}

func applyPolicyFile(s *Settings, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var pf policyFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}

	if len(pf.AllowedBaseDirs) > 0 {
		s.AllowedBaseDirs = pf.AllowedBaseDirs
	}
	if len(pf.AllowedCommands) > 0 {
		s.AllowedCommands = pf.AllowedCommands
	}
	if pf.DefaultCommand != "" {
		s.DefaultCommand = pf.DefaultCommand
	}
	if pf.MaxSessions > 0 {
		s.MaxSessions = pf.MaxSessions
	}
	if pf.MaxSubscribersPerSession > 0 {
		s.MaxSubscribersPerSession = pf.MaxSubscribersPerSession
	}
	if pf.SubscriberBuffer > 0 {
		s.SubscriberBuffer = pf.SubscriberBuffer
	}
	if pf.ScrollbackLines > 0 {
		s.ScrollbackLines = pf.ScrollbackLines
	}
	if pf.PublishTimeout != "" {
		d, err := time.ParseDuration(pf.PublishTimeout)
		if err != nil {
			return fmt.Errorf("publish_timeout: %w", err)
		}
		s.PublishTimeout = d
	}
	if pf.StopGracePeriod != "" {
		d, err := time.ParseDuration(pf.StopGracePeriod)
		if err != nil {
			return fmt.Errorf("stop_grace_period: %w", err)
		}
		s.StopGracePeriod = d
	}
	return nil
}
