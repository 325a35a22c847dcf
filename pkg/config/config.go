// Package config loads ramtools.yaml: host PC and transfer destinations,
// the data root, and named experiment designs.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/japaniel/ramtools/pkg/listgen"
	"github.com/japaniel/ramtools/pkg/wordpool"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultFileName is looked up in the working directory when no path is given.
	DefaultFileName = "ramtools.yaml"
	// EnvConfigPath overrides the default config location.
	EnvConfigPath = "RAMTOOLS_CONFIG"

	defaultDatabase       = "ramtools.db"
	defaultEEGLifetime    = 30
	defaultUploadWorkers  = 2
	defaultTransport      = "rsync"
	defaultHostDataDir    = "/data/eeg"
	defaultTransferredDir = "/data/transferred"
)

const defaultConfigYAML = `# ramtools configuration
version: 1

# Root of the experiment data tree (<dataroot>/<experiment>/<subject>/session_N).
# Leave empty to use <git worktree root>/data.
dataroot: ""

database: ramtools.db

# Host PC that records EEG during a session.
host_pc:
  host: host-pc.local
  user: ram
  data_dir: /data/eeg

# Where transferred data lands and how long local copies of EEG are kept.
transferred:
  host: rhino.example.org
  user: ram
  path: /data/transferred
  eeg_lifetime_days: 30

upload:
  transport: rsync   # rsync or scp
  workers: 2

# Extra or overriding experiment list layouts.
designs: {}
#  TICL_FR:
#    words_per_list: 12
#    num_lists: 25
#    language: EN
#    counts: {baseline: 3, nonstim: 11, stim: 11, ps: 0}
`

// HostPC describes the machine running the task.
type HostPC struct {
	Host    string `yaml:"host"`
	User    string `yaml:"user,omitempty"`
	DataDir string `yaml:"data_dir"`
}

// Transferred describes the remote archive.
type Transferred struct {
	Host            string `yaml:"host"`
	User            string `yaml:"user,omitempty"`
	Path            string `yaml:"path"`
	EEGLifetimeDays int    `yaml:"eeg_lifetime_days"`
}

// Upload tunes transfers.
type Upload struct {
	Transport string `yaml:"transport"`
	Workers   int    `yaml:"workers"`
}

// Config models ramtools.yaml.
type Config struct {
	Version     int                       `yaml:"version"`
	DataRoot    string                    `yaml:"dataroot"`
	Database    string                    `yaml:"database"`
	HostPC      HostPC                    `yaml:"host_pc"`
	Transferred Transferred               `yaml:"transferred"`
	Upload      Upload                    `yaml:"upload"`
	Designs     map[string]listgen.Design `yaml:"designs"`

	// Path is where the config was read from; empty when defaults are used.
	Path string `yaml:"-"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// ResolvePath picks the config path: explicit flag, then $RAMTOOLS_CONFIG,
// then ./ramtools.yaml.
func ResolvePath(flagValue string) string {
	if p := strings.TrimSpace(flagValue); p != "" {
		return p
	}
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p
	}
	return DefaultFileName
}

// Load reads path. A missing file yields Default().
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	parsed.applyDefaults()
	parsed.normalize(filepath.Dir(path))
	if err := parsed.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	parsed.Path = path
	return &parsed, nil
}

// Save writes c to path.
func (c *Config) Save(path string) error {
	if c == nil {
		return fmt.Errorf("config: nil receiver")
	}
	c.applyDefaults()
	if err := c.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: ensure dir: %w", err)
		}
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	c.Path = path
	return nil
}

// WriteDefault scaffolds a commented config at path unless one exists.
// It reports whether a file was written.
func WriteDefault(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, err
	}
	if err := os.WriteFile(path, []byte(defaultConfigYAML), 0o644); err != nil {
		return false, fmt.Errorf("config: write %s: %w", path, err)
	}
	return true, nil
}

// Design finds a named experiment design in the config or the built-ins.
func (c *Config) Design(name string) (listgen.Design, bool) {
	return listgen.LookupDesign(name, c.Designs)
}

// HostPCRemote renders the host PC data dir as an rsync/scp remote path.
func (c *Config) HostPCRemote() string {
	return remote(c.HostPC.User, c.HostPC.Host, c.HostPC.DataDir)
}

// TransferredRemote renders the archive as an rsync/scp remote path.
func (c *Config) TransferredRemote() string {
	return remote(c.Transferred.User, c.Transferred.Host, c.Transferred.Path)
}

func remote(user, host, path string) string {
	if host == "" {
		return path
	}
	if user != "" {
		host = user + "@" + host
	}
	return host + ":" + path
}

func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}
	if c.Database == "" {
		c.Database = defaultDatabase
	}
	if c.HostPC.DataDir == "" {
		c.HostPC.DataDir = defaultHostDataDir
	}
	if c.Transferred.Path == "" {
		c.Transferred.Path = defaultTransferredDir
	}
	if c.Transferred.EEGLifetimeDays == 0 {
		c.Transferred.EEGLifetimeDays = defaultEEGLifetime
	}
	if c.Upload.Transport == "" {
		c.Upload.Transport = defaultTransport
	}
	if c.Upload.Workers == 0 {
		c.Upload.Workers = defaultUploadWorkers
	}
	if c.Designs == nil {
		c.Designs = map[string]listgen.Design{}
	}
}

func (c *Config) normalize(base string) {
	c.DataRoot = resolvePath(base, c.DataRoot)
	c.Database = resolvePath(base, c.Database)
	c.HostPC.Host = strings.TrimSpace(c.HostPC.Host)
	c.Transferred.Host = strings.TrimSpace(c.Transferred.Host)
	c.Upload.Transport = strings.ToLower(strings.TrimSpace(c.Upload.Transport))
	for name, d := range c.Designs {
		d.Language = wordpool.Language(strings.ToUpper(strings.TrimSpace(string(d.Language))))
		if d.Language == "" {
			d.Language = wordpool.EN
		}
		c.Designs[name] = d
	}
}

func (c *Config) validate() error {
	if c.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	switch c.Upload.Transport {
	case "rsync", "scp":
	default:
		return fmt.Errorf("upload.transport must be 'rsync' or 'scp'")
	}
	if c.Upload.Workers < 1 {
		return fmt.Errorf("upload.workers must be >= 1")
	}
	if c.Transferred.EEGLifetimeDays < 0 {
		return fmt.Errorf("transferred.eeg_lifetime_days must be >= 0")
	}
	for name, d := range c.Designs {
		if err := d.Validate(); err != nil {
			return fmt.Errorf("designs[%s]: %w", name, err)
		}
	}
	return nil
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" || trimmed == ":memory:" {
		return trimmed
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, trimmed))
}
