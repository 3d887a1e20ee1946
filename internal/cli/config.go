package cli

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/cadseer/cadseer/pkg/errors"
	"github.com/cadseer/cadseer/pkg/feature"
	"github.com/cadseer/cadseer/pkg/model"
	"github.com/cadseer/cadseer/pkg/stableid"
	"github.com/cadseer/cadseer/pkg/update"
)

// Sibling orders accepted by Config.Sort.
const (
	sortByName      = "name"
	sortByInsertion = "insertion"
)

// Config is the user configuration read from config.toml.
//
//	log_level = "debug"
//	detailed = true
//	seed = 42
//	sort = "insertion"
//	blocked_roles = ["Tool"]
type Config struct {
	// LogLevel is a charmbracelet/log level name. --verbose overrides it.
	LogLevel string `toml:"log_level"`

	// Detailed is the default for "dot --detailed".
	Detailed bool `toml:"detailed"`

	// Seed makes shape ids reproducible for models that set no seed.
	Seed int64 `toml:"seed"`

	// Sort orders features that become ready together: "name" or "insertion".
	Sort string `toml:"sort"`

	// BlockedRoles lists connection roles that do not spread dirtiness.
	BlockedRoles []string `toml:"blocked_roles"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{LogLevel: "info", Sort: sortByName}
}

// Validate checks the log level, sort order and roles.
func (c Config) Validate() error {
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return errors.New(errors.ErrCodeInvalidInput, "config: unknown log_level %q", c.LogLevel)
	}
	switch c.Sort {
	case sortByName, sortByInsertion:
	default:
		return errors.New(errors.ErrCodeInvalidInput, "config: sort must be %q or %q, got %q", sortByName, sortByInsertion, c.Sort)
	}
	for _, r := range c.BlockedRoles {
		if err := errors.ValidateTag(r); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "config: blocked_roles")
		}
	}
	return nil
}

// engineOptions turns the configuration into recompute options for m.
func (c Config) engineOptions(m *model.Model, logger *log.Logger) update.Options {
	opts := update.Options{
		SortSiblings: update.SortByName,
		Generator:    m.Generator(),
		Logger:       logger,
	}
	if c.Sort == sortByInsertion {
		opts.SortSiblings = update.SortByInsertion
	}
	if m.Seed == 0 && c.Seed != 0 {
		opts.Generator = stableid.NewSeeded(c.Seed)
	}
	if len(c.BlockedRoles) > 0 {
		roles := make([]feature.InputType, len(c.BlockedRoles))
		for i, r := range c.BlockedRoles {
			roles[i] = feature.InputType(r)
		}
		opts.Propagates = update.PropagateExcept(roles...)
	}
	return opts
}

// defaultConfigPath returns the config file path using the XDG standard
// (~/.config/cadseer/config.toml).
func defaultConfigPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// readConfig decodes the config file at path over the defaults. A missing
// file yields the defaults unless required is set.
func readConfig(path string, required bool) (Config, error) {
	cfg := DefaultConfig()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return DefaultConfig(), nil
		}
		if os.IsNotExist(err) {
			return cfg, errors.Wrap(errors.ErrCodeNotFound, err, "config %s", path)
		}
		return cfg, errors.Wrap(errors.ErrCodeInvalidInput, err, "config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return cfg, errors.New(errors.ErrCodeInvalidInput, "config %s: unknown key %q", path, undecoded[0].String())
	}
	return cfg, cfg.Validate()
}
