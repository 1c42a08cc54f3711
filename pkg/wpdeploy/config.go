package wpdeploy

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
	yaml "gopkg.in/yaml.v2"
)

// ConfigName is the file looked up in the working directory, and as a
// dotfile in the home directory.
const ConfigName = "wpdeploy.json"

const (
	defaultDumpDir          = "data"
	defaultDBHost           = "localhost"
	defaultTablePrefix      = "wp_"
	defaultCoreRepository   = "https://core.svn.wordpress.org"
	defaultPluginRepository = "https://plugins.svn.wordpress.org"
)

// Environment is a named deployment target
type Environment struct {
	Name          string   `mapstructure:"name" yaml:"name"`
	ServerName    string   `mapstructure:"server_name" yaml:"server_name"`
	ServerAliases []string `mapstructure:"server_aliases" yaml:"server_aliases,omitempty"`
	DBHost        string   `mapstructure:"db_host" yaml:"db_host"`
	DBName        string   `mapstructure:"db_name" yaml:"db_name"`
	DBUser        string   `mapstructure:"db_user" yaml:"db_user"`
	DBPassword    string   `mapstructure:"db_password" yaml:"db_password,omitempty"`
	ForceRequired bool     `mapstructure:"force_required" yaml:"force_required"`
}

// Hosts returns the primary server name followed by its aliases
func (e Environment) Hosts() []string {
	return append([]string{e.ServerName}, e.ServerAliases...)
}

// WordPress pins the core release and the repositories externals point at
type WordPress struct {
	Version          string `mapstructure:"version"`
	Repository       string `mapstructure:"repository"`
	PluginRepository string `mapstructure:"plugin_repository"`
}

// Hooks are operator commands run with a dump path as their last argument
type Hooks struct {
	PostDump string `mapstructure:"post_dump"`
	PreLoad  string `mapstructure:"pre_load"`
}

// Config is the static project configuration. It is read once and not
// modified afterwards.
type Config struct {
	DefaultEnvironment string                 `mapstructure:"default_environment"`
	DumpDir            string                 `mapstructure:"dump_dir"`
	TablePrefix        string                 `mapstructure:"table_prefix"`
	WordPress          WordPress              `mapstructure:"wordpress"`
	Plugins            map[string]string      `mapstructure:"plugins"`
	Hooks              Hooks                  `mapstructure:"hooks"`
	Environments       map[string]Environment `mapstructure:"environments"`
}

// FindConfig returns explicit when set, otherwise wpdeploy.json in the
// working directory, otherwise ~/.wpdeploy.json.
func FindConfig(fs afero.Fs, explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if _, err := fs.Stat(ConfigName); err == nil {
		return ConfigName, nil
	}

	home, err := homedir.Dir()
	if err != nil {
		return "", errors.Wrap(err, "finding home directory")
	}
	path := filepath.Join(home, "."+ConfigName)
	if _, err := fs.Stat(path); err != nil {
		return "", errors.Wrapf(ErrInvalidConfiguration, "no %s in the working directory and no %s", ConfigName, path)
	}
	return path, nil
}

// LoadConfig reads and validates the configuration file at path. Top-level
// scalar keys can be overridden with WPDEPLOY_* environment variables.
func LoadConfig(fs afero.Fs, path string) (*Config, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading config %s", path)
	}
	typ := configType(path)
	if err := checkEnvironmentNames(data, typ); err != nil {
		return nil, errors.Wrap(err, path)
	}

	v := viper.New()
	v.SetConfigType(typ)
	v.SetEnvPrefix("wpdeploy")
	v.AutomaticEnv()
	v.SetDefault("dump_dir", defaultDumpDir)
	v.SetDefault("table_prefix", defaultTablePrefix)

	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, errors.Wrapf(ErrInvalidConfiguration, "parsing %s: %v", path, err)
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, errors.Wrapf(ErrInvalidConfiguration, "decoding %s: %v", path, err)
	}
	config.DefaultEnvironment = strings.ToLower(v.GetString("default_environment"))
	config.DumpDir = v.GetString("dump_dir")
	config.TablePrefix = v.GetString("table_prefix")
	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, path)
	}
	return config, nil
}

func configType(path string) string {
	switch ext := strings.TrimPrefix(filepath.Ext(path), "."); ext {
	case "yaml", "yml":
		return ext
	default:
		return "json"
	}
}

// checkEnvironmentNames rejects environment names viper would split into
// nested keys.
func checkEnvironmentNames(data []byte, typ string) error {
	var raw struct {
		Environments map[string]interface{} `json:"environments" yaml:"environments"`
	}
	var err error
	if typ == "json" {
		err = json.Unmarshal(data, &raw)
	} else {
		err = yaml.Unmarshal(data, &raw)
	}
	if err != nil {
		return errors.Wrapf(ErrInvalidConfiguration, "parsing: %v", err)
	}

	for name := range raw.Environments {
		if strings.Contains(name, ".") {
			return errors.Wrapf(ErrInvalidConfiguration, "environment %q: names must not contain \".\"", name)
		}
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.WordPress.Repository == "" {
		c.WordPress.Repository = defaultCoreRepository
	}
	if c.WordPress.PluginRepository == "" {
		c.WordPress.PluginRepository = defaultPluginRepository
	}

	environments := make(map[string]Environment, len(c.Environments))
	for name, env := range c.Environments {
		name = strings.ToLower(name)
		env.Name = name
		if env.DBHost == "" {
			env.DBHost = defaultDBHost
		}
		environments[name] = env
	}
	c.Environments = environments
}

// Validate checks that every environment can take part in a migration
func (c *Config) Validate() error {
	if len(c.Environments) == 0 {
		return errors.Wrap(ErrInvalidConfiguration, "no environments defined")
	}
	for _, name := range c.Names() {
		env := c.Environments[name]
		if env.ServerName == "" {
			return errors.Wrapf(ErrInvalidConfiguration, "environment %q has no server_name", name)
		}
		for _, alias := range env.ServerAliases {
			if alias == "" {
				return errors.Wrapf(ErrInvalidConfiguration, "environment %q has an empty server alias", name)
			}
		}
	}
	if c.DefaultEnvironment != "" {
		if _, ok := c.Environments[c.DefaultEnvironment]; !ok {
			return errors.Wrapf(ErrInvalidConfiguration, "default_environment %q is not defined", c.DefaultEnvironment)
		}
	}
	if c.DumpDir == "" {
		return errors.Wrap(ErrInvalidConfiguration, "dump_dir is empty")
	}
	return nil
}

// Names returns the environment names in sorted order
func (c *Config) Names() []string {
	names := make([]string, 0, len(c.Environments))
	for name := range c.Environments {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Environment resolves name, falling back to the default environment when
// name is empty.
func (c *Config) Environment(name string) (Environment, error) {
	if name == "" {
		if c.DefaultEnvironment == "" {
			return Environment{}, errors.Wrap(ErrUnknownEnvironment, "no environment given and no default_environment configured")
		}
		name = c.DefaultEnvironment
	}

	env, ok := c.Environments[strings.ToLower(name)]
	if !ok {
		return Environment{}, errors.Wrapf(ErrUnknownEnvironment, "%q (known: %s)", name, strings.Join(c.Names(), ", "))
	}
	return env, nil
}

// PluginVersions merges pinned plugins from the config with name[@version]
// overrides. A plugin without a version tracks trunk.
func (c *Config) PluginVersions(overrides []string) map[string]string {
	plugins := make(map[string]string, len(c.Plugins)+len(overrides))
	for name, version := range c.Plugins {
		plugins[name] = version
	}
	for _, plugin := range overrides {
		name, version := Cut(plugin, "@")
		if name == "" {
			continue
		}
		plugins[name] = version
	}
	return plugins
}

// WriteSampleConfig writes a starter configuration to path unless a file is
// already there.
func WriteSampleConfig(fs afero.Fs, path string) (bool, error) {
	if _, err := fs.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, err
	}
	if err := fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, err
	}
	return true, afero.WriteFile(fs, path, []byte(sampleConfig), 0644)
}

const sampleConfig = `{
	"default_environment": "development",
	"dump_dir": "data",
	"wordpress": {
		"version": "trunk"
	},
	"plugins": {},
	"hooks": {
		"post_dump": "",
		"pre_load": ""
	},
	"environments": {
		"development": {
			"server_name": "localhost",
			"server_aliases": [],
			"db_host": "localhost",
			"db_name": "wordpress",
			"db_user": "root",
			"db_password": ""
		},
		"production": {
			"server_name": "example.com",
			"server_aliases": ["www.example.com"],
			"db_host": "localhost",
			"db_name": "wordpress",
			"db_user": "wordpress",
			"db_password": "",
			"force_required": true
		}
	}
}
`
