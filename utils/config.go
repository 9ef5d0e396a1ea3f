package utils

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

// Column is one binding descriptor as it appears in the config file.
type Column struct {
	TypeOfBinding int    `yaml:"type_of_binding"`
	Path          string `yaml:"path"`
	Format        string `yaml:"format"`
	Parse         string `yaml:"parse"`
}

// Config The configuration of the server
type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	Sqlite struct {
		Filename string `yaml:"filename"`
	} `yaml:"sqlite"`

	Session struct {
		Version         int           `yaml:"version"`
		StorageSlot     string        `yaml:"storage_slot"`
		IdleTimeout     time.Duration `yaml:"idle_timeout"`
		CleanupInterval time.Duration `yaml:"cleanup_interval"`
		Modules         []string      `yaml:"modules"`
	} `yaml:"session"`

	Auth struct {
		Secret string `yaml:"secret"`
	} `yaml:"auth"`

	Annotations struct {
		Columns []Column `yaml:"columns"`
	} `yaml:"annotations"`
}

// DefaultColumns The annotation table: name, project, access, owner, type, labels and modified.
var DefaultColumns = []Column{
	{TypeOfBinding: 2, Path: "atlas.#.name", Format: "text", Parse: "text"},
	{TypeOfBinding: 2, Path: "atlas.#.project", Format: "text", Parse: "text"},
	{TypeOfBinding: 2, Path: "atlas.#.access", Format: "text", Parse: "access"},
	{TypeOfBinding: 1, Path: "atlas.#.owner", Format: "text"},
	{TypeOfBinding: 1, Path: "atlas.#.type", Format: "text"},
	{TypeOfBinding: 2, Path: "atlas.#.labels", Format: "text", Parse: "text"},
	{TypeOfBinding: 1, Path: "atlas.#.modified", Format: "date"},
}

// applyDefaults Fill in everything the config file left empty
func (config *Config) applyDefaults() {
	if config.Server.Port == "" {
		config.Server.Port = "8080"
	}
	if config.Sqlite.Filename == "" {
		config.Sqlite.Filename = "brainbox.sqlite"
	}
	if config.Session.Version == 0 {
		config.Session.Version = 1
	}
	if config.Session.StorageSlot == "" {
		config.Session.StorageSlot = "AtlasMaker"
	}
	if config.Session.IdleTimeout == 0 {
		config.Session.IdleTimeout = 30 * time.Minute
	}
	if config.Session.CleanupInterval == 0 {
		config.Session.CleanupInterval = time.Minute
	}
	if len(config.Session.Modules) == 0 {
		config.Session.Modules = []string{"view", "io"}
	}
	if len(config.Annotations.Columns) == 0 {
		config.Annotations.Columns = DefaultColumns
	}
}

// ParseConfig Parse a YAML document into a Config with defaults applied
func ParseConfig(data []byte) (*Config, error) {
	config := &Config{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	config.applyDefaults()

	for i, column := range config.Annotations.Columns {
		if column.TypeOfBinding != 1 && column.TypeOfBinding != 2 {
			return nil, fmt.Errorf("annotation column %d: unknown type_of_binding %d", i, column.TypeOfBinding)
		}
		if column.Path == "" {
			return nil, fmt.Errorf("annotation column %d: empty path", i)
		}
	}
	return config, nil
}

// NewConfig Create a new config from the YAML file at configPath
func NewConfig(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	log.Info(fmt.Sprintf("Reading configuration from %s", configPath))
	return ParseConfig(data)
}

// ValidateConfigPath Make sure the path exists and is a regular file
func ValidateConfigPath(path string) error {
	s, err := os.Stat(path)
	if err != nil {
		return err
	}
	if s.IsDir() {
		return fmt.Errorf("'%s' is a directory, not a normal file", path)
	}
	return nil
}

// ParseFlags Parse the command line flags and return the config path and debug mode
func ParseFlags() (string, bool, error) {
	var configPath string
	var debugMode bool

	flag.StringVar(&configPath, "config", "./config.yml", "path to config file")
	flag.BoolVar(&debugMode, "debug", false, "enable debug mode")
	flag.Parse()

	if configPath == "" {
		return "", false, errors.New("no config path given")
	}
	if err := ValidateConfigPath(configPath); err != nil {
		return "", false, err
	}
	return configPath, debugMode, nil
}
