package core

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/jo-hoe/gosketch/internal/backend/commandstructure"
	"github.com/jo-hoe/gosketch/internal/core/resultstore"
	"github.com/jo-hoe/gosketch/internal/sketch"
	"gopkg.in/yaml.v3"
)

const (
	defaultPort             = 8080
	defaultLogLevel         = "info"
	defaultMaxUploadBytes   = 20 << 20
	defaultPreviewWidth     = 480
	defaultMaxInputPixels   = 40_000_000
	defaultDownloadFilename = "pencil_sketch.png"
	defaultResultTTL        = 15 * time.Minute
	defaultMaxEntries       = 64
)

// ModesConfig lists the command pipeline each sketch mode runs after the
// upload was normalised to PNG.
type ModesConfig struct {
	Pencil     []commandstructure.CommandConfig `yaml:"pencil"`
	BlackWhite []commandstructure.CommandConfig `yaml:"blackwhite"`
}

type ServiceConfig struct {
	Port             int    `yaml:"port"`
	LogLevel         string `yaml:"logLevel"`
	MaxUploadBytes   int64  `yaml:"maxUploadBytes"`
	PreviewWidth     int    `yaml:"previewWidth"`
	DownloadFilename string `yaml:"downloadFilename"`
	// MaxInputPixels rejects uploads whose header declares more pixels, before
	// they are decoded.
	MaxInputPixels int64 `yaml:"maxInputPixels"`
	// MaxInputDimension caps the longest side before filtering; 0 disables it.
	// The sketch then has the capped size, not the upload's.
	MaxInputDimension int                `yaml:"maxInputDimension"`
	ResultStore       resultstore.Config `yaml:"resultStore"`
	Modes             ModesConfig        `yaml:"modes"`
}

// DefaultConfig returns a configuration that works without a config file.
func DefaultConfig() *ServiceConfig {
	config := &ServiceConfig{}
	config.applyDefaults()
	return config
}

// LoadConfig loads configuration from the specified YAML file
func LoadConfig(configPath string) (*ServiceConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	config, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
	}
	return config, nil
}

// ParseConfig parses YAML, fills in defaults and validates the result.
func ParseConfig(data []byte) (*ServiceConfig, error) {
	var config ServiceConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *ServiceConfig) applyDefaults() {
	if c.Port == 0 {
		c.Port = defaultPort
	}
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
	if c.MaxUploadBytes == 0 {
		c.MaxUploadBytes = defaultMaxUploadBytes
	}
	if c.PreviewWidth == 0 {
		c.PreviewWidth = defaultPreviewWidth
	}
	if c.MaxInputPixels == 0 {
		c.MaxInputPixels = defaultMaxInputPixels
	}
	if c.DownloadFilename == "" {
		c.DownloadFilename = defaultDownloadFilename
	}
	if c.ResultStore.Type == "" {
		c.ResultStore.Type = resultstore.TypeMemory
	}
	if c.ResultStore.TTL == 0 {
		c.ResultStore.TTL = defaultResultTTL
	}
	if c.ResultStore.MaxEntries == 0 {
		c.ResultStore.MaxEntries = defaultMaxEntries
	}
	if len(c.Modes.Pencil) == 0 {
		c.Modes.Pencil = []commandstructure.CommandConfig{{Name: "PencilSketchCommand", Params: map[string]any{}}}
	}
	if len(c.Modes.BlackWhite) == 0 {
		c.Modes.BlackWhite = []commandstructure.CommandConfig{{Name: "BlackWhiteSketchCommand", Params: map[string]any{}}}
	}
}

// Validate checks a configuration that already had its defaults applied.
func (c *ServiceConfig) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	if _, err := parseLogLevel(c.LogLevel); err != nil {
		return err
	}
	if c.MaxUploadBytes < 0 {
		return fmt.Errorf("maxUploadBytes must not be negative, got %d", c.MaxUploadBytes)
	}
	if c.PreviewWidth < 0 {
		return fmt.Errorf("previewWidth must not be negative, got %d", c.PreviewWidth)
	}
	if c.MaxInputPixels < 0 {
		return fmt.Errorf("maxInputPixels must not be negative, got %d", c.MaxInputPixels)
	}
	if c.MaxInputDimension < 0 {
		return fmt.Errorf("maxInputDimension must not be negative, got %d", c.MaxInputDimension)
	}
	if c.ResultStore.TTL < 0 {
		return fmt.Errorf("resultStore.ttl must not be negative, got %s", c.ResultStore.TTL)
	}
	if strings.ContainsAny(c.DownloadFilename, `/\"`) {
		return fmt.Errorf("downloadFilename must be a plain file name, got %q", c.DownloadFilename)
	}

	for _, mode := range sketch.Modes() {
		commands, err := c.CommandsFor(mode)
		if err != nil {
			return err
		}
		if err := validateCommands(commands); err != nil {
			return fmt.Errorf("invalid command configuration for mode %s: %w", mode, err)
		}
	}
	return nil
}

// CommandsFor returns the configured pipeline of a mode.
func (c *ServiceConfig) CommandsFor(mode sketch.Mode) ([]commandstructure.CommandConfig, error) {
	switch mode {
	case sketch.ModePencil:
		return c.Modes.Pencil, nil
	case sketch.ModeBlackAndWhite:
		return c.Modes.BlackWhite, nil
	default:
		return nil, fmt.Errorf("%w: %d", sketch.ErrUnknownMode, int(mode))
	}
}

// SlogLevel returns the configured log level, falling back to info.
func (c *ServiceConfig) SlogLevel() slog.Level {
	level, err := parseLogLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

func parseLogLevel(value string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(value)); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", value)
	}
	return level, nil
}

// validateCommands ensures all command configurations have required fields
func validateCommands(commands []commandstructure.CommandConfig) error {
	seenNames := make(map[string]bool)

	for i, cmd := range commands {
		if cmd.Name == "" {
			return fmt.Errorf("command at index %d has empty name", i)
		}
		if seenNames[cmd.Name] {
			return fmt.Errorf("duplicate command name: %s", cmd.Name)
		}
		seenNames[cmd.Name] = true

		if !commandstructure.DefaultRegistry.IsRegistered(cmd.Name) {
			return fmt.Errorf("command %q is not registered (available: %s)",
				cmd.Name, strings.Join(commandstructure.DefaultRegistry.GetRegisteredNames(), ", "))
		}
	}

	return nil
}
