package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from file and environment variables.
	// Priority: defaults → config file → environment variables (env wins)
	Load() (*Config, error)
}

type loader struct {
	rootDir string
}

// NewLoader creates a new configuration loader for the given root directory.
func NewLoader(rootDir string) Loader {
	return &loader{
		rootDir: rootDir,
	}
}

// envKeys are the scalar keys that can be overridden with CHUNKLINK_* variables.
var envKeys = []string{
	"embedding.endpoint",
	"embedding.model",
	"embedding.dimensions",
	"embedding.timeout_seconds",
	"conventions.event_prefix",
	"conventions.state_setter_prefix",
	"vector_index.backend",
	"vector_index.host",
	"vector_index.port",
	"vector_index.use_tls",
	"vector_index.api_key",
	"vector_index.timeout_seconds",
	"vector_index.collection",
	"vector_index.provisioning",
	"vector_index.batch_size",
	"vector_index.path",
	"output.dir",
	"mcp.transport",
	"mcp.address",
	"mcp.endpoint_path",
	"mcp.result_limit",
}

// Load loads configuration with the following priority (highest to lowest):
// 1. Environment variables (CHUNKLINK_*)
// 2. Config file (.chunklink/config.yml or .chunklink/config.yaml)
// 3. Default values
func (l *loader) Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(filepath.Join(l.rootDir, DirName))

	v.SetEnvPrefix("CHUNKLINK")
	v.AutomaticEnv()
	// CHUNKLINK_VECTOR_INDEX_URL -> vector_index.url
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setDefaults configures viper with default values.
func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("embedding.endpoint", d.Embedding.Endpoint)
	v.SetDefault("embedding.model", d.Embedding.Model)
	v.SetDefault("embedding.dimensions", d.Embedding.Dimensions)
	v.SetDefault("embedding.timeout_seconds", d.Embedding.TimeoutSeconds)

	v.SetDefault("paths.include", d.Paths.Include)
	v.SetDefault("paths.ignore", d.Paths.Ignore)
	v.SetDefault("paths.test_files", d.Paths.TestFiles)

	v.SetDefault("conventions.selector_attributes", d.Conventions.SelectorAttributes)
	v.SetDefault("conventions.event_prefix", d.Conventions.EventPrefix)
	v.SetDefault("conventions.state_setter_prefix", d.Conventions.StateSetterPrefix)
	v.SetDefault("conventions.test_callees", d.Conventions.TestCallees)

	v.SetDefault("vector_index.backend", d.VectorIndex.Backend)
	v.SetDefault("vector_index.host", d.VectorIndex.Host)
	v.SetDefault("vector_index.port", d.VectorIndex.Port)
	v.SetDefault("vector_index.use_tls", d.VectorIndex.UseTLS)
	v.SetDefault("vector_index.api_key", d.VectorIndex.APIKey)
	v.SetDefault("vector_index.timeout_seconds", d.VectorIndex.TimeoutSeconds)
	v.SetDefault("vector_index.collection", d.VectorIndex.Collection)
	v.SetDefault("vector_index.provisioning", d.VectorIndex.Provisioning)
	v.SetDefault("vector_index.batch_size", d.VectorIndex.BatchSize)
	v.SetDefault("vector_index.path", d.VectorIndex.Path)

	v.SetDefault("output.dir", d.Output.Dir)

	v.SetDefault("mcp.transport", d.MCP.Transport)
	v.SetDefault("mcp.address", d.MCP.Address)
	v.SetDefault("mcp.endpoint_path", d.MCP.EndpointPath)
	v.SetDefault("mcp.list_extensions", d.MCP.ListExtensions)
	v.SetDefault("mcp.result_limit", d.MCP.ResultLimit)
}

// LoadConfig is a convenience function that creates a loader and loads config.
// It uses the current working directory as the root.
func LoadConfig() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	return NewLoader(wd).Load()
}

// LoadConfigFromDir loads configuration from a specific directory.
func LoadConfigFromDir(rootDir string) (*Config, error) {
	return NewLoader(rootDir).Load()
}
