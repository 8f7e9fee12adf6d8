package config

import "path/filepath"

// DirName is the per-project directory holding config.yml and generated artifacts.
const DirName = ".chunklink"

// Config represents the complete chunklink configuration.
// It can be loaded from .chunklink/config.yml with environment variable overrides.
type Config struct {
	Embedding   EmbeddingConfig   `yaml:"embedding" mapstructure:"embedding"`
	Paths       PathsConfig       `yaml:"paths" mapstructure:"paths"`
	Conventions ConventionsConfig `yaml:"conventions" mapstructure:"conventions"`
	VectorIndex VectorIndexConfig `yaml:"vector_index" mapstructure:"vector_index"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
	MCP         MCPConfig         `yaml:"mcp" mapstructure:"mcp"`
}

// EmbeddingConfig configures the HTTP embedding service.
type EmbeddingConfig struct {
	Endpoint       string `yaml:"endpoint" mapstructure:"endpoint"`               // POST {"texts": [...]}
	Model          string `yaml:"model" mapstructure:"model"`                     // recorded in chunk metadata
	Dimensions     int    `yaml:"dimensions" mapstructure:"dimensions"`           // expected vector length
	TimeoutSeconds int    `yaml:"timeout_seconds" mapstructure:"timeout_seconds"` // 0 disables the client timeout
}

// PathsConfig defines which files are analyzed.
type PathsConfig struct {
	Include   []string `yaml:"include" mapstructure:"include"`       // glob patterns for source files
	Ignore    []string `yaml:"ignore" mapstructure:"ignore"`         // glob patterns to skip
	TestFiles []string `yaml:"test_files" mapstructure:"test_files"` // glob patterns identifying test files
}

// ConventionsConfig holds the naming heuristics used to correlate markup, handlers and tests.
type ConventionsConfig struct {
	SelectorAttributes []string `yaml:"selector_attributes" mapstructure:"selector_attributes"`
	EventPrefix        string   `yaml:"event_prefix" mapstructure:"event_prefix"`
	StateSetterPrefix  string   `yaml:"state_setter_prefix" mapstructure:"state_setter_prefix"`
	TestCallees        []string `yaml:"test_callees" mapstructure:"test_callees"`
}

// VectorIndexConfig configures where embedded chunks are stored.
type VectorIndexConfig struct {
	Backend        string `yaml:"backend" mapstructure:"backend"`                 // "qdrant" or "chromem"
	Host           string `yaml:"host" mapstructure:"host"`                       // qdrant gRPC host
	Port           int    `yaml:"port" mapstructure:"port"`                       // qdrant gRPC port
	UseTLS         bool   `yaml:"use_tls" mapstructure:"use_tls"`                 // dial qdrant over TLS
	APIKey         string `yaml:"api_key" mapstructure:"api_key"`                 // optional qdrant api key
	TimeoutSeconds int    `yaml:"timeout_seconds" mapstructure:"timeout_seconds"` // per qdrant call; 0 means no timeout
	Collection     string `yaml:"collection" mapstructure:"collection"`           // collection name
	Provisioning   string `yaml:"provisioning" mapstructure:"provisioning"`       // "create_if_absent" or "recreate"
	BatchSize      int    `yaml:"batch_size" mapstructure:"batch_size"`           // points per upsert request
	Path           string `yaml:"path" mapstructure:"path"`                       // chromem persistence dir; empty = <output.dir>/vectors
}

// OutputConfig defines where artifacts are written.
type OutputConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"` // relative to the project root unless absolute
}

// MCPConfig configures the retrieval tools server.
type MCPConfig struct {
	Transport      string   `yaml:"transport" mapstructure:"transport"` // "stdio" or "http"
	Address        string   `yaml:"address" mapstructure:"address"`
	EndpointPath   string   `yaml:"endpoint_path" mapstructure:"endpoint_path"`
	ListExtensions []string `yaml:"list_extensions" mapstructure:"list_extensions"`
	ResultLimit    int      `yaml:"result_limit" mapstructure:"result_limit"`
}

// Provisioning policies.
const (
	ProvisionCreateIfAbsent = "create_if_absent"
	ProvisionRecreate       = "recreate"
)

// Vector index backends.
const (
	BackendQdrant  = "qdrant"
	BackendChromem = "chromem"
)

// Tools server transports.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Embedding: EmbeddingConfig{
			Endpoint:       "http://127.0.0.1:8000/embed",
			Model:          "BAAI/bge-large-en",
			Dimensions:     1024,
			TimeoutSeconds: 0,
		},
		Paths: PathsConfig{
			Include: []string{
				"**/*.ts",
				"**/*.tsx",
				"**/*.js",
				"**/*.jsx",
			},
			Ignore: []string{
				"node_modules/**",
				"**/node_modules/**",
				"dist/**",
				"**/dist/**",
				"build/**",
				"**/build/**",
				"out/**",
				"**/out/**",
				"coverage/**",
				"**/coverage/**",
				"playwright-report/**",
				"**/playwright-report/**",
				"test-results/**",
				"**/test-results/**",
				".next/**",
				"**/.next/**",
				".git/**",
				"**/.git/**",
			},
			TestFiles: []string{
				"**/*.spec.*",
				"**/*.test.*",
				"tests/**",
				"**/tests/**",
				"__tests__/**",
				"**/__tests__/**",
				"e2e/**",
				"**/e2e/**",
			},
		},
		Conventions: ConventionsConfig{
			SelectorAttributes: []string{"data-testid", "id"},
			EventPrefix:        "on",
			StateSetterPrefix:  "set",
			TestCallees:        []string{"test", "it"},
		},
		VectorIndex: VectorIndexConfig{
			Backend:      BackendQdrant,
			Host:         "localhost",
			Port:         6334,
			Collection:   "code_chunks",
			Provisioning: ProvisionCreateIfAbsent,
			BatchSize:    500,
		},
		Output: OutputConfig{
			Dir: DirName,
		},
		MCP: MCPConfig{
			Transport:      TransportStdio,
			Address:        ":5000",
			EndpointPath:   "/mcp",
			ListExtensions: []string{".tsx", ".ts", ".html", ".css"},
			ResultLimit:    5,
		},
	}
}

// OutputDir resolves the artifact directory against the project root.
func (c *Config) OutputDir(rootDir string) string {
	if filepath.IsAbs(c.Output.Dir) {
		return c.Output.Dir
	}
	return filepath.Join(rootDir, c.Output.Dir)
}

// ChunksPath is the location of the chunk file for a project.
func (c *Config) ChunksPath(rootDir string) string {
	return filepath.Join(c.OutputDir(rootDir), "chunks.json")
}

// VectorPath is the chromem persistence directory for a project.
func (c *Config) VectorPath(rootDir string) string {
	if c.VectorIndex.Path == "" {
		return filepath.Join(c.OutputDir(rootDir), "vectors")
	}
	if filepath.IsAbs(c.VectorIndex.Path) {
		return c.VectorIndex.Path
	}
	return filepath.Join(rootDir, c.VectorIndex.Path)
}
