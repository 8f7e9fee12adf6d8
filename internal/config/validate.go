package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

var (
	// ErrEmptyEndpoint indicates missing embedding endpoint
	ErrEmptyEndpoint = errors.New("empty embedding endpoint")

	// ErrEmptyModel indicates missing embedding model
	ErrEmptyModel = errors.New("empty embedding model")

	// ErrInvalidDimensions indicates invalid embedding dimensions
	ErrInvalidDimensions = errors.New("invalid embedding dimensions")

	// ErrInvalidPattern indicates a glob pattern that does not compile
	ErrInvalidPattern = errors.New("invalid glob pattern")

	// ErrInvalidConventions indicates an unusable naming convention
	ErrInvalidConventions = errors.New("invalid conventions")

	// ErrInvalidBackend indicates an unsupported vector index backend
	ErrInvalidBackend = errors.New("invalid vector index backend")

	// ErrInvalidProvisioning indicates an unknown collection provisioning policy
	ErrInvalidProvisioning = errors.New("invalid provisioning policy")

	// ErrInvalidBatchSize indicates a non-positive upsert batch size
	ErrInvalidBatchSize = errors.New("invalid batch size")

	// ErrInvalidTimeout indicates a negative timeout
	ErrInvalidTimeout = errors.New("invalid timeout")

	// ErrInvalidTransport indicates an unsupported tools server transport
	ErrInvalidTransport = errors.New("invalid mcp transport")
)

// Validate checks that the configuration is valid and complete.
func Validate(cfg *Config) error {
	var errs []error

	if err := validateEmbedding(&cfg.Embedding); err != nil {
		errs = append(errs, err)
	}

	if err := validatePaths(&cfg.Paths); err != nil {
		errs = append(errs, err)
	}

	if err := validateConventions(&cfg.Conventions); err != nil {
		errs = append(errs, err)
	}

	if err := validateVectorIndex(&cfg.VectorIndex); err != nil {
		errs = append(errs, err)
	}

	if err := validateMCP(&cfg.MCP); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func validateEmbedding(cfg *EmbeddingConfig) error {
	var errs []error

	if strings.TrimSpace(cfg.Endpoint) == "" {
		errs = append(errs, fmt.Errorf("%w: endpoint is required", ErrEmptyEndpoint))
	}

	if strings.TrimSpace(cfg.Model) == "" {
		errs = append(errs, fmt.Errorf("%w: model is required", ErrEmptyModel))
	}

	if cfg.Dimensions <= 0 {
		errs = append(errs, fmt.Errorf("%w: dimensions must be positive, got %d", ErrInvalidDimensions, cfg.Dimensions))
	}

	if cfg.TimeoutSeconds < 0 {
		errs = append(errs, fmt.Errorf("%w: embedding timeout_seconds cannot be negative, got %d", ErrInvalidTimeout, cfg.TimeoutSeconds))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func validatePaths(cfg *PathsConfig) error {
	var errs []error

	groups := map[string][]string{
		"include":    cfg.Include,
		"ignore":     cfg.Ignore,
		"test_files": cfg.TestFiles,
	}
	for _, name := range []string{"include", "ignore", "test_files"} {
		for _, pattern := range groups[name] {
			if _, err := glob.Compile(pattern, '/'); err != nil {
				errs = append(errs, fmt.Errorf("%w: paths.%s %q: %v", ErrInvalidPattern, name, pattern, err))
			}
		}
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func validateConventions(cfg *ConventionsConfig) error {
	var errs []error

	if len(cfg.SelectorAttributes) == 0 {
		errs = append(errs, fmt.Errorf("%w: at least one selector attribute required", ErrInvalidConventions))
	}

	if cfg.EventPrefix == "" {
		errs = append(errs, fmt.Errorf("%w: event_prefix is required", ErrInvalidConventions))
	}

	if cfg.StateSetterPrefix == "" {
		errs = append(errs, fmt.Errorf("%w: state_setter_prefix is required", ErrInvalidConventions))
	}

	if len(cfg.TestCallees) == 0 {
		errs = append(errs, fmt.Errorf("%w: at least one test callee required", ErrInvalidConventions))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func validateVectorIndex(cfg *VectorIndexConfig) error {
	var errs []error

	switch cfg.Backend {
	case BackendQdrant:
		if strings.TrimSpace(cfg.Host) == "" {
			errs = append(errs, fmt.Errorf("%w: host is required for qdrant", ErrInvalidBackend))
		}
		if cfg.Port <= 0 || cfg.Port > 65535 {
			errs = append(errs, fmt.Errorf("%w: port must be in 1-65535, got %d", ErrInvalidBackend, cfg.Port))
		}
	case BackendChromem:
	default:
		errs = append(errs, fmt.Errorf("%w: must be 'qdrant' or 'chromem', got '%s'", ErrInvalidBackend, cfg.Backend))
	}

	if strings.TrimSpace(cfg.Collection) == "" {
		errs = append(errs, fmt.Errorf("%w: collection is required", ErrInvalidBackend))
	}

	if err := ValidateProvisioning(cfg.Provisioning); err != nil {
		errs = append(errs, err)
	}

	if cfg.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("%w: batch_size must be positive, got %d", ErrInvalidBatchSize, cfg.BatchSize))
	}

	if cfg.TimeoutSeconds < 0 {
		errs = append(errs, fmt.Errorf("%w: vector_index timeout_seconds cannot be negative, got %d", ErrInvalidTimeout, cfg.TimeoutSeconds))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

// ValidateProvisioning checks a provisioning policy name. Also used for the --provisioning flag.
func ValidateProvisioning(policy string) error {
	switch policy {
	case ProvisionCreateIfAbsent, ProvisionRecreate:
		return nil
	}
	return fmt.Errorf("%w: must be '%s' or '%s', got '%s'", ErrInvalidProvisioning, ProvisionCreateIfAbsent, ProvisionRecreate, policy)
}

func validateMCP(cfg *MCPConfig) error {
	var errs []error

	switch cfg.Transport {
	case TransportStdio:
	case TransportHTTP:
		if strings.TrimSpace(cfg.Address) == "" {
			errs = append(errs, fmt.Errorf("%w: address is required for http", ErrInvalidTransport))
		}
		if !strings.HasPrefix(cfg.EndpointPath, "/") {
			errs = append(errs, fmt.Errorf("%w: endpoint_path must start with '/', got '%s'", ErrInvalidTransport, cfg.EndpointPath))
		}
	default:
		errs = append(errs, fmt.Errorf("%w: must be 'stdio' or 'http', got '%s'", ErrInvalidTransport, cfg.Transport))
	}

	if cfg.ResultLimit <= 0 {
		errs = append(errs, fmt.Errorf("mcp result_limit must be positive, got %d", cfg.ResultLimit))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

// joinErrors combines multiple errors into a single error with clear formatting.
// Wrapped sentinels stay reachable through errors.Is.
func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}

	if len(errs) == 1 {
		return errs[0]
	}

	var msgs []string
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}

	return &multiError{
		msg:  fmt.Sprintf("validation failed:\n  - %s", strings.Join(msgs, "\n  - ")),
		errs: errs,
	}
}

type multiError struct {
	msg  string
	errs []error
}

func (e *multiError) Error() string { return e.msg }

func (e *multiError) Unwrap() []error { return e.errs }
