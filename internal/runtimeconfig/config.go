package runtimeconfig

import (
	"errors"
	"strings"
)

// ErrMaxAPIsInvalid indicates a non-positive registry capacity.
var ErrMaxAPIsInvalid = errors.New("dynapi config: max apis must be greater than zero")

// ErrPaginationSizeInvalid indicates a non-positive default page size.
var ErrPaginationSizeInvalid = errors.New("dynapi config: default pagination size must be greater than zero")

// ErrPaginationMaxInvalid indicates the hard page-size cap is below the default.
var ErrPaginationMaxInvalid = errors.New("dynapi config: max pagination size must be at least the default size")

// ErrTablePrefixInvalid indicates the table prefix is not identifier-safe.
var ErrTablePrefixInvalid = errors.New("dynapi config: table prefix contains invalid characters")

var ErrLoggingProviderUnknown = errors.New("dynapi config: logging provider is invalid")
var ErrLoggingLevelInvalid = errors.New("dynapi config: logging level is invalid")
var ErrLoggingFormatInvalid = errors.New("dynapi config: logging format is invalid")

// Config captures runtime configuration for the dynamic API module.
type Config struct {
	Manage     ManageConfig
	API        APIConfig
	Pagination PaginationConfig
	Storage    StorageConfig
	Logging    LoggingConfig
}

// ManageConfig controls where the management endpoints mount.
type ManageConfig struct {
	BasePath string
}

// APIConfig controls the dynamic resource surface.
type APIConfig struct {
	BasePath string
	MaxAPIs  int
}

// PaginationConfig bounds list responses for dynamic entities.
type PaginationConfig struct {
	DefaultSize int
	MaxSize     int
}

// StorageConfig controls table naming and lifecycle behaviour.
type StorageConfig struct {
	// TablePrefix is prepended to every provisioned entity table.
	TablePrefix string
	// DropOnDelete removes the backing table when an API is deleted. The
	// default keeps data around, matching the registry's conservative
	// deletion semantics.
	DropOnDelete bool
	// PersistDefinitions stores registered definitions in the database so
	// the registry can be restored across process restarts. When disabled
	// the registry is in-memory only and tables for previously registered
	// entities must be re-created or re-attached by the host.
	PersistDefinitions bool
	// CacheDefinitions wraps the definitions repository in a read-through
	// cache. Only meaningful when PersistDefinitions is on.
	CacheDefinitions bool
}

// LoggingConfig selects and tunes the logging provider.
type LoggingConfig struct {
	Provider  string
	Level     string
	Format    string
	AddSource bool
	Focus     []string
}

// DefaultConfig returns the canonical defaults: 50 registered APIs max,
// pages of 20 capped at 100, and `dynamic_` table naming.
func DefaultConfig() Config {
	return Config{
		Manage: ManageConfig{
			BasePath: "/manage",
		},
		API: APIConfig{
			BasePath: "/api",
			MaxAPIs:  50,
		},
		Pagination: PaginationConfig{
			DefaultSize: 20,
			MaxSize:     100,
		},
		Storage: StorageConfig{
			TablePrefix:        "dynamic_",
			DropOnDelete:       false,
			PersistDefinitions: true,
		},
		Logging: LoggingConfig{
			Provider: "gologger",
			Level:    "info",
			Format:   "json",
		},
	}
}

// Validate checks invariants across the configuration tree.
func (c Config) Validate() error {
	if c.API.MaxAPIs <= 0 {
		return ErrMaxAPIsInvalid
	}
	if c.Pagination.DefaultSize <= 0 {
		return ErrPaginationSizeInvalid
	}
	if c.Pagination.MaxSize < c.Pagination.DefaultSize {
		return ErrPaginationMaxInvalid
	}
	if !validTablePrefix(c.Storage.TablePrefix) {
		return ErrTablePrefixInvalid
	}
	if err := c.Logging.validate(); err != nil {
		return err
	}
	return nil
}

func (c LoggingConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Provider)) {
	case "", "gologger", "noop":
	default:
		return ErrLoggingProviderUnknown
	}
	switch strings.ToLower(strings.TrimSpace(c.Level)) {
	case "", "trace", "debug", "info", "warn", "warning", "error", "fatal":
	default:
		return ErrLoggingLevelInvalid
	}
	switch strings.ToLower(strings.TrimSpace(c.Format)) {
	case "", "json", "console", "pretty":
	default:
		return ErrLoggingFormatInvalid
	}
	return nil
}

func validTablePrefix(prefix string) bool {
	for _, r := range prefix {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r == '_':
		default:
			return false
		}
	}
	return true
}
