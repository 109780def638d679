package dynapi

import "github.com/goliatone/go-dynapi/internal/runtimeconfig"

var (
	ErrMaxAPIsInvalid         = runtimeconfig.ErrMaxAPIsInvalid
	ErrPaginationSizeInvalid  = runtimeconfig.ErrPaginationSizeInvalid
	ErrPaginationMaxInvalid   = runtimeconfig.ErrPaginationMaxInvalid
	ErrTablePrefixInvalid     = runtimeconfig.ErrTablePrefixInvalid
	ErrLoggingProviderUnknown = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid    = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid   = runtimeconfig.ErrLoggingFormatInvalid
)

type (
	Config           = runtimeconfig.Config
	ManageConfig     = runtimeconfig.ManageConfig
	APIConfig        = runtimeconfig.APIConfig
	PaginationConfig = runtimeconfig.PaginationConfig
	StorageConfig    = runtimeconfig.StorageConfig
	LoggingConfig    = runtimeconfig.LoggingConfig
)

// DefaultConfig returns the canonical defaults.
func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}
