package config

// Config holds the server's tunable limits. A JSON file decoded over
// DefaultConfig overrides only the keys it names.
//
// Access rules (paths, commands, confirmations, size ceilings) are not part of
// Config; they live in the workspace policy file (see package policy).
type Config struct {
	Tools  ToolsConfig  `json:"tools"`
	Server ServerConfig `json:"server"`
}

type ToolsConfig struct {
	// Directory Listing
	MaxListEntries int `json:"max_list_entries"` // Default: 10000

	// Search
	MaxSearchResults int `json:"max_search_results"` // Default: 1000
	MaxLineLength    int `json:"max_line_length"`    // Default: 10000
	BinarySampleSize int `json:"binary_sample_size"` // Default: 8000

	// Command Execution
	DefaultCommandTimeout int   `json:"default_command_timeout"` // Default: 300 (seconds)
	MaxCommandOutputSize  int64 `json:"max_command_output_size"` // Default: 10 * 1024 * 1024 (10MB)
	GracefulShutdownMs    int   `json:"graceful_shutdown_ms"`    // Default: 2000

	// Terminals
	TerminalBufferSize    int64 `json:"terminal_buffer_size"`     // Default: 1024 * 1024 (1MB)
	TerminalSendTimeoutMs int   `json:"terminal_send_timeout_ms"` // Default: 5000
}

type ServerConfig struct {
	MaxFrameSize int    `json:"max_frame_size"` // Default: 32 * 1024 * 1024 (32MB)
	PolicyFile   string `json:"policy_file"`    // Default: .workspace-policy.yaml (relative to root)
	AuditLog     string `json:"audit_log"`      // Default: .workspace-rpc/audit.log (relative to root)
}

// DefaultConfig returns a fresh Config with every limit at its default.
func DefaultConfig() *Config {
	return &Config{
		Tools: ToolsConfig{
			MaxListEntries:        10000,
			MaxSearchResults:      1000,
			MaxLineLength:         10000,
			BinarySampleSize:      8000,
			DefaultCommandTimeout: 300,
			MaxCommandOutputSize:  10 * 1024 * 1024,
			GracefulShutdownMs:    2000,
			TerminalBufferSize:    1024 * 1024,
			TerminalSendTimeoutMs: 5000,
		},
		Server: ServerConfig{
			MaxFrameSize: 32 * 1024 * 1024,
			PolicyFile:   ".workspace-policy.yaml",
			AuditLog:     ".workspace-rpc/audit.log",
		},
	}
}
