package config

import (
	"fmt"
)

// Validate reports every out-of-range value in one error.
func (c *Config) Validate() error {
	var errs []string

	if c.Tools.MaxListEntries < 1 {
		errs = append(errs, "tools.max_list_entries must be >= 1")
	}
	if c.Tools.MaxSearchResults < 1 {
		errs = append(errs, "tools.max_search_results must be >= 1")
	}
	if c.Tools.MaxLineLength < 1 {
		errs = append(errs, "tools.max_line_length must be >= 1")
	}
	if c.Tools.BinarySampleSize < 1 {
		errs = append(errs, "tools.binary_sample_size must be >= 1")
	}
	if c.Tools.DefaultCommandTimeout < 1 {
		errs = append(errs, "tools.default_command_timeout must be >= 1")
	}
	if c.Tools.MaxCommandOutputSize < 1 {
		errs = append(errs, "tools.max_command_output_size must be >= 1")
	}
	if c.Tools.GracefulShutdownMs < 0 {
		errs = append(errs, "tools.graceful_shutdown_ms must be >= 0")
	}
	if c.Tools.TerminalBufferSize < 1 {
		errs = append(errs, "tools.terminal_buffer_size must be >= 1")
	}
	if c.Tools.TerminalSendTimeoutMs < 1 {
		errs = append(errs, "tools.terminal_send_timeout_ms must be >= 1")
	}

	if c.Server.MaxFrameSize < 1024 {
		errs = append(errs, "server.max_frame_size must be >= 1024")
	}
	if c.Server.PolicyFile == "" {
		errs = append(errs, "server.policy_file must not be empty")
	}
	if c.Server.AuditLog == "" {
		errs = append(errs, "server.audit_log must not be empty")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %v", errs)
	}

	return nil
}
