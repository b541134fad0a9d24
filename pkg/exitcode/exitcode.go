// Package exitcode provides standardized exit codes for licensescan
package exitcode

// Exit codes for the licensescan CLI
const (
	Success           = 0
	GeneralError      = 1
	ConfigError       = 2
	PolicyViolation   = 3
	FileSystemError   = 4
	UnsupportedFormat = 8
)

// String returns a human-readable description of the exit code
func String(code int) string {
	switch code {
	case Success:
		return "Success"
	case GeneralError:
		return "General error"
	case ConfigError:
		return "Configuration error"
	case PolicyViolation:
		return "License policy violation"
	case FileSystemError:
		return "File system error"
	case UnsupportedFormat:
		return "Unsupported format"
	default:
		return "Unknown error"
	}
}
