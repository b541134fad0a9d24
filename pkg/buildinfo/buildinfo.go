package buildinfo

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// BinaryVersion is set at build time via -ldflags. Defaults to "dev".
var BinaryVersion = "dev"

// ModuleVersion returns the module version embedded by the Go toolchain (when available).
func ModuleVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return ""
}

// Version prefers the ldflags value and falls back to the module version.
func Version() string {
	if BinaryVersion != "" && BinaryVersion != "dev" {
		return BinaryVersion
	}
	if v := ModuleVersion(); v != "" && v != "(devel)" {
		return v
	}
	return BinaryVersion
}

// Summary is the one-line description printed by `licensescan version --extended`.
func Summary() string {
	return fmt.Sprintf("licensescan %s (%s, %s/%s)", Version(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
