package doxygen

import (
	"context"
	"os/exec"
	"regexp"
	"strings"
)

// DetectVersion attempts to detect the version of the doxygen binary on PATH.
// Returns the version string (e.g., "1.9.8") or empty string if detection fails.
// This is best-effort and will not error if doxygen is unavailable.
func DetectVersion(ctx context.Context, exe string) string {
	if exe == "" {
		exe = "doxygen"
	}
	path, err := exec.LookPath(exe)
	if err != nil {
		return ""
	}

	// #nosec G204 -- path is from exec.LookPath, not user-controlled
	cmd := exec.CommandContext(ctx, path, "--version")
	output, err := cmd.Output()
	if err != nil {
		return ""
	}

	// Expected format examples:
	//   1.9.8
	//   1.9.8 (c2fe5c3a4b...)
	return parseVersion(string(output))
}

// parseVersion extracts the semantic version from doxygen --version output.
// Returns empty string if parsing fails.
func parseVersion(output string) string {
	versionRegex := regexp.MustCompile(`(\d+\.\d+\.\d+)`)
	matches := versionRegex.FindStringSubmatch(output)
	if len(matches) >= 2 {
		return matches[1]
	}
	return strings.TrimSpace(output)
}
