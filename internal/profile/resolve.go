package profile

import (
	"fmt"
	"os"
	"regexp"

	"github.com/matheus3301/teamspace/internal/config"
)

const DefaultWorkspaceName = "main"

// maxSocketPath is the smallest sun_path limit among supported platforms
// (104 bytes on macOS, including the terminating NUL).
const maxSocketPath = 103

// A workspace name becomes a directory and part of the socket path. A leading
// hyphen or underscore is rejected so names never read as flags or hidden files.
var nameRegexp = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)

// Resolve determines the active workspace name using precedence:
// 1. flagOverride (--workspace flag)
// 2. TEAMSPACE_WORKSPACE
// 3. config.toml default_workspace
// 4. "main"
func Resolve(flagOverride string) string {
	if flagOverride != "" {
		return flagOverride
	}
	if v := os.Getenv(config.EnvWorkspace); v != "" {
		return v
	}
	cfg, err := config.Load(ConfigPath())
	if err == nil && cfg.DefaultWorkspace != "" {
		return cfg.DefaultWorkspace
	}
	return DefaultWorkspaceName
}

// ValidateName checks that name is usable as a workspace: lowercase letters,
// digits, '-' and '_', starting with a letter or digit, and short enough that
// the daemon socket fits in a Unix socket address under the current base dir.
func ValidateName(name string) error {
	if !nameRegexp.MatchString(name) {
		return fmt.Errorf("invalid workspace name %q: use up to 64 lowercase letters, digits, '-' or '_', starting with a letter or digit", name)
	}
	if p := SocketPath(name); len(p) > maxSocketPath {
		return fmt.Errorf("workspace name %q is too long for this base dir: socket path %s exceeds %d bytes", name, p, maxSocketPath)
	}
	return nil
}
