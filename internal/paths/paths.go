package paths

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

const (

	// Name used for directory and file naming.
	toolName = "kiln"

	// Path inside the build container where the build context is
	// unpacked before a step's commands run. Destinations of build
	// context entries must stay within this root.
	BuildContextRoot = "/tmp/build-context"

	// Default recipe file name, resolved against the working directory.
	DefaultRecipeFile = "./kiln.yml"
)

// Default path to the global configuration file.
//
//	Linux:   $XDG_CONFIG_HOME/kiln/config.yml or ~/.config/kiln/config.yml
//	macOS:   ~/Library/Application Support/kiln/config.yml
func GlobalConfig() string {
	return filepath.Join(xdg.ConfigHome, toolName, "config.yml")
}
