package cli

import (
	"log/slog"
	"testing"

	"github.com/alecthomas/kong"

	"github.com/kilnhq/kiln/internal"
	"github.com/kilnhq/kiln/internal/paths"
)

func TestConfigureLoggerMirrorsFlagsIntoModes(t *testing.T) {
	restore := slog.Default()
	t.Cleanup(func() {
		RootCmd.Debug = false
		internal.SetDebug(false)
		slog.SetDefault(restore)
	})

	RootCmd.Debug = true
	configureLogger()

	if !internal.IsDebug() {
		t.Fatal("expected the debug flag to be mirrored into the debug mode")
	}
	if internal.IsQuiet() {
		t.Fatal("expected quiet mode to stay off")
	}
}

func TestBuildFileDefaultsToRecipeFile(t *testing.T) {
	t.Cleanup(func() {
		RootCmd.Build = BuildCmd{}
	})

	parser, err := kong.New(&RootCmd, kong.Vars{
		"version":     "test",
		"recipe_file": paths.DefaultRecipeFile,
	})
	if err != nil {
		t.Fatalf("failed to build parser: %v", err)
	}

	if _, err := parser.Parse([]string{"build"}); err != nil {
		t.Fatalf("failed to parse: %v", err)
	}

	if RootCmd.Build.BuildFile != paths.DefaultRecipeFile {
		t.Fatalf("expected build file default %q, got %q", paths.DefaultRecipeFile, RootCmd.Build.BuildFile)
	}
}
