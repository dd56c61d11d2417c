package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/kilnhq/kiln/internal/args"
	"github.com/kilnhq/kiln/internal/build"
	"github.com/kilnhq/kiln/internal/paths"
	"github.com/kilnhq/kiln/internal/recipe"
	"github.com/kilnhq/kiln/internal/runtime"
)

// Represents the 'kiln build' command.
type BuildCmd struct {
	Arg        []string      `short:"a" placeholder:"NAME=VALUE" help:"Passes the value of an argument declared in the build file. Repeatable."`
	ArgFile    string        `placeholder:"PATH" help:"File of NAME=VALUE pairs loaded as build arguments. Explicit --arg values win."`
	BuildFile  string        `short:"f" default:"${recipe_file}" help:"Path to the build file."`
	ConfigFile string        `short:"c" placeholder:"PATH" help:"Path to the global configuration file. Defaults to the user configuration directory."`
	Tag        string        `short:"t" help:"Overrides the TAG declared in the build file for the final image."`
	Keep       bool          `help:"Keeps the intermediate containers after a build, for debugging."`
	Pull       bool          `help:"Always pulls the first step's base image, bypassing the local cache."`
	Timeout    time.Duration `default:"2m" help:"Docker daemon request timeout."`
}

// Executes the build command.
func (c *BuildCmd) Run(ctx context.Context) error {
	cliArgs, err := c.collectArgs()
	if err != nil {
		return err
	}

	doc, err := loadDocument(c.BuildFile)
	if err != nil {
		return err
	}

	globalArgs, err := c.loadGlobalArgs()
	if err != nil {
		return err
	}

	recipeDecls, err := args.ParseDeclarations(doc.Args(), false)
	if err != nil {
		return err
	}

	vars, err := args.Resolve(cliArgs, recipeDecls, globalArgs)
	if err != nil {
		return err
	}

	plan, err := recipe.Materialize(doc, vars)
	if err != nil {
		return err
	}

	if c.Tag != "" {
		plan.Tag = c.Tag
	}

	// Paths in the build file are relative to the build file itself.
	if dir := filepath.Dir(c.BuildFile); dir != "" {
		if err := os.Chdir(dir); err != nil {
			return fmt.Errorf("failed to change into the build file directory: %w", err)
		}
	}

	rt, err := runtime.Connect(c.Timeout)
	if err != nil {
		return err
	}
	defer rt.Close()

	result, err := build.Run(ctx, build.Options{
		Runtime: rt,
		Plan:    plan,
		Vars:    vars,
		Keep:    c.Keep,
		Pull:    c.Pull,
	})
	if err != nil {
		return err
	}

	if result.Tag != "" {
		slog.Info("build finished", "image", result.ImageID, "tag", result.Tag)
	} else {
		slog.Info("build finished", "image", result.ImageID)
	}
	return nil
}

// Merges the argument file and the repeated --arg flags into one map.
// Explicit flags win over file entries.
func (c *BuildCmd) collectArgs() (map[string]string, error) {
	merged := make(map[string]string)

	if c.ArgFile != "" {
		fromFile, err := godotenv.Read(c.ArgFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read argument file %q: %w", c.ArgFile, err)
		}
		for name, value := range fromFile {
			merged[name] = value
		}
	}

	for _, pair := range c.Arg {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("option %q is not valid, arguments must be in the format NAME=VALUE", pair)
		}
		merged[name] = value
	}

	return merged, nil
}

// Loads the ARGS declarations of the global configuration file.
//
// A missing file at the default location is not an error; a missing file
// at an explicitly supplied location is.
func (c *BuildCmd) loadGlobalArgs() ([]args.Declaration, error) {
	path := c.ConfigFile
	explicit := path != ""
	if !explicit {
		path = paths.GlobalConfig()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	doc, err := recipe.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("configuration file %q: %w", path, err)
	}

	return args.ParseDeclarations(doc.Args(), true)
}

// Reads and parses the build file.
func loadDocument(path string) (*recipe.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read build file %q: %w", path, err)
	}

	doc, err := recipe.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("build file %q: %w", path, err)
	}
	return doc, nil
}
