package build

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"

	"github.com/kilnhq/kiln/internal/args"
	"github.com/kilnhq/kiln/internal/recipe"
	"github.com/kilnhq/kiln/internal/runtime"
	"github.com/kilnhq/kiln/internal/template"
)

// Controls plan execution.
type Options struct {
	Runtime runtime.Runtime
	Plan    *recipe.Plan
	Vars    args.Variables

	// Keeps step containers instead of removing them, for debugging.
	Keep bool

	// Forces a fresh pull of the first step's base image. Later steps
	// always use the image committed by the preceding step, which can
	// never be stale.
	Pull bool

	// Destination for container command output. Defaults to stdout.
	Logs io.Writer
}

// Returned after successful plan execution.
type Result struct {
	ImageID string // Id of the final committed image.
	Tag     string // Tag applied to it, if the plan declared one.
}

// Executes the plan's steps in order.
//
// Each step's committed image becomes the base of the next step. The
// returned result carries the final image id and tag.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Logs == nil {
		opts.Logs = os.Stdout
	}

	b := &builder{
		rt:      opts.Runtime,
		plan:    opts.Plan,
		opts:    opts,
		exports: exportVariables(opts.Vars),
	}

	slog.Info("executing build", "from", opts.Plan.From, "steps", len(opts.Plan.Steps))

	from := opts.Plan.From
	for i, step := range opts.Plan.Steps {
		imageID, err := b.executeStep(ctx, i, step, from)
		if err != nil {
			return nil, fmt.Errorf("%w: step %d: %w", ErrBuild, i+1, err)
		}
		from = imageID
	}

	return &Result{ImageID: from, Tag: opts.Plan.Tag}, nil
}

// Executes plan steps against the runtime.
type builder struct {
	rt      runtime.Runtime
	plan    *recipe.Plan
	opts    Options
	exports []string
}

// Converts the variable set into shell export statements, sorted by name.
// Composite values cannot be exported and are skipped with a warning.
func exportVariables(vars args.Variables) []string {
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)

	exports := make([]string, 0, len(names))
	for _, name := range names {
		switch vars[name].(type) {
		case string, bool, int, int64, uint64, float64, nil:
		default:
			slog.Warn("skipping non-scalar variable in command environment", "name", name)
			continue
		}
		exports = append(exports, "export "+name+"="+template.Render(vars[name]))
	}
	return exports
}
