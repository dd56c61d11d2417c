package build

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/strslice"

	"github.com/kilnhq/kiln/internal/paths"
	"github.com/kilnhq/kiln/internal/recipe"
	"github.com/kilnhq/kiln/internal/runtime"
)

// Executes one create-modify-commit cycle and returns the committed
// image's id.
//
// The container is removed on every exit path unless the keep policy is
// set. A removal failure is the step's error only when the step itself
// succeeded; otherwise it is reported as a warning.
func (b *builder) executeStep(ctx context.Context, index int, step recipe.Step, from string) (imageID string, err error) {
	slog.Info("starting new container", "image", from)

	containerID, base, err := b.acquireContainer(ctx, index, from, step.Volumes)
	if err != nil {
		return "", err
	}

	defer func() {
		if b.opts.Keep {
			slog.Info("keeping container", "container", containerID)
			return
		}
		slog.Info("cleaning up container")
		if removeErr := b.rt.RemoveContainer(ctx, containerID); removeErr != nil {
			if err == nil {
				err = removeErr
			} else {
				slog.Warn("failed to remove container", "container", containerID, "error", removeErr)
			}
		}
	}()

	populated, err := b.copyContext(ctx, containerID, step.Context)
	if err != nil {
		return "", err
	}

	if len(step.Run) > 0 {
		slog.Info("making necessary changes to the container")
		if err := b.runInstructions(ctx, containerID, step.Run, b.exports, true); err != nil {
			return "", err
		}
	}

	if populated {
		slog.Info("cleaning up container from build context")
		cleanup := []string{"rm -rf " + paths.BuildContextRoot}
		if err := b.runInstructions(ctx, containerID, cleanup, nil, false); err != nil {
			return "", err
		}
	}

	if len(step.Copies) > 0 {
		slog.Info("copying folders or files to container")
		for _, entry := range step.Copies {
			if err := b.copyToContainer(ctx, containerID, entry.Src, entry.Dst); err != nil {
				return "", err
			}
		}
	}

	return b.commitStep(ctx, containerID, step, base, index == len(b.plan.Steps)-1)
}

// Makes the base image available and creates the step's container.
//
// Only the first step may bypass the local cache with a forced pull.
// Otherwise the local image is preferred and a remote pull is attempted
// once when it is missing; a miss after pulling is fatal.
func (b *builder) acquireContainer(ctx context.Context, index int, from string, volumes []string) (string, *runtime.Image, error) {
	pull := index == 0 && b.opts.Pull

	if !pull {
		exists, err := b.rt.ImageExists(ctx, from)
		if err != nil {
			return "", nil, err
		}
		if !exists {
			slog.Info("image not found locally, trying remote registry", "image", from)
			pull = true
		}
	}

	if pull {
		if err := b.rt.PullImage(ctx, from); err != nil {
			return "", nil, err
		}
	}

	base, err := b.rt.InspectImage(ctx, from)
	if err != nil {
		return "", nil, err
	}

	containerID, err := b.rt.CreateContainer(ctx, from, volumes)
	if err != nil {
		return "", nil, err
	}

	return containerID, base, nil
}

// Runs shell instructions inside the container as one strict sequence.
//
// The instructions are joined with the exported variables behind a
// "set -e" prefix, so the first failing instruction aborts the rest.
// Output is streamed between console markers when showLogs is set and
// discarded otherwise.
func (b *builder) runInstructions(ctx context.Context, containerID string, instructions, exports []string, showLogs bool) error {
	sequence := make([]string, 0, 1+len(exports)+len(instructions))
	sequence = append(sequence, "set -e")
	sequence = append(sequence, exports...)
	sequence = append(sequence, instructions...)
	command := strings.Join(sequence, "; ")

	out := io.Discard
	var logs *console
	if showLogs {
		logs = newConsole(b.opts.Logs, "Start of Container Logs")
		logs.begin()
		out = logs
	}

	exitCode, err := b.rt.ExecContainer(ctx, containerID, command, out)
	if logs != nil {
		logs.end()
	}
	if err != nil {
		return err
	}

	if exitCode != 0 {
		return newCommandError(instructions, exitCode)
	}
	return nil
}

// Commits the container as the step's image.
//
// Cmd and Entrypoint are backfilled from the base image when the step
// does not override them, so the shell forced at container creation never
// leaks into the committed image. Only the last step receives the plan's
// tag.
func (b *builder) commitStep(ctx context.Context, containerID string, step recipe.Step, base *runtime.Image, last bool) (string, error) {
	slog.Info("creating image with container changes")

	cfg := &container.Config{}
	if step.Config != nil {
		clone := *step.Config
		cfg = &clone
	}

	if cfg.Cmd == nil {
		cfg.Cmd = strslice.StrSlice(base.Config.Cmd)
	}
	if cfg.Entrypoint == nil {
		cfg.Entrypoint = strslice.StrSlice(base.Config.Entrypoint)
	}

	opts := runtime.CommitOptions{
		Author: b.plan.Maintainer,
		Config: cfg,
	}
	if last {
		opts.Tag = b.plan.Tag
	}

	imageID, err := b.rt.CommitContainer(ctx, containerID, opts)
	if err != nil {
		return "", err
	}

	slog.Info("successfully created image", "image", imageID)
	return imageID, nil
}
