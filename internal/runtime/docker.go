package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/strslice"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/jsonmessage"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/moby/term"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
)

// Shell started in every build container. Commands run through it with
// "-c" so normal shell semantics apply.
const containerShell = "/bin/sh"

// Implements [Runtime] against the Docker Engine API.
type Docker struct {
	client   *client.Client
	progress io.Writer
}

// Connects to the Docker daemon using the standard environment variables
// (DOCKER_HOST and friends). A zero timeout leaves the client without a
// request deadline.
func Connect(timeout time.Duration) (*Docker, error) {
	opts := []client.Opt{
		client.FromEnv,
		client.WithAPIVersionNegotiation(),
	}
	if timeout > 0 {
		opts = append(opts, client.WithTimeout(timeout))
	}

	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to connect to the daemon: %v", ErrRuntime, err)
	}

	return &Docker{client: cli, progress: os.Stderr}, nil
}

// Closes the connection to the daemon.
func (d *Docker) Close() error {
	return d.client.Close()
}

// Reports whether the image is available locally.
func (d *Docker) ImageExists(ctx context.Context, ref string) (bool, error) {
	_, err := d.client.ImageInspect(ctx, ref)
	if err != nil {
		if client.IsErrNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("%w: failed to inspect image %q: %v", ErrRuntime, ref, err)
	}
	return true, nil
}

// Pulls the image, rendering the daemon's progress stream.
func (d *Docker) PullImage(ctx context.Context, ref string) error {
	slog.Debug("pulling image", "ref", ref)

	output, err := d.client.ImagePull(ctx, ref, image.PullOptions{})
	if err != nil {
		if client.IsErrNotFound(err) {
			return fmt.Errorf("%w: image %q could not be found", ErrImageNotFound, ref)
		}
		return fmt.Errorf("%w: failed to pull image %q: %v", ErrRuntime, ref, err)
	}
	defer output.Close()

	fd, isTerm := term.GetFdInfo(d.progress)
	if err := jsonmessage.DisplayJSONMessagesStream(output, d.progress, fd, isTerm, nil); err != nil {
		// A daemon-reported error in the stream means the pull itself
		// failed, most commonly because the reference does not exist.
		var streamErr *jsonmessage.JSONError
		if errors.As(err, &streamErr) {
			return fmt.Errorf("%w: image %q could not be pulled: %s", ErrImageNotFound, ref, streamErr.Message)
		}
		return fmt.Errorf("%w: failed to pull image %q: %v", ErrRuntime, ref, err)
	}

	return nil
}

// Returns the image's id and configuration.
func (d *Docker) InspectImage(ctx context.Context, ref string) (*Image, error) {
	resp, err := d.client.ImageInspect(ctx, ref)
	if err != nil {
		if client.IsErrNotFound(err) {
			return nil, fmt.Errorf("%w: image %q could not be found", ErrImageNotFound, ref)
		}
		return nil, fmt.Errorf("%w: failed to inspect image %q: %v", ErrRuntime, ref, err)
	}

	return &Image{ID: resp.ID, Config: imageConfig(resp.Config)}, nil
}

// Projects the daemon's container configuration onto the OCI image
// configuration carried by [Image]. The inspect endpoint reports the
// image's configuration in the daemon's own container shape.
func imageConfig(cfg *container.Config) ocispec.ImageConfig {
	if cfg == nil {
		return ocispec.ImageConfig{}
	}

	out := ocispec.ImageConfig{
		User:       cfg.User,
		Env:        cfg.Env,
		Entrypoint: cfg.Entrypoint,
		Cmd:        cfg.Cmd,
		Volumes:    cfg.Volumes,
		WorkingDir: cfg.WorkingDir,
		Labels:     cfg.Labels,
		StopSignal: cfg.StopSignal,
	}

	if len(cfg.ExposedPorts) > 0 {
		out.ExposedPorts = make(map[string]struct{}, len(cfg.ExposedPorts))
		for port := range cfg.ExposedPorts {
			out.ExposedPorts[string(port)] = struct{}{}
		}
	}

	return out
}

// Creates and starts an idling container from the image.
//
// The container runs a bare shell on a tty so it stays alive between exec
// calls. An entrypoint declared by the image is cleared, otherwise the
// shell would be passed to it as an argument instead of running.
func (d *Docker) CreateContainer(ctx context.Context, imageRef string, volumes []string) (string, error) {
	cfg := &container.Config{
		Image: imageRef,
		Cmd:   strslice.StrSlice{containerShell},
		Tty:   true,
	}

	if len(volumes) > 0 {
		cfg.Volumes = make(map[string]struct{}, len(volumes))
		for _, v := range volumes {
			cfg.Volumes[v] = struct{}{}
		}
	}

	img, err := d.InspectImage(ctx, imageRef)
	if err != nil {
		return "", err
	}
	if len(img.Config.Entrypoint) > 0 {
		// A single empty string resets the inherited entrypoint.
		cfg.Entrypoint = strslice.StrSlice{""}
	}

	created, err := d.client.ContainerCreate(ctx, cfg, nil, nil, nil, "")
	if err != nil {
		if client.IsErrNotFound(err) {
			return "", fmt.Errorf("%w: image %q could not be found", ErrImageNotFound, imageRef)
		}
		return "", fmt.Errorf("%w: failed to create container from %q: %v", ErrRuntime, imageRef, err)
	}

	for _, warning := range created.Warnings {
		slog.Warn("container created with warning", "container", shortID(created.ID), "warning", warning)
	}

	if err := d.client.ContainerStart(ctx, created.ID, container.StartOptions{}); err != nil {
		return "", fmt.Errorf("%w: failed to start container %q: %v", ErrRuntime, shortID(created.ID), err)
	}

	return created.ID, nil
}

// Streams a tar archive into the container at the given path.
func (d *Docker) CopyToContainer(ctx context.Context, containerID, path string, content io.Reader) error {
	err := d.client.CopyToContainer(ctx, containerID, path, content, container.CopyToContainerOptions{})
	if err != nil {
		return fmt.Errorf("%w: failed to copy to container path %q: %v", ErrRuntime, path, err)
	}
	return nil
}

// Runs a shell command inside the container as root, streaming combined
// output to w, and returns the command's exit code.
func (d *Docker) ExecContainer(ctx context.Context, containerID, command string, w io.Writer) (int, error) {
	exec, err := d.client.ContainerExecCreate(ctx, containerID, container.ExecOptions{
		User:         "root",
		Cmd:          []string{containerShell, "-c", command},
		AttachStdout: true,
		AttachStderr: true,
	})
	if err != nil {
		return 0, fmt.Errorf("%w: failed to create exec: %v", ErrRuntime, err)
	}

	stream, err := d.client.ContainerExecAttach(ctx, exec.ID, container.ExecAttachOptions{})
	if err != nil {
		return 0, fmt.Errorf("%w: failed to attach to exec: %v", ErrRuntime, err)
	}
	defer stream.Close()

	if _, err := stdcopy.StdCopy(w, w, stream.Reader); err != nil {
		return 0, fmt.Errorf("%w: failed to stream command output: %v", ErrRuntime, err)
	}

	inspect, err := d.client.ContainerExecInspect(ctx, exec.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to inspect exec: %v", ErrRuntime, err)
	}

	return inspect.ExitCode, nil
}

// Commits the container's filesystem as a new image and returns the
// shortened image id.
func (d *Docker) CommitContainer(ctx context.Context, containerID string, opts CommitOptions) (string, error) {
	commit, err := d.client.ContainerCommit(ctx, containerID, container.CommitOptions{
		Reference: opts.Tag,
		Author:    opts.Author,
		Config:    opts.Config,
		Pause:     true,
	})
	if err != nil {
		return "", fmt.Errorf("%w: failed to commit container %q: %v", ErrRuntime, shortID(containerID), err)
	}

	return shortID(commit.ID), nil
}

// Forcibly removes the container.
//
// A paused container cannot be removed, so it is unpaused first. The
// paused check is best-effort: if the container is already gone the
// removal below reports it.
func (d *Docker) RemoveContainer(ctx context.Context, containerID string) error {
	if inspect, err := d.client.ContainerInspect(ctx, containerID); err == nil {
		if inspect.State != nil && inspect.State.Paused {
			if err := d.client.ContainerUnpause(ctx, containerID); err != nil {
				slog.Warn("failed to unpause container before removal", "container", shortID(containerID), "error", err)
			}
		}
	}

	err := d.client.ContainerRemove(ctx, containerID, container.RemoveOptions{Force: true})
	if err != nil {
		return fmt.Errorf("%w: failed to remove container %q: %v", ErrRuntime, shortID(containerID), err)
	}
	return nil
}

var _ Runtime = (*Docker)(nil)
