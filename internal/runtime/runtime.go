package runtime

import (
	"context"
	"io"

	"github.com/docker/docker/api/types/container"
	"github.com/opencontainers/go-digest"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
)

// Metadata of an image known to the daemon.
type Image struct {
	ID     string
	Config ocispec.ImageConfig
}

// Options for committing a container's filesystem as a new image.
type CommitOptions struct {
	Author string
	Config *container.Config

	// Reference for the new image. Empty leaves the image untagged,
	// identified only by its content id.
	Tag string
}

// The daemon operations the build orchestrator depends on.
type Runtime interface {

	// Reports whether the image is available locally.
	ImageExists(ctx context.Context, ref string) (bool, error)

	// Pulls the image from its remote registry, streaming progress.
	PullImage(ctx context.Context, ref string) error

	// Returns the image's id and configuration.
	InspectImage(ctx context.Context, ref string) (*Image, error)

	// Creates and starts an idling container from the image. The image's
	// entrypoint is cleared so the container runs a plain shell.
	CreateContainer(ctx context.Context, imageRef string, volumes []string) (string, error)

	// Streams a tar archive into the container at the given path. The
	// path must already exist inside the container.
	CopyToContainer(ctx context.Context, containerID, path string, content io.Reader) error

	// Runs a shell command inside the container, streaming combined
	// output to w, and returns the command's exit code.
	ExecContainer(ctx context.Context, containerID, command string, w io.Writer) (int, error)

	// Commits the container's filesystem as a new image and returns the
	// shortened image id.
	CommitContainer(ctx context.Context, containerID string, opts CommitOptions) (string, error)

	// Forcibly removes the container, unpausing it first if needed.
	RemoveContainer(ctx context.Context, containerID string) error
}

// Shortens an image id to its familiar 12 character form.
func shortID(id string) string {
	if dgst, err := digest.Parse(id); err == nil {
		id = dgst.Encoded()
	}
	if len(id) > 12 {
		id = id[:12]
	}
	return id
}
