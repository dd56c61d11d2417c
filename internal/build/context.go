package build

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/kilnhq/kiln/internal/paths"
	"github.com/kilnhq/kiln/internal/recipe"
)

// Transfers the step's build context into the container, if one is
// declared. Reports whether anything was populated so the caller knows to
// clean the context root afterwards.
//
// All entry destinations are validated before the first transfer; a
// destination escaping the context root rejects the whole context without
// touching the runtime.
func (b *builder) copyContext(ctx context.Context, containerID string, spec *recipe.ContextSpec) (bool, error) {
	if spec == nil {
		return false, nil
	}

	slog.Info("copying build context to the container")

	if spec.Source != "" {
		return true, b.copyToContainer(ctx, containerID, spec.Source, paths.BuildContextRoot+"/")
	}

	destinations := make([]string, len(spec.Entries))
	for i, entry := range spec.Entries {
		dst, err := contextDestination(entry.Dst)
		if err != nil {
			return false, err
		}
		destinations[i] = dst
	}

	for i, entry := range spec.Entries {
		if err := b.copyToContainer(ctx, containerID, entry.Src, destinations[i]); err != nil {
			return false, err
		}
	}

	return true, nil
}

// Resolves a build-context entry destination against the context root and
// rejects anything that lands outside it.
func contextDestination(dst string) (string, error) {
	root := paths.BuildContextRoot

	resolved := dst
	if path.IsAbs(resolved) {
		resolved = path.Clean(resolved)
	} else {
		resolved = path.Join(root, resolved)
	}

	if resolved != root && !strings.HasPrefix(resolved, root+"/") {
		return "", fmt.Errorf("%w: invalid DST property %q, destination path must be within the build context folder",
			ErrContextEscape, dst)
	}

	// A trailing slash marks a directory destination and must survive
	// path cleaning.
	if dst == "" || strings.HasSuffix(dst, "/") {
		resolved += "/"
	}

	return resolved, nil
}

// Copies a local file or directory into the container.
//
// A destination ending in "/" is a directory: the source keeps its own
// name inside it. Otherwise the source is renamed to the destination's
// base name. The destination directory is created inside the container
// before the archive is streamed.
func (b *builder) copyToContainer(ctx context.Context, containerID, src, dst string) error {
	slog.Debug("copying content", "src", src, "dst", dst)

	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("%w: source path %q could not be found", ErrInvalidCopy, src)
	}

	dstIsDir := strings.HasSuffix(dst, "/")
	if info.IsDir() && !dstIsDir {
		return fmt.Errorf("%w: destination %q must be a folder since source %q is a folder",
			ErrInvalidCopy, dst, src)
	}

	folder := dst
	name := path.Base(src)
	if !dstIsDir {
		folder = path.Dir(dst)
		name = path.Base(dst)
	}

	mkdir := []string{"mkdir -p " + folder}
	if err := b.runInstructions(ctx, containerID, mkdir, nil, false); err != nil {
		return err
	}

	pr, pw := io.Pipe()
	go func() {
		tw := tar.NewWriter(pw)

		var writeErr error
		if info.IsDir() {
			writeErr = writeDirToTar(tw, src, name)
		} else {
			writeErr = writeFileToTar(tw, src, name)
		}

		tw.Close()
		pw.CloseWithError(writeErr)
	}()

	return b.rt.CopyToContainer(ctx, containerID, folder, pr)
}

// Writes a single file to a tar writer with the given archive name.
func writeFileToTar(tw *tar.Writer, hostPath, name string) error {
	info, err := os.Stat(hostPath)
	if err != nil {
		return err
	}

	header, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	header.Name = name

	if err := tw.WriteHeader(header); err != nil {
		return err
	}

	f, err := os.Open(hostPath)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(tw, f)
	return err
}

// Writes a directory tree to a tar writer rooted at the given archive
// prefix.
func writeDirToTar(tw *tar.Writer, hostDir, prefix string) error {
	return filepath.WalkDir(hostDir, func(hostPath string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(hostDir, hostPath)
		if err != nil {
			return err
		}

		archivePath := filepath.ToSlash(filepath.Join(prefix, relPath))
		return writeTarEntry(tw, hostPath, archivePath, d)
	})
}

// Writes a single file or directory entry to a tar writer.
func writeTarEntry(tw *tar.Writer, hostPath, archivePath string, d os.DirEntry) error {
	info, err := d.Info()
	if err != nil {
		return err
	}

	header, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	header.Name = archivePath

	if err := tw.WriteHeader(header); err != nil {
		return err
	}

	if !info.Mode().IsRegular() {
		return nil
	}

	f, err := os.Open(hostPath)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(tw, f)
	return err
}
