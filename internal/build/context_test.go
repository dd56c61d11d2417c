package build

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kilnhq/kiln/internal/recipe"
	"github.com/kilnhq/kiln/internal/runtime"
)

func TestContextDestination(t *testing.T) {
	tests := []struct {
		name    string
		dst     string
		want    string
		escapes bool
	}{
		{name: "empty", dst: "", want: "/tmp/build-context/"},
		{name: "relative file", dst: "app.conf", want: "/tmp/build-context/app.conf"},
		{name: "relative directory", dst: "sub/dir/", want: "/tmp/build-context/sub/dir/"},
		{name: "contained absolute", dst: "/tmp/build-context/sub", want: "/tmp/build-context/sub"},
		{name: "absolute outside root", dst: "/etc/passwd", escapes: true},
		{name: "parent traversal", dst: "../escape", escapes: true},
		{name: "nested traversal", dst: "sub/../../escape", escapes: true},
		{name: "sibling prefix", dst: "/tmp/build-context-evil", escapes: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := contextDestination(tt.dst)
			if tt.escapes {
				if !errors.Is(err, ErrContextEscape) {
					t.Fatalf("expected ErrContextEscape, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func testBuilder(rt runtime.Runtime) *builder {
	return &builder{rt: rt, opts: Options{Runtime: rt, Logs: io.Discard}}
}

func TestCopyToContainerMissingSource(t *testing.T) {
	rt := newFakeRuntime()
	b := testBuilder(rt)

	err := b.copyToContainer(context.Background(), "ctr-1", filepath.Join(t.TempDir(), "missing"), "/app")
	if !errors.Is(err, ErrInvalidCopy) {
		t.Fatalf("expected ErrInvalidCopy, got %v", err)
	}
	if len(rt.commands) != 0 {
		t.Fatalf("expected no runtime calls for a missing source")
	}
}

func TestCopyToContainerDirectoryNeedsDirectoryDestination(t *testing.T) {
	rt := newFakeRuntime()
	b := testBuilder(rt)

	err := b.copyToContainer(context.Background(), "ctr-1", t.TempDir(), "/app")
	if !errors.Is(err, ErrInvalidCopy) {
		t.Fatalf("expected ErrInvalidCopy, got %v", err)
	}
}

func TestCopyToContainerCreatesDestinationFolder(t *testing.T) {
	src := filepath.Join(t.TempDir(), "app.conf")
	if err := os.WriteFile(src, []byte("listen 8080\n"), 0o644); err != nil {
		t.Fatalf("failed to write source file: %v", err)
	}

	rt := newFakeRuntime()
	b := testBuilder(rt)

	if err := b.copyToContainer(context.Background(), "ctr-1", src, "/etc/kiln/app.conf"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(rt.commands) != 1 || !strings.Contains(rt.commands[0], "mkdir -p /etc/kiln") {
		t.Fatalf("expected destination folder creation, got %v", rt.commands)
	}
}

func TestCopyContextValidatesBeforeTransfer(t *testing.T) {
	rt := newFakeRuntime()
	b := testBuilder(rt)

	spec := &recipe.ContextSpec{
		Entries: []recipe.CopyEntry{
			{Src: "ignored", Dst: "ok"},
			{Src: "ignored", Dst: "../escape"},
		},
	}

	populated, err := b.copyContext(context.Background(), "ctr-1", spec)
	if !errors.Is(err, ErrContextEscape) {
		t.Fatalf("expected ErrContextEscape, got %v", err)
	}
	if populated {
		t.Fatalf("expected context to be reported unpopulated")
	}
	if len(rt.commands) != 0 {
		t.Fatalf("expected no runtime calls before validation passed, got %v", rt.commands)
	}
}

func TestCopyContextNone(t *testing.T) {
	b := testBuilder(newFakeRuntime())

	populated, err := b.copyContext(context.Background(), "ctr-1", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if populated {
		t.Fatalf("expected no context to be populated")
	}
}
