// Package runtime talks to the Docker daemon on behalf of the build
// orchestrator.
//
// The [Runtime] interface is the full daemon surface the orchestrator
// depends on: image lookup and pull, container creation, file transfer,
// command execution, commit, and removal. [Docker] implements it against
// the Engine API; the orchestrator's tests substitute a fake.
//
// Containers are created with the image's entrypoint cleared and a plain
// shell as the command, so that a freshly created container idles and
// subsequent exec calls have a running process to attach to. The shell
// must not leak into committed images; the orchestrator restores the base
// image's Cmd and Entrypoint at commit time.
package runtime
