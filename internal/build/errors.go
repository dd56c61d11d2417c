package build

import (
	"errors"
	"fmt"
)

var (
	ErrBuild = errors.New("build failed")

	// Returned for an invalid copy declaration: a missing source path or
	// a directory source with a file destination.
	ErrInvalidCopy = errors.New("invalid copy")

	// Returned when a build-context destination resolves outside the
	// in-container context root.
	ErrContextEscape = errors.New("destination escapes the build context")
)

// Longest instruction snippet reproduced in a command failure message.
const maxInstructionLen = 30

// Reports a shell instruction that exited non-zero inside the build
// container.
type CommandError struct {
	Instruction string
	ExitCode    int
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("RUN command with instruction %q failed with exit code [%d]", e.Instruction, e.ExitCode)
}

// Creates a [CommandError] for an instruction sequence. The first
// instruction is reproduced verbatim only when it is the whole sequence
// and short enough, otherwise it is truncated.
func newCommandError(instructions []string, exitCode int) *CommandError {
	first := instructions[0]
	if len(instructions) > 1 || len(first) > maxInstructionLen {
		if len(first) > maxInstructionLen {
			first = first[:maxInstructionLen]
		}
		first += "..."
	}
	return &CommandError{Instruction: first, ExitCode: exitCode}
}
