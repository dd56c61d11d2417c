// Package build executes a materialized build plan against the container
// runtime.
//
// Steps run in declaration order. Each step starts a container from the
// current base image, transfers the build context and any declared files,
// runs the step's shell instructions, and commits the container as a new
// image that becomes the base of the next step. Only the last step's
// image receives the resolved tag.
//
// The container created for a step is removed on every exit path, success
// or failure, unless the keep policy is set. A removal failure on the
// error path is reported as a warning so it never masks the original
// failure.
//
// Example usage:
//
//	result, err := build.Run(ctx, build.Options{
//	    Runtime: rt,
//	    Plan:    plan,
//	    Vars:    vars,
//	})
//	if err != nil {
//	    return err
//	}
package build
