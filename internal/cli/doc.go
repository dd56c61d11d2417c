// Parses flags and configures logging for the kiln build tool.
//
// The tool accepts the following global flags:
//
//	-q, --quiet     Suppress informational output.
//	-v, --verbose   Enable verbose output.
//	-d, --debug     Enable debug output.
//
// The build command loads the recipe and global configuration, resolves
// the build arguments, materializes the plan, and executes it against the
// Docker daemon. Flags override build-time defaults set via linker flags.
package cli
