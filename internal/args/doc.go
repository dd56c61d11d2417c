// Package args resolves build arguments into the variable set used to
// materialize a recipe.
//
// Arguments come from three sources, highest precedence first: values
// supplied on the command line, declarations in the recipe's ARGS section,
// and declarations in the global configuration's ARGS section. Declarations
// are processed in their document order; each can mark itself REQUIRED,
// supply a DEFAULT, restrict values with CHOICES, and derive further
// variables with MAPS. Global-config defaults may additionally be marked
// OBFUSCATED, in which case they are base64-decoded before use.
//
// Resolution always injects BUILD_CONTEXT_PATH, the fixed in-container
// build-context root; it cannot be overridden by any source. The resolved
// set is flat (name to scalar) and treated as read-only by everything
// downstream.
package args
