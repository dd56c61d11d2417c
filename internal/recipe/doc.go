// Package recipe models the build document and turns it into an executable
// plan.
//
// A recipe is a YAML document with the top-level keys FROM (required), TAG,
// MAINTAINER, ARGS, and STEPS. The document is decoded into a small tagged
// union ([Value]: scalar, sequence, or mapping) that preserves mapping
// declaration order, which the argument resolver depends on.
//
// Materialization walks the decoded tree, evaluating every scalar leaf
// through the template evaluator, then extracts the typed [Plan]. The ARGS
// section is excluded from the walk; it is consumed by the argument
// resolver before materialization and is not itself templated. Template
// failures are reported as [ConfigError] values naming the document path
// ("STEPS[0].RUN") where the offending scalar lives.
package recipe
