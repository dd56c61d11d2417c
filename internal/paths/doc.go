// Package paths centralizes filesystem locations.
//
// The global configuration file lives under the XDG config directory by
// default. The build-context root is the fixed path inside every build
// container where host build contexts are unpacked; it is the containment
// boundary for build-context destinations and the value of the injected
// BUILD_CONTEXT_PATH variable.
package paths
