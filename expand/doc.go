// Package expand implements directive expansion.
//
// Registration directives (register_type, add_system, component, ...)
// accumulate requests into the per-file entry of a store.Store. The plugin
// directive finalizes the file's entry and turns everything accumulated so
// far into a prologue spliced into the plugin function's body. The package
// directive does the same for a whole package in a single pass and without
// the store.
//
// The expander never rewrites the declarations it reads: splicing only
// touches the region between the generated-registration markers.
package expand
