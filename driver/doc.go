// Package driver hosts expansion: it finds packages, parses their files,
// runs every directive through the expander in a fixed phase order and
// writes (or checks) the results.
//
// Within one file all registration directives run before any plugin
// directive, and plugin directives run in source order. Files are expanded
// concurrently; a package carrying a package directive is expanded as a
// single unit and gets a generated file instead of spliced plugins.
package driver
