// Command autoplugin expands //autoplugin: directives in Go packages.
//
// Usage:
//
//	autoplugin gen [packages]     rewrite plugin functions and generated files
//	autoplugin check [packages]   report stale files without writing them
//	autoplugin cache clean        drop the output cache
//	autoplugin version            print the build version
//
// Packages are directories; a trailing /... includes every directory below.
// With no packages the current directory is used.
//
// Exit status is 0 on success, 1 when diagnostics contain errors (or check
// found stale files) and 2 on usage or environment failures.
package main
