// Package attr parses autoplugin directive comments into typed argument
// models.
//
// A directive is a line comment of the form
//
//	//autoplugin:<kind>
//	//autoplugin:<kind>(<args>)
//
// attached to a type, function or package clause. Arguments follow a small
// grammar:
//
//	args := arg { "," arg } [","]
//	arg  := IDENT                  flag
//	      | IDENT "=" EXPR         key/value
//	      | IDENT "(" args ")"     list
//	      | EXPR                   positional expression or type
//
// Leaves are Go expressions (or types) and are validated with go/parser.
// The package holds no state; every function is a pure transform of its input.
package attr
