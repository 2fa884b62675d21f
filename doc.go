// Package autoplugin generates plugin registration code from
// //autoplugin: comment directives.
//
// Types and functions are decorated where they are declared:
//
//	//autoplugin:component(register, name)
//	type Player struct{ Lives int }
//
//	//autoplugin:add_system(schedule = app.Update, config(after = spawn))
//	func move() {}
//
// and one function per file takes the builder and receives the generated
// calls between marker comments:
//
//	//autoplugin:plugin
//	func GamePlugin(b *app.App) {
//		// autoplugin: begin generated registrations
//		app.RegisterType[Player](b)
//		...
//		// autoplugin: end generated registrations
//	}
//
// A package may instead declare //autoplugin:package on its package clause;
// the registrations of all its files then go to a generated file.
//
// Layout:
//   - attr: directive lexing and argument decoding
//   - target: item kinds, generic arity and instantiation paths
//   - request: registration requests, their ordering and lowering to Go
//   - store: per-file accumulation state shared by a run
//   - expand: directive scanning, accumulation and plugin synthesis
//   - driver: package loading, concurrent expansion, caching and output
//   - app: the builder runtime generated code targets
//   - cmd/autoplugin: the command-line generator
//   - examples/*: flat-mode and package-mode examples
package autoplugin
