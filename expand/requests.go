package expand

import (
	"github.com/sghaida/autoplugin/attr"
	"github.com/sghaida/autoplugin/diag"
	"github.com/sghaida/autoplugin/request"
	"github.com/sghaida/autoplugin/target"
)

// typeKinds maps the plain type directives to the request they produce.
var typeKinds = map[attr.Kind]request.Kind{
	attr.KindRegisterType:      request.RegisterType,
	attr.KindRegisterStateType: request.RegisterStateType,
	attr.KindAddEvent:          request.AddEvent,
	attr.KindAddMessage:        request.AddMessage,
	attr.KindInitResource:      request.InitResource,
	attr.KindInitState:         request.InitState,
}

// flagKinds maps each shorthand flag to the request it produces.
var flagKinds = map[attr.Kind]map[string]request.Kind{
	attr.KindComponent: {"register": request.RegisterType, "name": request.RequiredComponentName},
	attr.KindResource:  {"register": request.RegisterType, "init": request.InitResource, "insert": request.InsertResource},
	attr.KindEvent:     {"register": request.RegisterType, "add": request.AddEvent},
	attr.KindMessage:   {"register": request.RegisterType, "add": request.AddMessage},
	attr.KindState:     {"register": request.RegisterStateType, "init": request.InitState},
}

// Requests resolves a registration directive against the item it decorates
// and returns the requests it contributes, one per instantiation (and per
// flag for shorthand directives). It is pure: the item is only read.
func Requests(d attr.Directive, item target.Item) ([]request.Request, error) {
	if k, ok := typeKinds[d.Kind]; ok {
		args, err := attr.DecodeTypeArgs(d)
		if err != nil {
			return nil, err
		}
		paths, err := target.Resolve(d, item, target.ItemType, args.Generics, target.TypeArg)
		if err != nil {
			return nil, err
		}
		out := make([]request.Request, 0, len(paths))
		for _, p := range paths {
			out = append(out, request.Plain(k, p))
		}
		return out, nil
	}

	switch d.Kind {
	case attr.KindAddObserver:
		args, err := attr.DecodeTypeArgs(d)
		if err != nil {
			return nil, err
		}
		paths, err := target.Resolve(d, item, target.ItemFunc, args.Generics, target.CallTarget)
		if err != nil {
			return nil, err
		}
		out := make([]request.Request, 0, len(paths))
		for _, p := range paths {
			out = append(out, request.Plain(request.AddObserver, p))
		}
		return out, nil

	case attr.KindInsertResource:
		args, err := attr.DecodeResourceArgs(d)
		if err != nil {
			return nil, err
		}
		paths, err := target.Resolve(d, item, target.ItemType, args.Generics, target.TypeArg)
		if err != nil {
			return nil, err
		}
		out := make([]request.Request, 0, len(paths))
		for _, p := range paths {
			out = append(out, request.Insert(p, args.Value))
		}
		return out, nil

	case attr.KindName:
		args, err := attr.DecodeNameArgs(d)
		if err != nil {
			return nil, err
		}
		paths, err := target.Resolve(d, item, target.ItemType, args.Generics, target.TypeArg)
		if err != nil {
			return nil, err
		}
		out := make([]request.Request, 0, len(paths))
		for _, p := range paths {
			out = append(out, request.Named(p, args.Name))
		}
		return out, nil

	case attr.KindAddSystem:
		args, err := attr.DecodeSystemArgs(d)
		if err != nil {
			return nil, err
		}
		paths, err := target.Resolve(d, item, target.ItemFunc, args.Generics, target.CallTarget)
		if err != nil {
			return nil, err
		}
		out := make([]request.Request, 0, len(paths))
		for _, p := range paths {
			out = append(out, request.System(p, args.Schedule, args.Modifiers))
		}
		return out, nil
	}

	if d.Kind.IsShorthand() {
		return shorthandRequests(d, item)
	}
	diag.Invariant("no request mapping for directive %s", d.Kind)
	return nil, nil
}

// shorthandRequests fans a flag directive out into one request per flag and
// instantiation, flags in written order.
func shorthandRequests(d attr.Directive, item target.Item) ([]request.Request, error) {
	args, err := attr.DecodeFlagArgs(d)
	if err != nil {
		return nil, err
	}
	if args.Has("init") && args.Has("insert") {
		return nil, diag.Usagef(diag.CodeMalformed, d.Pos, "%s: init and insert(...) are mutually exclusive", d.Kind)
	}
	paths, err := target.Resolve(d, item, target.ItemType, args.Generics, target.TypeArg)
	if err != nil {
		return nil, err
	}

	kinds := flagKinds[d.Kind]
	var out []request.Request
	for _, f := range args.Flags {
		k := kinds[f.Name]
		for _, p := range paths {
			switch k {
			case request.InsertResource:
				v, err := attr.FlagResource(d, f)
				if err != nil {
					return nil, err
				}
				out = append(out, request.Insert(p, v))
			case request.RequiredComponentName:
				out = append(out, request.Named(p, ""))
			default:
				out = append(out, request.Plain(k, p))
			}
		}
	}
	return out, nil
}
