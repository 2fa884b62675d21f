// Package request models registration requests: the unit accumulated per file
// and lowered into builder calls by the plugin synthesis.
package request

// Kind is the closed set of registration kinds. The numeric order is the
// fixed emission order of a generated plugin.
type Kind uint8

const (
	RegisterType Kind = iota
	RegisterStateType
	AddEvent
	AddMessage
	InitResource
	InsertResource
	InitState
	RequiredComponentName
	AddSystem
	AddObserver

	numKinds
)

// Kinds returns every kind in emission order.
func Kinds() []Kind {
	out := make([]Kind, 0, numKinds)
	for k := Kind(0); k < numKinds; k++ {
		out = append(out, k)
	}
	return out
}

var kindNames = [numKinds]string{
	RegisterType:          "register_type",
	RegisterStateType:     "register_state_type",
	AddEvent:              "add_event",
	AddMessage:            "add_message",
	InitResource:          "init_resource",
	InsertResource:        "insert_resource",
	InitState:             "init_state",
	RequiredComponentName: "name",
	AddSystem:             "add_system",
	AddObserver:           "add_observer",
}

func (k Kind) String() string {
	if k >= numKinds {
		return "unknown"
	}
	return kindNames[k]
}
