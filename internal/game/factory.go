package game

import "fmt"

// Factory builds game instances for registered kinds, overlaying the
// server's per-kind default params with the client's request params.
type Factory struct {
	settings Settings
	defaults map[Kind]Params
	policies *PolicySet
}

func NewFactory(st Settings, defaults map[Kind]Params) *Factory {
	if defaults == nil {
		defaults = map[Kind]Params{}
	}
	return &Factory{
		settings: st,
		defaults: defaults,
		policies: NewPolicySet(st.AgentDir),
	}
}

// Kinds lists the registered game kinds.
func (f *Factory) Kinds() []Kind {
	return []Kind{KindConnectFour, KindConnectFourStudy, KindHarvest}
}

// Known reports whether kind is registered.
func (f *Factory) Known(kind Kind) bool {
	for _, k := range f.Kinds() {
		if k == kind {
			return true
		}
	}
	return false
}

// Policies exposes the policy resolver for discovery endpoints.
func (f *Factory) Policies() *PolicySet { return f.policies }

// Create instantiates a game of the given kind bound to a room ID.
func (f *Factory) Create(kind Kind, id int, params Params) (Instance, error) {
	p := f.defaults[kind].Merge(params)
	switch kind {
	case KindConnectFour:
		return NewConnectFour(id, p, f.settings, f.policies)
	case KindConnectFourStudy:
		return NewConnectFourStudy(id, p, f.settings, f.policies)
	case KindHarvest:
		return NewHarvest(id, p, f.settings, f.policies)
	default:
		return nil, fmt.Errorf("unknown game kind: %s", kind)
	}
}
