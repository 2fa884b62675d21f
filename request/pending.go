package request

import "sort"

// Pending is the accumulator of one compilation unit: one set per kind.
// The zero value is ready to use. Pending is not safe for concurrent use;
// the store serialises access to it.
type Pending struct {
	sets [numKinds]map[string]Request
}

// Insert adds r. It reports false when an identical request is already
// present.
func (p *Pending) Insert(r Request) bool {
	if r.Kind >= numKinds {
		panic("request: insert of unknown kind")
	}
	set := p.sets[r.Kind]
	if set == nil {
		set = map[string]Request{}
		p.sets[r.Kind] = set
	}
	key := r.Key()
	if _, dup := set[key]; dup {
		return false
	}
	set[key] = r
	return true
}

// Len returns the number of pending requests across all kinds.
func (p *Pending) Len() int {
	n := 0
	for _, s := range p.sets {
		n += len(s)
	}
	return n
}

// LenKind returns the number of pending requests of kind k.
func (p *Pending) LenKind(k Kind) int {
	return len(p.sets[k])
}

// Drain removes and returns every request of kind k, sorted by key so that
// generated output is reproducible.
func (p *Pending) Drain(k Kind) []Request {
	set := p.sets[k]
	p.sets[k] = nil
	if len(set) == 0 {
		return nil
	}
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	out := make([]Request, 0, len(keys))
	for _, key := range keys {
		out = append(out, set[key])
	}
	return out
}

// Batch is the drained content of one kind.
type Batch struct {
	Kind     Kind
	Requests []Request
}

// DrainAll drains every kind in emission order, skipping empty kinds.
func (p *Pending) DrainAll() []Batch {
	var out []Batch
	for _, k := range Kinds() {
		if reqs := p.Drain(k); len(reqs) > 0 {
			out = append(out, Batch{Kind: k, Requests: reqs})
		}
	}
	return out
}
