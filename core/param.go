package core

// Parameter is one {key, value} pair of a list-shaped execution frame.
type Parameter struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// P is shorthand for constructing a Parameter.
func P(key string, value any) Parameter { return Parameter{Key: key, Value: value} }

// Params is an ordered list of input parameters. Keys need not be unique;
// every entry is sent in the order it was added.
type Params []Parameter

// Add appends a parameter and returns the extended list.
func (p Params) Add(key string, value any) Params {
	return append(p, Parameter{Key: key, Value: value})
}

// Get returns the value of the first parameter named key.
func (p Params) Get(key string) (any, bool) {
	for _, kv := range p {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return nil, false
}

// Clone returns an independent copy of the list.
func (p Params) Clone() Params {
	if p == nil {
		return nil
	}
	out := make(Params, len(p))
	copy(out, p)
	return out
}
