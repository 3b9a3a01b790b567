package syntax

// Dump is a plain, serializable copy of a node. It is what `goftl parse`
// prints as JSON or YAML and what tests compare trees with.
type Dump struct {
	Kind     Kind    `json:"kind" yaml:"kind"`
	Field    string  `json:"field,omitempty" yaml:"field,omitempty"`
	Start    int     `json:"start" yaml:"start"`
	End      int     `json:"end" yaml:"end"`
	Text     string  `json:"text,omitempty" yaml:"text,omitempty"`
	Missing  bool    `json:"missing,omitempty" yaml:"missing,omitempty"`
	Message  string  `json:"message,omitempty" yaml:"message,omitempty"`
	Children []*Dump `json:"children,omitempty" yaml:"children,omitempty"`
}

// DumpOptions controls which nodes Dump keeps.
type DumpOptions struct {
	// Anonymous keeps punctuation leaves.
	Anonymous bool
	// Whitespace keeps whitespace leaves.
	Whitespace bool
}

// Dump copies n into a Dump tree.
func (n *Node) Dump(opts DumpOptions) *Dump {
	return n.dump("", opts)
}

func (n *Node) dump(field string, opts DumpOptions) *Dump {
	d := &Dump{
		Kind:    n.kind,
		Field:   field,
		Start:   n.span.Start,
		End:     n.span.End,
		Text:    n.text,
		Missing: n.missing,
		Message: n.message,
	}
	for i, c := range n.children {
		if c.kind == Whitespace && !opts.Whitespace {
			continue
		}
		if !c.named && c.kind != Whitespace && !c.missing && !opts.Anonymous {
			continue
		}
		d.Children = append(d.Children, c.dump(n.fields[i], opts))
	}
	return d
}
