package keymap

import (
	"fmt"
	"strings"
)

// OwnerKind is the origin of a mapping.
type OwnerKind uint8

const (
	OwnerBuiltin OwnerKind = iota
	OwnerPlugin
	OwnerGlobal
	OwnerBuffer
)

// String returns the kind name used in configuration.
func (k OwnerKind) String() string {
	switch k {
	case OwnerBuiltin:
		return "builtin"
	case OwnerPlugin:
		return "plugin"
	case OwnerGlobal:
		return "global"
	case OwnerBuffer:
		return "buffer"
	default:
		return fmt.Sprintf("owner(%d)", k)
	}
}

func parseOwnerKind(s string) (OwnerKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "builtin":
		return OwnerBuiltin, nil
	case "plugin":
		return OwnerPlugin, nil
	case "global", "user":
		return OwnerGlobal, nil
	case "buffer", "local":
		return OwnerBuffer, nil
	}
	return 0, fmt.Errorf("unknown mapping owner %q", s)
}

// Owner identifies who installed a mapping. Name distinguishes plugins
// from each other and names the buffer of a buffer-local mapping.
type Owner struct {
	Kind OwnerKind
	Name string
}

// Builtin is the owner of the default key bindings.
func Builtin() Owner { return Owner{Kind: OwnerBuiltin} }

// Global is the owner of user mappings.
func Global() Owner { return Owner{Kind: OwnerGlobal} }

// Plugin returns the owner for mappings installed by a plugin.
func Plugin(name string) Owner { return Owner{Kind: OwnerPlugin, Name: name} }

// Buffer returns the owner for mappings local to one buffer.
func Buffer(id string) Owner { return Owner{Kind: OwnerBuffer, Name: id} }

// String formats the owner as "kind" or "kind:name".
func (o Owner) String() string {
	if o.Name == "" {
		return o.Kind.String()
	}
	return o.Kind.String() + ":" + o.Name
}

// ParseOwner parses "global", "builtin", "plugin:<name>" or "buffer:<id>".
func ParseOwner(s string) (Owner, error) {
	kindPart, name, _ := strings.Cut(s, ":")
	kind, err := parseOwnerKind(kindPart)
	if err != nil {
		return Owner{}, err
	}
	if kind == OwnerBuffer && name == "" {
		return Owner{}, fmt.Errorf("buffer owner needs a buffer id: %q", s)
	}
	return Owner{Kind: kind, Name: name}, nil
}

// Scope selects which owners are visible to a lookup.
type Scope struct {
	// Buffer is the buffer of the surface doing the lookup. Buffer-local
	// mappings of other buffers are invisible.
	Buffer string
}

// Policy orders owner kinds from highest to lowest priority. When
// several owners map the same sequence, the first kind in the policy wins.
type Policy []OwnerKind

// DefaultPolicy lets the most specific scope win:
// buffer, then global, then plugin, then built-in.
func DefaultPolicy() Policy {
	return Policy{OwnerBuffer, OwnerGlobal, OwnerPlugin, OwnerBuiltin}
}

// ParsePolicy parses owner kind names, highest priority first. Kinds
// left out rank below every listed kind.
func ParsePolicy(names []string) (Policy, error) {
	if len(names) == 0 {
		return DefaultPolicy(), nil
	}
	seen := make(map[OwnerKind]bool)
	p := make(Policy, 0, len(names))
	for _, n := range names {
		k, err := parseOwnerKind(n)
		if err != nil {
			return nil, err
		}
		if seen[k] {
			return nil, fmt.Errorf("owner %q listed twice in priority policy", n)
		}
		seen[k] = true
		p = append(p, k)
	}
	return p, nil
}

// rank returns a larger number for higher priority kinds.
func (p Policy) rank(k OwnerKind) int {
	for i, pk := range p {
		if pk == k {
			return len(p) - i
		}
	}
	return 0
}
