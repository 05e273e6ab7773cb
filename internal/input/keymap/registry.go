package keymap

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/dshills/modalkeys/internal/input/key"
	"github.com/dshills/modalkeys/internal/input/mode"
)

// Errors returned by mapping operations.
var (
	ErrEmptySequence = errors.New("mapping has an empty key sequence")
	ErrNoSuchMapping = errors.New("no such mapping")
	ErrInvalidTarget = errors.New("mapping target must be exactly one of command, keys or expression")
)

// MatchKind is the answer of a trie lookup.
type MatchKind uint8

const (
	// MatchNone means no mapping starts with the keys.
	MatchNone MatchKind = iota

	// MatchComplete means the keys are mapped and nothing longer can win.
	MatchComplete

	// MatchAmbiguous means the keys are mapped but longer sequences
	// starting with them exist too.
	MatchAmbiguous

	// MatchPrefix means the keys only start longer sequences.
	MatchPrefix
)

// String returns a human-readable match kind.
func (k MatchKind) String() string {
	switch k {
	case MatchNone:
		return "none"
	case MatchComplete:
		return "complete"
	case MatchAmbiguous:
		return "ambiguous"
	case MatchPrefix:
		return "prefix"
	default:
		return "unknown"
	}
}

// Match is the result of Lookup. Entry is the highest-priority exact
// entry for Complete and Ambiguous matches.
type Match struct {
	Kind  MatchKind
	Entry *Entry
}

// node is one position in a per-mode prefix tree.
type node struct {
	children map[key.ID]*node
	entries  []*Entry
}

func newNode() *node {
	return &node{children: make(map[key.ID]*node)}
}

// Registry is the mapping trie shared by every editing surface. It
// holds one prefix tree per mapping table. Lookups take a read lock,
// so many surfaces can resolve keys while mutations are serialized.
type Registry struct {
	mu     sync.RWMutex
	roots  map[mode.MapMode]*node
	policy Policy
	seq    uint64
}

// NewRegistry creates an empty registry with the given owner policy.
// A nil policy means DefaultPolicy.
func NewRegistry(policy Policy) *Registry {
	if policy == nil {
		policy = DefaultPolicy()
	}
	roots := make(map[mode.MapMode]*node, len(mode.AllMapModes))
	for _, mm := range mode.AllMapModes {
		roots[mm] = newNode()
	}
	return &Registry{roots: roots, policy: policy}
}

// SetPolicy replaces the owner priority policy.
func (r *Registry) SetPolicy(p Policy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p == nil {
		p = DefaultPolicy()
	}
	r.policy = p
}

// Map installs lhs in every listed table. An existing mapping of the
// same owner for the same keys is replaced; other owners are kept.
func (r *Registry) Map(owner Owner, modes []mode.MapMode, lhs key.Sequence, target Target, flags MapFlags) error {
	m := Mapping{Owner: owner, Modes: modes, LHS: lhs, Target: target, Flags: flags}
	if err := m.normalize(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkModesLocked(m.Modes); err != nil {
		return err
	}
	r.insertLocked(m)
	return nil
}

// Replace removes every mapping of owner and installs ms in their place
// under one write lock, so lookups never see a partial table. Nothing
// changes when any of ms is invalid. Returns the count removed.
func (r *Registry) Replace(owner Owner, ms []Mapping) (int, error) {
	prepared := make([]Mapping, len(ms))
	for i, m := range ms {
		if err := m.normalize(); err != nil {
			return 0, fmt.Errorf("mapping %s: %w", m.LHS, err)
		}
		prepared[i] = m
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range prepared {
		if err := r.checkModesLocked(m.Modes); err != nil {
			return 0, err
		}
	}
	removed := r.removeOwnerLocked(owner)
	for _, m := range prepared {
		r.insertLocked(m)
	}
	return removed, nil
}

// Mapping is one mapping to install with Replace.
type Mapping struct {
	Owner  Owner
	Modes  []mode.MapMode
	LHS    key.Sequence
	Target Target
	Flags  MapFlags
}

func (m *Mapping) normalize() error {
	if len(m.LHS) == 0 {
		return ErrEmptySequence
	}
	set := 0
	if m.Target.Command != nil {
		set++
	}
	if m.Target.Expression != "" {
		set++
		m.Flags |= FlagExpression
	}
	if set > 1 || (m.Target.Command != nil && len(m.Target.Keys) > 0) {
		return ErrInvalidTarget
	}
	if m.Target.Command != nil {
		m.Flags &^= FlagRecursive | FlagExpression
	}
	return nil
}

func (r *Registry) checkModesLocked(modes []mode.MapMode) error {
	for _, mm := range modes {
		if _, ok := r.roots[mm]; !ok {
			return fmt.Errorf("unknown map mode %v", mm)
		}
	}
	return nil
}

// insertLocked adds m to its tables. Caller must hold the write lock.
func (r *Registry) insertLocked(m Mapping) {
	for _, mm := range m.Modes {
		r.seq++
		entry := &Entry{
			Owner:       m.Owner,
			Mode:        mm,
			Keys:        m.LHS.Clone(),
			Command:     m.Target.Command,
			Replacement: m.Target.Keys.Clone(),
			Expression:  m.Target.Expression,
			Flags:       m.Flags,
			seq:         r.seq,
		}
		n := r.roots[mm]
		for _, id := range m.LHS.IDs() {
			child, ok := n.children[id]
			if !ok {
				child = newNode()
				n.children[id] = child
			}
			n = child
		}
		replaced := false
		for i, e := range n.entries {
			if e.Owner == m.Owner {
				n.entries[i] = entry
				replaced = true
				break
			}
		}
		if !replaced {
			n.entries = append(n.entries, entry)
		}
	}
}

// Unmap removes the owner's mapping of exactly lhs from every listed
// table. Longer mappings that merely start with lhs are not touched.
// Returns ErrNoSuchMapping if none of the tables had such an entry.
func (r *Registry) Unmap(owner Owner, modes []mode.MapMode, lhs key.Sequence) error {
	if len(lhs) == 0 {
		return ErrEmptySequence
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := false
	ids := lhs.IDs()
	for _, mm := range modes {
		if r.removeLocked(mm, ids, func(e *Entry) bool { return e.Owner == owner }) {
			removed = true
		}
	}
	if !removed {
		return fmt.Errorf("%w: %s", ErrNoSuchMapping, lhs)
	}
	return nil
}

// RemoveOwner deletes every mapping installed by owner, e.g. when a
// buffer closes or a mapping file is reloaded. Returns the count removed.
func (r *Registry) RemoveOwner(owner Owner) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.removeOwnerLocked(owner)
}

func (r *Registry) removeOwnerLocked(owner Owner) int {
	count := 0
	for mm, root := range r.roots {
		var paths [][]key.ID
		walk(root, nil, func(path []key.ID, n *node) {
			for _, e := range n.entries {
				if e.Owner == owner {
					paths = append(paths, append([]key.ID(nil), path...))
					break
				}
			}
		})
		for _, p := range paths {
			before := r.countAt(mm, p)
			r.removeLocked(mm, p, func(e *Entry) bool { return e.Owner == owner })
			count += before - r.countAt(mm, p)
		}
	}
	return count
}

func (r *Registry) countAt(mm mode.MapMode, ids []key.ID) int {
	n := r.roots[mm]
	for _, id := range ids {
		if n = n.children[id]; n == nil {
			return 0
		}
	}
	return len(n.entries)
}

// removeLocked drops matching entries at ids and prunes empty nodes.
// Caller must hold the write lock.
func (r *Registry) removeLocked(mm mode.MapMode, ids []key.ID, match func(*Entry) bool) bool {
	path := []*node{r.roots[mm]}
	n := path[0]
	for _, id := range ids {
		child, ok := n.children[id]
		if !ok {
			return false
		}
		path = append(path, child)
		n = child
	}

	kept := n.entries[:0]
	for _, e := range n.entries {
		if !match(e) {
			kept = append(kept, e)
		}
	}
	removed := len(kept) != len(n.entries)
	for i := len(kept); i < len(n.entries); i++ {
		n.entries[i] = nil
	}
	n.entries = kept

	// Prune empty nodes from leaf to root
	for i := len(path) - 1; i > 0; i-- {
		cur := path[i]
		if len(cur.entries) > 0 || len(cur.children) > 0 {
			break
		}
		delete(path[i-1].children, ids[i-1])
	}
	return removed
}

// Lookup resolves keys in one mapping table.
//
// With remap false only built-in entries are considered, which is how
// keys produced by a noremap mapping are resolved. A user mapping only
// waits for longer user mappings, while a built-in binding also waits
// for longer built-ins, so "d" defers until "dd" or "dw" is decided.
func (r *Registry) Lookup(mm mode.MapMode, scope Scope, keys key.Sequence, remap bool) Match {
	if len(keys) == 0 {
		return Match{}
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := r.roots[mm]
	if n == nil {
		return Match{}
	}
	for _, ev := range keys {
		if n = n.children[ev.ID()]; n == nil {
			return Match{}
		}
	}

	best := r.bestLocked(n, scope, remap)
	if best == nil {
		if r.hasVisibleBelow(n, scope, remap, false) {
			return Match{Kind: MatchPrefix}
		}
		return Match{}
	}

	entry := best.clone()
	if best.Flags.Has(FlagNoWait) {
		return Match{Kind: MatchComplete, Entry: &entry}
	}
	if r.hasVisibleBelow(n, scope, remap, !best.IsBuiltin()) {
		return Match{Kind: MatchAmbiguous, Entry: &entry}
	}
	return Match{Kind: MatchComplete, Entry: &entry}
}

// Candidates returns copies of every visible entry whose keys start
// with prefix, sorted by key sequence.
func (r *Registry) Candidates(mm mode.MapMode, scope Scope, prefix key.Sequence) []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := r.roots[mm]
	if n == nil {
		return nil
	}
	for _, ev := range prefix {
		if n = n.children[ev.ID()]; n == nil {
			return nil
		}
	}
	var out []Entry
	walk(n, nil, func(_ []key.ID, cur *node) {
		for _, e := range cur.entries {
			if r.visible(e, scope, true) {
				out = append(out, e.clone())
			}
		}
	})
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Keys.String(), out[j].Keys.String()
		if a != b {
			return a < b
		}
		return r.policy.rank(out[i].Owner.Kind) > r.policy.rank(out[j].Owner.Kind)
	})
	return out
}

// Len returns the number of entries in one table.
func (r *Registry) Len(mm mode.MapMode) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	if root := r.roots[mm]; root != nil {
		walk(root, nil, func(_ []key.ID, n *node) { count += len(n.entries) })
	}
	return count
}

func (r *Registry) visible(e *Entry, scope Scope, remap bool) bool {
	if !remap && !e.IsBuiltin() {
		return false
	}
	if e.Owner.Kind == OwnerBuffer && e.Owner.Name != scope.Buffer {
		return false
	}
	return true
}

// bestLocked picks the highest-priority visible entry at n. Among equal
// ranks the most recently installed entry wins.
func (r *Registry) bestLocked(n *node, scope Scope, remap bool) *Entry {
	var best *Entry
	for _, e := range n.entries {
		if !r.visible(e, scope, remap) {
			continue
		}
		if best == nil {
			best = e
			continue
		}
		rb, re := r.policy.rank(best.Owner.Kind), r.policy.rank(e.Owner.Kind)
		if re > rb || (re == rb && e.seq > best.seq) {
			best = e
		}
	}
	return best
}

// hasVisibleBelow reports whether any strict descendant of n holds a
// visible entry, optionally counting user mappings only.
func (r *Registry) hasVisibleBelow(n *node, scope Scope, remap, userOnly bool) bool {
	stack := make([]*node, 0, len(n.children))
	for _, c := range n.children {
		stack = append(stack, c)
	}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, e := range cur.entries {
			if userOnly && e.IsBuiltin() {
				continue
			}
			if r.visible(e, scope, remap) {
				return true
			}
		}
		for _, c := range cur.children {
			stack = append(stack, c)
		}
	}
	return false
}

// walk visits n and its descendants depth-first.
func walk(n *node, path []key.ID, visit func([]key.ID, *node)) {
	visit(path, n)
	for id, c := range n.children {
		walk(c, append(path, id), visit)
	}
}
