// Package catalog maintains the browsable display tree of registered node kinds.
//
// Each node kind is registered with a path-like label such as "Math/Add".
// Intermediate segments become group entries (with an empty key) and the last
// segment becomes a leaf carrying the kind key.
package catalog

import (
	"strings"
	"sync"

	"github.com/emirpasic/gods/maps/linkedhashmap"
)

// Separator splits a display label into its path segments.
const Separator = "/"

// Visitor receives one call per entry during Walk.
// prevDepth is the depth of the previously visited entry (0 for the first one).
// key is empty for group entries.
type Visitor func(prevDepth, depth int, leaf bool, key, name string)

type entry struct {
	key      string
	name     string
	leaf     bool
	children *linkedhashmap.Map // groups under name+Separator, leaves under name; insertion ordered
}

func newGroup(name string) *entry {
	return &entry{name: name, children: linkedhashmap.New()}
}

func newLeaf(key, name string) *entry {
	return &entry{key: key, name: name, leaf: true, children: linkedhashmap.New()}
}

func (e *entry) get(id string) (*entry, bool) {
	v, ok := e.children.Get(id)
	if !ok {
		return nil, false
	}
	return v.(*entry), true
}

// child returns the leaf called name.
func (e *entry) child(name string) (*entry, bool) { return e.get(name) }

// group returns the group called name.
func (e *entry) group(name string) (*entry, bool) { return e.get(name + Separator) }

// Tree is the display tree. Safe for concurrent use.
type Tree struct {
	mu     sync.RWMutex
	root   *entry
	leaves int
}

// New creates an empty tree.
func New() *Tree {
	return &Tree{root: newGroup("")}
}

// Add inserts key under the hierarchy described by label.
// Existing groups are reused by exact name; empty segments are ignored.
// Adding a label twice updates the key of the existing leaf. Leaves never
// gain children: a group and a leaf of the same name are kept side by side.
func (t *Tree) Add(key, label string) {
	segments := labelSegments(key, label)

	t.mu.Lock()
	defer t.mu.Unlock()

	parent := t.root
	for _, name := range segments[:len(segments)-1] {
		next, ok := parent.group(name)
		if !ok {
			next = newGroup(name)
			parent.children.Put(name+Separator, next)
		}
		parent = next
	}

	name := segments[len(segments)-1]
	if leaf, ok := parent.child(name); ok {
		leaf.key = key
		return
	}
	parent.children.Put(name, newLeaf(key, name))
	t.leaves++
}

// Remove deletes the leaf at label if it carries key, then drops the groups
// it leaves empty. It reports whether a leaf was removed.
func (t *Tree) Remove(key, label string) bool {
	segments := labelSegments(key, label)

	t.mu.Lock()
	defer t.mu.Unlock()

	path := []*entry{t.root}
	for _, name := range segments[:len(segments)-1] {
		next, ok := path[len(path)-1].group(name)
		if !ok {
			return false
		}
		path = append(path, next)
	}

	parent := path[len(path)-1]
	name := segments[len(segments)-1]
	leaf, ok := parent.child(name)
	if !ok || leaf.key != key {
		return false
	}
	parent.children.Remove(name)
	t.leaves--

	for i := len(path) - 1; i > 0 && path[i].children.Empty(); i-- {
		path[i-1].children.Remove(path[i].name + Separator)
	}
	return true
}

// Walk visits the tree depth first, siblings in insertion order.
// The root itself is not visited; top-level entries have depth 0.
func (t *Tree) Walk(visit Visitor) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	prev := 0
	var walk func(e *entry, depth int)
	walk = func(e *entry, depth int) {
		it := e.children.Iterator()
		for it.Next() {
			child := it.Value().(*entry)
			visit(prev, depth, child.leaf, child.key, child.name)
			prev = depth
			walk(child, depth+1)
		}
	}
	walk(t.root, 0)
}

// Lookup returns the key registered under label.
func (t *Tree) Lookup(label string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	segments := split(label)
	if len(segments) == 0 {
		return "", false
	}
	e := t.root
	for _, name := range segments[:len(segments)-1] {
		next, ok := e.group(name)
		if !ok {
			return "", false
		}
		e = next
	}
	leaf, ok := e.child(segments[len(segments)-1])
	if !ok {
		return "", false
	}
	return leaf.key, true
}

// Len returns the number of registered kinds in the tree.
func (t *Tree) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.leaves
}

// labelSegments splits label, falling back to the key for an empty label.
func labelSegments(key, label string) []string {
	if segments := split(label); len(segments) > 0 {
		return segments
	}
	return []string{key}
}

func split(label string) []string {
	parts := strings.Split(label, Separator)
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
