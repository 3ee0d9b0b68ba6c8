// Package menu provides an arena-backed menu tree and a cursor that walks it
// in response to navigation gestures. Items refer to their parent by handle,
// so a tree is built once at startup and never reallocated per node.
package menu

import (
	"errors"
	"fmt"
)

// ItemID is a handle into a Tree.
type ItemID int

const (
	// NoItem is the handle of a missing item, such as the root's parent.
	NoItem ItemID = -1
	// Root is the handle of every tree's root item.
	Root ItemID = 0
)

// Configuration errors.
var (
	ErrEmptyMenu = errors.New("menu root has no items")
	ErrBadParent = errors.New("parent item does not exist")
)

// EditMode tells an editable item what to do with its value.
type EditMode int

const (
	EditRead EditMode = iota
	EditWrite
	EditIncrease
	EditDecrease
)

func (m EditMode) String() string {
	switch m {
	case EditRead:
		return "READ"
	case EditWrite:
		return "WRITE"
	case EditIncrease:
		return "INCREASE"
	case EditDecrease:
		return "DECREASE"
	}
	return fmt.Sprintf("EditMode(%d)", int(m))
}

// Transition describes how the cursor arrived at the displayed item.
type Transition int

const (
	TransitionChild Transition = iota
	TransitionParent
	TransitionNextSibling
	TransitionPrevSibling
)

func (t Transition) String() string {
	switch t {
	case TransitionChild:
		return "CHILD"
	case TransitionParent:
		return "PARENT"
	case TransitionNextSibling:
		return "NEXT"
	case TransitionPrevSibling:
		return "PREV"
	}
	return fmt.Sprintf("Transition(%d)", int(t))
}

// Hooks are the optional callbacks of an item. They run synchronously on the
// navigator's goroutine.
type Hooks struct {
	Enter   func()
	Exit    func()
	Edit    func(EditMode)
	Display func(Transition)
}

// Item is one node of the tree.
type Item struct {
	Name     string
	Parent   ItemID
	Children []ItemID
	Hooks    Hooks
}

// IsLeaf reports whether the item has no children.
func (it Item) IsLeaf() bool {
	return len(it.Children) == 0
}

// Tree owns every item of a menu.
type Tree struct {
	items []Item
}

// NewTree creates a tree holding only a root item.
func NewTree(rootName string, hooks Hooks) *Tree {
	return &Tree{items: []Item{{Name: rootName, Parent: NoItem, Hooks: hooks}}}
}

// Add appends a child to parent and returns its handle.
func (t *Tree) Add(parent ItemID, name string, hooks Hooks) (ItemID, error) {
	if !t.valid(parent) {
		return NoItem, fmt.Errorf("add %q: %w", name, ErrBadParent)
	}
	id := ItemID(len(t.items))
	t.items = append(t.items, Item{Name: name, Parent: parent, Hooks: hooks})
	t.items[parent].Children = append(t.items[parent].Children, id)
	return id, nil
}

// SetHooks replaces the hooks of an item.
func (t *Tree) SetHooks(id ItemID, hooks Hooks) error {
	if !t.valid(id) {
		return fmt.Errorf("set hooks on %d: %w", id, ErrBadParent)
	}
	t.items[id].Hooks = hooks
	return nil
}

// Item returns a copy of the item. The zero Item is returned for an invalid handle.
func (t *Tree) Item(id ItemID) Item {
	if !t.valid(id) {
		return Item{Parent: NoItem}
	}
	return t.items[id]
}

// Len returns the number of items including the root.
func (t *Tree) Len() int {
	return len(t.items)
}

// Validate checks the tree can be navigated.
func (t *Tree) Validate() error {
	if len(t.items[Root].Children) == 0 {
		return ErrEmptyMenu
	}
	for i, it := range t.items[1:] {
		if !t.valid(it.Parent) {
			return fmt.Errorf("item %q (%d): %w", it.Name, i+1, ErrBadParent)
		}
	}
	return nil
}

// Path returns the item names from the first level below the root down to id.
func (t *Tree) Path(id ItemID) []string {
	var names []string
	for id != Root && t.valid(id) {
		names = append([]string{t.items[id].Name}, names...)
		id = t.items[id].Parent
	}
	return names
}

// Walk visits every item depth first in child order.
func (t *Tree) Walk(fn func(id ItemID, depth int)) {
	var visit func(id ItemID, depth int)
	visit = func(id ItemID, depth int) {
		fn(id, depth)
		for _, c := range t.items[id].Children {
			visit(c, depth+1)
		}
	}
	visit(Root, 0)
}

func (t *Tree) valid(id ItemID) bool {
	return id >= 0 && int(id) < len(t.items)
}

func (t *Tree) indexOf(id ItemID) int {
	for i, c := range t.items[t.items[id].Parent].Children {
		if c == id {
			return i
		}
	}
	return -1
}
