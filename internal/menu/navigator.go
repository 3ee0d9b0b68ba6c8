package menu

// Navigator is a cursor over a Tree. It is not safe for concurrent use.
type Navigator struct {
	tree    *Tree
	current ItemID
	last    ItemID
	sibling int
	open    bool
}

// NewNavigator creates a closed navigator over t. The tree must pass Validate.
func NewNavigator(t *Tree) *Navigator {
	return &Navigator{tree: t, current: NoItem, last: NoItem}
}

// Open reports whether the menu is being navigated.
func (n *Navigator) Open() bool {
	return n.open
}

// Current returns the item under the cursor, or NoItem when closed.
func (n *Navigator) Current() ItemID {
	if !n.open {
		return NoItem
	}
	return n.current
}

// Path returns the names from the top level down to the cursor.
func (n *Navigator) Path() []string {
	if !n.open {
		return nil
	}
	return n.tree.Path(n.current)
}

// Enter opens the menu at the root and shows its first item.
func (n *Navigator) Enter() {
	root := n.tree.items[Root]
	if root.Hooks.Enter != nil {
		root.Hooks.Enter()
	}
	n.open = true
	n.current = root.Children[0]
	n.last = NoItem
	n.sibling = -1
	n.Next()
}

// Exit closes the menu and runs the root's exit hook.
func (n *Navigator) Exit() {
	n.open = false
	if h := n.tree.items[Root].Hooks.Exit; h != nil {
		h()
	}
}

// Next moves to the following sibling, wrapping at the end. On an editable
// item it increases the value instead of redrawing.
func (n *Navigator) Next() {
	if !n.open {
		return
	}
	cur := n.tree.items[n.current]

	tr := TransitionNextSibling
	switch {
	case n.last == NoItem || n.last == cur.Parent:
		tr = TransitionChild
	case contains(cur.Children, n.last):
		tr = TransitionParent
	}

	n.last = n.current
	siblings := n.tree.items[cur.Parent].Children
	n.sibling++
	if n.sibling >= len(siblings) {
		n.sibling = 0
	}
	n.current = siblings[n.sibling]
	n.show(EditIncrease, tr)
}

// Previous moves to the preceding sibling, wrapping at the start. On an
// editable item it decreases the value instead of redrawing.
func (n *Navigator) Previous() {
	if !n.open {
		return
	}
	cur := n.tree.items[n.current]

	n.last = n.current
	siblings := n.tree.items[cur.Parent].Children
	n.sibling--
	if n.sibling < 0 {
		n.sibling = len(siblings) - 1
	}
	n.current = siblings[n.sibling]
	n.show(EditDecrease, TransitionPrevSibling)
}

// ItemEnter selects the current item. A branch is descended into. A leaf
// commits its edit and the cursor returns to the parent; leaving a top-level
// leaf exits the menu.
func (n *Navigator) ItemEnter() {
	if !n.open {
		return
	}
	cur := n.tree.items[n.current]
	if cur.Hooks.Enter != nil {
		cur.Hooks.Enter()
	}
	n.last = n.current

	if cur.IsLeaf() {
		if cur.Hooks.Edit != nil {
			cur.Hooks.Edit(EditWrite)
		}
		n.current = cur.Parent
		if n.current == Root {
			n.Exit()
			return
		}
		// Next advances onto the item just ascended to.
		n.sibling = n.tree.indexOf(n.current) - 1
	} else {
		n.current = cur.Children[0]
		n.sibling = -1
	}

	if edit := n.tree.items[n.current].Hooks.Edit; edit != nil {
		edit(EditRead)
		return
	}
	n.Next()
}

func (n *Navigator) show(mode EditMode, tr Transition) {
	h := n.tree.items[n.current].Hooks
	if h.Edit != nil {
		h.Edit(mode)
		return
	}
	if h.Display != nil {
		h.Display(tr)
	}
}

func contains(ids []ItemID, id ItemID) bool {
	for _, c := range ids {
		if c == id {
			return true
		}
	}
	return false
}
