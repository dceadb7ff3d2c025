package selection

// Tree is the shape of a category filter tree the controller navigates.
type Tree interface {
	Has(id string) bool
	IsTopLevel(id string) bool
	ParentOf(id string) string
	Children(parentID string) []string
	TopLevel() []string
}

// Policy carries the per-category selection rules.
//
// GroupOf returns the exclusivity group of a node ("" when the node combines
// freely). IsStandalone reports whether a parent stays selected after its last
// leaf is unchecked.
type Policy interface {
	GroupOf(id string) string
	IsStandalone(parentID string) bool
}

// Controller applies user toggles to the selection of one category.
type Controller struct {
	tree   Tree
	policy Policy
	set    Set
}

func NewController(tree Tree, policy Policy) *Controller {
	return &Controller{tree: tree, policy: policy}
}

func (c *Controller) Selection() Set {
	return c.set
}

func (c *Controller) Reset() {
	c.set = Set{}
}

// ToggleParent checks or unchecks a top-level node. Unknown ids and leaf ids
// are ignored.
func (c *Controller) ToggleParent(nodeID string, checked bool) {
	if !c.tree.IsTopLevel(nodeID) {
		return
	}

	next := c.set
	if checked {
		next = c.clearGroup(next, nodeID)
		next = next.with(nodeID)
	} else {
		next = next.without(append(c.tree.Children(nodeID), nodeID)...)
	}
	c.set = next
}

// ToggleLeaf checks or unchecks a leaf under parentID. An empty parentID is
// resolved from the tree; a parent that does not own the leaf makes the call a
// no-op.
func (c *Controller) ToggleLeaf(leafID, parentID string, checked bool) {
	if !c.tree.Has(leafID) || c.tree.IsTopLevel(leafID) {
		return
	}
	owner := c.tree.ParentOf(leafID)
	if parentID == "" {
		parentID = owner
	}
	if owner != parentID {
		return
	}

	next := c.set
	if checked {
		next = c.clearGroup(next, parentID)
		next = next.with(parentID).with(leafID)
		c.set = next
		return
	}

	next = next.without(leafID)
	if !c.policy.IsStandalone(parentID) && !anySelected(next, c.tree.Children(parentID)) {
		next = next.without(parentID)
	}
	c.set = next
}

// Replace installs a stored selection, dropping unknown ids and repairing the
// parent and exclusivity rules. Earlier ids win over later ones in the same group.
func (c *Controller) Replace(ids []string) {
	c.set = Set{}
	for _, id := range ids {
		switch {
		case !c.tree.Has(id):
			continue
		case c.tree.IsTopLevel(id):
			if c.conflicts(id) {
				continue
			}
			c.set = c.set.with(id)
		default:
			parent := c.tree.ParentOf(id)
			if !c.set.Has(parent) && c.conflicts(parent) {
				continue
			}
			c.set = c.set.with(parent).with(id)
		}
	}
}

// conflicts reports whether another top-level node of topID's group is selected.
func (c *Controller) conflicts(topID string) bool {
	group := c.policy.GroupOf(topID)
	if group == "" {
		return false
	}
	for _, other := range c.tree.TopLevel() {
		if other != topID && c.set.Has(other) && c.policy.GroupOf(other) == group {
			return true
		}
	}
	return false
}

// clearGroup removes every other top-level node sharing topID's exclusivity
// group, together with their leaves.
func (c *Controller) clearGroup(s Set, topID string) Set {
	group := c.policy.GroupOf(topID)
	if group == "" {
		return s
	}
	var drop []string
	for _, other := range c.tree.TopLevel() {
		if other == topID || c.policy.GroupOf(other) != group {
			continue
		}
		drop = append(drop, other)
		drop = append(drop, c.tree.Children(other)...)
	}
	return s.without(drop...)
}

func anySelected(s Set, ids []string) bool {
	for _, id := range ids {
		if s.Has(id) {
			return true
		}
	}
	return false
}
