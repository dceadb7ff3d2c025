package catalog

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yml
var defaultDefinition []byte

// FilterNode is a selectable filter option. A node with children is a parent,
// any other node is a leaf.
type FilterNode struct {
	ID               string       `yaml:"id" json:"id"`
	Label            string       `yaml:"label" json:"label"`
	Field            string       `yaml:"field,omitempty" json:"field,omitempty"`
	ExclusivityGroup string       `yaml:"exclusivity_group,omitempty" json:"exclusivity_group,omitempty"`
	Pseudo           bool         `yaml:"pseudo,omitempty" json:"pseudo,omitempty"`
	Children         []FilterNode `yaml:"children,omitempty" json:"children,omitempty"`
}

func (n FilterNode) IsParent() bool {
	return len(n.Children) > 0
}

// FilterValue is what the remote service receives for this node.
func (n FilterNode) FilterValue() string {
	if n.Field != "" {
		return n.Field
	}
	return n.ID
}

// Source ties a top-level node of a category to one independently fetched
// assignment dataset.
type Source struct {
	NodeID         string `yaml:"node" json:"node"`
	AssignmentType string `yaml:"assignment_type" json:"assignment_type"`
	SectionTitle   string `yaml:"section_title" json:"section_title"`
}

type Category struct {
	ID                string            `yaml:"id"`
	Label             string            `yaml:"label"`
	StandaloneParents []string          `yaml:"standalone_parents,omitempty"`
	FallbackLabels    map[string]string `yaml:"fallback_labels,omitempty"`
	Sources           []Source          `yaml:"sources,omitempty"`
	Nodes             []FilterNode      `yaml:"nodes"`

	index      map[string]indexEntry
	standalone map[string]bool
	globals    map[string]string
}

type indexEntry struct {
	node     *FilterNode
	parentID string
}

type Catalog struct {
	FallbackLabels map[string]string `yaml:"fallback_labels"`
	Items          []*Category       `yaml:"categories"`

	byID map[string]*Category
}

// Default returns the catalog compiled into the binary.
func Default() (*Catalog, error) {
	return Load(defaultDefinition)
}

// MustDefault is Default for package-level wiring where the embedded file is
// known to be valid.
func MustDefault() *Catalog {
	c, err := Default()
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded definition is invalid: %v", err))
	}
	return c
}

func Load(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	c.byID = make(map[string]*Category, len(c.Items))
	for _, cat := range c.Items {
		if cat.ID == "" {
			return nil, fmt.Errorf("category without id")
		}
		if _, dup := c.byID[cat.ID]; dup {
			return nil, fmt.Errorf("duplicate category %q", cat.ID)
		}
		if err := cat.build(c.FallbackLabels); err != nil {
			return nil, fmt.Errorf("category %q: %w", cat.ID, err)
		}
		c.byID[cat.ID] = cat
	}
	return &c, nil
}

func (c *Catalog) Category(id string) (*Category, bool) {
	cat, ok := c.byID[id]
	return cat, ok
}

func (c *Catalog) HasCategory(id string) bool {
	_, ok := c.byID[id]
	return ok
}

func (c *Catalog) Categories() []*Category {
	return c.Items
}

func (cat *Category) build(globals map[string]string) error {
	cat.index = make(map[string]indexEntry)
	cat.globals = globals

	for i := range cat.Nodes {
		top := &cat.Nodes[i]
		if err := cat.register(top, ""); err != nil {
			return err
		}
		for j := range top.Children {
			child := &top.Children[j]
			if child.IsParent() {
				return fmt.Errorf("node %q: filter trees are limited to parent and leaf levels", child.ID)
			}
			if err := cat.register(child, top.ID); err != nil {
				return err
			}
		}
	}

	cat.standalone = make(map[string]bool, len(cat.StandaloneParents))
	for _, id := range cat.StandaloneParents {
		entry, ok := cat.index[id]
		if !ok || entry.parentID != "" {
			return fmt.Errorf("standalone parent %q is not a top-level node", id)
		}
		cat.standalone[id] = true
	}

	for _, src := range cat.Sources {
		entry, ok := cat.index[src.NodeID]
		if !ok || entry.parentID != "" {
			return fmt.Errorf("source %q is not a top-level node", src.NodeID)
		}
	}
	return nil
}

func (cat *Category) register(n *FilterNode, parentID string) error {
	if n.ID == "" {
		return fmt.Errorf("node without id under %q", parentID)
	}
	if _, dup := cat.index[n.ID]; dup {
		return fmt.Errorf("duplicate node id %q", n.ID)
	}
	cat.index[n.ID] = indexEntry{node: n, parentID: parentID}
	return nil
}

func (cat *Category) Node(id string) (FilterNode, bool) {
	entry, ok := cat.index[id]
	if !ok {
		return FilterNode{}, false
	}
	return *entry.node, true
}

func (cat *Category) Has(id string) bool {
	_, ok := cat.index[id]
	return ok
}

// ParentOf returns the parent id of a leaf, or "" for top-level nodes.
func (cat *Category) ParentOf(id string) string {
	return cat.index[id].parentID
}

func (cat *Category) IsTopLevel(id string) bool {
	entry, ok := cat.index[id]
	return ok && entry.parentID == ""
}

// Children returns the leaf ids directly under parentID in catalog order.
func (cat *Category) Children(parentID string) []string {
	entry, ok := cat.index[parentID]
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(entry.node.Children))
	for _, child := range entry.node.Children {
		ids = append(ids, child.ID)
	}
	return ids
}

// TopLevel returns every top-level node id in catalog order.
func (cat *Category) TopLevel() []string {
	ids := make([]string, 0, len(cat.Nodes))
	for _, n := range cat.Nodes {
		ids = append(ids, n.ID)
	}
	return ids
}

// GroupOf returns the exclusivity group of a top-level node. Leaves report the
// group of their parent.
func (cat *Category) GroupOf(id string) string {
	entry, ok := cat.index[id]
	if !ok {
		return ""
	}
	if entry.parentID != "" {
		return cat.index[entry.parentID].node.ExclusivityGroup
	}
	return entry.node.ExclusivityGroup
}

func (cat *Category) IsStandalone(parentID string) bool {
	return cat.standalone[parentID]
}

func (cat *Category) IsPseudo(id string) bool {
	entry, ok := cat.index[id]
	return ok && entry.node.Pseudo
}

// FilterValues maps selected node ids to the values the remote service expects.
// Pseudo filters and unknown ids are dropped.
func (cat *Category) FilterValues(selection []string) []string {
	values := make([]string, 0, len(selection))
	for _, id := range selection {
		entry, ok := cat.index[id]
		if !ok || entry.node.Pseudo {
			continue
		}
		values = append(values, entry.node.FilterValue())
	}
	return values
}

// SourceFor returns the assignment source declared for a top-level node.
func (cat *Category) SourceFor(nodeID string) (Source, bool) {
	for _, src := range cat.Sources {
		if src.NodeID == nodeID {
			return src, true
		}
	}
	return Source{}, false
}

// Labels builds the ordered label lookup for report headers of this category:
// parent catalog, then each parent's sub-filters, then the static fallbacks.
func (cat *Category) Labels() *LabelResolver {
	parents := make(map[string]string, len(cat.Nodes))
	tables := []map[string]string{parents}

	for _, n := range cat.Nodes {
		parents[n.FilterValue()] = n.Label
		if !n.IsParent() {
			continue
		}
		sub := make(map[string]string, len(n.Children))
		for _, child := range n.Children {
			sub[child.FilterValue()] = child.Label
		}
		tables = append(tables, sub)
	}

	return NewLabelResolver(append(tables, cat.FallbackLabels, cat.globals)...)
}
