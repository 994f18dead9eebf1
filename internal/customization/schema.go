// Package customization models what a diner may select for a menu item:
// either a flat list of option slots or a DAG of nested option groups.
// A Schema is an immutable value built once per catalog item; selections
// reference node ids by value and never mutate it.
package customization

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vmelnikov/food_ordering/internal/errs"
	"github.com/vmelnikov/food_ordering/internal/models"
)

// Selected is one validated customization, priced from the current
// catalog value, never from client input.
type Selected struct {
	ID    uuid.UUID       `json:"customizationId"`
	Name  string          `json:"name"`
	Type  string          `json:"type"`
	Price decimal.Decimal `json:"price"`
}

// Constraints bound how many of a group's children may be selected.
type Constraints struct {
	Min      int  `json:"min"`
	Max      int  `json:"max"`
	Required bool `json:"required"`
}

type slot struct {
	join   models.MenuItemCustomization
	option models.Customization
}

type edge struct {
	childID      uuid.UUID
	constraints  *Constraints
	displayOrder int
}

// Schema is the validated customization structure of one menu item.
type Schema struct {
	mode  models.CustomizationType
	slots []slot

	nodes     map[uuid.UUID]models.CustomizationNode
	children  map[uuid.UUID][]edge
	hasParent map[uuid.UUID]bool
	roots     []uuid.UUID
}

// Build constructs the schema for an item: the slot list for SIMPLE items
// or the adjacency index (parent id -> ordered child edges) for DAG items.
func Build(item *models.MenuItem) *Schema {
	s := &Schema{mode: item.CustomizationType}

	switch item.CustomizationType {
	case models.CustomizationSimple:
		for _, mc := range item.Customizations {
			if !mc.Customization.IsActive {
				continue
			}
			s.slots = append(s.slots, slot{join: mc, option: mc.Customization})
		}
		sort.SliceStable(s.slots, func(i, j int) bool {
			return s.slots[i].join.DisplayOrder < s.slots[j].join.DisplayOrder
		})

	case models.CustomizationDAG:
		s.nodes = make(map[uuid.UUID]models.CustomizationNode, len(item.Nodes))
		s.children = make(map[uuid.UUID][]edge)
		s.hasParent = make(map[uuid.UUID]bool)

		for _, n := range item.Nodes {
			if !n.IsActive {
				continue
			}
			s.nodes[n.ID] = n
		}
		for _, e := range item.Edges {
			if _, ok := s.nodes[e.ParentNodeID]; !ok {
				continue
			}
			if _, ok := s.nodes[e.ChildNodeID]; !ok {
				continue
			}
			var c *Constraints
			if e.ConstraintMin != nil || e.ConstraintMax != nil || e.Required {
				c = &Constraints{Required: e.Required}
				if e.ConstraintMin != nil {
					c.Min = *e.ConstraintMin
				}
				if e.ConstraintMax != nil {
					c.Max = *e.ConstraintMax
				}
			}
			s.children[e.ParentNodeID] = append(s.children[e.ParentNodeID], edge{
				childID:      e.ChildNodeID,
				constraints:  c,
				displayOrder: e.DisplayOrder,
			})
			s.hasParent[e.ChildNodeID] = true
		}
		for id, edges := range s.children {
			es := edges
			sort.SliceStable(es, func(i, j int) bool { return es[i].displayOrder < es[j].displayOrder })
			s.children[id] = es
		}
		for _, n := range s.nodes {
			if !s.hasParent[n.ID] {
				s.roots = append(s.roots, n.ID)
			}
		}
		sort.SliceStable(s.roots, func(i, j int) bool {
			return s.nodes[s.roots[i]].DisplayOrder < s.nodes[s.roots[j]].DisplayOrder
		})
	}

	return s
}

// groupConstraints returns the selection rule of a group: the first
// constraint declared on its outgoing edges (authoring keeps these uniform
// across a group), or an open 0..len(children) rule when none is declared.
func (s *Schema) groupConstraints(groupID uuid.UUID) Constraints {
	edges := s.children[groupID]
	for _, e := range edges {
		if e.constraints != nil {
			return *e.constraints
		}
	}
	return Constraints{Min: 0, Max: len(edges)}
}

// Validate checks a selection against the schema and resolves it to the
// flat priced list the pricing engine consumes.
func (s *Schema) Validate(selectedIDs []uuid.UUID) ([]Selected, error) {
	if s.mode == models.CustomizationNone || (s.mode != models.CustomizationSimple && s.mode != models.CustomizationDAG) {
		if len(selectedIDs) > 0 {
			return nil, errs.Validationf("INVALID_SELECTION", "customizations",
				"this item accepts no customization")
		}
		return nil, nil
	}

	seen := make(map[uuid.UUID]bool, len(selectedIDs))
	for _, id := range selectedIDs {
		if seen[id] {
			return nil, errs.Validationf("DUPLICATE_SELECTION", "customizations",
				"customization '%s' selected more than once", id)
		}
		seen[id] = true
	}

	if s.mode == models.CustomizationSimple {
		return s.validateSimple(selectedIDs, seen)
	}
	return s.validateDAG(selectedIDs, seen)
}

func (s *Schema) validateSimple(selectedIDs []uuid.UUID, selected map[uuid.UUID]bool) ([]Selected, error) {
	byOption := make(map[uuid.UUID]slot, len(s.slots))
	for _, sl := range s.slots {
		byOption[sl.option.ID] = sl
	}

	out := make([]Selected, 0, len(selectedIDs))
	for _, id := range selectedIDs {
		sl, ok := byOption[id]
		if !ok {
			return nil, errs.Validationf("UNKNOWN_OPTION", "customizations",
				"unknown customization option '%s'", id)
		}
		out = append(out, Selected{
			ID:    sl.option.ID,
			Name:  sl.option.Name,
			Type:  string(sl.option.Type),
			Price: sl.option.Price,
		})
	}

	for _, sl := range s.slots {
		count := 0
		if selected[sl.option.ID] {
			count = 1
		}
		if sl.join.IsRequired && count == 0 {
			return nil, errs.Validationf("REQUIRED_OPTION_MISSING", sl.option.Name,
				"'%s' is required for this item", sl.option.Name)
		}
		if count < sl.join.MinSelections || count > sl.join.MaxSelections {
			return nil, errs.Validationf("SELECTION_OUT_OF_RANGE", sl.option.Name,
				"'%s' allows between %d and %d selections", sl.option.Name, sl.join.MinSelections, sl.join.MaxSelections)
		}
	}

	return out, nil
}

func (s *Schema) validateDAG(selectedIDs []uuid.UUID, selected map[uuid.UUID]bool) ([]Selected, error) {
	out := make([]Selected, 0, len(selectedIDs))
	for _, id := range selectedIDs {
		n, ok := s.nodes[id]
		if !ok {
			return nil, errs.Validationf("UNKNOWN_OPTION", "customizations",
				"unknown customization node '%s'", id)
		}
		out = append(out, Selected{
			ID:    n.ID,
			Name:  n.Name,
			Type:  string(n.Type),
			Price: n.Price,
		})
	}

	// Every group whose children intersect the selection is bounded by its
	// rule; required groups are enforced even with nothing selected.
	for id, n := range s.nodes {
		if n.Type != models.NodeGroup {
			continue
		}
		edges := s.children[id]
		if len(edges) == 0 {
			continue
		}
		count := 0
		for _, e := range edges {
			if selected[e.childID] {
				count++
			}
		}
		c := s.groupConstraints(id)
		if count == 0 && !c.Required {
			continue
		}
		if count < c.Min || count > c.Max {
			return nil, errs.Validationf("GROUP_SELECTION_OUT_OF_RANGE", n.Name,
				"'%s' requires between %d and %d selections, got %d", n.Name, c.Min, c.Max, count)
		}
	}

	return out, nil
}

// TreeNode is the display form of the DAG: children attached under their
// parent group, annotated with the constraints of the edge attaching them.
type TreeNode struct {
	ID           uuid.UUID       `json:"id"`
	Type         models.NodeType `json:"type"`
	Name         string          `json:"name"`
	Description  string          `json:"description,omitempty"`
	Price        decimal.Decimal `json:"price"`
	DisplayOrder int             `json:"displayOrder"`
	Constraints  *Constraints    `json:"constraints,omitempty"`
	Children     []TreeNode      `json:"children,omitempty"`
}

// Tree builds the display tree starting from the root groups. Traversal is
// defensive: a node revisited while still on the recursion stack means the
// edge set is not acyclic and the build fails fast.
func (s *Schema) Tree() ([]TreeNode, error) {
	if s.mode != models.CustomizationDAG {
		return nil, nil
	}

	visiting := make(map[uuid.UUID]bool)

	var build func(id uuid.UUID, c *Constraints) (TreeNode, error)
	build = func(id uuid.UUID, c *Constraints) (TreeNode, error) {
		if visiting[id] {
			return TreeNode{}, errs.Internalf("GRAPH_CYCLE",
				"customization graph contains a cycle at node '%s'", id)
		}
		visiting[id] = true
		defer delete(visiting, id)

		n := s.nodes[id]
		t := TreeNode{
			ID:           n.ID,
			Type:         n.Type,
			Name:         n.Name,
			Description:  n.Description,
			Price:        n.Price,
			DisplayOrder: n.DisplayOrder,
			Constraints:  c,
		}
		for _, e := range s.children[id] {
			child, err := build(e.childID, e.constraints)
			if err != nil {
				return TreeNode{}, err
			}
			t.Children = append(t.Children, child)
		}
		return t, nil
	}

	var roots []TreeNode
	for _, id := range s.roots {
		t, err := build(id, nil)
		if err != nil {
			return nil, err
		}
		roots = append(roots, t)
	}
	return roots, nil
}

// Lookup resolves a node or option id to its current catalog entry, used
// to refresh stored cart prices on read.
func (s *Schema) Lookup(id uuid.UUID) (Selected, bool) {
	switch s.mode {
	case models.CustomizationSimple:
		for _, sl := range s.slots {
			if sl.option.ID == id {
				return Selected{ID: id, Name: sl.option.Name, Type: string(sl.option.Type), Price: sl.option.Price}, true
			}
		}
	case models.CustomizationDAG:
		if n, ok := s.nodes[id]; ok {
			return Selected{ID: id, Name: n.Name, Type: string(n.Type), Price: n.Price}, true
		}
	}
	return Selected{}, false
}
