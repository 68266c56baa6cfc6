package categorization

import (
	"github.com/google/uuid"

	"github.com/FACorreiaa/household-budget/internal/domain/common"
)

// Category is a node of the household category hierarchy. Only one level of
// children exists: a category with a ParentID is a sub-category.
type Category struct {
	ID       uuid.UUID              `json:"id"`
	ParentID *uuid.UUID             `json:"parentId,omitempty"`
	Name     string                 `json:"name"`
	Type     common.TransactionType `json:"type"`
	Children []Category             `json:"children,omitempty"`
}

// Tree is the active category hierarchy of a household, global defaults
// included. Roots keep repository order.
type Tree struct {
	Roots []Category
	index map[uuid.UUID]*Category
}

// NewTree builds a tree from a flat list. Children whose parent is missing
// are promoted to roots so they stay selectable; anything nested deeper than
// one level is ignored.
func NewTree(flat []Category) Tree {
	byID := make(map[uuid.UUID]Category, len(flat))
	for _, c := range flat {
		c.Children = nil
		byID[c.ID] = c
	}

	var roots []Category
	rootPos := make(map[uuid.UUID]int)
	for _, c := range flat {
		if c.ParentID != nil {
			if _, ok := byID[*c.ParentID]; ok {
				continue
			}
		}
		c.Children = nil
		c.ParentID = nil
		rootPos[c.ID] = len(roots)
		roots = append(roots, c)
	}

	for _, c := range flat {
		if c.ParentID == nil {
			continue
		}
		pos, ok := rootPos[*c.ParentID]
		if !ok {
			continue
		}
		c.Children = nil
		roots[pos].Children = append(roots[pos].Children, c)
	}

	t := Tree{Roots: roots}
	t.reindex()
	return t
}

func (t *Tree) reindex() {
	t.index = make(map[uuid.UUID]*Category)
	for i := range t.Roots {
		root := &t.Roots[i]
		t.index[root.ID] = root
		for j := range root.Children {
			t.index[root.Children[j].ID] = &root.Children[j]
		}
	}
}

// Find returns the category with the given id, at either level.
func (t Tree) Find(id uuid.UUID) (*Category, bool) {
	c, ok := t.index[id]
	return c, ok
}

// IsChildOf reports whether childID is a direct sub-category of parentID.
func (t Tree) IsChildOf(childID, parentID uuid.UUID) bool {
	c, ok := t.index[childID]
	return ok && c.ParentID != nil && *c.ParentID == parentID
}

// Resolve normalises a (category, sub-category) pair coming from an
// untrusted source. Unknown ids are dropped; a sub-category given as the
// category is split into its parent and itself; a sub-category that is not a
// child of the category is dropped.
func (t Tree) Resolve(categoryID, subCategoryID *uuid.UUID) (*uuid.UUID, *uuid.UUID) {
	var cat, sub *uuid.UUID
	if categoryID != nil {
		if c, ok := t.index[*categoryID]; ok {
			if c.ParentID != nil {
				parent := *c.ParentID
				self := c.ID
				cat, sub = &parent, &self
			} else {
				id := c.ID
				cat = &id
			}
		}
	}
	if subCategoryID != nil && sub == nil && cat != nil && t.IsChildOf(*subCategoryID, *cat) {
		id := *subCategoryID
		sub = &id
	}
	if cat == nil && subCategoryID != nil {
		if c, ok := t.index[*subCategoryID]; ok && c.ParentID != nil {
			parent, self := *c.ParentID, c.ID
			cat, sub = &parent, &self
		}
	}
	return cat, sub
}

// Len returns the number of categories in the tree, sub-categories included.
func (t Tree) Len() int {
	return len(t.index)
}
