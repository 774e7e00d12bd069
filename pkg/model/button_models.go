// Package model defines the data structures used throughout the menubot application.
package model

// RootID is the sentinel parent id of top-level buttons. It is not a row in
// the buttons table; callers must special-case it before asking for a parent.
const RootID = 0

// Button represents a single navigation node in the menu tree.
type Button struct {
	ID         int    `json:"id"`
	ParentID   int    `json:"parent_id"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	OrderIndex int    `json:"order_index"`
}

// ButtonInfo carries the fields used to create or match buttons.
type ButtonInfo struct {
	ID         int
	ParentID   int
	Name       string
	Type       string
	OrderIndex int
}

// ButtonFilter selects which ButtonInfo fields participate in a query.
type ButtonFilter struct {
	ID         bool
	ParentID   bool
	Name       bool
	OrderIndex bool
}

// MoveDirection identifies a sibling reorder direction. Up and Left both move
// toward lower order_index, Down and Right toward higher.
type MoveDirection string

const (
	MoveUp    MoveDirection = "up"
	MoveDown  MoveDirection = "down"
	MoveLeft  MoveDirection = "left"
	MoveRight MoveDirection = "right"
)

// Decrease reports whether the direction moves toward lower order_index.
func (d MoveDirection) Decrease() bool {
	return d == MoveUp || d == MoveLeft
}

// Valid reports whether the direction is one of the four known values.
func (d MoveDirection) Valid() bool {
	switch d {
	case MoveUp, MoveDown, MoveLeft, MoveRight:
		return true
	}
	return false
}

// CascadePolicy decides what happens to descendant buttons when a button is
// deleted.
type CascadePolicy string

const (
	// CascadeSubtree deletes the whole subtree together with its content.
	CascadeSubtree CascadePolicy = "subtree"
	// CascadeReparent re-parents the direct children of the deleted button
	// to the root instead of deleting them.
	CascadeReparent CascadePolicy = "reparent"
)

// Valid reports whether the policy is a known value.
func (p CascadePolicy) Valid() bool {
	return p == CascadeSubtree || p == CascadeReparent
}
