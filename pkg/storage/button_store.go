package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"menubot/bot-app/pkg/log"
	"menubot/bot-app/pkg/model"
)

// ButtonStore defines the interface for button-tree storage operations.
type ButtonStore interface {
	ButtonAdd(info model.ButtonInfo) (int, error)
	ButtonGet(info model.ButtonInfo, filter model.ButtonFilter) ([]*model.Button, error)
	ButtonChildren(parentID int) ([]*model.Button, error)
	ButtonRename(buttonID int, newName string) error
	ButtonParent(buttonID int) (int, error)
	ButtonDelete(buttonID int, policy model.CascadePolicy) error
	ButtonMove(buttonID int, direction model.MoveDirection) error
}

// ButtonStorage implements the ButtonStore interface.
type ButtonStorage struct {
	storage *Storage
	logger  *log.Logger
}

// NewButtonStorage creates a new ButtonStorage instance.
func NewButtonStorage(storage *Storage) *ButtonStorage {
	return &ButtonStorage{
		storage: storage,
		logger:  storage.logger,
	}
}

// ButtonAdd inserts a new button under the given parent. The new button is
// appended after its siblings: order_index becomes max(sibling)+1, or 0 when
// the parent has no children yet.
func (s *ButtonStorage) ButtonAdd(info model.ButtonInfo) (int, error) {
	ctx := context.Background()
	s.logger.Info(ctx, "Adding new button", log.Fields{"name": info.Name, "parentID": info.ParentID})

	db := s.storage.GetDatabase()

	if info.ParentID != model.RootID {
		var exists int
		err := db.QueryRow("SELECT 1 FROM buttons WHERE id = ?", info.ParentID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn(ctx, "Parent button not found", log.Fields{"parentID": info.ParentID})
			return 0, fmt.Errorf("parent button %d: %w", info.ParentID, model.ErrNotFound)
		}
		if err != nil {
			return 0, fmt.Errorf("failed to check parent button: %w", err)
		}
	}

	if err := db.Begin(); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer db.Rollback()

	var orderIndex int
	err := db.QueryRow("SELECT COALESCE(MAX(order_index) + 1, 0) FROM buttons WHERE parent_id = ?", info.ParentID).Scan(&orderIndex)
	if err != nil {
		s.logger.Error(ctx, "Failed to compute order index", log.Fields{"error": err, "parentID": info.ParentID})
		return 0, fmt.Errorf("failed to compute order index: %w", err)
	}

	buttonType := info.Type
	if buttonType == "" {
		buttonType = "menu"
	}

	result, err := db.Exec("INSERT INTO buttons (name, parent_id, type, order_index) VALUES (?, ?, ?, ?)",
		info.Name, info.ParentID, buttonType, orderIndex)
	if err != nil {
		s.logger.Error(ctx, "Failed to add button", log.Fields{"error": err, "name": info.Name})
		return 0, fmt.Errorf("failed to add button: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID: %w", err)
	}

	if err := db.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Info(ctx, "Button added successfully", log.Fields{"buttonID": id, "orderIndex": orderIndex})
	return int(id), nil
}

// ButtonGet retrieves buttons matching the filtered fields of info, ordered
// by (order_index ASC, id ASC). An empty result is not an error.
func (s *ButtonStorage) ButtonGet(info model.ButtonInfo, filter model.ButtonFilter) ([]*model.Button, error) {
	db := s.storage.GetDatabase()

	query := "SELECT id, parent_id, name, type, order_index FROM buttons WHERE 1=1"
	var args []interface{}

	if filter.ID {
		query += " AND id = ?"
		args = append(args, info.ID)
	}
	if filter.ParentID {
		query += " AND parent_id = ?"
		args = append(args, info.ParentID)
	}
	if filter.Name {
		query += " AND name = ?"
		args = append(args, info.Name)
	}
	if filter.OrderIndex {
		query += " AND order_index = ?"
		args = append(args, info.OrderIndex)
	}
	query += " ORDER BY order_index ASC, id ASC"

	rows, err := db.Query(query, args...)
	if err != nil {
		s.logger.Error(context.Background(), "Failed to query buttons", log.Fields{"error": err})
		return nil, fmt.Errorf("failed to query buttons: %w", err)
	}
	defer rows.Close()

	var buttons []*model.Button
	for rows.Next() {
		var b model.Button
		if err := rows.Scan(&b.ID, &b.ParentID, &b.Name, &b.Type, &b.OrderIndex); err != nil {
			return nil, fmt.Errorf("failed to scan button row: %w", err)
		}
		buttons = append(buttons, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating button rows: %w", err)
	}

	return buttons, nil
}

// ButtonChildren lists the direct children of a parent in display order.
func (s *ButtonStorage) ButtonChildren(parentID int) ([]*model.Button, error) {
	return s.ButtonGet(model.ButtonInfo{ParentID: parentID}, model.ButtonFilter{ParentID: true})
}

// ButtonRename changes a button's display name in place. Ordering is not
// affected.
func (s *ButtonStorage) ButtonRename(buttonID int, newName string) error {
	ctx := context.Background()
	s.logger.Info(ctx, "Renaming button", log.Fields{"buttonID": buttonID, "newName": newName})

	db := s.storage.GetDatabase()
	result, err := db.Exec("UPDATE buttons SET name = ? WHERE id = ?", newName, buttonID)
	if err != nil {
		s.logger.Error(ctx, "Failed to rename button", log.Fields{"error": err, "buttonID": buttonID})
		return fmt.Errorf("failed to rename button: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		s.logger.Warn(ctx, "Rename target not found", log.Fields{"buttonID": buttonID})
		return fmt.Errorf("button %d: %w", buttonID, model.ErrNotFound)
	}
	return nil
}

// ButtonParent returns the parent id of a button. The root sentinel has no
// row and no parent; callers must special-case model.RootID before calling.
func (s *ButtonStorage) ButtonParent(buttonID int) (int, error) {
	db := s.storage.GetDatabase()

	var parentID int
	err := db.QueryRow("SELECT parent_id FROM buttons WHERE id = ?", buttonID).Scan(&parentID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("button %d: %w", buttonID, model.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to query button parent: %w", err)
	}
	return parentID, nil
}

// ButtonDelete removes a button and all content owned by it, in one
// transaction. CascadeSubtree also removes every descendant button and its
// content; CascadeReparent moves the direct children to the root instead.
func (s *ButtonStorage) ButtonDelete(buttonID int, policy model.CascadePolicy) error {
	ctx := context.Background()
	s.logger.Info(ctx, "Deleting button", log.Fields{"buttonID": buttonID, "policy": policy})

	db := s.storage.GetDatabase()

	var exists int
	err := db.QueryRow("SELECT 1 FROM buttons WHERE id = ?", buttonID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		s.logger.Warn(ctx, "Delete target not found", log.Fields{"buttonID": buttonID})
		return fmt.Errorf("button %d: %w", buttonID, model.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to check button: %w", err)
	}

	if err := db.Begin(); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer db.Rollback()

	switch policy {
	case model.CascadeReparent:
		// Children get fresh indexes appended after the existing root
		// children; carrying their old indexes over could collide with root
		// siblings, and tied siblings cannot be reordered by the swap.
		var nextIndex int
		if err := db.QueryRow("SELECT COALESCE(MAX(order_index) + 1, 0) FROM buttons WHERE parent_id = ?", model.RootID).Scan(&nextIndex); err != nil {
			return fmt.Errorf("failed to compute reparent order base: %w", err)
		}
		children, err := s.childIDsOrdered(db, buttonID)
		if err != nil {
			return err
		}
		for _, childID := range children {
			if _, err := db.Exec("UPDATE buttons SET parent_id = ?, order_index = ? WHERE id = ?", model.RootID, nextIndex, childID); err != nil {
				s.logger.Error(ctx, "Failed to reparent child", log.Fields{"error": err, "buttonID": childID})
				return fmt.Errorf("failed to reparent child %d: %w", childID, err)
			}
			nextIndex++
		}
		if err := s.deleteButtons(db, []int{buttonID}); err != nil {
			return err
		}
	default:
		ids, err := s.collectSubtree(db, buttonID)
		if err != nil {
			return err
		}
		if err := s.deleteButtons(db, ids); err != nil {
			return err
		}
	}

	if err := db.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Info(ctx, "Button deleted successfully", log.Fields{"buttonID": buttonID})
	return nil
}

// childIDsOrdered returns the direct child ids of a button in display order.
func (s *ButtonStorage) childIDsOrdered(db Database, parentID int) ([]int, error) {
	rows, err := db.Query("SELECT id FROM buttons WHERE parent_id = ? ORDER BY order_index ASC, id ASC", parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query children of %d: %w", parentID, err)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan child id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating child rows: %w", err)
	}
	return ids, nil
}

// collectSubtree returns the ids of a button and all its descendants,
// breadth first.
func (s *ButtonStorage) collectSubtree(db Database, rootID int) ([]int, error) {
	ids := []int{rootID}
	frontier := []int{rootID}

	for len(frontier) > 0 {
		var next []int
		for _, id := range frontier {
			rows, err := db.Query("SELECT id FROM buttons WHERE parent_id = ?", id)
			if err != nil {
				return nil, fmt.Errorf("failed to query children of %d: %w", id, err)
			}
			for rows.Next() {
				var childID int
				if err := rows.Scan(&childID); err != nil {
					rows.Close()
					return nil, fmt.Errorf("failed to scan child id: %w", err)
				}
				next = append(next, childID)
			}
			if err := rows.Err(); err != nil {
				rows.Close()
				return nil, fmt.Errorf("error iterating child rows: %w", err)
			}
			rows.Close()
		}
		ids = append(ids, next...)
		frontier = next
	}
	return ids, nil
}

// deleteButtons removes the given buttons and their content rows.
func (s *ButtonStorage) deleteButtons(db Database, ids []int) error {
	for _, id := range ids {
		if _, err := db.Exec("DELETE FROM content WHERE button_id = ?", id); err != nil {
			return fmt.Errorf("failed to delete content of button %d: %w", id, err)
		}
		if _, err := db.Exec("DELETE FROM buttons WHERE id = ?", id); err != nil {
			return fmt.Errorf("failed to delete button %d: %w", id, err)
		}
	}
	return nil
}

// ButtonMove reorders a button among its siblings by swapping order_index
// with a neighbor. Moving past the first sibling wraps to the last and vice
// versa, a circular list rather than a clamp. A missing button or a button
// with no siblings is a no-op.
func (s *ButtonStorage) ButtonMove(buttonID int, direction model.MoveDirection) error {
	ctx := context.Background()
	s.logger.Info(ctx, "Moving button", log.Fields{"buttonID": buttonID, "direction": direction})

	if !direction.Valid() {
		return fmt.Errorf("move direction %q: %w", direction, model.ErrInvalidInput)
	}

	db := s.storage.GetDatabase()

	if err := db.Begin(); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer db.Rollback()

	var parentID, currentOrder int
	err := db.QueryRow("SELECT parent_id, order_index FROM buttons WHERE id = ?", buttonID).Scan(&parentID, &currentOrder)
	if errors.Is(err, sql.ErrNoRows) {
		// Stale reference: nothing to do.
		s.logger.Warn(ctx, "Move target not found", log.Fields{"buttonID": buttonID})
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to query button: %w", err)
	}

	var targetID, targetOrder int
	if direction.Decrease() {
		err = db.QueryRow(
			"SELECT id, order_index FROM buttons WHERE parent_id = ? AND order_index < ? ORDER BY order_index DESC, id DESC LIMIT 1",
			parentID, currentOrder).Scan(&targetID, &targetOrder)
		if errors.Is(err, sql.ErrNoRows) {
			// Already first: wrap around to the last sibling.
			err = db.QueryRow(
				"SELECT id, order_index FROM buttons WHERE parent_id = ? AND id != ? ORDER BY order_index DESC, id DESC LIMIT 1",
				parentID, buttonID).Scan(&targetID, &targetOrder)
		}
	} else {
		err = db.QueryRow(
			"SELECT id, order_index FROM buttons WHERE parent_id = ? AND order_index > ? ORDER BY order_index ASC, id ASC LIMIT 1",
			parentID, currentOrder).Scan(&targetID, &targetOrder)
		if errors.Is(err, sql.ErrNoRows) {
			// Already last: wrap around to the first sibling.
			err = db.QueryRow(
				"SELECT id, order_index FROM buttons WHERE parent_id = ? AND id != ? ORDER BY order_index ASC, id ASC LIMIT 1",
				parentID, buttonID).Scan(&targetID, &targetOrder)
		}
	}
	if errors.Is(err, sql.ErrNoRows) {
		// Only child: no target even after wraparound.
		s.logger.Debug(ctx, "Button has no siblings, move is a no-op", log.Fields{"buttonID": buttonID})
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to find move target: %w", err)
	}

	// Swap the two order_index values; every other sibling keeps its place.
	if _, err := db.Exec("UPDATE buttons SET order_index = ? WHERE id = ?", targetOrder, buttonID); err != nil {
		s.logger.Error(ctx, "Failed to update moved button", log.Fields{"error": err, "buttonID": buttonID})
		return fmt.Errorf("failed to update moved button: %w", err)
	}
	if _, err := db.Exec("UPDATE buttons SET order_index = ? WHERE id = ?", currentOrder, targetID); err != nil {
		s.logger.Error(ctx, "Failed to update swap partner", log.Fields{"error": err, "buttonID": targetID})
		return fmt.Errorf("failed to update swap partner: %w", err)
	}

	if err := db.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Info(ctx, "Button moved successfully", log.Fields{
		"buttonID": buttonID, "swappedWith": targetID,
		"fromIndex": currentOrder, "toIndex": targetOrder,
	})
	return nil
}
