package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"menubot/bot-app/pkg/log"
	"menubot/bot-app/pkg/model"
)

// ContentStore defines the interface for content item storage operations.
type ContentStore interface {
	ContentAdd(item model.ContentItem) (int, error)
	ContentGet(buttonID int) ([]*model.ContentItem, error)
	ContentClear(buttonID int) error
}

// ContentStorage implements the ContentStore interface.
type ContentStorage struct {
	storage *Storage
	logger  *log.Logger
}

// NewContentStorage creates a new ContentStorage instance.
func NewContentStorage(storage *Storage) *ContentStorage {
	return &ContentStorage{
		storage: storage,
		logger:  storage.logger,
	}
}

// ContentAdd attaches a content item to an existing button.
func (s *ContentStorage) ContentAdd(item model.ContentItem) (int, error) {
	ctx := context.Background()
	s.logger.Info(ctx, "Adding content item", log.Fields{"buttonID": item.ButtonID, "kind": item.Kind})

	db := s.storage.GetDatabase()

	var exists int
	err := db.QueryRow("SELECT 1 FROM buttons WHERE id = ?", item.ButtonID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		s.logger.Warn(ctx, "Owning button not found", log.Fields{"buttonID": item.ButtonID})
		return 0, fmt.Errorf("button %d: %w", item.ButtonID, model.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to check button: %w", err)
	}

	result, err := db.Exec(
		"INSERT INTO content (button_id, type, file_id, text, media_group_id) VALUES (?, ?, ?, ?, ?)",
		item.ButtonID, string(item.Kind), item.FileID, item.Text, item.MediaGroupID)
	if err != nil {
		s.logger.Error(ctx, "Failed to add content item", log.Fields{"error": err, "buttonID": item.ButtonID})
		return 0, fmt.Errorf("failed to add content item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID: %w", err)
	}

	s.logger.Info(ctx, "Content item added", log.Fields{"contentID": id, "buttonID": item.ButtonID})
	return int(id), nil
}

// ContentGet returns the content items of a button in insertion order. A
// missing or empty button yields an empty slice, not an error.
func (s *ContentStorage) ContentGet(buttonID int) ([]*model.ContentItem, error) {
	db := s.storage.GetDatabase()

	rows, err := db.Query(
		"SELECT id, button_id, type, file_id, text, media_group_id FROM content WHERE button_id = ? ORDER BY id ASC",
		buttonID)
	if err != nil {
		s.logger.Error(context.Background(), "Failed to query content", log.Fields{"error": err, "buttonID": buttonID})
		return nil, fmt.Errorf("failed to query content: %w", err)
	}
	defer rows.Close()

	var items []*model.ContentItem
	for rows.Next() {
		var item model.ContentItem
		var kind string
		if err := rows.Scan(&item.ID, &item.ButtonID, &kind, &item.FileID, &item.Text, &item.MediaGroupID); err != nil {
			return nil, fmt.Errorf("failed to scan content row: %w", err)
		}
		// Unknown kinds are preserved as ContentUnknown; render skips them.
		item.Kind = model.ParseContentKind(kind)
		items = append(items, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating content rows: %w", err)
	}

	return items, nil
}

// ContentClear removes every content item owned by a button. Clearing a
// button that has no content is a no-op.
func (s *ContentStorage) ContentClear(buttonID int) error {
	ctx := context.Background()
	s.logger.Info(ctx, "Clearing content", log.Fields{"buttonID": buttonID})

	db := s.storage.GetDatabase()
	if _, err := db.Exec("DELETE FROM content WHERE button_id = ?", buttonID); err != nil {
		s.logger.Error(ctx, "Failed to clear content", log.Fields{"error": err, "buttonID": buttonID})
		return fmt.Errorf("failed to clear content: %w", err)
	}
	return nil
}
