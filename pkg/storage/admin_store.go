package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"menubot/bot-app/pkg/log"
	"menubot/bot-app/pkg/model"
)

// AdminStore defines the interface for the privileged-user registry.
type AdminStore interface {
	AdminAdd(entry model.AdminEntry) error
	AdminList() ([]model.AdminEntry, error)
	AdminCheck(userID int64) (bool, error)
	AdminCount() (int, error)
}

// AdminStorage implements the AdminStore interface.
type AdminStorage struct {
	storage *Storage
	logger  *log.Logger
}

// NewAdminStorage creates a new AdminStorage instance.
func NewAdminStorage(storage *Storage) *AdminStorage {
	return &AdminStorage{
		storage: storage,
		logger:  storage.logger,
	}
}

// AdminAdd inserts a user into the admin set. Adding an existing admin is a
// no-op.
func (s *AdminStorage) AdminAdd(entry model.AdminEntry) error {
	ctx := context.Background()
	s.logger.Info(ctx, "Adding admin", log.Fields{"userID": entry.UserID, "name": entry.DisplayName})

	db := s.storage.GetDatabase()
	_, err := db.Exec("INSERT OR IGNORE INTO admins (user_id, username) VALUES (?, ?)",
		entry.UserID, entry.DisplayName)
	if err != nil {
		s.logger.Error(ctx, "Failed to add admin", log.Fields{"error": err, "userID": entry.UserID})
		return fmt.Errorf("failed to add admin: %w", err)
	}
	return nil
}

// AdminList returns every admin entry.
func (s *AdminStorage) AdminList() ([]model.AdminEntry, error) {
	db := s.storage.GetDatabase()

	rows, err := db.Query("SELECT user_id, username FROM admins ORDER BY user_id ASC")
	if err != nil {
		s.logger.Error(context.Background(), "Failed to query admins", log.Fields{"error": err})
		return nil, fmt.Errorf("failed to query admins: %w", err)
	}
	defer rows.Close()

	var admins []model.AdminEntry
	for rows.Next() {
		var entry model.AdminEntry
		if err := rows.Scan(&entry.UserID, &entry.DisplayName); err != nil {
			return nil, fmt.Errorf("failed to scan admin row: %w", err)
		}
		admins = append(admins, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating admin rows: %w", err)
	}

	return admins, nil
}

// AdminCheck reports whether a user is in the admin set.
func (s *AdminStorage) AdminCheck(userID int64) (bool, error) {
	db := s.storage.GetDatabase()

	var one int
	err := db.QueryRow("SELECT 1 FROM admins WHERE user_id = ?", userID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check admin: %w", err)
	}
	return true, nil
}

// AdminCount returns the number of registered admins.
func (s *AdminStorage) AdminCount() (int, error) {
	db := s.storage.GetDatabase()

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM admins").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count admins: %w", err)
	}
	return count, nil
}
