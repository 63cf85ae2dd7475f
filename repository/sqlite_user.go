package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/eylulcan/amora/models"
	"github.com/eylulcan/amora/pkg"
)

// sqliteUserRepo, UserRepository'nin SQLite implementasyonu.
type sqliteUserRepo struct {
	db *sql.DB
}

// NewSQLiteUserRepo, constructor — interface döner.
func NewSQLiteUserRepo(db *sql.DB) UserRepository {
	return &sqliteUserRepo{db: db}
}

// GetByID, ID ile kullanıcı döner.
func (r *sqliteUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := r.db.QueryRowContext(ctx,
		"SELECT id, full_name, is_active, created_at FROM users WHERE id = ?", id,
	).Scan(&u.ID, &u.FullName, &u.IsActive, &u.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: user not found", pkg.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// sqliteBlockRepo, BlockRepository'nin SQLite implementasyonu.
type sqliteBlockRepo struct {
	db *sql.DB
}

// NewSQLiteBlockRepo, constructor — interface döner.
func NewSQLiteBlockRepo(db *sql.DB) BlockRepository {
	return &sqliteBlockRepo{db: db}
}

// IsBlockedEither, iki yönlü blok kontrolü yapar.
// hide_only bloklar (gizleme) mesajlaşmayı engellemez.
func (r *sqliteBlockRepo) IsBlockedEither(ctx context.Context, userA, userB string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM user_blocks
		 WHERE hide_only = 0
		   AND ((blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?))`,
		userA, userB, userB, userA,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check block: %w", err)
	}
	return count > 0, nil
}

// sqliteMediaRepo, MediaRepository'nin SQLite implementasyonu.
type sqliteMediaRepo struct {
	db *sql.DB
}

// NewSQLiteMediaRepo, constructor — interface döner.
func NewSQLiteMediaRepo(db *sql.DB) MediaRepository {
	return &sqliteMediaRepo{db: db}
}

// GetByID, ID ile media kaydı döner.
func (r *sqliteMediaRepo) GetByID(ctx context.Context, id string) (*models.Media, error) {
	var m models.Media
	err := r.db.QueryRowContext(ctx,
		"SELECT id, user_id, kind, file_path, created_at FROM user_media WHERE id = ?", id,
	).Scan(&m.ID, &m.UserID, &m.Kind, &m.FilePath, &m.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: media not found", pkg.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get media: %w", err)
	}
	return &m, nil
}
