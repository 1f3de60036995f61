package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mehmetcanozen/minilink-sub001/internal/models"
)

// ErrNotFound is returned when no link matches the lookup.
var ErrNotFound = errors.New("link not found")

type LinkRepository struct {
	pool *pgxpool.Pool
}

func NewLinkRepository(pool *pgxpool.Pool) *LinkRepository {
	return &LinkRepository{pool: pool}
}

// Create inserts a new link under the given code.
func (r *LinkRepository) Create(ctx context.Context, code, targetURL string) (*models.Link, error) {
	query := `
		INSERT INTO links (code, target_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, code, target_url, hits, created_at, updated_at
	`

	now := time.Now()
	link := &models.Link{}

	err := r.pool.QueryRow(ctx, query, code, targetURL, now, now).Scan(
		&link.ID,
		&link.Code,
		&link.TargetURL,
		&link.Hits,
		&link.CreatedAt,
		&link.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create link: %w", err)
	}

	return link, nil
}

// GetByCode returns the link for a code, or ErrNotFound.
func (r *LinkRepository) GetByCode(ctx context.Context, code string) (*models.Link, error) {
	query := `
		SELECT id, code, target_url, hits, created_at, updated_at
		FROM links
		WHERE code = $1
	`

	link := &models.Link{}
	err := r.pool.QueryRow(ctx, query, code).Scan(
		&link.ID,
		&link.Code,
		&link.TargetURL,
		&link.Hits,
		&link.CreatedAt,
		&link.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get link: %w", err)
	}

	return link, nil
}

// Exists reports whether a code is already taken. This is the existence
// oracle consulted by the short-code allocator, backed by the unique index
// on links.code.
func (r *LinkRepository) Exists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM links WHERE code = $1)`, code).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check code existence: %w", err)
	}
	return exists, nil
}

// IncrementHits bumps the hit counter for a code.
func (r *LinkRepository) IncrementHits(ctx context.Context, code string) error {
	query := `UPDATE links SET hits = hits + 1, updated_at = $1 WHERE code = $2`
	if _, err := r.pool.Exec(ctx, query, time.Now(), code); err != nil {
		return fmt.Errorf("failed to increment hits: %w", err)
	}
	return nil
}

// Count returns the number of stored links, used for the collision
// probability estimate on the stats surface.
func (r *LinkRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM links`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count links: %w", err)
	}
	return count, nil
}
