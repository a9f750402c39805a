package menu

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bistro-pos/internal/db"
	"bistro-pos/internal/logger"
	"bistro-pos/internal/money"

	"go.uber.org/zap"
)

// Repository is the read-only menu catalog.
type Repository interface {
	// GetPrice runs on q so the lookup joins the caller's transaction.
	GetPrice(ctx context.Context, q db.Querier, menuItemID int64) (money.Cents, string, error)
	ListAvailable(ctx context.Context) ([]*Item, error)
	ListCategories(ctx context.Context) ([]*Category, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetPrice(ctx context.Context, q db.Querier, menuItemID int64) (money.Cents, string, error) {
	var (
		price money.Cents
		name  string
	)
	err := q.QueryRowContext(ctx, `
		SELECT price, name
		FROM menu_items
		WHERE id = $1 AND is_available = TRUE
	`, menuItemID).Scan(&price, &name)

	if errors.Is(err, sql.ErrNoRows) {
		return 0, "", fmt.Errorf("%w: id %d", ErrMenuItemNotFound, menuItemID)
	}
	if err != nil {
		return 0, "", err
	}

	return price, name, nil
}

func (r *repository) ListAvailable(ctx context.Context) ([]*Item, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "ListAvailable"),
	)

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, category_id, name, description, price, is_available
		FROM menu_items
		WHERE is_available = TRUE
		ORDER BY name ASC
	`)
	if err != nil {
		log.Error("failed to query menu items", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.CategoryID, &it.Name, &it.Description, &it.Price, &it.Available); err != nil {
			log.Error("failed to scan menu item", zap.Error(err))
			return nil, err
		}
		items = append(items, &it)
	}

	return items, rows.Err()
}

func (r *repository) ListCategories(ctx context.Context) ([]*Category, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name FROM menu_categories ORDER BY name ASC")
	if err != nil {
		logger.FromCtx(ctx).Error("failed to query menu categories",
			zap.String("layer", "repository"),
			zap.Error(err),
		)
		return nil, err
	}
	defer rows.Close()

	var categories []*Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		categories = append(categories, &c)
	}
	return categories, rows.Err()
}
