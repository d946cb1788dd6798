package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/catalog-api/backend/internal/model"
)

const productColumns = `id, name, description, price, category, in_stock, created_at, updated_at`

func scanProduct(row pgx.Row) (*model.Product, error) {
	var p model.Product
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Price,
		&p.Category,
		&p.InStock,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (db *Postgres) CreateProduct(ctx context.Context, p model.Product) (*model.Product, error) {
	query := `
		INSERT INTO products (name, description, price, category, in_stock, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING ` + productColumns
	created, err := scanProduct(db.Pool.QueryRow(ctx, query, p.Name, p.Description, p.Price, p.Category, p.InStock))
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return created, nil
}

func (db *Postgres) ListProducts(ctx context.Context, filter model.ProductFilter) ([]model.Product, error) {
	query, args := buildProductListQuery(filter)

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	list := []model.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

func buildProductListQuery(filter model.ProductFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.Category != nil {
		add("category = $%d", *filter.Category)
	}
	if filter.InStock != nil {
		add("in_stock = $%d", *filter.InStock)
	}
	if filter.MinPrice != nil {
		add("price >= $%d", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		add("price <= $%d", *filter.MaxPrice)
	}

	query := `SELECT ` + productColumns + ` FROM products`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY id`
	return query, args
}

func (db *Postgres) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	return scanProduct(db.Pool.QueryRow(ctx, query, id))
}

func (db *Postgres) UpdateProduct(ctx context.Context, id int64, req model.UpdateProductRequest) (*model.Product, error) {
	query := `
		UPDATE products
		SET
			name = COALESCE($2, name),
			description = COALESCE($3, description),
			price = COALESCE($4, price),
			category = COALESCE($5, category),
			in_stock = COALESCE($6, in_stock),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + productColumns
	return scanProduct(db.Pool.QueryRow(ctx, query, id, req.Name, req.Description, req.Price, req.Category, req.InStock))
}

func (db *Postgres) DeleteProduct(ctx context.Context, id int64) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}
