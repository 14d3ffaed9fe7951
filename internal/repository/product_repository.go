package repository

import (
	"context"

	"github.com/spec-kit/auth-service/internal/domain"
)

// ProductRepository defines read access to the product catalog.
type ProductRepository interface {
	List(ctx context.Context) ([]domain.Product, error)
}

type productRepository struct {
	db DB
}

// NewProductRepository returns a Postgres-backed implementation.
func NewProductRepository(db DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) List(ctx context.Context) ([]domain.Product, error) {
	const query = `
        SELECT id, code, name, quantity, unit_price
        FROM products ORDER BY id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Code, &p.Name, &p.Quantity, &p.UnitPrice); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}
