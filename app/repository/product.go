package repository

import (
	"context"
	"database/sql"

	"github.com/codegrana/storefront-payments/app/entity"
)

type ProductRepository struct {
	db DBTX
}

func NewProductRepository(db DBTX) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) FindByID(ctx context.Context, id string) (*entity.Product, error) {
	query := `
		SELECT id, name, description, price, file_url, created_at, updated_at
		FROM products
		WHERE id = ?
	`

	product := &entity.Product{}
	var description sql.NullString
	var fileURL sql.NullString
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&product.ID,
		&product.Name,
		&description,
		&product.PriceCents,
		&fileURL,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	product.Description = stringPtrFromNull(description)
	product.FileURL = stringPtrFromNull(fileURL)

	return product, nil
}
