package repository

import (
	"context"
	"database/sql"

	"github.com/codegrana/storefront-payments/app/entity"
)

type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	query := `
		SELECT id, email, full_name, cpf_cnpj, phone, address, city, state, postal_code,
			created_at, updated_at
		FROM users
		WHERE email = ?
		LIMIT 1
	`

	user := &entity.User{}
	var fullName, taxID, phone, address, city, state, postalCode sql.NullString
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&user.ID,
		&user.Email,
		&fullName,
		&taxID,
		&phone,
		&address,
		&city,
		&state,
		&postalCode,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	user.FullName = stringPtrFromNull(fullName)
	user.TaxID = stringPtrFromNull(taxID)
	user.Phone = stringPtrFromNull(phone)
	user.Address = stringPtrFromNull(address)
	user.City = stringPtrFromNull(city)
	user.State = stringPtrFromNull(state)
	user.PostalCode = stringPtrFromNull(postalCode)

	return user, nil
}
