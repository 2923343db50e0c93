package entity

import "time"

// User mirrors the storefront profile row. TaxID holds the stored
// CPF/CNPJ when the account has one on file.
type User struct {
	ID       string
	Email    string
	FullName *string
	TaxID    *string

	Phone      *string
	Address    *string
	City       *string
	State      *string
	PostalCode *string

	CreatedAt time.Time
	UpdatedAt time.Time
}
