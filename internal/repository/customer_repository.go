package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/support-desk/internal/domain"
)

// CustomerRepository defines persistence access for customers.
type CustomerRepository interface {
	// GetOrCreate atomically returns the customer owning the candidate's contact key
	// (email when set, otherwise phone), inserting the candidate when none exists.
	GetOrCreate(ctx context.Context, candidate *domain.Customer) (*domain.Customer, bool, error)
	GetByID(ctx context.Context, id string) (*domain.Customer, error)
	UpdateName(ctx context.Context, id, name string) error
	List(ctx context.Context) ([]domain.Customer, error)
}

// ContactColumn names the contact key column used to identify candidate.
func ContactColumn(candidate *domain.Customer) (string, string, error) {
	switch {
	case candidate.Email != "":
		return "email", candidate.Email, nil
	case candidate.Phone != "":
		return "phone", candidate.Phone, nil
	}
	return "", "", errors.New("customer has no contact key")
}

type customerRepository struct {
	db DB
}

// NewCustomerRepository returns a Postgres-backed implementation.
func NewCustomerRepository(db DB) CustomerRepository {
	return &customerRepository{db: db}
}

const customerColumns = `id, name, email, phone, created_at`

func (r *customerRepository) GetOrCreate(ctx context.Context, candidate *domain.Customer) (*domain.Customer, bool, error) {
	column, value, err := ContactColumn(candidate)
	if err != nil {
		return nil, false, err
	}
	if candidate.ID == "" {
		candidate.ID = NewID()
	}
	if candidate.CreatedAt.IsZero() {
		candidate.CreatedAt = time.Now().UTC()
	}

	insert := fmt.Sprintf(`
        INSERT INTO customers (id, name, email, phone, created_at)
        VALUES ($1,$2,$3,$4,$5)
        ON CONFLICT (%[1]s) WHERE %[1]s IS NOT NULL DO NOTHING
        RETURNING %[2]s`, column, customerColumns)
	created, err := scanCustomer(r.db.QueryRow(ctx, insert,
		candidate.ID,
		candidate.Name,
		nullable(candidate.Email),
		nullable(candidate.Phone),
		candidate.CreatedAt,
	))
	if err == nil {
		return created, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, err
	}

	lookup := fmt.Sprintf(`SELECT %s FROM customers WHERE %s=$1`, customerColumns, column)
	existing, err := scanCustomer(r.db.QueryRow(ctx, lookup, value))
	if err != nil {
		return nil, false, mapNoRows(err)
	}
	return existing, false, nil
}

func (r *customerRepository) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id=$1`
	customer, err := scanCustomer(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapNoRows(err)
	}
	return customer, nil
}

func (r *customerRepository) UpdateName(ctx context.Context, id, name string) error {
	if !validID(id) {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `UPDATE customers SET name=$1 WHERE id=$2`, name, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *customerRepository) List(ctx context.Context) ([]domain.Customer, error) {
	rows, err := r.db.Query(ctx, `SELECT `+customerColumns+` FROM customers ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCustomers(rows)
}

func scanCustomers(rows pgx.Rows) ([]domain.Customer, error) {
	var result []domain.Customer
	for rows.Next() {
		customer, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *customer)
	}
	return result, rows.Err()
}

func scanCustomer(row pgx.Row) (*domain.Customer, error) {
	var (
		customer     domain.Customer
		email, phone *string
	)
	if err := row.Scan(&customer.ID, &customer.Name, &email, &phone, &customer.CreatedAt); err != nil {
		return nil, err
	}
	customer.Email = deref(email)
	customer.Phone = deref(phone)
	return &customer, nil
}
