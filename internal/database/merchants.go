package database

import (
	"context"
	"database/sql"
	"fmt"

	"bookery/internal/models"
)

// CreateMerchant inserts a merchant and fills its ID.
func (db *DB) CreateMerchant(ctx context.Context, m *models.Merchant) error {
	res, err := db.ExecContext(ctx, `
		INSERT INTO merchants (name, slug, timezone, is_active)
		VALUES (?, ?, ?, ?)`,
		m.Name, m.Slug, m.Timezone, m.IsActive,
	)
	if err != nil {
		return fmt.Errorf("create merchant: %w", err)
	}
	m.ID, err = res.LastInsertId()
	return err
}

// GetMerchant returns a merchant by ID.
func (db *DB) GetMerchant(ctx context.Context, id int64) (*models.Merchant, error) {
	var m models.Merchant
	err := db.QueryRowContext(ctx, `
		SELECT id, name, slug, timezone, is_active, created_at, updated_at
		FROM merchants WHERE id = ?`, id,
	).Scan(&m.ID, &m.Name, &m.Slug, &m.Timezone, &m.IsActive, &m.CreatedAt, &m.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get merchant %d: %w", id, err)
	}
	return &m, nil
}

// GetMerchantBySlug returns a merchant by its public booking-page slug.
func (db *DB) GetMerchantBySlug(ctx context.Context, slug string) (*models.Merchant, error) {
	var m models.Merchant
	err := db.QueryRowContext(ctx, `
		SELECT id, name, slug, timezone, is_active, created_at, updated_at
		FROM merchants WHERE slug = ?`, slug,
	).Scan(&m.ID, &m.Name, &m.Slug, &m.Timezone, &m.IsActive, &m.CreatedAt, &m.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get merchant %q: %w", slug, err)
	}
	return &m, nil
}

// CreateService inserts a service for a merchant.
func (db *DB) CreateService(ctx context.Context, s *models.Service) error {
	res, err := db.ExecContext(ctx, `
		INSERT INTO services (merchant_id, name, duration_minutes, price_cents, is_active)
		VALUES (?, ?, ?, ?, ?)`,
		s.MerchantID, s.Name, s.DurationMinutes, s.PriceCents, s.IsActive,
	)
	if err != nil {
		return fmt.Errorf("create service: %w", err)
	}
	s.ID, err = res.LastInsertId()
	return err
}

// GetService returns a service by ID.
func (db *DB) GetService(ctx context.Context, id int64) (*models.Service, error) {
	var s models.Service
	err := db.QueryRowContext(ctx, `
		SELECT id, merchant_id, name, duration_minutes, price_cents, is_active, created_at, updated_at
		FROM services WHERE id = ?`, id,
	).Scan(&s.ID, &s.MerchantID, &s.Name, &s.DurationMinutes, &s.PriceCents, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get service %d: %w", id, err)
	}
	return &s, nil
}

// ListServices returns a merchant's active services.
func (db *DB) ListServices(ctx context.Context, merchantID int64) ([]*models.Service, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, merchant_id, name, duration_minutes, price_cents, is_active, created_at, updated_at
		FROM services WHERE merchant_id = ? AND is_active = 1
		ORDER BY name`, merchantID,
	)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	defer rows.Close()

	var services []*models.Service
	for rows.Next() {
		var s models.Service
		if err := rows.Scan(&s.ID, &s.MerchantID, &s.Name, &s.DurationMinutes, &s.PriceCents,
			&s.IsActive, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		services = append(services, &s)
	}
	return services, rows.Err()
}

// CreateCustomer inserts a customer for a merchant.
func (db *DB) CreateCustomer(ctx context.Context, c *models.Customer) error {
	res, err := db.ExecContext(ctx, `
		INSERT INTO customers (merchant_id, name, email, phone)
		VALUES (?, ?, ?, ?)`,
		c.MerchantID, c.Name, c.Email, c.Phone,
	)
	if err != nil {
		return fmt.Errorf("create customer: %w", err)
	}
	c.ID, err = res.LastInsertId()
	return err
}

// GetCustomer returns a customer by ID.
func (db *DB) GetCustomer(ctx context.Context, id int64) (*models.Customer, error) {
	var c models.Customer
	var email, phone sql.NullString
	err := db.QueryRowContext(ctx, `
		SELECT id, merchant_id, name, email, phone, created_at, updated_at
		FROM customers WHERE id = ?`, id,
	).Scan(&c.ID, &c.MerchantID, &c.Name, &email, &phone, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get customer %d: %w", id, err)
	}
	c.Email = email.String
	c.Phone = phone.String
	return &c, nil
}
