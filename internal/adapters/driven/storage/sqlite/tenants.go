package sqlite

import (
	"context"

	"github.com/custodia-labs/onboard-rag/internal/core/domain"
)

// CreateTenant stores a new tenant.
func (s *Store) CreateTenant(ctx context.Context, tenant domain.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tenants (id, name, created_at) VALUES (?, ?, ?)
	`, tenant.ID, tenant.Name, formatTime(tenant.CreatedAt))
	if err != nil {
		if isPrimaryKeyViolation(err) {
			return domain.NewValidationError("id", "tenant "+tenant.ID+" already exists")
		}
		return ioError("creating tenant", err)
	}
	return nil
}

// GetTenant retrieves a tenant by ID.
func (s *Store) GetTenant(ctx context.Context, id string) (*domain.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, created_at FROM tenants WHERE id = ?
	`, id)

	tenant, err := scanTenant(row)
	if err != nil {
		return nil, ioError("getting tenant", errNoRows(err, "tenant", id))
	}
	return tenant, nil
}

// ListTenants returns all tenants in creation order.
func (s *Store) ListTenants(ctx context.Context) ([]domain.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, created_at FROM tenants ORDER BY rowid
	`)
	if err != nil {
		return nil, ioError("listing tenants", err)
	}
	defer rows.Close()

	tenants := []domain.Tenant{}
	for rows.Next() {
		tenant, err := scanTenant(rows)
		if err != nil {
			return nil, ioError("scanning tenant", err)
		}
		tenants = append(tenants, *tenant)
	}
	if err := rows.Err(); err != nil {
		return nil, ioError("listing tenants", err)
	}
	return tenants, nil
}

// RenameTenant changes a tenant's display name.
func (s *Store) RenameTenant(ctx context.Context, id, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `UPDATE tenants SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return ioError("renaming tenant", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return ioError("renaming tenant", err)
	}
	if n == 0 {
		return &domain.NotFoundError{Kind: "tenant", ID: id}
	}
	return nil
}

func scanTenant(row rowScanner) (*domain.Tenant, error) {
	var (
		tenant    domain.Tenant
		createdAt string
	)
	if err := row.Scan(&tenant.ID, &tenant.Name, &createdAt); err != nil {
		return nil, err
	}
	tenant.CreatedAt = parseTime(createdAt)
	return &tenant, nil
}
