package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/Feighth-arts/glam-sub000/internal/db"
	"github.com/Feighth-arts/glam-sub000/internal/domain"
	"github.com/jackc/pgx/v5"
)

// CatalogRepository owns the global service catalog and each provider's
// customized offerings.
type CatalogRepository struct {
	DB *db.Postgres
}

func (r CatalogRepository) ListServices(ctx context.Context, limit int) ([]domain.Service, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT id, name, category, base_price, duration_min, points, created_at, updated_at
		FROM services
		WHERE deleted_at IS NULL
		ORDER BY category, name
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []domain.Service
	for rows.Next() {
		var s domain.Service
		if err := rows.Scan(&s.ID, &s.Name, &s.Category, &s.BasePrice.Amount, &s.DurationMin, &s.Points, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

func (r CatalogRepository) GetService(ctx context.Context, id int64) (*domain.Service, error) {
	var s domain.Service
	err := r.DB.Pool.QueryRow(ctx, `
		SELECT id, name, category, base_price, duration_min, points, created_at, updated_at
		FROM services
		WHERE id=$1 AND deleted_at IS NULL
	`, id).Scan(&s.ID, &s.Name, &s.Category, &s.BasePrice.Amount, &s.DurationMin, &s.Points, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

type UpsertServiceParams struct {
	ID          *int64
	Name        string
	Category    string
	BasePrice   int64
	DurationMin int
	Points      int
}

func (r CatalogRepository) UpsertService(ctx context.Context, p UpsertServiceParams) (*domain.Service, error) {
	var s domain.Service
	err := r.DB.Pool.QueryRow(ctx, `
		INSERT INTO services (id, name, category, base_price, duration_min, points, created_at, updated_at)
		VALUES (COALESCE($1, nextval('services_id_seq')), $2, $3, $4, $5, $6, now(), now())
		ON CONFLICT (id) DO UPDATE SET
			name=EXCLUDED.name, category=EXCLUDED.category, base_price=EXCLUDED.base_price,
			duration_min=EXCLUDED.duration_min, points=EXCLUDED.points, updated_at=now(), deleted_at=NULL
		RETURNING id, name, category, base_price, duration_min, points, created_at, updated_at
	`, p.ID, p.Name, p.Category, p.BasePrice, p.DurationMin, p.Points).Scan(
		&s.ID, &s.Name, &s.Category, &s.BasePrice.Amount, &s.DurationMin, &s.Points, &s.CreatedAt, &s.UpdatedAt)
	return &s, err
}

func (r CatalogRepository) DeleteService(ctx context.Context, id int64) error {
	tag, err := r.DB.Pool.Exec(ctx, `UPDATE services SET deleted_at=now() WHERE id=$1 AND deleted_at IS NULL`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type UpsertOfferingParams struct {
	ProviderID   int64
	ServiceID    int64
	CustomPrice  *int64
	CustomPoints *int
	Availability domain.Availability
}

// UpsertOffering opts a provider into a catalog service. The
// (provider_id, service_id) unique constraint makes repeat calls update
// the existing row.
func (r CatalogRepository) UpsertOffering(ctx context.Context, p UpsertOfferingParams) (*domain.ProviderService, error) {
	avail, err := json.Marshal(p.Availability)
	if err != nil {
		return nil, err
	}
	var id int64
	err = r.DB.Pool.QueryRow(ctx, `
		INSERT INTO provider_services (provider_id, service_id, custom_price, custom_points, availability, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		ON CONFLICT (provider_id, service_id) DO UPDATE SET
			custom_price=EXCLUDED.custom_price, custom_points=EXCLUDED.custom_points,
			availability=EXCLUDED.availability, updated_at=now(), deleted_at=NULL
		RETURNING id
	`, p.ProviderID, p.ServiceID, p.CustomPrice, p.CustomPoints, avail).Scan(&id)
	if err != nil {
		return nil, err
	}
	return r.GetProviderService(ctx, p.ProviderID, p.ServiceID)
}

func (r CatalogRepository) DeleteOffering(ctx context.Context, providerID, serviceID int64) error {
	tag, err := r.DB.Pool.Exec(ctx, `
		UPDATE provider_services SET deleted_at=now()
		WHERE provider_id=$1 AND service_id=$2 AND deleted_at IS NULL
	`, providerID, serviceID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetProviderService resolves one provider's offering of a service,
// joined with the catalog entry so callers can compute effective price
// and points.
func (r CatalogRepository) GetProviderService(ctx context.Context, providerID, serviceID int64) (*domain.ProviderService, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		SELECT ps.id, ps.provider_id, ps.service_id, s.name, s.category, s.base_price, s.duration_min, s.points,
		       ps.custom_price, ps.custom_points, ps.availability, ps.created_at, ps.updated_at
		FROM provider_services ps
		JOIN services s ON s.id = ps.service_id AND s.deleted_at IS NULL
		WHERE ps.provider_id=$1 AND ps.service_id=$2 AND ps.deleted_at IS NULL
	`, providerID, serviceID)
	ps, err := scanProviderService(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return ps, nil
}

func (r CatalogRepository) ListProviderServices(ctx context.Context, providerID int64, limit int) ([]domain.ProviderService, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT ps.id, ps.provider_id, ps.service_id, s.name, s.category, s.base_price, s.duration_min, s.points,
		       ps.custom_price, ps.custom_points, ps.availability, ps.created_at, ps.updated_at
		FROM provider_services ps
		JOIN services s ON s.id = ps.service_id AND s.deleted_at IS NULL
		WHERE ps.provider_id=$1 AND ps.deleted_at IS NULL
		ORDER BY s.category, s.name
		LIMIT $2
	`, providerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []domain.ProviderService
	for rows.Next() {
		ps, err := scanProviderService(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *ps)
	}
	return items, rows.Err()
}

func scanProviderService(row interface {
	Scan(dest ...any) error
}) (*domain.ProviderService, error) {
	var (
		ps    domain.ProviderService
		avail []byte
	)
	if err := row.Scan(
		&ps.ID, &ps.ProviderID, &ps.ServiceID, &ps.ServiceName, &ps.Category,
		&ps.BasePrice.Amount, &ps.DurationMin, &ps.Points,
		&ps.CustomPrice, &ps.CustomPoints, &avail, &ps.CreatedAt, &ps.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if len(avail) > 0 {
		if err := json.Unmarshal(avail, &ps.Availability); err != nil {
			return nil, err
		}
	}
	return &ps, nil
}
