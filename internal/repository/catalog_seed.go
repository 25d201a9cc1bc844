package repository

import (
	"context"

	"github.com/Feighth-arts/glam-sub000/internal/domain"
)

func (r CatalogRepository) SeedDefaults(ctx context.Context) error {
	defaults := []domain.Service{
		{Name: "Classic Haircut", Category: "Hair", BasePrice: domain.Money{Amount: 80000}, DurationMin: 45, Points: 10},
		{Name: "Braiding", Category: "Hair", BasePrice: domain.Money{Amount: 250000}, DurationMin: 180, Points: 30},
		{Name: "Gel Manicure", Category: "Nails", BasePrice: domain.Money{Amount: 120000}, DurationMin: 60, Points: 15},
		{Name: "Pedicure", Category: "Nails", BasePrice: domain.Money{Amount: 100000}, DurationMin: 60, Points: 12},
		{Name: "Full Face Makeup", Category: "Makeup", BasePrice: domain.Money{Amount: 200000}, DurationMin: 90, Points: 25},
		{Name: "Deep Tissue Massage", Category: "Spa", BasePrice: domain.Money{Amount: 300000}, DurationMin: 90, Points: 35},
		{Name: "Facial Treatment", Category: "Spa", BasePrice: domain.Money{Amount: 150000}, DurationMin: 60, Points: 20},
	}

	for _, s := range defaults {
		// Idempotent: services.name is unique.
		_, err := r.DB.Pool.Exec(ctx, `
			INSERT INTO services (name, category, base_price, duration_min, points, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5, now(), now())
			ON CONFLICT (name) WHERE deleted_at IS NULL DO NOTHING
		`, s.Name, s.Category, s.BasePrice.Amount, s.DurationMin, s.Points)
		if err != nil {
			return err
		}
	}
	return nil
}
