package db

import (
	"context"
	"fmt"
)

// Migrate applies the schema idempotently at startup. Statements run in
// order; each must be safe to re-run.
func (p *Postgres) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := p.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGSERIAL PRIMARY KEY,
		name          TEXT NOT NULL,
		email         TEXT NOT NULL,
		phone         TEXT NOT NULL DEFAULT '',
		role          TEXT NOT NULL,
		status        TEXT NOT NULL DEFAULT 'active',
		is_google     BOOLEAN NOT NULL DEFAULT FALSE,
		password_hash TEXT,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		deleted_at    TIMESTAMPTZ
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS users_email_key ON users (email) WHERE deleted_at IS NULL`,

	`CREATE TABLE IF NOT EXISTS services (
		id           BIGSERIAL PRIMARY KEY,
		name         TEXT NOT NULL,
		category     TEXT NOT NULL DEFAULT '',
		base_price   BIGINT NOT NULL,
		duration_min INT NOT NULL DEFAULT 60,
		points       INT NOT NULL DEFAULT 0,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		deleted_at   TIMESTAMPTZ
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS services_name_key ON services (name) WHERE deleted_at IS NULL`,

	`CREATE TABLE IF NOT EXISTS provider_services (
		id            BIGSERIAL PRIMARY KEY,
		provider_id   BIGINT NOT NULL REFERENCES users(id),
		service_id    BIGINT NOT NULL REFERENCES services(id),
		custom_price  BIGINT,
		custom_points INT,
		availability  JSONB NOT NULL DEFAULT '{}'::jsonb,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		deleted_at    TIMESTAMPTZ,
		UNIQUE (provider_id, service_id)
	)`,

	`CREATE TABLE IF NOT EXISTS bookings (
		id               BIGSERIAL PRIMARY KEY,
		code             TEXT NOT NULL UNIQUE,
		client_id        BIGINT NOT NULL REFERENCES users(id),
		provider_id      BIGINT NOT NULL REFERENCES users(id),
		service_id       BIGINT NOT NULL REFERENCES services(id),
		scheduled_at     TIMESTAMPTZ NOT NULL,
		location         TEXT NOT NULL DEFAULT '',
		notes            TEXT NOT NULL DEFAULT '',
		amount           BIGINT NOT NULL,
		commission       BIGINT NOT NULL,
		provider_earning BIGINT NOT NULL,
		points_earned    INT NOT NULL DEFAULT 0,
		points_redeemed  INT NOT NULL DEFAULT 0,
		status           TEXT NOT NULL,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
		CHECK (amount = commission + provider_earning)
	)`,
	`CREATE INDEX IF NOT EXISTS bookings_client_idx ON bookings (client_id, id DESC)`,
	`CREATE INDEX IF NOT EXISTS bookings_provider_idx ON bookings (provider_id, id DESC)`,

	`CREATE TABLE IF NOT EXISTS payments (
		id                  BIGSERIAL PRIMARY KEY,
		booking_id          BIGINT NOT NULL UNIQUE REFERENCES bookings(id),
		amount              BIGINT NOT NULL,
		phone               TEXT NOT NULL DEFAULT '',
		checkout_request_id TEXT NOT NULL UNIQUE,
		receipt             TEXT,
		status              TEXT NOT NULL,
		demo                BOOLEAN NOT NULL DEFAULT FALSE,
		failure_reason      TEXT NOT NULL DEFAULT '',
		completed_at        TIMESTAMPTZ,
		created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at          TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS user_points (
		user_id         BIGINT PRIMARY KEY REFERENCES users(id),
		current_points  INT NOT NULL DEFAULT 0,
		lifetime_points INT NOT NULL DEFAULT 0,
		tier            TEXT NOT NULL DEFAULT 'bronze',
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
		CHECK (current_points >= 0),
		CHECK (current_points <= lifetime_points)
	)`,

	`CREATE TABLE IF NOT EXISTS points_transactions (
		id           BIGSERIAL PRIMARY KEY,
		user_id      BIGINT NOT NULL REFERENCES users(id),
		type         TEXT NOT NULL,
		points       INT NOT NULL,
		source       TEXT NOT NULL,
		reference_id BIGINT NOT NULL,
		description  TEXT NOT NULL DEFAULT '',
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (source, reference_id, type)
	)`,
	`CREATE INDEX IF NOT EXISTS points_transactions_user_idx ON points_transactions (user_id, id DESC)`,

	`CREATE TABLE IF NOT EXISTS reviews (
		id          BIGSERIAL PRIMARY KEY,
		booking_id  BIGINT NOT NULL UNIQUE REFERENCES bookings(id),
		client_id   BIGINT NOT NULL REFERENCES users(id),
		provider_id BIGINT NOT NULL REFERENCES users(id),
		rating      INT NOT NULL CHECK (rating BETWEEN 1 AND 5),
		comment     TEXT NOT NULL DEFAULT '',
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS reviews_provider_idx ON reviews (provider_id, id DESC)`,

	`CREATE TABLE IF NOT EXISTS notifications (
		id         BIGSERIAL PRIMARY KEY,
		user_id    BIGINT NOT NULL REFERENCES users(id),
		title      TEXT NOT NULL,
		message    TEXT NOT NULL,
		type       TEXT NOT NULL DEFAULT 'info',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		read_at    TIMESTAMPTZ,
		deleted_at TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS notifications_user_idx ON notifications (user_id, id DESC)`,
}
