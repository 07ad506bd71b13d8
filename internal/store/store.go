package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/akluev/vendops/internal/service"
)

// Schedule is the per-machine restock cadence.
type Schedule struct {
	MachineID       string    `json:"machine_id"`
	IntervalDays    int       `json:"interval_days"`
	LastRestockedAt time.Time `json:"last_restocked_at"`
}

// EnsureSchema creates the operational-state tables when they don't exist.
// Called once at startup; safe to call repeatedly.
func EnsureSchema(ctx context.Context, dbURL string) error {
	if dbURL == "" {
		return fmt.Errorf("db url missing")
	}
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer pool.Close()

	_, err = pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS loading_overrides (
  machine_id      TEXT NOT NULL,
  item_name       TEXT NOT NULL,
  status          TEXT NOT NULL,
  required_amount DOUBLE PRECISION NOT NULL DEFAULT 0,
  loaded_amount   DOUBLE PRECISION NOT NULL DEFAULT 0,
  carry_over      DOUBLE PRECISION NOT NULL DEFAULT 0,
  updated_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
  PRIMARY KEY (machine_id, item_name)
);
CREATE TABLE IF NOT EXISTS planograms (
  machine_id TEXT PRIMARY KEY,
  labels     JSONB NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS restock_schedules (
  machine_id        TEXT PRIMARY KEY,
  interval_days     INT NOT NULL DEFAULT 7,
  last_restocked_at TIMESTAMPTZ
);
`)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// LoadOverrides returns all recorded restock overrides for a machine, keyed
// the way the calculator consumes them ("{machineID}-{itemName}").
func LoadOverrides(ctx context.Context, dbURL, machineID string) (map[string]service.LoadingOverride, error) {
	if dbURL == "" {
		return nil, fmt.Errorf("db url missing")
	}
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	defer pool.Close()

	rows, err := pool.Query(ctx, `
SELECT item_name, status, required_amount, loaded_amount, carry_over, updated_at
FROM loading_overrides
WHERE machine_id = $1`, machineID)
	if err != nil {
		return nil, fmt.Errorf("query overrides: %w", err)
	}
	defer rows.Close()

	out := map[string]service.LoadingOverride{}
	for rows.Next() {
		var name string
		var ov service.LoadingOverride
		if err := rows.Scan(&name, &ov.Status, &ov.RequiredAmount, &ov.LoadedAmount, &ov.CarryOver, &ov.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan override: %w", err)
		}
		out[service.OverrideKey(machineID, name)] = ov
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("rows error: %w", rows.Err())
	}
	return out, nil
}

// SaveOverride upserts one restock override.
func SaveOverride(ctx context.Context, dbURL, machineID, itemName string, ov service.LoadingOverride) error {
	if dbURL == "" {
		return fmt.Errorf("db url missing")
	}
	if machineID == "" || itemName == "" {
		return fmt.Errorf("machine id or item name missing")
	}
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer pool.Close()

	_, err = pool.Exec(ctx, `
INSERT INTO loading_overrides (machine_id, item_name, status, required_amount, loaded_amount, carry_over, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, now())
ON CONFLICT (machine_id, item_name) DO UPDATE
SET status = EXCLUDED.status,
    required_amount = EXCLUDED.required_amount,
    loaded_amount = EXCLUDED.loaded_amount,
    carry_over = EXCLUDED.carry_over,
    updated_at = now()
`, machineID, itemName, ov.Status, ov.RequiredAmount, ov.LoadedAmount, ov.CarryOver)
	if err != nil {
		return fmt.Errorf("upsert override: %w", err)
	}
	return nil
}

// DeleteOverrides clears all overrides for a machine (used when the operator
// resets the accounting for a cycle).
func DeleteOverrides(ctx context.Context, dbURL, machineID string) error {
	if dbURL == "" {
		return fmt.Errorf("db url missing")
	}
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, `DELETE FROM loading_overrides WHERE machine_id = $1`, machineID); err != nil {
		return fmt.Errorf("delete overrides: %w", err)
	}
	return nil
}

// LoadPlanogram returns the machine's ordered slot labels, or nil when none
// is stored.
func LoadPlanogram(ctx context.Context, dbURL, machineID string) ([]string, error) {
	if dbURL == "" {
		return nil, fmt.Errorf("db url missing")
	}
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	defer pool.Close()

	var raw []byte
	err = pool.QueryRow(ctx, `SELECT labels FROM planograms WHERE machine_id = $1`, machineID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query planogram: %w", err)
	}
	var labels []string
	if err := json.Unmarshal(raw, &labels); err != nil {
		return nil, fmt.Errorf("decode planogram labels: %w", err)
	}
	return labels, nil
}

// SavePlanogram upserts the machine's ordered slot labels.
func SavePlanogram(ctx context.Context, dbURL, machineID string, labels []string) error {
	if dbURL == "" {
		return fmt.Errorf("db url missing")
	}
	if machineID == "" {
		return fmt.Errorf("machine id missing")
	}
	raw, err := json.Marshal(labels)
	if err != nil {
		return fmt.Errorf("encode planogram labels: %w", err)
	}
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer pool.Close()

	_, err = pool.Exec(ctx, `
INSERT INTO planograms (machine_id, labels, updated_at)
VALUES ($1, $2::jsonb, now())
ON CONFLICT (machine_id) DO UPDATE
SET labels = EXCLUDED.labels, updated_at = now()
`, machineID, string(raw))
	if err != nil {
		return fmt.Errorf("upsert planogram: %w", err)
	}
	return nil
}

// LoadSchedule returns the machine's restock schedule, or nil when none is
// stored.
func LoadSchedule(ctx context.Context, dbURL, machineID string) (*Schedule, error) {
	if dbURL == "" {
		return nil, fmt.Errorf("db url missing")
	}
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	defer pool.Close()

	s := Schedule{MachineID: machineID}
	var last *time.Time
	err = pool.QueryRow(ctx, `
SELECT interval_days, last_restocked_at FROM restock_schedules WHERE machine_id = $1`, machineID).
		Scan(&s.IntervalDays, &last)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query schedule: %w", err)
	}
	if last != nil {
		s.LastRestockedAt = *last
	}
	return &s, nil
}

// SaveSchedule upserts the machine's restock schedule.
func SaveSchedule(ctx context.Context, dbURL string, s Schedule) error {
	if dbURL == "" {
		return fmt.Errorf("db url missing")
	}
	if s.MachineID == "" {
		return fmt.Errorf("machine id missing")
	}
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer pool.Close()

	var last *time.Time
	if !s.LastRestockedAt.IsZero() {
		last = &s.LastRestockedAt
	}
	_, err = pool.Exec(ctx, `
INSERT INTO restock_schedules (machine_id, interval_days, last_restocked_at)
VALUES ($1, $2, $3)
ON CONFLICT (machine_id) DO UPDATE
SET interval_days = EXCLUDED.interval_days,
    last_restocked_at = EXCLUDED.last_restocked_at
`, s.MachineID, s.IntervalDays, last)
	if err != nil {
		return fmt.Errorf("upsert schedule: %w", err)
	}
	return nil
}

// TouchRestocked stamps the machine as just restocked, creating the schedule
// row with the default interval when missing.
func TouchRestocked(ctx context.Context, dbURL, machineID string, at time.Time) error {
	if dbURL == "" {
		return fmt.Errorf("db url missing")
	}
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer pool.Close()

	_, err = pool.Exec(ctx, `
INSERT INTO restock_schedules (machine_id, last_restocked_at)
VALUES ($1, $2)
ON CONFLICT (machine_id) DO UPDATE
SET last_restocked_at = EXCLUDED.last_restocked_at
`, machineID, at)
	if err != nil {
		return fmt.Errorf("touch restocked: %w", err)
	}
	return nil
}
