package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/yusufkecer/macro-tracker-backend/internal/db"
	"github.com/yusufkecer/macro-tracker-backend/internal/domain"
)

type SnapshotRepository struct {
	db *db.DB
}

func NewSnapshotRepository(db *db.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

func (r *SnapshotRepository) Create(ctx context.Context, s *domain.ProfileSnapshot) (int64, error) {
	return insertSnapshot(ctx, r.db, s)
}

// Record applies profileFields to the account's profile and appends s in a
// single transaction, so a failed insert leaves the profile untouched.
func (r *SnapshotRepository) Record(ctx context.Context, s *domain.ProfileSnapshot, profileFields map[string]any) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin snapshot transaction: %w", err)
	}
	defer tx.Rollback()

	if err := updateProfile(ctx, tx, s.AccountID, profileFields); err != nil {
		return 0, err
	}
	id, err := insertSnapshot(ctx, tx, s)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return id, nil
}

func insertSnapshot(ctx context.Context, ex execer, s *domain.ProfileSnapshot) (int64, error) {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	in, res := s.Input, s.Result
	result, err := ex.ExecContext(ctx,
		`INSERT INTO profile_snapshots (account_id, date, weight_kg, height_cm, age, sex, activity_level, goal,
		                                bmi, bmi_category, bmr, tdee, target_calories, protein_g, carbs_g, fat_g,
		                                weight_diff, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.AccountID, s.Date, in.WeightKg, in.HeightCm, in.Age, string(in.Sex), string(in.ActivityLevel), string(in.Goal),
		res.BMI, string(res.BMICategory), res.BMR, res.TDEE, res.TargetCalories,
		res.Macros.ProteinG, res.Macros.CarbsG, res.Macros.FatG,
		s.WeightDiff, s.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create snapshot: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read snapshot id: %w", err)
	}
	return id, nil
}

const snapshotColumns = `id, account_id, date, weight_kg, height_cm, age, sex, activity_level, goal,
		bmi, bmi_category, bmr, tdee, target_calories, protein_g, carbs_g, fat_g, weight_diff, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row scanner) (domain.ProfileSnapshot, error) {
	var s domain.ProfileSnapshot
	in, res := &s.Input, &s.Result
	err := row.Scan(
		&s.ID, &s.AccountID, &s.Date, &in.WeightKg, &in.HeightCm, &in.Age, &in.Sex, &in.ActivityLevel, &in.Goal,
		&res.BMI, &res.BMICategory, &res.BMR, &res.TDEE, &res.TargetCalories,
		&res.Macros.ProteinG, &res.Macros.CarbsG, &res.Macros.FatG, &s.WeightDiff, &s.CreatedAt,
	)
	return s, err
}

// Latest returns the most recent snapshot, or nil when there is none.
func (r *SnapshotRepository) Latest(ctx context.Context, accountID int64) (*domain.ProfileSnapshot, error) {
	s, err := scanSnapshot(r.db.QueryRowContext(ctx,
		`SELECT `+snapshotColumns+` FROM profile_snapshots
		 WHERE account_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT 1`, accountID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest snapshot: %w", err)
	}
	return &s, nil
}

func (r *SnapshotRepository) ListByAccount(ctx context.Context, accountID int64) ([]domain.ProfileSnapshot, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+snapshotColumns+` FROM profile_snapshots
		 WHERE account_id = ?
		 ORDER BY created_at ASC, id ASC`, accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []domain.ProfileSnapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snapshots = append(snapshots, s)
	}
	return snapshots, rows.Err()
}
