package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/yusufkecer/macro-tracker-backend/internal/db"
	"github.com/yusufkecer/macro-tracker-backend/internal/domain"
)

type ProfileRepository struct {
	db *db.DB
}

func NewProfileRepository(db *db.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) Get(ctx context.Context, accountID int64) (*domain.Profile, error) {
	var p domain.Profile
	err := r.db.QueryRowContext(ctx,
		`SELECT account_id, height_cm, weight_kg, age, sex, activity_level, goal, calorie_goal, updated_at
		 FROM profiles WHERE account_id = ?`, accountID,
	).Scan(&p.AccountID, &p.HeightCm, &p.WeightKg, &p.Age, &p.Sex, &p.ActivityLevel, &p.Goal, &p.CalorieGoal, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &p, nil
}

var profileColumns = map[string]bool{
	"height_cm": true, "weight_kg": true, "age": true, "sex": true,
	"activity_level": true, "goal": true, "calorie_goal": true,
}

// Update writes the given columns. Keys outside the profile column
// allow-list are ignored; a nil value stores NULL.
func (r *ProfileRepository) Update(ctx context.Context, accountID int64, fields map[string]any) error {
	return updateProfile(ctx, r.db, accountID, fields)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func updateProfile(ctx context.Context, ex execer, accountID int64, fields map[string]any) error {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		if profileColumns[k] {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return nil
	}
	sort.Strings(keys)

	setClauses := make([]string, 0, len(keys)+1)
	args := make([]any, 0, len(keys)+2)
	for _, k := range keys {
		setClauses = append(setClauses, k+" = ?")
		args = append(args, fields[k])
	}
	setClauses = append(setClauses, "updated_at = ?")
	args = append(args, time.Now().UTC(), accountID)

	query := "UPDATE profiles SET " + strings.Join(setClauses, ", ") + " WHERE account_id = ?"
	if _, err := ex.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return nil
}
