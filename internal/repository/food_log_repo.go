package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/yusufkecer/macro-tracker-backend/internal/db"
	"github.com/yusufkecer/macro-tracker-backend/internal/domain"
)

type FoodLogRepository struct {
	db *db.DB
}

func NewFoodLogRepository(db *db.DB) *FoodLogRepository {
	return &FoodLogRepository{db: db}
}

func (r *FoodLogRepository) Create(ctx context.Context, l *domain.FoodLog) (int64, error) {
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO food_logs (account_id, date, meal_type, food_name, brand, barcode, serving_size, serving_unit,
		                        calories, protein, carbs, fat, fiber, sugar, sodium, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.AccountID, l.Date, string(l.MealType), l.FoodName, l.Brand, l.Barcode, l.ServingSize, l.ServingUnit,
		l.Calories, l.Protein, l.Carbs, l.Fat, l.Fiber, l.Sugar, l.Sodium, l.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create food log: %w", err)
	}
	return result.LastInsertId()
}

// Delete removes the entry only when it belongs to accountID. It reports
// whether a row was deleted.
func (r *FoodLogRepository) Delete(ctx context.Context, accountID, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM food_logs WHERE id = ? AND account_id = ?`,
		id, accountID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete food log: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to delete food log: %w", err)
	}
	return n > 0, nil
}

const foodLogColumns = `id, account_id, date, meal_type, food_name, brand, barcode, serving_size, serving_unit,
		calories, protein, carbs, fat, fiber, sugar, sodium, created_at`

func (r *FoodLogRepository) ListByDate(ctx context.Context, accountID int64, date string) ([]domain.FoodLog, error) {
	return r.list(ctx,
		`SELECT `+foodLogColumns+` FROM food_logs
		 WHERE account_id = ? AND date = ?
		 ORDER BY created_at ASC, id ASC`,
		accountID, date,
	)
}

// ListRange returns entries with from <= date <= to, both YYYY-MM-DD.
func (r *FoodLogRepository) ListRange(ctx context.Context, accountID int64, from, to string) ([]domain.FoodLog, error) {
	return r.list(ctx,
		`SELECT `+foodLogColumns+` FROM food_logs
		 WHERE account_id = ? AND date >= ? AND date <= ?
		 ORDER BY date ASC, created_at ASC, id ASC`,
		accountID, from, to,
	)
}

func (r *FoodLogRepository) list(ctx context.Context, query string, args ...any) ([]domain.FoodLog, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list food logs: %w", err)
	}
	defer rows.Close()

	var logs []domain.FoodLog
	for rows.Next() {
		l, err := scanFoodLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

func scanFoodLog(rows *sql.Rows) (domain.FoodLog, error) {
	var l domain.FoodLog
	err := rows.Scan(
		&l.ID, &l.AccountID, &l.Date, &l.MealType, &l.FoodName, &l.Brand, &l.Barcode, &l.ServingSize, &l.ServingUnit,
		&l.Calories, &l.Protein, &l.Carbs, &l.Fat, &l.Fiber, &l.Sugar, &l.Sodium, &l.CreatedAt,
	)
	if err != nil {
		return l, fmt.Errorf("failed to scan food log: %w", err)
	}
	return l, nil
}
