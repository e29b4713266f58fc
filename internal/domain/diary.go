package domain

import (
	"math"

	"github.com/yusufkecer/macro-tracker-backend/internal/metabolic"
)

// DefaultCalorieGoal is used when a user has neither a manual goal nor a
// complete profile to compute one from.
const DefaultCalorieGoal = 2000

type DiaryDay struct {
	Date        string                     `json:"date"`
	Meals       map[MealType][]FoodLog     `json:"meals"`
	Totals      DiaryTotals                `json:"totals"`
	CalorieGoal int                        `json:"calorie_goal"`
	Remaining   float64                    `json:"remaining"`
	Targets     *metabolic.MetabolicResult `json:"targets,omitempty"`
}

// NewDiaryDay groups logs by meal and sums their totals. Every meal key is
// present even when it has no entries.
func NewDiaryDay(date string, logs []FoodLog, calorieGoal int) DiaryDay {
	day := DiaryDay{
		Date:        date,
		Meals:       make(map[MealType][]FoodLog, len(MealTypes)),
		CalorieGoal: calorieGoal,
	}
	for _, m := range MealTypes {
		day.Meals[m] = []FoodLog{}
	}
	for _, l := range logs {
		meal := l.MealType
		if !meal.Valid() {
			meal = Snack
		}
		day.Meals[meal] = append(day.Meals[meal], l)
		day.Totals.Add(l)
	}
	day.Remaining = float64(calorieGoal) - day.Totals.Calories
	return day
}

// ResolveCalorieGoal picks the daily goal: a manual goal wins, then the
// computed target, then DefaultCalorieGoal.
func ResolveCalorieGoal(manual *int, targets *metabolic.MetabolicResult) int {
	if manual != nil && *manual > 0 {
		return *manual
	}
	if targets != nil && targets.TargetCalories > 0 {
		return int(math.Round(targets.TargetCalories))
	}
	return DefaultCalorieGoal
}
