package domain

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

type MealType string

const (
	Breakfast MealType = "breakfast"
	Lunch     MealType = "lunch"
	Dinner    MealType = "dinner"
	Snack     MealType = "snack"
)

// MealTypes is the display order of meals in a diary day.
var MealTypes = []MealType{Breakfast, Lunch, Dinner, Snack}

func (m MealType) Valid() bool {
	switch m {
	case Breakfast, Lunch, Dinner, Snack:
		return true
	}
	return false
}

// Nutrients are per serving, except Sodium which is in milligrams.
type Nutrients struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Fiber    float64 `json:"fiber"`
	Sugar    float64 `json:"sugar"`
	Sodium   float64 `json:"sodium"`
}

type FoodLog struct {
	ID          int64     `json:"id"`
	AccountID   int64     `json:"account_id"`
	Date        string    `json:"date"`
	MealType    MealType  `json:"meal_type"`
	FoodName    string    `json:"name"`
	Brand       string    `json:"brand"`
	Barcode     string    `json:"barcode"`
	ServingSize float64   `json:"serving_size"`
	ServingUnit string    `json:"serving_unit"`
	Nutrients
	CreatedAt time.Time `json:"created_at"`
}

// CreateFoodLogRequest is the body of POST /diary/entries. Omitted fields
// fall back to the defaults applied by the handler.
type CreateFoodLogRequest struct {
	Date        string   `json:"date"`
	MealType    string   `json:"meal_type"`
	Name        string   `json:"name"`
	Brand       string   `json:"brand"`
	Barcode     string   `json:"barcode"`
	ServingSize *float64 `json:"serving_size"`
	ServingUnit string   `json:"serving_unit"`
	Nutrients
}

type DiaryTotals struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Fiber    float64 `json:"fiber"`
}

// Add accumulates one entry scaled by its serving size.
func (t *DiaryTotals) Add(l FoodLog) {
	t.Calories += l.Calories * l.ServingSize
	t.Protein += l.Protein * l.ServingSize
	t.Carbs += l.Carbs * l.ServingSize
	t.Fat += l.Fat * l.ServingSize
	t.Fiber += l.Fiber * l.ServingSize
}

// Product is a food item returned by a nutrition database, per 100 g.
type Product struct {
	Name        string  `json:"name"`
	Brand       string  `json:"brand"`
	Barcode     string  `json:"barcode"`
	Image       string  `json:"image"`
	ServingSize string  `json:"serving_size"`
	Calories    float64 `json:"calories"`
	Protein     float64 `json:"protein"`
	Carbs       float64 `json:"carbs"`
	Fat         float64 `json:"fat"`
	Fiber       float64 `json:"fiber"`
	Sugar       float64 `json:"sugar"`
	Sodium      float64 `json:"sodium"`
}

type SearchResponse struct {
	Products []Product `json:"products"`
}

type BarcodeResponse struct {
	Found   bool     `json:"found"`
	Product *Product `json:"product,omitempty"`
	Message string   `json:"message,omitempty"`
}

const (
	DateLayout         = "2006-01-02"
	MaxFoodNameLength  = 200
	DefaultFoodName    = "Unknown"
	DefaultServingUnit = "serving"
)

// ToFoodLog validates the request and fills in defaults. An empty date
// means today.
func (r CreateFoodLogRequest) ToFoodLog(accountID int64, today string) (FoodLog, error) {
	l := FoodLog{
		AccountID:   accountID,
		Date:        r.Date,
		MealType:    MealType(strings.ToLower(strings.TrimSpace(r.MealType))),
		FoodName:    strings.TrimSpace(r.Name),
		Brand:       strings.TrimSpace(r.Brand),
		Barcode:     strings.TrimSpace(r.Barcode),
		ServingSize: 1,
		ServingUnit: strings.TrimSpace(r.ServingUnit),
		Nutrients:   r.Nutrients,
	}
	if l.Date == "" {
		l.Date = today
	} else if _, err := time.Parse(DateLayout, l.Date); err != nil {
		return FoodLog{}, errors.New("date must be YYYY-MM-DD")
	}
	if l.MealType == "" {
		l.MealType = Snack
	} else if !l.MealType.Valid() {
		return FoodLog{}, errors.New("meal_type must be one of breakfast, lunch, dinner, snack")
	}
	if l.FoodName == "" {
		l.FoodName = DefaultFoodName
	}
	if len(l.FoodName) > MaxFoodNameLength {
		return FoodLog{}, fmt.Errorf("name must be at most %d characters", MaxFoodNameLength)
	}
	if r.ServingSize != nil {
		if !(*r.ServingSize > 0) {
			return FoodLog{}, errors.New("serving_size must be greater than 0")
		}
		l.ServingSize = *r.ServingSize
	}
	if l.ServingUnit == "" {
		l.ServingUnit = DefaultServingUnit
	}
	n := l.Nutrients
	for _, v := range []float64{n.Calories, n.Protein, n.Carbs, n.Fat, n.Fiber, n.Sugar, n.Sodium} {
		if v < 0 || math.IsNaN(v) {
			return FoodLog{}, errors.New("nutrient values must not be negative")
		}
	}
	return l, nil
}
