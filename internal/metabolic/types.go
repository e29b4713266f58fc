package metabolic

import "fmt"

type Sex string

const (
	Male   Sex = "male"
	Female Sex = "female"
)

func (s Sex) Valid() bool {
	return s == Male || s == Female
}

func (s *Sex) UnmarshalText(b []byte) error {
	v := Sex(b)
	if !v.Valid() {
		return invalid("sex", fmt.Sprintf("unknown value %q", string(b)))
	}
	*s = v
	return nil
}

type ActivityLevel string

const (
	Sedentary  ActivityLevel = "sedentary"
	Light      ActivityLevel = "light"
	Moderate   ActivityLevel = "moderate"
	Active     ActivityLevel = "active"
	VeryActive ActivityLevel = "very_active"
)

// ActivityLevels lists every accepted level in ascending order of activity.
var ActivityLevels = []ActivityLevel{Sedentary, Light, Moderate, Active, VeryActive}

// Multiplier returns the TDEE factor for the level. ok is false for any
// value outside the enumerated set.
func (a ActivityLevel) Multiplier() (m float64, ok bool) {
	switch a {
	case Sedentary:
		return 1.2, true
	case Light:
		return 1.375, true
	case Moderate:
		return 1.55, true
	case Active:
		return 1.725, true
	case VeryActive:
		return 1.9, true
	}
	return 0, false
}

func (a ActivityLevel) Valid() bool {
	_, ok := a.Multiplier()
	return ok
}

func (a *ActivityLevel) UnmarshalText(b []byte) error {
	v := ActivityLevel(b)
	if !v.Valid() {
		return invalid("activity_level", fmt.Sprintf("unknown value %q", string(b)))
	}
	*a = v
	return nil
}

type Goal string

const (
	Lose     Goal = "lose"
	Maintain Goal = "maintain"
	Gain     Goal = "gain"
)

func (g Goal) Valid() bool {
	switch g {
	case Lose, Maintain, Gain:
		return true
	}
	return false
}

func (g *Goal) UnmarshalText(b []byte) error {
	v := Goal(b)
	if !v.Valid() {
		return invalid("goal", fmt.Sprintf("unknown value %q", string(b)))
	}
	*g = v
	return nil
}

type BMICategory string

const (
	Underweight BMICategory = "underweight"
	Normal      BMICategory = "normal"
	Overweight  BMICategory = "overweight"
	Obese       BMICategory = "obese"
)

// Upper bounds on accepted biometrics. Anything larger is a typo or an
// attempt to overflow the energy estimates.
const (
	MaxWeightKg = 700.0
	MaxHeightCm = 300.0
	MaxAge      = 150
)

type BiometricInput struct {
	WeightKg      float64       `json:"weight_kg"`
	HeightCm      float64       `json:"height_cm"`
	Age           int           `json:"age"`
	Sex           Sex           `json:"sex"`
	ActivityLevel ActivityLevel `json:"activity_level"`
	Goal          Goal          `json:"goal"`
}

// Validate reports the first field that violates the input invariants.
func (in BiometricInput) Validate() error {
	switch {
	case !(in.WeightKg > 0):
		return invalid("weight_kg", "must be greater than 0")
	case !(in.WeightKg <= MaxWeightKg):
		return invalid("weight_kg", fmt.Sprintf("must be at most %g", MaxWeightKg))
	case !(in.HeightCm > 0):
		return invalid("height_cm", "must be greater than 0")
	case !(in.HeightCm <= MaxHeightCm):
		return invalid("height_cm", fmt.Sprintf("must be at most %g", MaxHeightCm))
	case in.Age <= 0:
		return invalid("age", "must be greater than 0")
	case in.Age > MaxAge:
		return invalid("age", fmt.Sprintf("must be at most %d", MaxAge))
	case !in.Sex.Valid():
		return invalid("sex", "must be male or female")
	case !in.ActivityLevel.Valid():
		return invalid("activity_level", "must be one of sedentary, light, moderate, active, very_active")
	case !in.Goal.Valid():
		return invalid("goal", "must be one of lose, maintain, gain")
	}
	return nil
}

type Macros struct {
	ProteinG int `json:"protein_g"`
	CarbsG   int `json:"carbs_g"`
	FatG     int `json:"fat_g"`
}

// Calories is the energy content of the split at 4/4/9 kcal per gram.
func (m Macros) Calories() int {
	return m.ProteinG*kcalPerGramProtein + m.CarbsG*kcalPerGramCarbs + m.FatG*kcalPerGramFat
}

type MetabolicResult struct {
	BMI            float64     `json:"bmi"`
	BMICategory    BMICategory `json:"bmi_category"`
	BMR            float64     `json:"bmr"`
	TDEE           float64     `json:"tdee"`
	TargetCalories float64     `json:"target_calories"`
	Macros         Macros      `json:"macros"`
}
