// Package metabolic derives BMI, BMR, TDEE and daily calorie and macro
// targets from a person's biometrics. Every function is pure.
package metabolic

import "math"

const (
	kcalPerGramProtein = 4
	kcalPerGramCarbs   = 4
	kcalPerGramFat     = 9

	proteinGramsPerKg = 2.0
	fatCalorieShare   = 0.25

	// GoalAdjustment is the daily surplus or deficit applied for gain and lose.
	GoalAdjustment = 500.0

	// DefaultCalorieFloor is the lowest target a lose goal may produce.
	DefaultCalorieFloor = 1200.0
)

// Calculator runs the full pipeline with a configurable safety floor for
// weight-loss targets. The zero value uses DefaultCalorieFloor.
type Calculator struct {
	CalorieFloor float64
}

func NewCalculator(calorieFloor float64) *Calculator {
	return &Calculator{CalorieFloor: calorieFloor}
}

func (c *Calculator) floor() float64 {
	if c == nil || c.CalorieFloor <= 0 {
		return DefaultCalorieFloor
	}
	return c.CalorieFloor
}

// Compute validates in and returns its metabolic profile.
func (c *Calculator) Compute(in BiometricInput) (MetabolicResult, error) {
	if err := in.Validate(); err != nil {
		return MetabolicResult{}, err
	}

	bmi, err := ComputeBMI(in.WeightKg, in.HeightCm)
	if err != nil {
		return MetabolicResult{}, err
	}
	bmr, err := ComputeBMR(in)
	if err != nil {
		return MetabolicResult{}, err
	}
	tdee, err := ComputeTDEE(bmr, in.ActivityLevel)
	if err != nil {
		return MetabolicResult{}, err
	}
	for _, v := range []struct {
		field string
		value float64
	}{{"bmi", bmi}, {"bmr", bmr}, {"tdee", tdee}} {
		if err := finite(v.field, v.value); err != nil {
			return MetabolicResult{}, err
		}
	}
	target, err := c.TargetCalories(tdee, in.Goal)
	if err != nil {
		return MetabolicResult{}, err
	}
	macros, err := ComputeMacros(target, in.WeightKg, in.Goal)
	if err != nil {
		return MetabolicResult{}, err
	}

	return MetabolicResult{
		BMI:            bmi,
		BMICategory:    ClassifyBMI(bmi),
		BMR:            bmr,
		TDEE:           tdee,
		TargetCalories: target,
		Macros:         macros,
	}, nil
}

// TargetCalories shifts tdee by GoalAdjustment in the direction of goal.
// Weight-loss targets never drop below the calculator's floor.
func (c *Calculator) TargetCalories(tdee float64, goal Goal) (float64, error) {
	if !(tdee > 0) {
		return 0, invalid("tdee", "must be greater than 0")
	}
	switch goal {
	case Maintain:
		return tdee, nil
	case Lose:
		return math.Max(tdee-GoalAdjustment, c.floor()), nil
	case Gain:
		return tdee + GoalAdjustment, nil
	}
	return 0, invalid("goal", "must be one of lose, maintain, gain")
}

// Compute runs the pipeline with the default calorie floor.
func Compute(in BiometricInput) (MetabolicResult, error) {
	return (*Calculator)(nil).Compute(in)
}

// ComputeTargetCalories applies the goal adjustment with the default floor.
func ComputeTargetCalories(tdee float64, goal Goal) (float64, error) {
	return (*Calculator)(nil).TargetCalories(tdee, goal)
}

func ComputeBMI(weightKg, heightCm float64) (float64, error) {
	if !(weightKg > 0) {
		return 0, invalid("weight_kg", "must be greater than 0")
	}
	if !(heightCm > 0) {
		return 0, invalid("height_cm", "must be greater than 0")
	}
	m := heightCm / 100
	return weightKg / (m * m), nil
}

func finite(field string, v float64) error {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return invalid(field, "out of range")
	}
	return nil
}

func ClassifyBMI(bmi float64) BMICategory {
	switch {
	case bmi < 18.5:
		return Underweight
	case bmi < 25:
		return Normal
	case bmi < 30:
		return Overweight
	default:
		return Obese
	}
}

// ComputeBMR uses the Mifflin-St Jeor equation.
func ComputeBMR(in BiometricInput) (float64, error) {
	switch {
	case !(in.WeightKg > 0):
		return 0, invalid("weight_kg", "must be greater than 0")
	case !(in.HeightCm > 0):
		return 0, invalid("height_cm", "must be greater than 0")
	case in.Age <= 0:
		return 0, invalid("age", "must be greater than 0")
	}

	base := 10*in.WeightKg + 6.25*in.HeightCm - 5*float64(in.Age)
	switch in.Sex {
	case Male:
		return base + 5, nil
	case Female:
		return base - 161, nil
	}
	return 0, invalid("sex", "must be male or female")
}

func ComputeTDEE(bmr float64, level ActivityLevel) (float64, error) {
	if !(bmr > 0) {
		return 0, invalid("bmr", "must be greater than 0")
	}
	mult, ok := level.Multiplier()
	if !ok {
		return 0, invalid("activity_level", "must be one of sedentary, light, moderate, active, very_active")
	}
	return bmr * mult, nil
}

// ComputeMacros splits targetCalories into protein at 2 g per kg of body
// weight, fat at a quarter of the calories and carbs for the remainder.
// The allocation fails only when the exact protein and fat energy exceeds
// the target. Carbs are derived from the rounded protein and fat grams so
// the split stays within 5 kcal of the target, and never go below zero.
func ComputeMacros(targetCalories, weightKg float64, goal Goal) (Macros, error) {
	switch {
	case !(targetCalories > 0) || math.IsInf(targetCalories, 1):
		return Macros{}, invalid("target_calories", "must be a positive finite number")
	case !(weightKg > 0) || math.IsInf(weightKg, 1):
		return Macros{}, invalid("weight_kg", "must be a positive finite number")
	case !goal.Valid():
		return Macros{}, invalid("goal", "must be one of lose, maintain, gain")
	}

	proteinKcal := weightKg * proteinGramsPerKg * kcalPerGramProtein
	fatKcal := targetCalories * fatCalorieShare
	if targetCalories-proteinKcal-fatKcal < 0 {
		return Macros{}, invalid("target_calories", "too low to cover the protein and fat allocation")
	}

	protein := int(math.Round(weightKg * proteinGramsPerKg))
	fat := int(math.Round(fatKcal / kcalPerGramFat))
	remaining := targetCalories - float64(protein*kcalPerGramProtein) - float64(fat*kcalPerGramFat)

	return Macros{
		ProteinG: protein,
		CarbsG:   int(math.Max(0, math.Round(remaining/kcalPerGramCarbs))),
		FatG:     fat,
	}, nil
}
