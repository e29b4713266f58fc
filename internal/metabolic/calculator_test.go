package metabolic

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
)

func baseInput() BiometricInput {
	return BiometricInput{
		WeightKg:      70,
		HeightCm:      175,
		Age:           25,
		Sex:           Male,
		ActivityLevel: Moderate,
		Goal:          Maintain,
	}
}

func approx(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestComputeBMI(t *testing.T) {
	bmi, err := ComputeBMI(70, 175)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !approx(bmi, 22.86, 0.005) {
		t.Errorf("BMI = %f, want ~22.86", bmi)
	}
	if got := ClassifyBMI(bmi); got != Normal {
		t.Errorf("category = %s, want normal", got)
	}
}

func TestComputeBMI_InvalidInput(t *testing.T) {
	cases := []struct {
		name   string
		weight float64
		height float64
	}{
		{"zero weight", 0, 175},
		{"negative weight", -70, 175},
		{"zero height", 70, 0},
		{"negative height", 70, -5},
		{"NaN weight", math.NaN(), 175},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ComputeBMI(tc.weight, tc.height); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestClassifyBMI_Boundaries(t *testing.T) {
	cases := []struct {
		bmi  float64
		want BMICategory
	}{
		{10, Underweight},
		{18.49, Underweight},
		{18.5, Normal},
		{24.9, Normal},
		{24.95, Normal},
		{25.0, Overweight},
		{29.9, Overweight},
		{30.0, Obese},
		{45, Obese},
	}
	for _, tc := range cases {
		if got := ClassifyBMI(tc.bmi); got != tc.want {
			t.Errorf("ClassifyBMI(%v) = %s, want %s", tc.bmi, got, tc.want)
		}
	}
}

func TestComputeBMR(t *testing.T) {
	male := baseInput()
	bmr, err := ComputeBMR(male)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bmr != 1673.75 {
		t.Errorf("male BMR = %v, want 1673.75", bmr)
	}

	female := baseInput()
	female.Sex = Female
	fbmr, err := ComputeBMR(female)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fbmr != 1507.75 {
		t.Errorf("female BMR = %v, want 1507.75", fbmr)
	}
	if bmr-fbmr != 166 {
		t.Errorf("male - female = %v, want 166", bmr-fbmr)
	}
}

func TestComputeBMR_UnknownSex(t *testing.T) {
	in := baseInput()
	in.Sex = "other"
	if _, err := ComputeBMR(in); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestComputeTDEE_AllLevels(t *testing.T) {
	const bmr = 1673.75
	want := map[ActivityLevel]float64{
		Sedentary:  bmr * 1.2,
		Light:      bmr * 1.375,
		Moderate:   bmr * 1.55,
		Active:     bmr * 1.725,
		VeryActive: bmr * 1.9,
	}
	for _, level := range ActivityLevels {
		got, err := ComputeTDEE(bmr, level)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", level, err)
		}
		if got != want[level] {
			t.Errorf("%s: TDEE = %v, want %v", level, got, want[level])
		}
	}
}

func TestComputeTDEE_UnknownLevel(t *testing.T) {
	for _, level := range []ActivityLevel{"", "veryActive", "extreme"} {
		if _, err := ComputeTDEE(1500, level); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("level %q: expected ErrInvalidInput, got %v", level, err)
		}
	}
}

func TestComputeTargetCalories(t *testing.T) {
	for _, tdee := range []float64{1800, 2594.3125, 3100} {
		maintain, _ := ComputeTargetCalories(tdee, Maintain)
		lose, _ := ComputeTargetCalories(tdee, Lose)
		gain, _ := ComputeTargetCalories(tdee, Gain)
		if maintain != tdee {
			t.Errorf("maintain(%v) = %v", tdee, maintain)
		}
		if lose != tdee-500 {
			t.Errorf("lose(%v) = %v, want %v", tdee, lose, tdee-500)
		}
		if gain != tdee+500 {
			t.Errorf("gain(%v) = %v, want %v", tdee, gain, tdee+500)
		}
	}
}

func TestTargetCalories_LoseFloor(t *testing.T) {
	got, err := ComputeTargetCalories(1500, Lose)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != DefaultCalorieFloor {
		t.Errorf("lose(1500) = %v, want floor %v", got, DefaultCalorieFloor)
	}

	c := NewCalculator(1400)
	got, _ = c.TargetCalories(1700, Lose)
	if got != 1400 {
		t.Errorf("lose(1700) with floor 1400 = %v, want 1400", got)
	}

	// gain and maintain are never clamped
	got, _ = c.TargetCalories(1000, Maintain)
	if got != 1000 {
		t.Errorf("maintain(1000) = %v, want 1000", got)
	}
}

func TestTargetCalories_UnknownGoal(t *testing.T) {
	if _, err := ComputeTargetCalories(2000, "bulk"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestComputeMacros(t *testing.T) {
	m, err := ComputeMacros(2500, 70, Maintain)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.ProteinG != 140 {
		t.Errorf("protein = %d, want 140", m.ProteinG)
	}
	if m.FatG != 69 {
		t.Errorf("fat = %d, want 69", m.FatG)
	}
	// 2500 - 560 - 621 = 1319 kcal -> 329.75 g
	if m.CarbsG != 330 {
		t.Errorf("carbs = %d, want 330", m.CarbsG)
	}
}

func TestComputeMacros_TooLow(t *testing.T) {
	_, err := ComputeMacros(800, 150, Lose)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	var inErr *InputError
	if !errors.As(err, &inErr) || inErr.Field != "target_calories" {
		t.Errorf("expected target_calories field error, got %v", err)
	}
}

func TestComputeMacros_ZeroCarbAllocation(t *testing.T) {
	// protein 615 kcal + fat 205 kcal exactly exhaust 820 kcal; rounding the
	// grams up overshoots by 3 kcal, which must not fail the allocation.
	m, err := ComputeMacros(820, 76.875, Lose)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.ProteinG != 154 || m.FatG != 23 || m.CarbsG != 0 {
		t.Errorf("macros = %+v, want 154/0/23", m)
	}
}

func TestCompute_MacroEnergyMatchesTarget(t *testing.T) {
	for _, sex := range []Sex{Male, Female} {
		for _, level := range ActivityLevels {
			for _, goal := range []Goal{Lose, Maintain, Gain} {
				for _, weight := range []float64{52.3, 70, 88.8, 115} {
					in := BiometricInput{
						WeightKg: weight, HeightCm: 172, Age: 34,
						Sex: sex, ActivityLevel: level, Goal: goal,
					}
					res, err := Compute(in)
					if err != nil {
						t.Fatalf("%+v: unexpected error: %v", in, err)
					}
					kcal := float64(res.Macros.Calories())
					if !approx(kcal, res.TargetCalories, 5) {
						t.Errorf("%+v: macro kcal %v not within 5 of target %v", in, kcal, res.TargetCalories)
					}
				}
			}
		}
	}
}

func TestCompute_Idempotent(t *testing.T) {
	in := baseInput()
	in.Goal = Lose
	first, err := Compute(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Compute(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second {
		t.Errorf("pipeline not deterministic: %+v != %+v", first, second)
	}
}

func TestCompute_Pipeline(t *testing.T) {
	res, err := Compute(baseInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.BMR != 1673.75 {
		t.Errorf("BMR = %v", res.BMR)
	}
	if res.TDEE != 1673.75*1.55 {
		t.Errorf("TDEE = %v", res.TDEE)
	}
	if res.TargetCalories != res.TDEE {
		t.Errorf("maintain target = %v, want TDEE", res.TargetCalories)
	}
	if res.BMICategory != Normal {
		t.Errorf("category = %s", res.BMICategory)
	}
}

func TestCompute_InvalidFields(t *testing.T) {
	cases := []struct {
		field string
		mutFn func(in *BiometricInput)
	}{
		{"weight_kg", func(in *BiometricInput) { in.WeightKg = 0 }},
		{"height_cm", func(in *BiometricInput) { in.HeightCm = -5 }},
		{"age", func(in *BiometricInput) { in.Age = 0 }},
		{"sex", func(in *BiometricInput) { in.Sex = "" }},
		{"activity_level", func(in *BiometricInput) { in.ActivityLevel = "veryActive" }},
		{"goal", func(in *BiometricInput) { in.Goal = "cut" }},
	}
	for _, tc := range cases {
		t.Run(tc.field, func(t *testing.T) {
			in := baseInput()
			tc.mutFn(&in)
			_, err := Compute(in)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
			var inErr *InputError
			if !errors.As(err, &inErr) || inErr.Field != tc.field {
				t.Errorf("expected field %s, got %v", tc.field, err)
			}
		})
	}
}

func TestCompute_OutOfRange(t *testing.T) {
	cases := []struct {
		name  string
		field string
		mutFn func(in *BiometricInput)
	}{
		{"huge weight", "weight_kg", func(in *BiometricInput) { in.WeightKg = 1e308; in.HeightCm = 1 }},
		{"weight above max", "weight_kg", func(in *BiometricInput) { in.WeightKg = MaxWeightKg + 1 }},
		{"infinite weight", "weight_kg", func(in *BiometricInput) { in.WeightKg = math.Inf(1) }},
		{"nan height", "height_cm", func(in *BiometricInput) { in.HeightCm = math.NaN() }},
		{"height above max", "height_cm", func(in *BiometricInput) { in.HeightCm = MaxHeightCm + 0.5 }},
		{"age above max", "age", func(in *BiometricInput) { in.Age = MaxAge + 1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := baseInput()
			tc.mutFn(&in)
			_, err := Compute(in)
			var inErr *InputError
			if !errors.As(err, &inErr) || inErr.Field != tc.field {
				t.Errorf("expected %s error, got %v", tc.field, err)
			}
		})
	}

	in := baseInput()
	in.WeightKg, in.HeightCm, in.Age = MaxWeightKg, MaxHeightCm, MaxAge
	if _, err := Compute(in); err != nil {
		t.Errorf("limits themselves should be accepted: %v", err)
	}
}

func TestComputeMacros_NonFinite(t *testing.T) {
	if _, err := ComputeMacros(math.Inf(1), 70, Gain); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for infinite target, got %v", err)
	}
}

func TestBiometricInput_UnmarshalJSON(t *testing.T) {
	var in BiometricInput
	body := `{"weight_kg":70,"height_cm":175,"age":25,"sex":"female","activity_level":"very_active","goal":"gain"}`
	if err := json.Unmarshal([]byte(body), &in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in.Sex != Female || in.ActivityLevel != VeryActive || in.Goal != Gain {
		t.Errorf("decoded %+v", in)
	}

	err := json.Unmarshal([]byte(`{"activity_level":"couch"}`), &in)
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for unknown enum, got %v", err)
	}
}
