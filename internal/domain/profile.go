package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/yusufkecer/macro-tracker-backend/internal/metabolic"
)

type Account struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Profile holds the biometrics an account has saved so far. Every
// biometric is optional until the user fills it in.
type Profile struct {
	AccountID     int64                   `json:"account_id"`
	HeightCm      *float64                `json:"height_cm"`
	WeightKg      *float64                `json:"weight_kg"`
	Age           *int                    `json:"age"`
	Sex           *metabolic.Sex          `json:"sex"`
	ActivityLevel metabolic.ActivityLevel `json:"activity_level"`
	Goal          metabolic.Goal          `json:"goal"`
	CalorieGoal   *int                    `json:"calorie_goal"`
	UpdatedAt     *time.Time              `json:"updated_at"`
}

// BiometricInput returns the calculator input for p. ok is false while any
// required field is still missing.
func (p *Profile) BiometricInput() (in metabolic.BiometricInput, ok bool) {
	if p == nil || p.HeightCm == nil || p.WeightKg == nil || p.Age == nil || p.Sex == nil {
		return metabolic.BiometricInput{}, false
	}
	return metabolic.BiometricInput{
		WeightKg:      *p.WeightKg,
		HeightCm:      *p.HeightCm,
		Age:           *p.Age,
		Sex:           *p.Sex,
		ActivityLevel: p.ActivityLevel,
		Goal:          p.Goal,
	}, true
}

type ProfileResponse struct {
	Account Account `json:"account"`
	Profile Profile `json:"profile"`
}

// PatchProfileRequest is the body of PATCH /profile. Only fields present
// in the JSON are applied; calorie_goal may be sent as null to clear it.
type PatchProfileRequest struct {
	Email         *string                  `json:"email"`
	HeightCm      *float64                 `json:"height_cm"`
	WeightKg      *float64                 `json:"weight_kg"`
	Age           *int                     `json:"age"`
	Sex           *metabolic.Sex           `json:"sex"`
	ActivityLevel *metabolic.ActivityLevel `json:"activity_level"`
	Goal          *metabolic.Goal          `json:"goal"`
	CalorieGoal   *int                     `json:"calorie_goal"`
	ClearGoal     bool                     `json:"-"`
}

// Validate checks the fields that are present. Enum fields are already
// checked while decoding.
func (r PatchProfileRequest) Validate() error {
	switch {
	case r.Email != nil && !ValidEmail(NormalizeEmail(*r.Email)):
		return errors.New("invalid email format")
	case r.HeightCm != nil && !(*r.HeightCm > 0 && *r.HeightCm <= metabolic.MaxHeightCm):
		return fmt.Errorf("height_cm must be greater than 0 and at most %g", metabolic.MaxHeightCm)
	case r.WeightKg != nil && !(*r.WeightKg > 0 && *r.WeightKg <= metabolic.MaxWeightKg):
		return fmt.Errorf("weight_kg must be greater than 0 and at most %g", metabolic.MaxWeightKg)
	case r.Age != nil && (*r.Age <= 0 || *r.Age > metabolic.MaxAge):
		return fmt.Errorf("age must be between 1 and %d", metabolic.MaxAge)
	case r.CalorieGoal != nil && *r.CalorieGoal <= 0:
		return errors.New("calorie_goal must be greater than 0")
	}
	return nil
}

// ProfileFields returns the profile columns to update, with plain values
// the database drivers accept.
func (r PatchProfileRequest) ProfileFields() map[string]any {
	fields := map[string]any{}
	if r.HeightCm != nil {
		fields["height_cm"] = *r.HeightCm
	}
	if r.WeightKg != nil {
		fields["weight_kg"] = *r.WeightKg
	}
	if r.Age != nil {
		fields["age"] = *r.Age
	}
	if r.Sex != nil {
		fields["sex"] = string(*r.Sex)
	}
	if r.ActivityLevel != nil {
		fields["activity_level"] = string(*r.ActivityLevel)
	}
	if r.Goal != nil {
		fields["goal"] = string(*r.Goal)
	}
	if r.CalorieGoal != nil {
		fields["calorie_goal"] = *r.CalorieGoal
	} else if r.ClearGoal {
		fields["calorie_goal"] = nil
	}
	return fields
}

// BiometricFields maps a calculator input onto profile columns.
func BiometricFields(in metabolic.BiometricInput) map[string]any {
	return map[string]any{
		"height_cm":      in.HeightCm,
		"weight_kg":      in.WeightKg,
		"age":            in.Age,
		"sex":            string(in.Sex),
		"activity_level": string(in.ActivityLevel),
		"goal":           string(in.Goal),
	}
}
