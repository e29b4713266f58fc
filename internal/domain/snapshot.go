package domain

import (
	"time"

	"github.com/yusufkecer/macro-tracker-backend/internal/metabolic"
)

// ProfileSnapshot is a saved copy of the biometrics a user submitted and the
// targets computed from them at that time.
type ProfileSnapshot struct {
	ID         int64                     `json:"id"`
	AccountID  int64                     `json:"account_id"`
	Date       string                    `json:"date"`
	Input      metabolic.BiometricInput  `json:"input"`
	Result     metabolic.MetabolicResult `json:"result"`
	WeightDiff *float64                  `json:"weight_diff"`
	CreatedAt  time.Time                 `json:"created_at"`
}
