package handler

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/yusufkecer/macro-tracker-backend/internal/domain"
	"github.com/yusufkecer/macro-tracker-backend/internal/metabolic"
	"github.com/yusufkecer/macro-tracker-backend/internal/metrics"
)

type CalculatorHandler struct {
	calc *metabolic.Calculator
}

func NewCalculatorHandler(calc *metabolic.Calculator) *CalculatorHandler {
	return &CalculatorHandler{calc: calc}
}

// Calculate is public: it computes targets without storing anything.
func (h *CalculatorHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	var in metabolic.BiometricInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		metrics.IncCalculation("invalid")
		writeDecodeError(w, err)
		return
	}

	result, err := compute(h.calc, in)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func compute(calc *metabolic.Calculator, in metabolic.BiometricInput) (metabolic.MetabolicResult, error) {
	result, err := calc.Compute(in)
	if err != nil {
		metrics.IncCalculation("invalid")
		return metabolic.MetabolicResult{}, err
	}
	metrics.IncCalculation("ok")
	return result, nil
}

// targetsFor returns the computed targets of a complete profile, or nil.
func targetsFor(calc *metabolic.Calculator, p *domain.Profile) *metabolic.MetabolicResult {
	in, ok := p.BiometricInput()
	if !ok {
		return nil
	}
	result, err := compute(calc, in)
	if err != nil {
		log.Printf("[profile] stored profile for account %d is invalid: %v", p.AccountID, err)
		return nil
	}
	return &result
}
