package handler

import (
	"encoding/json"
	"log"
	"math"
	"net/http"

	"github.com/yusufkecer/macro-tracker-backend/internal/domain"
	"github.com/yusufkecer/macro-tracker-backend/internal/metabolic"
	"github.com/yusufkecer/macro-tracker-backend/internal/repository"
)

// MetricHandler saves body stats: each submission updates the profile and
// appends a snapshot of the input and the targets computed from it.
type MetricHandler struct {
	snapshots *repository.SnapshotRepository
	calc      *metabolic.Calculator
}

func NewMetricHandler(snapshots *repository.SnapshotRepository, calc *metabolic.Calculator) *MetricHandler {
	return &MetricHandler{snapshots: snapshots, calc: calc}
}

func (h *MetricHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in metabolic.BiometricInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeDecodeError(w, err)
		return
	}

	result, err := compute(h.calc, in)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id := accountID(r)
	latest, err := h.snapshots.Latest(r.Context(), id)
	if err != nil {
		log.Printf("[metrics] failed to get latest snapshot for account %d: %v", id, err)
		writeError(w, http.StatusInternalServerError, "failed to save metrics")
		return
	}

	snapshot := domain.ProfileSnapshot{
		AccountID: id,
		Date:      today(),
		Input:     in,
		Result:    result,
	}
	if latest != nil {
		diff := math.Round((in.WeightKg-latest.Input.WeightKg)*100) / 100
		snapshot.WeightDiff = &diff
	}

	fields := domain.BiometricFields(in)
	fields["calorie_goal"] = int(math.Round(result.TargetCalories))
	snapshotID, err := h.snapshots.Record(r.Context(), &snapshot, fields)
	if err != nil {
		log.Printf("[metrics] failed to record snapshot for account %d: %v", id, err)
		writeError(w, http.StatusInternalServerError, "failed to save metrics")
		return
	}

	snapshot.ID = snapshotID
	writeJSON(w, http.StatusCreated, snapshot)
}

func (h *MetricHandler) List(w http.ResponseWriter, r *http.Request) {
	id := accountID(r)
	snapshots, err := h.snapshots.ListByAccount(r.Context(), id)
	if err != nil {
		log.Printf("[metrics] failed to list snapshots for account %d: %v", id, err)
		writeError(w, http.StatusInternalServerError, "failed to list metrics")
		return
	}
	if snapshots == nil {
		snapshots = []domain.ProfileSnapshot{}
	}

	writeJSON(w, http.StatusOK, snapshots)
}
