package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/yusufkecer/macro-tracker-backend/internal/domain"
	"github.com/yusufkecer/macro-tracker-backend/internal/metabolic"
	"github.com/yusufkecer/macro-tracker-backend/internal/metrics"
	"github.com/yusufkecer/macro-tracker-backend/internal/repository"
)

const maxExportDays = 366

type DiaryHandler struct {
	logs     *repository.FoodLogRepository
	profiles *repository.ProfileRepository
	calc     *metabolic.Calculator
}

func NewDiaryHandler(
	logs *repository.FoodLogRepository,
	profiles *repository.ProfileRepository,
	calc *metabolic.Calculator,
) *DiaryHandler {
	return &DiaryHandler{logs: logs, profiles: profiles, calc: calc}
}

func (h *DiaryHandler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateFoodLogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	entry, err := req.ToFoodLog(accountID(r), today())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := h.logs.Create(r.Context(), &entry)
	if err != nil {
		log.Printf("[diary] failed to create entry for account %d: %v", entry.AccountID, err)
		writeError(w, http.StatusInternalServerError, "failed to log food")
		return
	}

	entry.ID = id
	metrics.IncDiaryEntry(string(entry.MealType))
	writeJSON(w, http.StatusCreated, entry)
}

func (h *DiaryHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid entry id")
		return
	}

	deleted, err := h.logs.Delete(r.Context(), accountID(r), id)
	if err != nil {
		log.Printf("[diary] failed to delete entry %d: %v", id, err)
		writeError(w, http.StatusInternalServerError, "failed to delete entry")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "entry not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Day returns the diary for ?date=YYYY-MM-DD, falling back to today when
// the parameter is missing or malformed.
func (h *DiaryHandler) Day(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if _, err := time.Parse(domain.DateLayout, date); err != nil {
		date = today()
	}

	day, err := h.buildDay(r, date)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load diary")
		return
	}
	writeJSON(w, http.StatusOK, day)
}

// Dashboard is today's diary with the computed targets attached.
func (h *DiaryHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	day, err := h.buildDay(r, today())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load dashboard")
		return
	}
	writeJSON(w, http.StatusOK, day)
}

func (h *DiaryHandler) buildDay(r *http.Request, date string) (domain.DiaryDay, error) {
	id := accountID(r)
	entries, err := h.logs.ListByDate(r.Context(), id, date)
	if err != nil {
		log.Printf("[diary] failed to list entries for account %d on %s: %v", id, date, err)
		return domain.DiaryDay{}, err
	}
	profile, err := h.profiles.Get(r.Context(), id)
	if err != nil {
		log.Printf("[diary] failed to get profile %d: %v", id, err)
		return domain.DiaryDay{}, err
	}

	targets := targetsFor(h.calc, profile)
	var manual *int
	if profile != nil {
		manual = profile.CalorieGoal
	}

	day := domain.NewDiaryDay(date, entries, domain.ResolveCalorieGoal(manual, targets))
	day.Targets = targets
	return day, nil
}

// Export streams an XLSX workbook of the entries between ?from and ?to.
func (h *DiaryHandler) Export(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseRange(r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id := accountID(r)
	entries, err := h.logs.ListRange(r.Context(), id, from, to)
	if err != nil {
		log.Printf("[diary] failed to list entries for export, account %d: %v", id, err)
		writeError(w, http.StatusInternalServerError, "failed to export diary")
		return
	}

	f, err := buildDiaryWorkbook(from, to, entries)
	if err != nil {
		log.Printf("[diary] failed to build workbook: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to export diary")
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="diary_%s_%s.xlsx"`, from, to))
	if err := f.Write(w); err != nil {
		log.Printf("[diary] failed to write workbook: %v", err)
	}
}

func parseRange(fromStr, toStr string) (string, string, error) {
	from, err := time.Parse(domain.DateLayout, fromStr)
	if err != nil {
		return "", "", errors.New("from must be YYYY-MM-DD")
	}
	to, err := time.Parse(domain.DateLayout, toStr)
	if err != nil {
		return "", "", errors.New("to must be YYYY-MM-DD")
	}
	if to.Before(from) {
		return "", "", errors.New("to must not be before from")
	}
	if days := int(to.Sub(from).Hours()/24) + 1; days > maxExportDays {
		return "", "", fmt.Errorf("range must be at most %d days", maxExportDays)
	}
	return fromStr, toStr, nil
}
