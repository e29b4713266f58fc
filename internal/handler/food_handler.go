package handler

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/yusufkecer/macro-tracker-backend/internal/domain"
	"github.com/yusufkecer/macro-tracker-backend/internal/service"
)

const maxQueryLength = 100

type FoodHandler struct {
	foods *service.FoodService
}

func NewFoodHandler(foods *service.FoodService) *FoodHandler {
	return &FoodHandler{foods: foods}
}

func (h *FoodHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if len(query) > maxQueryLength {
		writeError(w, http.StatusBadRequest, "query is too long")
		return
	}

	products, err := h.foods.Search(r.Context(), query)
	if err != nil {
		log.Printf("[food] search %q failed: %v", query, err)
		writeError(w, http.StatusBadGateway, "food databases are unavailable")
		return
	}
	writeJSON(w, http.StatusOK, domain.SearchResponse{Products: products})
}

// Barcode answers 200 with found=false for unknown products so clients can
// fall back to manual entry.
func (h *FoodHandler) Barcode(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]

	product, err := h.foods.LookupBarcode(r.Context(), code)
	switch {
	case errors.Is(err, service.ErrInvalidBarcode):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		log.Printf("[food] barcode %s lookup failed: %v", code, err)
		writeError(w, http.StatusBadGateway, "food database is unavailable")
		return
	}

	if product == nil {
		writeJSON(w, http.StatusOK, domain.BarcodeResponse{Found: false, Message: "product not found"})
		return
	}
	writeJSON(w, http.StatusOK, domain.BarcodeResponse{Found: true, Product: product})
}
