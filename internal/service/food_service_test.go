package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/yusufkecer/macro-tracker-backend/internal/domain"
)

type memoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[string][]byte{}}
}

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *memoryCache) Set(_ context.Context, key string, val []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = val
	c.sets++
	return nil
}

const usdaFixture = `{
  "foods": [
    {"description": "Banana bread, homemade", "dataType": "Survey (FNDDS)", "foodNutrients": [
      {"nutrientName": "Energy", "value": 326}]},
    {"description": "Bananas, raw", "dataType": "SR Legacy", "foodNutrients": [
      {"nutrientName": "Energy", "value": 89},
      {"nutrientName": "Protein", "value": 1.09},
      {"nutrientName": "Carbohydrate, by difference", "value": 22.8},
      {"nutrientName": "Total lipid (fat)", "value": 0.33},
      {"nutrientName": "Fiber, total dietary", "value": 2.6},
      {"nutrientName": "Sugars, total", "value": 12.2},
      {"nutrientName": "Sodium, Na", "value": 1}]},
    {"description": "BANANA CHIPS", "dataType": "Branded", "brandOwner": "Snack Co", "gtinUpc": "012345678905", "foodNutrients": [
      {"nutrientName": "Energy", "value": 519},
      {"nutrientName": "Sugars, total including NLEA", "value": 35}]},
    {"description": "", "dataType": "Branded"}
  ]
}`

const offSearchFixture = `{
  "products": [
    {"product_name": "Banana", "brands": "", "code": "2000000000001", "image_small_url": "https://img/b.jpg",
     "nutriments": {"energy-kcal_100g": 90, "proteins_100g": "1.1", "carbohydrates": 23, "sodium_100g": 0.001}},
    {"product_name": "Organic banana puree for babies", "brands": "Baby Foods", "code": "3000000000002",
     "serving_size": "113g", "nutriments": {"energy-kcal": 70}},
    {"product_name": "", "code": "4"}
  ]
}`

func newStubServers(t *testing.T, usdaStatus, offStatus int) (*httptest.Server, *httptest.Server, *int) {
	t.Helper()
	var calls int
	var mu sync.Mutex
	usda := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		if r.URL.Path != "/fdc/v1/foods/search" || r.URL.Query().Get("api_key") != "test-key" {
			t.Errorf("unexpected USDA request %s", r.URL.String())
		}
		w.WriteHeader(usdaStatus)
		w.Write([]byte(usdaFixture))
	}))
	off := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		w.WriteHeader(offStatus)
		switch {
		case r.URL.Path == "/cgi/search.pl":
			if r.URL.Query().Get("search_terms") == "" {
				t.Errorf("missing search_terms")
			}
			w.Write([]byte(offSearchFixture))
		case r.URL.Path == "/api/v0/product/5449000000996.json":
			w.Write([]byte(`{"status": 1, "product": {"product_name": "Cola", "brands": "Fizz",
			  "image_url": "https://img/c.jpg", "serving_size": "330 ml",
			  "nutriments": {"energy-kcal_100g": 42, "carbohydrates_100g": 10.6, "sugars_100g": 10.6, "sodium_100g": 0.004}}}`))
		default:
			w.Write([]byte(`{"status": 0, "status_verbose": "product not found"}`))
		}
	}))
	t.Cleanup(usda.Close)
	t.Cleanup(off.Close)
	return usda, off, &calls
}

func newTestFoodService(usdaURL, offURL string, c *memoryCache) *FoodService {
	cfg := FoodServiceConfig{USDABaseURL: usdaURL, USDAAPIKey: "test-key", OFFBaseURL: offURL, Timeout: 2 * time.Second, CacheTTL: time.Minute}
	if c == nil {
		return NewFoodService(cfg, nil)
	}
	return NewFoodService(cfg, c)
}

func TestSearch_RanksAndMaps(t *testing.T) {
	usda, off, _ := newStubServers(t, http.StatusOK, http.StatusOK)
	svc := newTestFoodService(usda.URL, off.URL, nil)

	products, err := svc.Search(context.Background(), "  Banana ")
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	var names []string
	for _, p := range products {
		names = append(names, p.Name)
	}
	// Bananas, raw: prefix 80 + generic 30 + short 10 = 120
	// Banana (OFF): exact 90
	// Banana bread: prefix 80 + survey 20 + short 10 = 110
	// BANANA CHIPS: prefix 80 + short 10 = 90, longer than "Banana"
	// Organic banana puree: contains 40
	want := []string{"Bananas, raw", "Banana bread, homemade", "Banana", "BANANA CHIPS", "Organic banana puree for babies"}
	if strings.Join(names, "|") != strings.Join(want, "|") {
		t.Fatalf("order = %v, want %v", names, want)
	}

	raw := products[0]
	if raw.Brand != "Generic" || raw.Calories != 89 || raw.Sugar != 12.2 || raw.Sodium != 1 || raw.ServingSize != "100g" {
		t.Errorf("unexpected USDA mapping %+v", raw)
	}
	if products[1].Brand != "USDA Standard" {
		t.Errorf("survey brand = %q", products[1].Brand)
	}
	chips := products[3]
	if chips.Brand != "Snack Co" || chips.Barcode != "012345678905" || chips.Sugar != 35 {
		t.Errorf("unexpected branded mapping %+v", chips)
	}
	offBanana := products[2]
	if offBanana.Brand != "Store Brand" || offBanana.Protein != 1.1 || offBanana.Carbs != 23 || offBanana.Sodium != 1 || offBanana.Image != "https://img/b.jpg" {
		t.Errorf("unexpected OFF mapping %+v", offBanana)
	}
	puree := products[4]
	if puree.Calories != 70 || puree.ServingSize != "113g" || puree.Sodium != 0 {
		t.Errorf("unexpected OFF fallback mapping %+v", puree)
	}
}

func TestSearch_EmptyQuery(t *testing.T) {
	svc := newTestFoodService("http://127.0.0.1:1", "http://127.0.0.1:1", nil)
	products, err := svc.Search(context.Background(), "   ")
	if err != nil || products == nil || len(products) != 0 {
		t.Errorf("expected empty non-nil result, got %v, %v", products, err)
	}
}

func TestSearch_OneSourceDown(t *testing.T) {
	usda, off, _ := newStubServers(t, http.StatusInternalServerError, http.StatusOK)
	c := newMemoryCache()
	svc := newTestFoodService(usda.URL, off.URL, c)

	products, err := svc.Search(context.Background(), "banana")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(products) != 2 {
		t.Errorf("expected only OFF products, got %d", len(products))
	}
	if c.sets != 0 {
		t.Error("partial results must not be cached")
	}
}

func TestSearch_BothSourcesDown(t *testing.T) {
	usda, off, _ := newStubServers(t, http.StatusBadGateway, http.StatusServiceUnavailable)
	svc := newTestFoodService(usda.URL, off.URL, nil)

	if _, err := svc.Search(context.Background(), "banana"); !errors.Is(err, ErrUpstream) {
		t.Errorf("expected ErrUpstream, got %v", err)
	}
}

func TestSearch_UsesCache(t *testing.T) {
	usda, off, calls := newStubServers(t, http.StatusOK, http.StatusOK)
	c := newMemoryCache()
	svc := newTestFoodService(usda.URL, off.URL, c)

	first, err := svc.Search(context.Background(), "banana")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if *calls != 2 {
		t.Fatalf("expected 2 upstream calls, got %d", *calls)
	}
	second, err := svc.Search(context.Background(), "BANANA")
	if err != nil {
		t.Fatalf("cached search: %v", err)
	}
	if *calls != 2 {
		t.Errorf("cached search hit upstream, calls = %d", *calls)
	}
	if len(first) != len(second) || first[0] != second[0] {
		t.Errorf("cached result differs")
	}
}

func TestLookupBarcode(t *testing.T) {
	usda, off, _ := newStubServers(t, http.StatusOK, http.StatusOK)
	c := newMemoryCache()
	svc := newTestFoodService(usda.URL, off.URL, c)

	p, err := svc.LookupBarcode(context.Background(), "5449000000996")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	want := domain.Product{
		Name: "Cola", Brand: "Fizz", Barcode: "5449000000996", Image: "https://img/c.jpg", ServingSize: "330 ml",
		Calories: 42, Carbs: 10.6, Sugar: 10.6, Sodium: 4,
	}
	if p == nil || *p != want {
		t.Fatalf("product = %+v, want %+v", p, want)
	}

	var cached domain.Product
	raw, ok, _ := c.Get(context.Background(), "food:barcode:5449000000996")
	if !ok || json.Unmarshal(raw, &cached) != nil || cached != want {
		t.Errorf("product not cached")
	}

	missing, err := svc.LookupBarcode(context.Background(), "00000000")
	if err != nil || missing != nil {
		t.Errorf("expected not found, got %v, %v", missing, err)
	}
}

func TestLookupBarcode_Invalid(t *testing.T) {
	svc := newTestFoodService("http://127.0.0.1:1", "http://127.0.0.1:1", nil)
	for _, code := range []string{"", "1234", "abcdefghij", "123456789012345", "1234567/"} {
		if _, err := svc.LookupBarcode(context.Background(), code); !errors.Is(err, ErrInvalidBarcode) {
			t.Errorf("%q: expected ErrInvalidBarcode, got %v", code, err)
		}
	}
}
