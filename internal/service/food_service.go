package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/yusufkecer/macro-tracker-backend/internal/cache"
	"github.com/yusufkecer/macro-tracker-backend/internal/domain"
	"github.com/yusufkecer/macro-tracker-backend/internal/metrics"
)

const (
	maxSearchResults = 20
	maxNameLength    = 100
	userAgent        = "MacroTrack/1.0 (+https://github.com/yusufkecer/macro-tracker-backend)"
)

var (
	ErrInvalidBarcode = errors.New("barcode must be 8 to 14 digits")
	ErrUpstream       = errors.New("food database unavailable")

	barcodePattern = regexp.MustCompile(`^[0-9]{8,14}$`)
)

type FoodServiceConfig struct {
	USDABaseURL string
	USDAAPIKey  string
	OFFBaseURL  string
	Timeout     time.Duration
	CacheTTL    time.Duration
}

// FoodService searches USDA FoodData Central and Open Food Facts.
type FoodService struct {
	cfg    FoodServiceConfig
	client *http.Client
	cache  cache.Cache
}

// NewFoodService builds the client. c may be nil to disable caching.
func NewFoodService(cfg FoodServiceConfig, c cache.Cache) *FoodService {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 8 * time.Second
	}
	cfg.USDABaseURL = strings.TrimRight(cfg.USDABaseURL, "/")
	cfg.OFFBaseURL = strings.TrimRight(cfg.OFFBaseURL, "/")
	return &FoodService{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		cache:  c,
	}
}

type rankedProduct struct {
	domain.Product
	relevance int
}

// Search returns up to 20 products for query, most relevant first. A
// source that fails is skipped; ErrUpstream is returned only when both fail.
func (s *FoodService) Search(ctx context.Context, query string) ([]domain.Product, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return []domain.Product{}, nil
	}

	cacheKey := "food:search:" + query
	var cached []domain.Product
	if s.cacheGet(ctx, cacheKey, &cached) {
		return cached, nil
	}

	var (
		wg              sync.WaitGroup
		usda, off       []rankedProduct
		usdaErr, offErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		usda, usdaErr = s.searchUSDA(ctx, query)
		recordLookup("usda", usdaErr)
	}()
	go func() {
		defer wg.Done()
		off, offErr = s.searchOFF(ctx, query)
		recordLookup("off", offErr)
	}()
	wg.Wait()

	if usdaErr != nil {
		log.Printf("[food] usda search %q failed: %v", query, usdaErr)
	}
	if offErr != nil {
		log.Printf("[food] openfoodfacts search %q failed: %v", query, offErr)
	}
	if usdaErr != nil && offErr != nil {
		return nil, ErrUpstream
	}

	products := rank(append(usda, off...))
	if usdaErr == nil && offErr == nil {
		s.cacheSet(ctx, cacheKey, products)
	}
	return products, nil
}

// rank orders by relevance, then shorter names first, and truncates.
func rank(ranked []rankedProduct) []domain.Product {
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].relevance != ranked[j].relevance {
			return ranked[i].relevance > ranked[j].relevance
		}
		return utf8.RuneCountInString(ranked[i].Name) < utf8.RuneCountInString(ranked[j].Name)
	})
	if len(ranked) > maxSearchResults {
		ranked = ranked[:maxSearchResults]
	}
	products := make([]domain.Product, len(ranked))
	for i, r := range ranked {
		products[i] = r.Product
	}
	return products
}

// LookupBarcode returns the Open Food Facts product for code, or nil when
// the database does not know it.
func (s *FoodService) LookupBarcode(ctx context.Context, code string) (*domain.Product, error) {
	code = strings.TrimSpace(code)
	if !barcodePattern.MatchString(code) {
		return nil, ErrInvalidBarcode
	}

	cacheKey := "food:barcode:" + code
	var cached domain.Product
	if s.cacheGet(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	var resp offProductResponse
	err := s.getJSON(ctx, s.cfg.OFFBaseURL+"/api/v0/product/"+url.PathEscape(code)+".json", &resp)
	recordLookup("off_barcode", err)
	if err != nil {
		log.Printf("[food] barcode %s lookup failed: %v", code, err)
		return nil, ErrUpstream
	}
	if resp.Status != 1 {
		return nil, nil
	}

	p := resp.Product
	n := p.Nutriments
	product := &domain.Product{
		Name:        orDefault(p.ProductName, "Unknown Product"),
		Brand:       p.Brands,
		Barcode:     code,
		Image:       p.ImageURL,
		ServingSize: orDefault(p.ServingSize, "100g"),
		Calories:    n.per100g("energy-kcal"),
		Protein:     n.per100g("proteins"),
		Carbs:       n.per100g("carbohydrates"),
		Fat:         n.per100g("fat"),
		Fiber:       n.per100g("fiber"),
		Sugar:       n.per100g("sugars"),
		Sodium:      n.sodiumMg(),
	}
	s.cacheSet(ctx, cacheKey, product)
	return product, nil
}

type usdaSearchResponse struct {
	Foods []usdaFood `json:"foods"`
}

type usdaFood struct {
	Description   string         `json:"description"`
	DataType      string         `json:"dataType"`
	BrandOwner    string         `json:"brandOwner"`
	BrandName     string         `json:"brandName"`
	GTINUPC       string         `json:"gtinUpc"`
	FoodNutrients []usdaNutrient `json:"foodNutrients"`
}

type usdaNutrient struct {
	NutrientName string  `json:"nutrientName"`
	Value        float64 `json:"value"`
}

const (
	usdaFoundation = "Foundation"
	usdaSRLegacy   = "SR Legacy"
	usdaSurvey     = "Survey (FNDDS)"
)

func (s *FoodService) searchUSDA(ctx context.Context, query string) ([]rankedProduct, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("pageSize", "25")
	params.Set("dataType", usdaFoundation+","+usdaSRLegacy+","+usdaSurvey+",Branded")
	params.Set("api_key", s.cfg.USDAAPIKey)

	var resp usdaSearchResponse
	if err := s.getJSON(ctx, s.cfg.USDABaseURL+"/fdc/v1/foods/search?"+params.Encode(), &resp); err != nil {
		return nil, err
	}

	var out []rankedProduct
	for _, f := range resp.Foods {
		name := f.Description
		if name == "" || name == "Unknown" || utf8.RuneCountInString(name) > maxNameLength {
			continue
		}

		nutrients := make(map[string]float64, len(f.FoodNutrients))
		for _, n := range f.FoodNutrients {
			nutrients[n.NutrientName] = n.Value
		}
		sugar, ok := nutrients["Sugars, total including NLEA"]
		if !ok {
			sugar = nutrients["Sugars, total"]
		}

		out = append(out, rankedProduct{
			Product: domain.Product{
				Name:        name,
				Brand:       usdaBrand(f),
				Barcode:     f.GTINUPC,
				ServingSize: "100g",
				Calories:    nutrients["Energy"],
				Protein:     nutrients["Protein"],
				Carbs:       nutrients["Carbohydrate, by difference"],
				Fat:         nutrients["Total lipid (fat)"],
				Fiber:       nutrients["Fiber, total dietary"],
				Sugar:       sugar,
				Sodium:      nutrients["Sodium, Na"],
			},
			relevance: usdaRelevance(query, name, f.DataType),
		})
	}
	return out, nil
}

func usdaBrand(f usdaFood) string {
	switch f.DataType {
	case usdaFoundation, usdaSRLegacy:
		return "Generic"
	case usdaSurvey:
		return "USDA Standard"
	}
	if f.BrandOwner != "" {
		return f.BrandOwner
	}
	if f.BrandName != "" {
		return f.BrandName
	}
	return "Branded"
}

// usdaRelevance favours exact and prefix matches, generic foods and short
// names, which tend to be the plain ingredient rather than a branded dish.
func usdaRelevance(query, name, dataType string) int {
	lower := strings.ToLower(name)
	relevance := 0
	switch {
	case lower == query:
		relevance = 100
	case strings.HasPrefix(lower, query):
		relevance = 80
	case strings.Contains(lower, query) && float64(utf8.RuneCountInString(query)) > float64(utf8.RuneCountInString(lower))*0.3:
		relevance = 60
	}
	switch dataType {
	case usdaFoundation, usdaSRLegacy:
		relevance += 30
	case usdaSurvey:
		relevance += 20
	}
	if utf8.RuneCountInString(name) < 30 {
		relevance += 10
	}
	return relevance
}

type offSearchResponse struct {
	Products []offProduct `json:"products"`
}

type offProductResponse struct {
	Status  int        `json:"status"`
	Product offProduct `json:"product"`
}

type offProduct struct {
	ProductName   string        `json:"product_name"`
	Brands        string        `json:"brands"`
	Code          string        `json:"code"`
	ImageURL      string        `json:"image_url"`
	ImageSmallURL string        `json:"image_small_url"`
	ServingSize   string        `json:"serving_size"`
	Nutriments    offNutriments `json:"nutriments"`
}

// offNutriments values arrive as numbers or numeric strings.
type offNutriments map[string]any

func (n offNutriments) per100g(key string) float64 {
	if v, ok := n[key+"_100g"]; ok && v != nil {
		return toFloat(v)
	}
	return toFloat(n[key])
}

// sodiumMg converts the per-100g gram value to milligrams. Products with
// no per-100g sodium report 0.
func (n offNutriments) sodiumMg() float64 {
	g := toFloat(n["sodium_100g"])
	if g == 0 {
		return 0
	}
	return g * 1000
}

func toFloat(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0
		}
		return f
	case json.Number:
		f, _ := x.Float64()
		return f
	}
	return 0
}

func (s *FoodService) searchOFF(ctx context.Context, query string) ([]rankedProduct, error) {
	params := url.Values{}
	params.Set("search_terms", query)
	params.Set("search_simple", "1")
	params.Set("action", "process")
	params.Set("json", "1")
	params.Set("page_size", "15")

	var resp offSearchResponse
	if err := s.getJSON(ctx, s.cfg.OFFBaseURL+"/cgi/search.pl?"+params.Encode(), &resp); err != nil {
		return nil, err
	}

	var out []rankedProduct
	for _, p := range resp.Products {
		name := p.ProductName
		if name == "" || utf8.RuneCountInString(name) > maxNameLength {
			continue
		}
		n := p.Nutriments
		out = append(out, rankedProduct{
			Product: domain.Product{
				Name:        name,
				Brand:       orDefault(p.Brands, "Store Brand"),
				Barcode:     p.Code,
				Image:       p.ImageSmallURL,
				ServingSize: orDefault(p.ServingSize, "100g"),
				Calories:    n.per100g("energy-kcal"),
				Protein:     n.per100g("proteins"),
				Carbs:       n.per100g("carbohydrates"),
				Fat:         n.per100g("fat"),
				Fiber:       n.per100g("fiber"),
				Sugar:       n.per100g("sugars"),
				Sodium:      n.sodiumMg(),
			},
			relevance: offRelevance(query, name),
		})
	}
	return out, nil
}

func offRelevance(query, name string) int {
	lower := strings.ToLower(name)
	switch {
	case lower == query:
		return 90
	case strings.HasPrefix(lower, query):
		return 70
	case strings.Contains(lower, query):
		return 40
	}
	return 0
}

func (s *FoodService) getJSON(ctx context.Context, rawURL string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("http error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 8<<20)).Decode(dst); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (s *FoodService) cacheGet(ctx context.Context, key string, dst any) bool {
	if s.cache == nil {
		return false
	}
	raw, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		log.Printf("[food] cache get failed: %v", err)
		metrics.IncCache("error")
		return false
	}
	if !ok {
		metrics.IncCache("miss")
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		log.Printf("[food] cache entry %s is corrupt: %v", key, err)
		metrics.IncCache("error")
		return false
	}
	metrics.IncCache("hit")
	return true
}

func (s *FoodService) cacheSet(ctx context.Context, key string, val any) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(val)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, raw, s.cfg.CacheTTL); err != nil {
		log.Printf("[food] cache set failed: %v", err)
	}
}

func recordLookup(source string, err error) {
	if err != nil {
		metrics.IncFoodLookup(source, "error")
		return
	}
	metrics.IncFoodLookup(source, "ok")
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
