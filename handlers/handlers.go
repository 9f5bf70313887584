// Package handlers provides HTTP request handlers for the doselog API
// endpoints: dose-string parsing, tier classification, safety lookups,
// substance search, the route reference endpoint, health checks, and
// response formatting with proper input validation and error handling.
package handlers

import (
	"compress/gzip"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sernyl/doselog-api/dosing"
	"github.com/sernyl/doselog-api/interfaces"
	"github.com/sernyl/doselog-api/logging"
	"github.com/sernyl/doselog-api/metrics"
)

// Minimum response size to consider compression (1KB)
const compressionThreshold = 1024

// RespondWithJSON writes a JSON response, gzip-compressed when the payload
// is large enough and the client accepts it.
func RespondWithJSON(w http.ResponseWriter, r *http.Request, code int, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))

	shouldCompress := len(data) >= compressionThreshold &&
		strings.Contains(strings.ToLower(r.Header.Get("Accept-Encoding")), "gzip")

	if shouldCompress {
		w.Header().Set("Content-Encoding", "gzip")
		w.WriteHeader(code)
		gz := gzip.NewWriter(w)
		defer gz.Close()
		if _, err := gz.Write(data); err != nil {
			logging.Error("Failed to write compressed response", "error", err)
		}
		return
	}

	w.WriteHeader(code)
	if _, err := w.Write(data); err != nil {
		logging.Error("Failed to write response", "error", err)
	}
}

// respondWithParseError renders a tagged ParseError as the API error shape.
func respondWithParseError(w http.ResponseWriter, r *http.Request, pe *dosing.ParseError) {
	RespondWithJSON(w, r, http.StatusBadRequest, map[string]any{"error": pe})
}

// ParseDose parses a dose-shorthand string supplied in the q query param.
func ParseDose() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		input := r.URL.Query().Get("q")

		record, err := dosing.Parse(input)
		if err != nil {
			pe, ok := dosing.AsParseError(err)
			if !ok {
				pe = &dosing.ParseError{Kind: dosing.ErrUnknown, Message: err.Error()}
			}
			metrics.DoseParseTotal.WithLabelValues(string(pe.Kind)).Inc()
			respondWithParseError(w, r, pe)
			return
		}

		metrics.DoseParseTotal.WithLabelValues("ok").Inc()
		RespondWithJSON(w, r, http.StatusOK, record)
	}
}

// ClassifyDose classifies an amount against the tier catalog. The substance
// query param is matched against the catalog so partial names resolve.
func ClassifyDose(catalogStore interfaces.CatalogStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		substance := q.Get("substance")
		route := q.Get("route")
		if substance == "" || route == "" {
			http.Error(w, "Missing substance or route", http.StatusBadRequest)
			return
		}

		amount, err := strconv.ParseFloat(q.Get("amount"), 64)
		if err != nil || amount <= 0 {
			http.Error(w, "Invalid amount", http.StatusBadRequest)
			return
		}

		unit := dosing.UnitMg
		if rawUnit := q.Get("unit"); rawUnit != "" {
			u, ok := dosing.CanonicalUnit(strings.ToLower(rawUnit))
			if !ok {
				http.Error(w, "Invalid unit", http.StatusBadRequest)
				return
			}
			unit = u
		}

		canonicalRoute, ok := dosing.ResolveRoute(route)
		if !ok {
			http.Error(w, "Unknown route", http.StatusBadRequest)
			return
		}

		tierMap := catalogStore.GetTierMap()
		if matched, ok := dosing.Match(substance, tierDrugNames(catalogStore)); ok {
			substance = matched
		}

		classification := dosing.Classify(substance, canonicalRoute, amount, unit, tierMap)
		RespondWithJSON(w, r, http.StatusOK, classification)
	}
}

// SafetyLookup resolves safety guidance for a substance, optionally scoped
// to an amount and route for tier-derived warnings.
func SafetyLookup(catalogStore interfaces.CatalogStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		substance := chi.URLParam(r, "substance")
		if substance == "" {
			http.Error(w, "Missing substance", http.StatusBadRequest)
			return
		}

		q := r.URL.Query()
		amount, _ := strconv.ParseFloat(q.Get("amount"), 64)

		unit := dosing.UnitMg
		if rawUnit := q.Get("unit"); rawUnit != "" {
			if u, ok := dosing.CanonicalUnit(strings.ToLower(rawUnit)); ok {
				unit = u
			}
		}

		route := q.Get("route")
		if route == "" {
			route = "oral"
		}
		if canonical, ok := dosing.ResolveRoute(route); ok {
			route = canonical
		}

		info := dosing.ResolveSafety(substance, amount, unit, route, catalogStore.GetSafetyEntries())
		if info == nil {
			http.Error(w, "No safety information found", http.StatusNotFound)
			return
		}

		RespondWithJSON(w, r, http.StatusOK, info)
	}
}

// ServeSubstances returns all tier catalog entries
func ServeSubstances(catalogStore interfaces.CatalogStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		RespondWithJSON(w, r, http.StatusOK, catalogStore.GetTierEntries())
	}
}

// ServePagedSubstances returns paginated tier catalog entries
func ServePagedSubstances(catalogStore interfaces.CatalogStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pageNumber := chi.URLParam(r, "pageNumber")
		page, err := strconv.Atoi(pageNumber)
		if err != nil || page < 1 {
			logging.Warn("Unusual user input", "pageNumber", pageNumber)
			http.Error(w, "Invalid page number", http.StatusBadRequest)
			return
		}

		tierEntries := catalogStore.GetTierEntries()
		pageSize := 10
		start := (page - 1) * pageSize
		end := start + pageSize

		if start >= len(tierEntries) {
			http.Error(w, "Page not found", http.StatusNotFound)
			return
		}

		if end > len(tierEntries) {
			end = len(tierEntries)
		}

		totalItems := len(tierEntries)
		maxPage := (totalItems + pageSize - 1) / pageSize

		response := map[string]interface{}{
			"data":       tierEntries[start:end],
			"page":       page,
			"pageSize":   pageSize,
			"totalItems": totalItems,
			"maxPage":    maxPage,
		}

		RespondWithJSON(w, r, http.StatusOK, response)
	}
}

// Suggestion is one substance-search result with its match score.
type Suggestion struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

const maxSuggestions = 10

// SearchSubstances returns fuzzy-scored substance suggestions from both
// catalogs, best first.
func SearchSubstances(catalogStore interfaces.CatalogStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := chi.URLParam(r, "query")
		if query == "" {
			http.Error(w, "Missing search term", http.StatusBadRequest)
			return
		}

		seen := make(map[string]bool)
		var suggestions []Suggestion

		consider := func(name string) {
			key := dosing.NormalizeName(name)
			if key == "" || seen[key] {
				return
			}
			seen[key] = true
			if score := dosing.Score(query, name); score > 0.3 {
				suggestions = append(suggestions, Suggestion{Name: name, Score: score})
			}
		}

		for _, name := range tierDrugNames(catalogStore) {
			consider(name)
		}
		for _, entry := range catalogStore.GetSafetyEntries() {
			consider(entry.Name)
		}

		sortSuggestions(suggestions)
		if len(suggestions) > maxSuggestions {
			suggestions = suggestions[:maxSuggestions]
		}

		if len(suggestions) == 0 {
			http.Error(w, "No substances found", http.StatusNotFound)
			return
		}

		RespondWithJSON(w, r, http.StatusOK, suggestions)
	}
}

// sortSuggestions orders by score descending, stable so catalog order
// breaks ties.
func sortSuggestions(s []Suggestion) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j].Score > s[j-1].Score; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}

// tierDrugNames returns the distinct drug names of the tier catalog in
// catalog order.
func tierDrugNames(catalogStore interfaces.CatalogStore) []string {
	entries := catalogStore.GetTierEntries()
	seen := make(map[string]bool, len(entries))
	names := make([]string, 0, len(entries))
	for i := range entries {
		key := strings.ToLower(entries[i].Drug)
		if seen[key] {
			continue
		}
		seen[key] = true
		names = append(names, entries[i].Drug)
	}
	return names
}

// ServeRoutes exposes the canonical route -> alias mapping for clients.
func ServeRoutes() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := map[string]interface{}{
			"routes":  dosing.RouteVocabulary(),
			"common":  dosing.CommonRoutes,
			"methods": dosing.CanonicalRoutes(),
		}
		RespondWithJSON(w, r, http.StatusOK, response)
	}
}

// HealthCheck returns server health information
func HealthCheck(checker interfaces.HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, data, httpStatus := checker.HealthCheck()

		response := map[string]interface{}{
			"status": status,
			"data":   data,
		}

		RespondWithJSON(w, r, httpStatus, response)
	}
}
