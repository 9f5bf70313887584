package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/sernyl/doselog-api/doselog"
	"github.com/sernyl/doselog-api/dosing"
	"github.com/sernyl/doselog-api/metrics"
)

var validate = validator.New()

// doseRequest accepts either the shorthand string or explicit fields.
type doseRequest struct {
	DoseString string  `json:"dose_string" validate:"required_without=Substance,omitempty,max=200"`
	Substance  string  `json:"substance" validate:"required_without=DoseString,omitempty,min=2,max=50"`
	Amount     float64 `json:"amount" validate:"required_without=DoseString,omitempty,gt=0"`
	Unit       string  `json:"unit" validate:"omitempty,oneof=mg g ug ml"`
	Route      string  `json:"route" validate:"required_without=DoseString,omitempty,max=50"`
}

// toRecord turns a validated request into a Record, routing the shorthand
// form through the parser and the explicit form through the same
// normalization steps the parser applies.
func (req *doseRequest) toRecord() (*dosing.Record, *dosing.ParseError) {
	if req.DoseString != "" {
		record, err := dosing.Parse(req.DoseString)
		if err != nil {
			pe, ok := dosing.AsParseError(err)
			if !ok {
				pe = &dosing.ParseError{Kind: dosing.ErrUnknown, Message: err.Error()}
			}
			return nil, pe
		}
		return record, nil
	}

	unit := dosing.UnitMg
	if req.Unit != "" {
		u, ok := dosing.CanonicalUnit(strings.ToLower(req.Unit))
		if !ok {
			return nil, &dosing.ParseError{
				Kind:       dosing.ErrUnit,
				Message:    "unknown unit " + strconv.Quote(req.Unit),
				Suggestion: "supported units: mg, g, ug, ml",
			}
		}
		unit = u
	}

	route, ok := dosing.ResolveRoute(req.Route)
	if !ok {
		return nil, &dosing.ParseError{
			Kind:       dosing.ErrRoute,
			Message:    "unknown route " + strconv.Quote(req.Route),
			Suggestion: "common routes: " + strings.Join(dosing.CommonRoutes, ", "),
		}
	}

	amount, err := dosing.ConvertToMg(req.Amount, unit)
	if err != nil {
		return nil, &dosing.ParseError{Kind: dosing.ErrUnknown, Message: err.Error()}
	}

	return &dosing.Record{
		Substance: strings.ToLower(strings.TrimSpace(req.Substance)),
		Amount:    amount,
		Unit:      dosing.StorageUnit(unit),
		Route:     route,
	}, nil
}

func decodeAndValidate(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return err
	}
	return validate.Struct(dst)
}

// AddDose logs a new dose from a shorthand string or explicit fields.
func AddDose(store *doselog.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req doseRequest
		if err := decodeAndValidate(r, &req); err != nil {
			http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
			return
		}

		record, pe := req.toRecord()
		if pe != nil {
			metrics.DoseParseTotal.WithLabelValues(string(pe.Kind)).Inc()
			respondWithParseError(w, r, pe)
			return
		}

		if req.DoseString != "" {
			metrics.DoseParseTotal.WithLabelValues("ok").Inc()
		}

		entry := store.Add(*record)
		RespondWithJSON(w, r, http.StatusCreated, entry)
	}
}

// GetDose returns one logged dose by id.
func GetDose(store *doselog.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry, err := store.Get(chi.URLParam(r, "id"))
		if err != nil {
			http.Error(w, "Dose not found", http.StatusNotFound)
			return
		}
		RespondWithJSON(w, r, http.StatusOK, entry)
	}
}

// UpdateDose replaces the record of a logged dose.
func UpdateDose(store *doselog.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req doseRequest
		if err := decodeAndValidate(r, &req); err != nil {
			http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
			return
		}

		record, pe := req.toRecord()
		if pe != nil {
			respondWithParseError(w, r, pe)
			return
		}

		entry, err := store.Update(chi.URLParam(r, "id"), *record)
		if err != nil {
			http.Error(w, "Dose not found", http.StatusNotFound)
			return
		}
		RespondWithJSON(w, r, http.StatusOK, entry)
	}
}

// DeleteDose removes a logged dose.
func DeleteDose(store *doselog.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.Delete(chi.URLParam(r, "id")); err != nil {
			http.Error(w, "Dose not found", http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// annotateRequest stamps one phase of a dose timeline.
type annotateRequest struct {
	Phase string `json:"phase" validate:"required,oneof=onset peak offset"`
	At    string `json:"at" validate:"omitempty"` // RFC3339; empty means now
}

// AnnotateDose records an onset/peak/offset timestamp on a logged dose.
func AnnotateDose(store *doselog.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req annotateRequest
		if err := decodeAndValidate(r, &req); err != nil {
			http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
			return
		}

		var at time.Time
		if req.At != "" {
			parsed, err := time.Parse(time.RFC3339, req.At)
			if err != nil {
				http.Error(w, "Invalid timestamp, expected RFC3339", http.StatusBadRequest)
				return
			}
			at = parsed
		}

		entry, err := store.Annotate(chi.URLParam(r, "id"), req.Phase, at)
		if err != nil {
			if errors.Is(err, doselog.ErrNotFound) {
				http.Error(w, "Dose not found", http.StatusNotFound)
				return
			}
			http.Error(w, "Invalid phase", http.StatusBadRequest)
			return
		}
		RespondWithJSON(w, r, http.StatusOK, entry)
	}
}

// filterFromQuery builds a log filter from list/stats query params.
func filterFromQuery(r *http.Request) doselog.Filter {
	q := r.URL.Query()

	f := doselog.Filter{}
	if v := q.Get("substance"); v != "" {
		f.Substances = strings.Split(v, ",")
	}
	if v := q.Get("route"); v != "" {
		f.Routes = strings.Split(v, ",")
	}
	if v := q.Get("year"); v != "" {
		if year, err := strconv.Atoi(v); err == nil {
			f.Year = year
		}
	}
	if v := q.Get("from"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			f.From = t
		}
	}
	if v := q.Get("to"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			f.To = t
		}
	}
	if v := q.Get("last"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			f.LastN = n
		}
	}
	return f
}

// ListDoses returns logged doses, narrowed by query-param filters.
func ListDoses(store *doselog.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		RespondWithJSON(w, r, http.StatusOK, store.List(filterFromQuery(r)))
	}
}

// DoseStats returns aggregates over the filtered log.
func DoseStats(store *doselog.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		RespondWithJSON(w, r, http.StatusOK, store.Stats(filterFromQuery(r)))
	}
}
