package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sernyl/doselog-api/doselog"
	"github.com/sernyl/doselog-api/dosing"
)

func newDoseRouter() (*chi.Mux, *doselog.Store) {
	store := doselog.NewStore()

	router := chi.NewRouter()
	router.Route("/doses", func(r chi.Router) {
		r.Get("/", ListDoses(store))
		r.Post("/", AddDose(store))
		r.Get("/stats", DoseStats(store))
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", GetDose(store))
			r.Put("/", UpdateDose(store))
			r.Delete("/", DeleteDose(store))
			r.Post("/timestamps", AnnotateDose(store))
		})
	})
	return router, store
}

func doJSON(router *chi.Mux, method, url, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, url, nil)
	} else {
		req = httptest.NewRequest(method, url, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestAddDoseFromShorthand(t *testing.T) {
	router, store := newDoseRouter()

	rec := doJSON(router, "POST", "/doses", `{"dose_string": "200mg caffeine oral"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d; body: %s", rec.Code, rec.Body.String())
	}

	var entry doselog.Entry
	decodeJSON(t, rec, &entry)
	if entry.ID == "" {
		t.Error("entry has no ID")
	}
	if entry.Record.Substance != "caffeine" || entry.Record.Amount != 200 {
		t.Errorf("record = %+v", entry.Record)
	}
	if store.Len() != 1 {
		t.Errorf("store has %d entries, want 1", store.Len())
	}
}

func TestAddDoseFromExplicitFields(t *testing.T) {
	router, _ := newDoseRouter()

	rec := doJSON(router, "POST", "/doses", `{"substance": "Phenibut", "amount": 1.5, "unit": "g", "route": "swallowed"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d; body: %s", rec.Code, rec.Body.String())
	}

	var entry doselog.Entry
	decodeJSON(t, rec, &entry)
	if entry.Record.Substance != "phenibut" {
		t.Errorf("substance = %q, want lower-cased", entry.Record.Substance)
	}
	if entry.Record.Amount != 1500 || entry.Record.Unit != dosing.UnitMg {
		t.Errorf("amount = %v %s, want 1500 mg", entry.Record.Amount, entry.Record.Unit)
	}
	if entry.Record.Route != "oral" {
		t.Errorf("route = %q, want canonical oral", entry.Record.Route)
	}
}

func TestAddDoseRejectsBadInput(t *testing.T) {
	router, _ := newDoseRouter()

	tests := []struct {
		name string
		body string
	}{
		{"empty body", `{}`},
		{"not json", `not json at all`},
		{"negative amount", `{"substance": "caffeine", "amount": -5, "route": "oral"}`},
		{"bad unit", `{"substance": "caffeine", "amount": 5, "unit": "oz", "route": "oral"}`},
		{"short substance", `{"substance": "x", "amount": 5, "route": "oral"}`},
		{"missing route", `{"substance": "caffeine", "amount": 5}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(router, "POST", "/doses", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400; body: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestAddDoseParseErrorShape(t *testing.T) {
	router, _ := newDoseRouter()

	rec := doJSON(router, "POST", "/doses", `{"dose_string": "200mg caffeine wrongroute"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	var body struct {
		Error dosing.ParseError `json:"error"`
	}
	decodeJSON(t, rec, &body)
	if body.Error.Kind != dosing.ErrRoute {
		t.Errorf("error kind = %q, want route", body.Error.Kind)
	}
}

func TestDoseCRUDLifecycle(t *testing.T) {
	router, _ := newDoseRouter()

	rec := doJSON(router, "POST", "/doses", `{"dose_string": "200mg caffeine oral"}`)
	var created doselog.Entry
	decodeJSON(t, rec, &created)

	t.Run("get", func(t *testing.T) {
		rec := doJSON(router, "GET", "/doses/"+created.ID, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var got doselog.Entry
		decodeJSON(t, rec, &got)
		if got.ID != created.ID {
			t.Errorf("ID = %q, want %q", got.ID, created.ID)
		}
	})

	t.Run("update", func(t *testing.T) {
		rec := doJSON(router, "PUT", "/doses/"+created.ID, `{"dose_string": "100mg caffeine oral"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d; body: %s", rec.Code, rec.Body.String())
		}
		var got doselog.Entry
		decodeJSON(t, rec, &got)
		if got.Record.Amount != 100 {
			t.Errorf("amount = %v, want 100", got.Record.Amount)
		}
	})

	t.Run("delete", func(t *testing.T) {
		rec := doJSON(router, "DELETE", "/doses/"+created.ID, "")
		if rec.Code != http.StatusNoContent {
			t.Fatalf("status = %d, want 204", rec.Code)
		}
		rec = doJSON(router, "GET", "/doses/"+created.ID, "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("deleted dose still retrievable: %d", rec.Code)
		}
	})

	t.Run("unknown ids are 404", func(t *testing.T) {
		if rec := doJSON(router, "GET", "/doses/nope", ""); rec.Code != http.StatusNotFound {
			t.Errorf("GET status = %d", rec.Code)
		}
		if rec := doJSON(router, "PUT", "/doses/nope", `{"dose_string": "100mg caffeine oral"}`); rec.Code != http.StatusNotFound {
			t.Errorf("PUT status = %d", rec.Code)
		}
		if rec := doJSON(router, "DELETE", "/doses/nope", ""); rec.Code != http.StatusNotFound {
			t.Errorf("DELETE status = %d", rec.Code)
		}
	})
}

func TestAnnotateDose(t *testing.T) {
	router, _ := newDoseRouter()

	rec := doJSON(router, "POST", "/doses", `{"dose_string": "200mg caffeine oral"}`)
	var created doselog.Entry
	decodeJSON(t, rec, &created)

	t.Run("explicit timestamp", func(t *testing.T) {
		rec := doJSON(router, "POST", "/doses/"+created.ID+"/timestamps",
			`{"phase": "onset", "at": "2026-03-01T12:30:00Z"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d; body: %s", rec.Code, rec.Body.String())
		}
		var got doselog.Entry
		decodeJSON(t, rec, &got)
		want := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)
		if got.Onset == nil || !got.Onset.Equal(want) {
			t.Errorf("Onset = %v, want %v", got.Onset, want)
		}
	})

	t.Run("empty timestamp means now", func(t *testing.T) {
		rec := doJSON(router, "POST", "/doses/"+created.ID+"/timestamps", `{"phase": "peak"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d; body: %s", rec.Code, rec.Body.String())
		}
		var got doselog.Entry
		decodeJSON(t, rec, &got)
		if got.Peak == nil || time.Since(*got.Peak) > time.Minute {
			t.Errorf("Peak = %v, want roughly now", got.Peak)
		}
	})

	t.Run("bad input", func(t *testing.T) {
		if rec := doJSON(router, "POST", "/doses/"+created.ID+"/timestamps", `{"phase": "afterglow"}`); rec.Code != http.StatusBadRequest {
			t.Errorf("unknown phase status = %d", rec.Code)
		}
		if rec := doJSON(router, "POST", "/doses/"+created.ID+"/timestamps", `{"phase": "onset", "at": "yesterday"}`); rec.Code != http.StatusBadRequest {
			t.Errorf("bad timestamp status = %d", rec.Code)
		}
		if rec := doJSON(router, "POST", "/doses/nope/timestamps", `{"phase": "onset"}`); rec.Code != http.StatusNotFound {
			t.Errorf("unknown id status = %d", rec.Code)
		}
	})
}

func TestListDosesFilters(t *testing.T) {
	router, _ := newDoseRouter()

	for _, body := range []string{
		`{"dose_string": "200mg caffeine oral"}`,
		`{"dose_string": "100mg caffeine oral"}`,
		`{"dose_string": "@sniffed 30mg ketamine"}`,
	} {
		if rec := doJSON(router, "POST", "/doses", body); rec.Code != http.StatusCreated {
			t.Fatalf("seed failed: %s", rec.Body.String())
		}
	}

	tests := []struct {
		name string
		url  string
		want int
	}{
		{"all", "/doses", 3},
		{"by substance", "/doses?substance=caffeine", 2},
		{"by route", "/doses?route=insufflation", 1},
		{"last n", "/doses?last=1", 1},
		{"substance csv", "/doses?substance=caffeine,ketamine", 3},
		{"no match", "/doses?substance=phenibut", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(router, "GET", tt.url, "")
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}
			var entries []doselog.Entry
			decodeJSON(t, rec, &entries)
			if len(entries) != tt.want {
				t.Errorf("%s returned %d entries, want %d", tt.url, len(entries), tt.want)
			}
		})
	}
}

func TestDoseStatsEndpoint(t *testing.T) {
	router, _ := newDoseRouter()

	for _, body := range []string{
		`{"dose_string": "100mg caffeine oral"}`,
		`{"dose_string": "300mg caffeine oral"}`,
	} {
		if rec := doJSON(router, "POST", "/doses", body); rec.Code != http.StatusCreated {
			t.Fatalf("seed failed: %s", rec.Body.String())
		}
	}

	rec := doJSON(router, "GET", "/doses/stats", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var stats doselog.Stats
	decodeJSON(t, rec, &stats)
	if stats.Entries != 2 {
		t.Errorf("Entries = %d, want 2", stats.Entries)
	}
	if stats.AverageMg != 200 || stats.MedianMg != 200 {
		t.Errorf("average/median = %v/%v, want 200/200", stats.AverageMg, stats.MedianMg)
	}
	if stats.Total.Mg != 400 {
		t.Errorf("Total.Mg = %v, want 400", stats.Total.Mg)
	}
	if stats.Tally["caffeine"]["oral"].Mg != 400 {
		t.Errorf("tally = %+v", stats.Tally)
	}
}
