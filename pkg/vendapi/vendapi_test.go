package vendapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

// newAPIServer serves /auth plus the given machine endpoints, rejecting any
// request whose bearer token is not in valid.
func newAPIServer(t *testing.T, valid map[string]bool, handlers map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	logins := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/auth", func(w http.ResponseWriter, r *http.Request) {
		logins++
		token := "tok-refreshed"
		if logins == 1 {
			token = "tok-initial"
		}
		json.NewEncoder(w).Encode(map[string]any{"token": token, "expires_in": 3600})
	})
	for path, h := range handlers {
		h := h
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			if !valid[r.Header.Get("Authorization")] {
				http.Error(w, "expired", http.StatusUnauthorized)
				return
			}
			h(w, r)
		})
	}
	return httptest.NewServer(mux)
}

func TestFetchSalesByProducts(t *testing.T) {
	report := SalesReport{
		Data: []SaleRecord{
			{ProductNumber: "A1", Planogram: Planogram{Name: "Сок"}, Quantity: 3, Price: decimal.NewFromInt(90)},
		},
		Total: SalesTotal{Quantity: 3, Sales: decimal.NewFromInt(270)},
	}
	var gotFrom, gotTo string
	srv := newAPIServer(t,
		map[string]bool{"Bearer tok-initial": true},
		map[string]http.HandlerFunc{
			"/machines/m1/sales": func(w http.ResponseWriter, r *http.Request) {
				gotFrom = r.URL.Query().Get("from")
				gotTo = r.URL.Query().Get("to")
				json.NewEncoder(w).Encode(report)
			},
		})
	defer srv.Close()

	s := NewSession(srv.Client(), srv.URL, "operator", "secret", nil)
	c := NewClient(srv.Client(), srv.URL, s)

	from := time.Date(2026, 8, 20, 0, 0, 0, 0, time.Local)
	to := time.Date(2026, 8, 27, 23, 59, 59, 0, time.Local)
	got, err := c.FetchSalesByProducts(context.Background(), "m1", from, to)
	if err != nil {
		t.Fatalf("fetch sales: %v", err)
	}
	if gotFrom != "2026-08-20 00:00:00" || gotTo != "2026-08-27 23:59:59" {
		t.Fatalf("unexpected window from=%q to=%q", gotFrom, gotTo)
	}
	if len(got.Data) != 1 || got.Data[0].Quantity != 3 || got.Data[0].Planogram.Name != "Сок" {
		t.Fatalf("unexpected report %+v", got)
	}
	if !got.Total.Sales.Equal(decimal.NewFromInt(270)) {
		t.Fatalf("unexpected total %s", got.Total.Sales)
	}
}

func TestFetchMachines(t *testing.T) {
	srv := newAPIServer(t,
		map[string]bool{"Bearer tok-initial": true},
		map[string]http.HandlerFunc{
			"/machines": func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode([]Machine{{ID: "m1", Name: "Офис", Model: "Rosso 500"}})
			},
		})
	defer srv.Close()

	s := NewSession(srv.Client(), srv.URL, "operator", "secret", nil)
	c := NewClient(srv.Client(), srv.URL, s)

	machines, err := c.FetchMachines(context.Background())
	if err != nil {
		t.Fatalf("fetch machines: %v", err)
	}
	if len(machines) != 1 || machines[0].Model != "Rosso 500" {
		t.Fatalf("unexpected machines %+v", machines)
	}
}

func TestGetJSON_RetriesOnceAfterUnauthorized(t *testing.T) {
	// only the refreshed token is accepted, so the first attempt 401s
	srv := newAPIServer(t,
		map[string]bool{"Bearer tok-refreshed": true},
		map[string]http.HandlerFunc{
			"/machines": func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode([]Machine{{ID: "m1"}})
			},
		})
	defer srv.Close()

	s := NewSession(srv.Client(), srv.URL, "operator", "secret", nil)
	c := NewClient(srv.Client(), srv.URL, s)

	machines, err := c.FetchMachines(context.Background())
	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if len(machines) != 1 {
		t.Fatalf("unexpected machines %+v", machines)
	}
}

func TestGetJSON_GivesUpAfterSecondUnauthorized(t *testing.T) {
	srv := newAPIServer(t,
		map[string]bool{}, // no token is ever valid
		map[string]http.HandlerFunc{
			"/machines": func(w http.ResponseWriter, r *http.Request) {},
		})
	defer srv.Close()

	s := NewSession(srv.Client(), srv.URL, "operator", "secret", nil)
	c := NewClient(srv.Client(), srv.URL, s)

	if _, err := c.FetchMachines(context.Background()); err == nil {
		t.Fatalf("expected error when token stays rejected")
	}
}

func TestFetchMachineOverview(t *testing.T) {
	last := "2026-08-29 10:00:00"
	srv := newAPIServer(t,
		map[string]bool{"Bearer tok-initial": true},
		map[string]http.HandlerFunc{
			"/machines/m1/overview": func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(Overview{
					Cache:    OverviewCache{LastCollectionAt: &last},
					Machine:  Machine{ID: "m1", Model: "Rosso 500"},
					Location: Location{Address: "Ленина 1", City: "Казань"},
				})
			},
		})
	defer srv.Close()

	s := NewSession(srv.Client(), srv.URL, "operator", "secret", nil)
	c := NewClient(srv.Client(), srv.URL, s)

	ov, err := c.FetchMachineOverview(context.Background(), "m1")
	if err != nil {
		t.Fatalf("fetch overview: %v", err)
	}
	if ov.Cache.LastCollectionAt == nil || *ov.Cache.LastCollectionAt != last {
		t.Fatalf("unexpected overview %+v", ov)
	}
	if ov.Machine.Model != "Rosso 500" || ov.Location.City != "Казань" {
		t.Fatalf("unexpected overview %+v", ov)
	}

	if _, err := c.FetchMachineOverview(context.Background(), ""); err == nil {
		t.Fatalf("expected error for empty machine id")
	}
}
