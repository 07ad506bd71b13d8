package handler

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/akluev/vendops/internal/service"
	"github.com/akluev/vendops/internal/store"
	"github.com/akluev/vendops/pkg/vendapi"
)

// queryTimeLayout is the local-time format accepted in from/to query params.
const queryTimeLayout = "2006-01-02 15:04:05"

// defaultWindowDays is the report window when the machine has no recorded
// restock date.
const defaultWindowDays = 7

// machinesHandler lists the machines visible to the operator's telemetry
// account.
func (h *Handler) machinesHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	machines, err := h.telemetry.FetchMachines(ctx)
	if err != nil {
		http.Error(w, "failed to load machines: "+err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, machines)
}

// overviewHandler proxies the machine overview (telemetry freshness,
// location).
func (h *Handler) overviewHandler(w http.ResponseWriter, r *http.Request) {
	machineID := chi.URLParam(r, "machine")
	if machineID == "" {
		http.Error(w, "machine missing", http.StatusBadRequest)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	overview, err := h.telemetry.FetchMachineOverview(ctx, machineID)
	if err != nil {
		http.Error(w, "failed to load overview: "+err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

// shoppingListResponse is the JSON shape of the shopping-list endpoints.
type shoppingListResponse struct {
	MachineID string                     `json:"machine_id"`
	From      string                     `json:"from"`
	To        string                     `json:"to"`
	Total     vendapi.SalesTotal         `json:"total"`
	Items     []service.ShoppingListItem `json:"items"`
}

// shoppingListHandler derives the restock list for one machine: fetch sales
// for the window, fold in stored overrides, order by planogram (or
// alphabetically via ?sort=alphabetical).
func (h *Handler) shoppingListHandler(w http.ResponseWriter, r *http.Request) {
	resp, err := h.buildShoppingList(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// shoppingListExportHandler serves the same list as a flat text file.
func (h *Handler) shoppingListExportHandler(w http.ResponseWriter, r *http.Request) {
	resp, err := h.buildShoppingList(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", "shopping-list-"+resp.MachineID+".txt"))
	_, _ = w.Write([]byte(service.FormatShoppingList(resp.Items)))
}

// buildShoppingList runs the whole pipeline for one request. Upstream
// failures on optional inputs (overview, planogram, overrides) degrade to
// empty values so the list still renders; only the sales fetch is fatal.
func (h *Handler) buildShoppingList(r *http.Request) (*shoppingListResponse, error) {
	machineID := chi.URLParam(r, "machine")
	if machineID == "" {
		return nil, fmt.Errorf("machine missing")
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	from, to, err := h.reportWindow(ctx, r, machineID)
	if err != nil {
		return nil, err
	}

	sortMode := r.URL.Query().Get("sort")
	if sortMode == "" {
		sortMode = service.SortGrouped
	}

	report, err := h.telemetry.FetchSalesByProducts(ctx, machineID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load sales: %w", err)
	}

	overrides, err := store.LoadOverrides(ctx, h.dbURL, machineID)
	if err != nil {
		log.Printf("shoppingList: load overrides for %s: %v", machineID, err)
		overrides = nil
	}
	planogram, err := store.LoadPlanogram(ctx, h.dbURL, machineID)
	if err != nil {
		log.Printf("shoppingList: load planogram for %s: %v", machineID, err)
		planogram = nil
	}

	var model string
	if overview, err := h.telemetry.FetchMachineOverview(ctx, machineID); err != nil {
		log.Printf("shoppingList: overview for %s: %v", machineID, err)
	} else {
		model = overview.Machine.Model
	}

	items := service.CalculateShoppingList(report.Data, sortMode, overrides, machineID, planogram, model)
	return &shoppingListResponse{
		MachineID: machineID,
		From:      from.Format(queryTimeLayout),
		To:        to.Format(queryTimeLayout),
		Total:     report.Total,
		Items:     items,
	}, nil
}

// reportWindow resolves the from/to query params, defaulting to the span
// since the last recorded restock (or the last week).
func (h *Handler) reportWindow(ctx context.Context, r *http.Request, machineID string) (time.Time, time.Time, error) {
	now := time.Now()
	to := now
	if raw := r.URL.Query().Get("to"); raw != "" {
		t, err := time.ParseInLocation(queryTimeLayout, raw, time.Local)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("bad to timestamp: %w", err)
		}
		to = t
	}
	if raw := r.URL.Query().Get("from"); raw != "" {
		t, err := time.ParseInLocation(queryTimeLayout, raw, time.Local)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("bad from timestamp: %w", err)
		}
		return t, to, nil
	}

	from := now.AddDate(0, 0, -defaultWindowDays)
	if sched, err := store.LoadSchedule(ctx, h.dbURL, machineID); err != nil {
		log.Printf("reportWindow: load schedule for %s: %v", machineID, err)
	} else if sched != nil && !sched.LastRestockedAt.IsZero() {
		from = sched.LastRestockedAt
	}
	return from, to, nil
}
