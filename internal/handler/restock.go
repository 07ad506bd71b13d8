package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/akluev/vendops/internal/service"
	"github.com/akluev/vendops/internal/store"
)

// restockRequest is the confirmation the operator submits after loading a
// machine: what each item required versus what actually went in.
type restockRequest struct {
	Items []restockItem `json:"items"`
}

type restockItem struct {
	Name           string  `json:"name"`
	RequiredAmount float64 `json:"required_amount"`
	LoadedAmount   float64 `json:"loaded_amount"`
}

// restockHandler records restock results as loading overrides: a full load
// suppresses the item until the next cycle, a short load carries the
// shortfall over. This is the only writer of override state.
func (h *Handler) restockHandler(w http.ResponseWriter, r *http.Request) {
	machineID := chi.URLParam(r, "machine")
	if machineID == "" {
		http.Error(w, "machine missing", http.StatusBadRequest)
		return
	}
	var req restockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if len(req.Items) == 0 {
		http.Error(w, "no items", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	updated := 0
	for _, it := range req.Items {
		if it.Name == "" {
			continue
		}
		ov := service.LoadingOverride{
			RequiredAmount: it.RequiredAmount,
			LoadedAmount:   it.LoadedAmount,
		}
		if it.LoadedAmount >= it.RequiredAmount {
			ov.Status = service.OverrideStatusFull
		} else {
			ov.Status = service.OverrideStatusPartial
			ov.CarryOver = it.RequiredAmount - it.LoadedAmount
		}
		if err := store.SaveOverride(ctx, h.dbURL, machineID, it.Name, ov); err != nil {
			http.Error(w, "failed to save override: "+err.Error(), http.StatusInternalServerError)
			return
		}
		updated++
	}

	if err := store.TouchRestocked(ctx, h.dbURL, machineID, time.Now()); err != nil {
		// list generation falls back to the default window; don't fail the
		// confirmation over it
		log.Printf("restockHandler: touch restocked for %s: %v", machineID, err)
	}

	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "updated": updated})
}

// getPlanogramHandler returns the machine's stored slot-label ordering.
func (h *Handler) getPlanogramHandler(w http.ResponseWriter, r *http.Request) {
	machineID := chi.URLParam(r, "machine")
	if machineID == "" {
		http.Error(w, "machine missing", http.StatusBadRequest)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	labels, err := store.LoadPlanogram(ctx, h.dbURL, machineID)
	if err != nil {
		http.Error(w, "failed to load planogram: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"machine_id": machineID, "labels": labels})
}

// putPlanogramHandler replaces the machine's slot-label ordering.
func (h *Handler) putPlanogramHandler(w http.ResponseWriter, r *http.Request) {
	machineID := chi.URLParam(r, "machine")
	if machineID == "" {
		http.Error(w, "machine missing", http.StatusBadRequest)
		return
	}
	var body struct {
		Labels []string `json:"labels"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body: "+err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := store.SavePlanogram(ctx, h.dbURL, machineID, body.Labels); err != nil {
		http.Error(w, "failed to save planogram: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "labels": len(body.Labels)})
}

// getScheduleHandler returns the machine's restock schedule.
func (h *Handler) getScheduleHandler(w http.ResponseWriter, r *http.Request) {
	machineID := chi.URLParam(r, "machine")
	if machineID == "" {
		http.Error(w, "machine missing", http.StatusBadRequest)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	sched, err := store.LoadSchedule(ctx, h.dbURL, machineID)
	if err != nil {
		http.Error(w, "failed to load schedule: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if sched == nil {
		http.Error(w, "schedule not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, sched)
}

// putScheduleHandler sets the machine's restock cadence.
func (h *Handler) putScheduleHandler(w http.ResponseWriter, r *http.Request) {
	machineID := chi.URLParam(r, "machine")
	if machineID == "" {
		http.Error(w, "machine missing", http.StatusBadRequest)
		return
	}
	var body struct {
		IntervalDays    int        `json:"interval_days"`
		LastRestockedAt *time.Time `json:"last_restocked_at"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if body.IntervalDays <= 0 {
		http.Error(w, "interval_days must be positive", http.StatusBadRequest)
		return
	}

	sched := store.Schedule{MachineID: machineID, IntervalDays: body.IntervalDays}
	if body.LastRestockedAt != nil {
		sched.LastRestockedAt = *body.LastRestockedAt
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := store.SaveSchedule(ctx, h.dbURL, sched); err != nil {
		http.Error(w, "failed to save schedule: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, sched)
}
