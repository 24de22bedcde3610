package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"taxharvest/internal/report"
	"taxharvest/pkg/harvest"
)

// sseKeepAlive is how often an idle event stream gets a comment line.
var sseKeepAlive = 25 * time.Second

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) getHoldings(w http.ResponseWriter, r *http.Request) {
	holdings, err := h.provider.FetchHoldings(r.Context())
	if err != nil {
		writeErrorResponse(w, r, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, holdings)
}

func (h *handler) getCapitalGains(w http.ResponseWriter, r *http.Request) {
	cg, err := h.provider.FetchCapitalGains(r.Context())
	if err != nil {
		writeErrorResponse(w, r, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, harvest.CapitalGainsEnvelope{CapitalGains: cg})
}

func (h *handler) getHarvest(w http.ResponseWriter, r *http.Request) {
	q, err := parseViewQuery(r)
	if err != nil {
		writeErrorResponse(w, r, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, newHarvestView(h.dashboard.Snapshot(), q))
}

func (h *handler) toggleSelection(w http.ResponseWriter, r *http.Request) {
	coin := strings.TrimSpace(chi.URLParam(r, "coin"))
	if coin == "" {
		writeErrorResponse(w, r, http.StatusBadRequest, harvest.NewError(harvest.ErrCodeInvalidInput, "coin is required"))
		return
	}
	h.dashboard.Toggle(coin)
	writeJSON(w, http.StatusOK, newHarvestView(h.dashboard.Snapshot(), viewQuery{}))
}

func (h *handler) selectAll(w http.ResponseWriter, r *http.Request) {
	h.dashboard.SelectAll()
	writeJSON(w, http.StatusOK, newHarvestView(h.dashboard.Snapshot(), viewQuery{}))
}

func (h *handler) clearSelection(w http.ResponseWriter, r *http.Request) {
	h.dashboard.ClearSelection()
	writeJSON(w, http.StatusOK, newHarvestView(h.dashboard.Snapshot(), viewQuery{}))
}

func (h *handler) refresh(w http.ResponseWriter, r *http.Request) {
	if h.loader == nil {
		writeErrorResponse(w, r, http.StatusInternalServerError, harvest.NewError(harvest.ErrCodeInternal, "refresh is not configured"))
		return
	}
	// A fetch outlives the request that triggered it; a client going away
	// must not record a failure on the store.
	if err := h.loader.Load(context.WithoutCancel(r.Context())); err != nil {
		writeErrorResponse(w, r, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, newHarvestView(h.dashboard.Snapshot(), viewQuery{}))
}

func (h *handler) downloadReport(w http.ResponseWriter, r *http.Request) {
	if h.report == nil {
		writeErrorResponse(w, r, http.StatusInternalServerError, harvest.NewError(harvest.ErrCodeInternal, "reports are not configured"))
		return
	}
	st := h.dashboard.Snapshot()
	data, err := h.report.Generate(r.Context(), st)
	if err != nil {
		writeErrorResponse(w, r, http.StatusInternalServerError, err)
		return
	}
	filename := fmt.Sprintf("tax-harvest-%s.xlsx", time.Now().Format("20060102"))
	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// streamEvents pushes a "snapshot" event now and after every store change.
// Slow clients only ever see the latest state; intermediate ones are dropped.
func (h *handler) streamEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	q, err := parseViewQuery(r)
	if err != nil {
		writeErrorResponse(w, r, http.StatusBadRequest, err)
		return
	}

	updates := make(chan harvest.State, 1)
	unsubscribe := h.dashboard.Subscribe(func(st harvest.State) {
		select {
		case updates <- st:
			return
		default:
		}
		select {
		case <-updates:
		default:
		}
		select {
		case updates <- st:
		default:
		}
	})
	defer unsubscribe()

	initSSEHeaders(w)
	w.WriteHeader(http.StatusOK)
	if err := writeSSEEvent(w, flusher, "snapshot", newHarvestView(h.dashboard.Snapshot(), q)); err != nil {
		return
	}

	ticker := time.NewTicker(sseKeepAlive)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case st := <-updates:
			if err := writeSSEEvent(w, flusher, "snapshot", newHarvestView(st, q)); err != nil {
				h.logger.Debug("event stream write failed", "err", err)
				return
			}
		case <-ticker.C:
			if _, err := w.Write([]byte(": keep-alive\n\n")); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func initSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
}

func writeSSEEvent(w http.ResponseWriter, flusher http.Flusher, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := w.Write([]byte("event: " + event + "\n")); err != nil {
		return err
	}
	if _, err := w.Write([]byte("data: " + string(data) + "\n\n")); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}

// Helpers.

func parseViewQuery(r *http.Request) (viewQuery, error) {
	values := r.URL.Query()
	q := viewQuery{}

	switch key := strings.ToLower(strings.TrimSpace(values.Get("sort"))); key {
	case "", harvest.SortAsset, harvest.SortHolding, harvest.SortValue, harvest.SortSTCG, harvest.SortLTCG:
		q.Sort = key
	default:
		return q, harvest.NewError(harvest.ErrCodeInvalidInput, fmt.Sprintf("unknown sort key %q", key))
	}

	switch order := strings.ToLower(strings.TrimSpace(values.Get("order"))); order {
	case "", "asc":
	case "desc":
		q.Desc = true
	default:
		return q, harvest.NewError(harvest.ErrCodeInvalidInput, fmt.Sprintf("unknown order %q", order))
	}

	limit, err := parseIntDefault(values.Get("limit"), 0)
	if err != nil || limit < 0 {
		return q, harvest.NewError(harvest.ErrCodeInvalidInput, "limit must be a non-negative integer")
	}
	q.Limit = limit
	return q, nil
}

func parseIntDefault(value string, fallback int) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}
	return strconv.Atoi(value)
}
