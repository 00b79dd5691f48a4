package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/marketsnap/internal/storage"
)

// handleHealth reports liveness, host memory and cache size
// GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":  "healthy",
		"service": "marketsnap",
		"uptime":  time.Since(s.started).Round(time.Second).String(),
	}

	if memStat, err := mem.VirtualMemory(); err != nil {
		s.log.Warn().Err(err).Msg("Failed to get memory statistics")
	} else {
		response["memory"] = map[string]interface{}{
			"used_percent": memStat.UsedPercent,
			"used_mb":      memStat.Used / 1024 / 1024,
			"total_mb":     memStat.Total / 1024 / 1024,
		}
	}

	if s.cacheDB != nil {
		if stats, err := s.cacheDB.GetStats(); err != nil {
			s.log.Warn().Err(err).Msg("Failed to get cache statistics")
		} else {
			response["cache"] = stats
		}
	}

	s.writeJSON(w, http.StatusOK, response)
}

// handleSummary serves the latest summary report
// GET /api/summary
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.store.LoadSummary()
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, summary)
}

// handleLatestRun serves the outcome of the latest analysis run
// GET /api/runs/latest
func (s *Server) handleLatestRun(w http.ResponseWriter, r *http.Request) {
	batch, err := s.store.LoadBatchReport()
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, batch)
}

// handleListStocks lists the symbols that have a record
// GET /api/stocks
func (s *Server) handleListStocks(w http.ResponseWriter, r *http.Request) {
	symbols, err := s.store.ListSymbols()
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"symbols": symbols,
		"count":   len(symbols),
	})
}

// handleGetStock serves one analysis record
// GET /api/stocks/{symbol}
func (s *Server) handleGetStock(w http.ResponseWriter, r *http.Request) {
	record, err := s.store.LoadRecord(chi.URLParam(r, "symbol"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, record)
}

func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, storage.ErrInvalidSymbol):
		s.writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.log.Error().Err(err).Msg("Failed to read artifact")
		s.writeError(w, http.StatusInternalServerError, "failed to read artifact")
	}
}

// writeError writes a JSON error body
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
