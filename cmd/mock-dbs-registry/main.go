package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"childminder/internal/platform/logger"
	"childminder/pkg/domain"
	"childminder/pkg/platform/middleware/request"
)

const (
	defaultAddr   = ":8081"
	defaultAPIKey = "dbs-registry-secret-key"
	defaultDOB    = "1985-03-14"
)

// Magic certificate numbers let local runs drive every registry outcome.
const (
	NumberRecent      = "000000000001"
	NumberStale       = "000000000002"
	NumberDobMismatch = "000000000003"
	NumberWithInfo    = "000000000004"
	NumberNotFound    = "000000000404"
	NumberRateLimited = "000000000429"
	NumberBadData     = "000000000422"
	NumberOutage      = "000000000503"
)

type certificateResponse struct {
	CertificateNumber string `json:"certificate_number"`
	DateOfBirth       string `json:"date_of_birth"`
	DateOfIssue       string `json:"date_of_issue"`
	CertificateInfo   string `json:"certificate_info"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type registry struct {
	apiKey    string
	holderDOB string
	latency   time.Duration
	now       func() time.Time
	logger    *slog.Logger

	mu     sync.RWMutex
	seeded map[string]certificateResponse
}

func newRegistry(apiKey, holderDOB string, latency time.Duration, logger *slog.Logger) *registry {
	return &registry{
		apiKey:    apiKey,
		holderDOB: holderDOB,
		latency:   latency,
		now:       time.Now,
		logger:    logger,
		seeded:    make(map[string]certificateResponse),
	}
}

func main() {
	log := logger.New(slog.LevelInfo)
	latencyMs, err := strconv.Atoi(getEnv("LATENCY_MS", "50"))
	if err != nil {
		latencyMs = 50
	}
	reg := newRegistry(
		getEnv("API_KEY", defaultAPIKey),
		getEnv("HOLDER_DOB", defaultDOB),
		time.Duration(latencyMs)*time.Millisecond,
		log,
	)
	addr := getEnv("ADDR", defaultAddr)

	log.Info("mock DBS registry starting", "addr", addr, "latency_ms", latencyMs)
	srv := &http.Server{
		Addr:              addr,
		Handler:           reg.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		log.Error("mock registry stopped", "error", err)
		os.Exit(1)
	}
}

func (reg *registry) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(request.Recovery(reg.logger))
	r.Use(request.RequestID)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": "mock-dbs-registry"})
	})
	r.Group(func(r chi.Router) {
		r.Use(reg.requireAPIKey)
		r.Get("/certificates/{number}", reg.handleLookup)
		r.Put("/certificates/{number}", reg.handleSeed)
	})
	return r
}

func (reg *registry) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("X-API-Key")
		if key == "" || key != reg.apiKey {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized", Message: "missing or invalid X-API-Key"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (reg *registry) handleLookup(w http.ResponseWriter, r *http.Request) {
	if reg.latency > 0 {
		time.Sleep(reg.latency)
	}
	number := chi.URLParam(r, "number")
	today := domain.DateOf(reg.now())

	switch number {
	case NumberNotFound:
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not_found", Message: "no certificate on file"})
		return
	case NumberRateLimited:
		w.Header().Set("Retry-After", "1")
		writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate_limited", Message: "slow down"})
		return
	case NumberOutage:
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "unavailable", Message: "registry maintenance"})
		return
	case NumberBadData:
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"certificate_number":`))
		return
	case NumberRecent:
		reg.found(w, number, reg.holderDOB, daysBefore(today, 30), "")
		return
	case NumberStale:
		reg.found(w, number, reg.holderDOB, daysBefore(today, 365), "")
		return
	case NumberDobMismatch:
		reg.found(w, number, "1900-01-01", daysBefore(today, 30), "")
		return
	case NumberWithInfo:
		reg.found(w, number, reg.holderDOB, daysBefore(today, 30), "Information disclosed: see certificate")
		return
	}

	reg.mu.RLock()
	record, ok := reg.seeded[number]
	reg.mu.RUnlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not_found", Message: "no certificate on file"})
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// handleSeed stores a record for later lookups.
func (reg *registry) handleSeed(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")
	if _, err := domain.ParseCertificateNumber(number); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: err.Error()})
		return
	}
	var record certificateResponse
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "invalid request body"})
		return
	}
	if _, err := domain.ParseDate(record.DateOfBirth); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "date_of_birth: " + err.Error()})
		return
	}
	if _, err := domain.ParseDate(record.DateOfIssue); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "date_of_issue: " + err.Error()})
		return
	}
	record.CertificateNumber = number

	reg.mu.Lock()
	reg.seeded[number] = record
	reg.mu.Unlock()
	reg.logger.InfoContext(r.Context(), "certificate seeded", "issued", record.DateOfIssue)
	w.WriteHeader(http.StatusNoContent)
}

func (reg *registry) found(w http.ResponseWriter, number, dob string, issued domain.Date, info string) {
	writeJSON(w, http.StatusOK, certificateResponse{
		CertificateNumber: number,
		DateOfBirth:       dob,
		DateOfIssue:       issued.String(),
		CertificateInfo:   info,
	})
}

func daysBefore(d domain.Date, days int) domain.Date {
	return domain.DateOf(d.Time().AddDate(0, 0, -days))
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
