package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/corey/conferente/internal/domain/advisor"
	"github.com/corey/conferente/internal/domain/tare"
	"github.com/corey/conferente/internal/domain/weighing"
	"github.com/corey/conferente/internal/logger"
	"github.com/corey/conferente/internal/ports"
)

// maxBody bounds request bodies. Records may carry a base64 photo.
const maxBody = 8 << 20

// Service is what the HTTP API needs from the application.
type Service interface {
	Learn(supplier, product string, tareKg float64)
	ConfirmTare(supplier, product string, tareKg float64)
	PredictLastProduct(supplier string) (tare.Prediction, bool)
	PredictTareForPair(supplier, product string) (float64, bool)
	CheckOtherSupplierTare(supplier, product string) (*tare.Warning, bool)
	Suggest(supplier, product string, currentTare float64) tare.Suggestion
	KnownSuppliers() []string
	KnownProducts() []string

	Register(e weighing.Entry) (weighing.Outcome, error)
	Advise(e weighing.Entry) (*weighing.Advice, error)
	Records(days int) ([]ports.WeighingRecord, error)
	Ask(ctx context.Context, question string, id weighing.Identification, r weighing.Reading) (string, error)
}

// Server serves the status page and JSON API over HTTP.
type Server struct {
	svc      Service
	listener net.Listener
	httpSrv  *http.Server
	started  time.Time
	stopOnce sync.Once

	addrFilePath string // .conferente/run/http.addr
}

// NewServer creates an HTTP server. The addrFilePath is where the bound
// address is written for discovery; empty disables it.
func NewServer(svc Service, addrFilePath string) *Server {
	return &Server{
		svc:          svc,
		addrFilePath: addrFilePath,
		started:      time.Now(),
	}
}

// Handler returns the routing table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /", http.FileServerFS(staticRoot()))
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/suppliers", s.handleSuppliers)
	mux.HandleFunc("GET /api/products", s.handleProducts)
	mux.HandleFunc("GET /api/predict", s.handlePredict)
	mux.HandleFunc("GET /api/tare", s.handleTare)
	mux.HandleFunc("GET /api/conflict", s.handleConflict)
	mux.HandleFunc("GET /api/suggest", s.handleSuggest)
	mux.HandleFunc("POST /api/learn", s.handleLearn)
	mux.HandleFunc("POST /api/confirm", s.handleConfirm)
	mux.HandleFunc("POST /api/records", s.handleRegister)
	mux.HandleFunc("GET /api/records", s.handleRecords)
	mux.HandleFunc("POST /api/advice", s.handleAdvice)
	mux.HandleFunc("POST /api/advisor", s.handleAdvisor)
	return mux
}

// Start begins listening on addr and writes the bound address to the
// address file. Port 0 picks a free port.
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	s.listener = ln
	s.started = time.Now()
	s.httpSrv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.addrFilePath != "" {
		if err := os.WriteFile(s.addrFilePath, []byte(s.Addr()), 0644); err != nil {
			logger.Warn("could not write address file", "path", s.addrFilePath, "err", err)
		}
	}

	go func() {
		if err := s.httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server stopped", "err", err)
		}
	}()
	return nil
}

// Stop gracefully shuts down the HTTP server. Idempotent.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		if s.httpSrv != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			s.httpSrv.Shutdown(ctx)
		}
		if s.addrFilePath != "" {
			os.Remove(s.addrFilePath)
		}
	})
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// URL returns the base URL of the server.
func (s *Server) URL() string {
	return "http://" + s.Addr()
}

type healthResult struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
}

type listResult struct {
	Items []string `json:"items"`
	Count int      `json:"count"`
}

type predictResult struct {
	Found   bool    `json:"found"`
	Product string  `json:"product,omitempty"`
	Tare    float64 `json:"tare,omitempty"`
}

type tareResult struct {
	Found bool    `json:"found"`
	Tare  float64 `json:"tare,omitempty"`
}

type conflictResult struct {
	Found   bool          `json:"found"`
	Warning *tare.Warning `json:"warning,omitempty"`
}

type recordsResult struct {
	Records []ports.WeighingRecord `json:"records"`
	Count   int                    `json:"count"`
}

type learnRequest struct {
	Supplier string  `json:"supplier"`
	Product  string  `json:"product"`
	Tare     float64 `json:"tare"`
}

type advisorRequest struct {
	Question string         `json:"question"`
	Entry    weighing.Entry `json:"entry"`
}

type advisorResult struct {
	Answer string `json:"answer"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResult{
		Status: "ok",
		Uptime: time.Since(s.started).Round(time.Second).String(),
	})
}

func (s *Server) handleSuppliers(w http.ResponseWriter, r *http.Request) {
	items := s.svc.KnownSuppliers()
	writeJSON(w, http.StatusOK, listResult{Items: items, Count: len(items)})
}

func (s *Server) handleProducts(w http.ResponseWriter, r *http.Request) {
	items := s.svc.KnownProducts()
	writeJSON(w, http.StatusOK, listResult{Items: items, Count: len(items)})
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	p, ok := s.svc.PredictLastProduct(r.URL.Query().Get("supplier"))
	writeJSON(w, http.StatusOK, predictResult{Found: ok, Product: p.Product, Tare: p.Tare})
}

func (s *Server) handleTare(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	t, ok := s.svc.PredictTareForPair(q.Get("supplier"), q.Get("product"))
	writeJSON(w, http.StatusOK, tareResult{Found: ok, Tare: t})
}

func (s *Server) handleConflict(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	wn, ok := s.svc.CheckOtherSupplierTare(q.Get("supplier"), q.Get("product"))
	writeJSON(w, http.StatusOK, conflictResult{Found: ok, Warning: wn})
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	current := 0.0
	if raw := q.Get("current_tare"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "current_tare must be a number")
			return
		}
		current = v
	}
	writeJSON(w, http.StatusOK, s.svc.Suggest(q.Get("supplier"), q.Get("product"), current))
}

func (s *Server) handleLearn(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeLearn(w, r)
	if !ok {
		return
	}
	s.svc.Learn(req.Supplier, req.Product, req.Tare)
	s.answerTare(w, req)
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeLearn(w, r)
	if !ok {
		return
	}
	s.svc.ConfirmTare(req.Supplier, req.Product, req.Tare)
	s.answerTare(w, req)
}

// answerTare reports the tare now stored for the pair, so the client can see
// whether the write took effect.
func (s *Server) answerTare(w http.ResponseWriter, req learnRequest) {
	t, ok := s.svc.PredictTareForPair(req.Supplier, req.Product)
	writeJSON(w, http.StatusOK, tareResult{Found: ok, Tare: t})
}

func decodeLearn(w http.ResponseWriter, r *http.Request) (learnRequest, bool) {
	var req learnRequest
	if !decodeBody(w, r, &req) {
		return req, false
	}
	if strings.TrimSpace(req.Supplier) == "" || strings.TrimSpace(req.Product) == "" {
		writeError(w, http.StatusBadRequest, "supplier and product are required")
		return req, false
	}
	if req.Tare < 0 {
		writeError(w, http.StatusBadRequest, "tare must not be negative")
		return req, false
	}
	return req, true
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var e weighing.Entry
	if !decodeBody(w, r, &e) {
		return
	}
	out, err := s.svc.Register(e)
	switch {
	case isValidation(err):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case err != nil:
		logger.Error("register failed", "err", err)
		writeError(w, http.StatusInternalServerError, "could not save record")
	default:
		writeJSON(w, http.StatusCreated, out)
	}
}

func isValidation(err error) bool {
	for _, target := range []error{
		weighing.ErrNoSupplier, weighing.ErrNoProduct, weighing.ErrNoLoad,
		weighing.ErrInvalidNet, weighing.ErrNoTarget,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	days := 0
	if raw := r.URL.Query().Get("days"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			writeError(w, http.StatusBadRequest, "days must be a non-negative integer")
			return
		}
		days = v
	}
	records, err := s.svc.Records(days)
	if err != nil {
		logger.Error("list records failed", "err", err)
		writeError(w, http.StatusInternalServerError, "could not read history")
		return
	}
	if records == nil {
		records = []ports.WeighingRecord{}
	}
	writeJSON(w, http.StatusOK, recordsResult{Records: records, Count: len(records)})
}

func (s *Server) handleAdvice(w http.ResponseWriter, r *http.Request) {
	var e weighing.Entry
	if !decodeBody(w, r, &e) {
		return
	}
	adv, err := s.svc.Advise(e)
	if err != nil {
		logger.Error("advice failed", "err", err)
		writeError(w, http.StatusInternalServerError, "could not read history")
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Advice *weighing.Advice `json:"advice"`
	}{adv})
}

func (s *Server) handleAdvisor(w http.ResponseWriter, r *http.Request) {
	var req advisorRequest
	if !decodeBody(w, r, &req) {
		return
	}
	answer, err := s.svc.Ask(r.Context(), req.Question, req.Entry.Identification, req.Entry.Reading())
	switch {
	case errors.Is(err, advisor.ErrEmptyQuestion):
		writeError(w, http.StatusBadRequest, "question is required")
	case errors.Is(err, advisor.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "advisor timed out")
	case err != nil:
		logger.Warn("advisor failed", "err", err)
		writeError(w, http.StatusBadGateway, "Erro de conexão com a IA.")
	default:
		writeJSON(w, http.StatusOK, advisorResult{Answer: answer})
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	body := http.MaxBytesReader(w, r.Body, maxBody)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "empty body")
		} else {
			writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		}
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
