package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/iwvelando/mortgage-calculator/internal/cache"
	"github.com/iwvelando/mortgage-calculator/internal/calculator"
	"github.com/iwvelando/mortgage-calculator/internal/config"
	"github.com/iwvelando/mortgage-calculator/internal/history"
	"github.com/iwvelando/mortgage-calculator/internal/report"
	"github.com/iwvelando/mortgage-calculator/pkg/constants"
	"github.com/iwvelando/mortgage-calculator/pkg/output"
	"github.com/iwvelando/mortgage-calculator/pkg/rates"
	"github.com/iwvelando/mortgage-calculator/pkg/validation"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const calculationKeyPrefix = "mortgage:calculation:"

// Options wires the handler to its optional collaborators. Nil Cache,
// History and RateLimiter disable the corresponding feature.
type Options struct {
	Logger        *zap.Logger
	MaxUploadSize int64
	Version       string
	Rates         rates.Table
	Cache         cache.Cache
	History       history.Store
	RateLimiter   *RateLimiter
}

type handler struct {
	logger        *zap.Logger
	maxUploadSize int64
	version       string
	rates         rates.Table
	calculator    *calculator.Calculator
	cache         cache.Cache
	history       history.Store
}

// NewHandler constructs the HTTP handler that serves the calculation API.
func NewHandler(opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	maxUploadSize := opts.MaxUploadSize
	if maxUploadSize <= 0 {
		maxUploadSize = constants.DefaultMaxUploadSizeBytes
	}

	trimmedVersion := strings.TrimSpace(opts.Version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	table := opts.Rates
	if table == nil {
		table = rates.DefaultTable()
	}

	h := &handler{
		logger:        logger,
		maxUploadSize: maxUploadSize,
		version:       trimmedVersion,
		rates:         table,
		calculator:    calculator.New(logger, table),
		cache:         opts.Cache,
		history:       opts.History,
	}

	mux := http.NewServeMux()

	// Single calculation from JSON inputs
	mux.HandleFunc("/api/calculate", h.handleCalculate)

	// Calculations for every active scenario of an uploaded config
	mux.HandleFunc("/api/config", h.handleConfig)

	// Config serialization endpoint for downloads
	mux.HandleFunc("/api/config/export", h.handleConfigExport)

	// PDF report for JSON inputs
	mux.HandleFunc("/api/report", h.handleReport)

	mux.HandleFunc("/api/history", h.handleHistory)
	mux.HandleFunc("/api/rates", h.handleRates)

	// Version endpoint for client metadata
	mux.HandleFunc("/api/version", h.handleVersion)

	if opts.RateLimiter != nil {
		return RateLimitMiddleware(opts.RateLimiter, mux)
	}
	return mux
}

type calculateRequest struct {
	Name string `json:"name"`
	calculator.Inputs
}

type calculationResponse struct {
	calculator.Calculation
	BreakEvenYear int    `json:"breakEvenYear"`
	Cached        bool   `json:"cached"`
	Duration      string `json:"duration"`
}

type configResponse struct {
	Scenarios  []calculationResponse  `json:"scenarios"`
	CSV        string                 `json:"csv"`
	Warnings   []string               `json:"warnings,omitempty"`
	Duration   string                 `json:"duration"`
	Config     map[string]interface{} `json:"config,omitempty"`
	ConfigYAML string                 `json:"configYaml,omitempty"`
}

func newCalculationResponse(calc calculator.Calculation, cached bool) calculationResponse {
	return calculationResponse{
		Calculation:   calc,
		BreakEvenYear: calc.Comparison.BreakEvenYear,
		Cached:        cached,
		Duration:      calc.Duration.String(),
	}
}

func (h *handler) handleCalculate(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleCalculate"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	req, ok := h.decodeCalculateRequest(w, r, op)
	if !ok {
		return
	}

	calc, cached, err := h.calculate(r.Context(), req.Name, req.Inputs)
	if err != nil {
		h.respondCalculationError(w, err, op)
		return
	}

	h.writeJSON(w, http.StatusOK, newCalculationResponse(calc, cached))
}

func (h *handler) handleReport(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleReport"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	req, ok := h.decodeCalculateRequest(w, r, op)
	if !ok {
		return
	}

	calc, _, err := h.calculate(r.Context(), req.Name, req.Inputs)
	if err != nil {
		h.respondCalculationError(w, err, op)
		return
	}

	pdf, err := report.Generate(calc)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to generate report: %v", err), op)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.Filename(calc.Name)))
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(pdf); err != nil {
		h.logger.Warn("failed to write report",
			zap.String("op", op),
			zap.Error(err),
		)
	}
}

func (h *handler) decodeCalculateRequest(w http.ResponseWriter, r *http.Request, op string) (calculateRequest, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	req := calculateRequest{Name: "calculation", Inputs: calculator.DefaultInputs()}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request exceeds limit of %d bytes", h.maxUploadSize), op)
			return req, false
		}
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to decode inputs: %v", err), op)
		return req, false
	}
	return req, true
}

// calculate serves from the cache when possible and records the outcome in
// the history store. Cache and history failures never fail the request.
func (h *handler) calculate(ctx context.Context, name string, in calculator.Inputs) (calculator.Calculation, bool, error) {
	const op = "server.calculate"

	key, keyErr := cache.Key(calculationKeyPrefix, calculateRequest{Name: name, Inputs: in})
	if h.cache != nil && keyErr == nil {
		if data, ok := h.cache.Get(ctx, key); ok {
			var calc calculator.Calculation
			if err := json.Unmarshal(data, &calc); err == nil {
				h.logger.Debug(fmt.Sprintf("cache hit for %s", name),
					zap.String("op", op),
					zap.String("key", key),
				)
				return calc, true, nil
			}
			h.logger.Warn("discarding undecodable cache entry",
				zap.String("op", op),
				zap.String("key", key),
			)
		}
	}

	start := time.Now()
	calc, err := h.calculator.Calculate(name, in)
	if err != nil {
		h.record(ctx, history.NewErrorRecord(name, in, err, time.Since(start)))
		return calculator.Calculation{}, false, err
	}
	h.record(ctx, history.NewRecord(calc))

	if h.cache != nil && keyErr == nil {
		if data, err := json.Marshal(calc); err == nil {
			if err := h.cache.Set(ctx, key, data); err != nil {
				h.logger.Warn("failed to cache calculation",
					zap.String("op", op),
					zap.String("key", key),
					zap.Error(err),
				)
			}
		}
	}

	return calc, false, nil
}

func (h *handler) record(ctx context.Context, record history.Record) {
	if h.history == nil {
		return
	}
	if err := h.history.Save(ctx, record); err != nil {
		h.logger.Warn("failed to record calculation",
			zap.String("op", "server.record"),
			zap.String("name", record.Name),
			zap.Error(err),
		)
	}
}

func (h *handler) handleConfig(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleConfig"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds limit of %d bytes", h.maxUploadSize), op)
			return
		}
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to parse upload: %v", err), op)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, "missing configuration file", op)
		return
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			h.logger.Warn("failed to close uploaded file",
				zap.String("op", op),
				zap.Error(closeErr),
			)
		}
	}()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to read configuration: %v", err), op)
		return
	}

	configBytes := buf.Bytes()
	configMap, err := decodeYAMLToMap(configBytes)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("error reading config data, %v", err), op)
		return
	}

	cfg, err := config.LoadConfigurationFromReader(bytes.NewReader(configBytes))
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}
	warnings := cfg.ValidateConfiguration()

	var (
		scenarios []calculationResponse
		results   []calculator.Calculation
	)
	for _, scenario := range cfg.ActiveScenarios() {
		calc, cached, err := h.calculate(r.Context(), scenario.Name, calculator.FromScenario(cfg.Common, scenario))
		if err != nil {
			h.respondCalculationError(w, fmt.Errorf("scenario %s: %w", scenario.Name, err), op)
			return
		}
		scenarios = append(scenarios, newCalculationResponse(calc, cached))
		results = append(results, calc)
	}

	csvData, err := output.CsvString(results)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to render CSV: %v", err), op)
		return
	}

	elapsed := time.Since(start)
	response := configResponse{
		Scenarios:  scenarios,
		CSV:        csvData,
		Warnings:   warnings,
		Duration:   elapsed.String(),
		Config:     configMap,
		ConfigYAML: string(configBytes),
	}

	h.logger.Info("config calculated",
		zap.String("op", op),
		zap.Int("scenarios", len(scenarios)),
		zap.Int("warnings", len(warnings)),
		zap.Duration("duration", elapsed),
	)

	h.writeJSON(w, http.StatusOK, response)
}

func (h *handler) handleConfigExport(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleConfigExport"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	var payload map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to decode configuration: %v", err), op)
		return
	}
	if payload == nil {
		payload = make(map[string]interface{})
	}

	yamlBytes, err := marshalOrderedConfigYAML(payload)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to encode configuration: %v", err), op)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"configYaml": string(yamlBytes),
	})
}

func (h *handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleHistory"
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	limit := constants.DefaultHistoryLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("invalid limit %q", raw), op)
			return
		}
		limit = parsed
	}
	if limit > constants.MaxHistoryLimit {
		limit = constants.MaxHistoryLimit
	}

	if h.history == nil {
		h.writeJSON(w, http.StatusOK, map[string]interface{}{
			"enabled": false,
			"records": []history.Record{},
		})
		return
	}

	records, err := h.history.List(r.Context(), limit)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to load history: %v", err), op)
		return
	}
	if records == nil {
		records = []history.Record{}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"enabled": true,
		"records": records,
	})
}

func (h *handler) handleRates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"fixedPeriods": h.rates.Periods(),
		"periods":      h.rates,
	})
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func marshalOrderedConfigYAML(payload map[string]interface{}) ([]byte, error) {
	items := make([]orderedItem, 0, len(payload))
	seen := make(map[string]struct{})

	for _, key := range []string{"logging", "output", "storage", "common", "scenarios"} {
		if value, ok := payload[key]; ok {
			items = append(items, orderedItem{key: key, value: value})
			seen[key] = struct{}{}
		}
	}

	remainingKeys := make([]string, 0, len(payload))
	for key := range payload {
		if _, already := seen[key]; already {
			continue
		}
		remainingKeys = append(remainingKeys, key)
	}
	sort.Strings(remainingKeys)
	for _, key := range remainingKeys {
		items = append(items, orderedItem{key: key, value: payload[key]})
	}

	ordered := orderedConfig{items: items}
	return yaml.Marshal(ordered)
}

type orderedConfig struct {
	items []orderedItem
}

type orderedItem struct {
	key   string
	value interface{}
}

func (o orderedConfig) MarshalYAML() (interface{}, error) {
	mapNode := &yaml.Node{
		Kind: yaml.MappingNode,
		Tag:  "!!map",
	}

	for _, item := range o.items {
		keyNode := &yaml.Node{
			Kind:  yaml.ScalarNode,
			Tag:   "!!str",
			Value: item.key,
		}
		valueNode := &yaml.Node{}
		if err := valueNode.Encode(item.value); err != nil {
			return nil, err
		}
		mapNode.Content = append(mapNode.Content, keyNode, valueNode)
	}

	return mapNode, nil
}

func decodeYAMLToMap(data []byte) (map[string]interface{}, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return make(map[string]interface{}), nil
	}

	var result map[string]interface{}
	if err := yaml.Unmarshal(trimmed, &result); err != nil {
		return nil, err
	}
	if result == nil {
		result = make(map[string]interface{})
	}
	return result, nil
}

func retryAfterSeconds(window time.Duration) string {
	seconds := int(window.Round(time.Second) / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	return strconv.Itoa(seconds)
}

// respondCalculationError maps invalid inputs to 400 with the offending
// field and everything else to 500.
func (h *handler) respondCalculationError(w http.ResponseWriter, err error, op string) {
	if validation.IsInvalidInput(err) {
		h.logger.Info("rejected invalid input",
			zap.String("op", op),
			zap.String("field", validation.Field(err)),
			zap.Error(err),
		)
		h.writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": err.Error(),
			"field": validation.Field(err),
		})
		return
	}
	h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to compute calculation: %v", err), op)
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Error("request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response",
			zap.String("op", "server.writeJSON"),
			zap.Error(err),
		)
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
