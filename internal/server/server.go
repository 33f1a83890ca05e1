// Package server exposes keyword generation over HTTP: upload inputs,
// preview the result, download the zipped files and regenerate from edited
// term pools.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/keyword-cli/internal/export"
	"github.com/sells-group/keyword-cli/internal/ingest"
	"github.com/sells-group/keyword-cli/internal/model"
	"github.com/sells-group/keyword-cli/internal/pipeline"
	"github.com/sells-group/keyword-cli/internal/session"
)

const (
	defaultOutputName   = "keyword_exports"
	defaultFilterSet    = "default"
	defaultPreviewLimit = 100
	maxUploadBytes      = 32 << 20
)

// Server holds the HTTP handlers and their dependencies.
type Server struct {
	pipeline *pipeline.Pipeline
	sessions *session.Store
}

// New creates a Server.
func New(p *pipeline.Pipeline, sessions *session.Store) *Server {
	return &Server{pipeline: p, sessions: sessions}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	origins := s.pipeline.Config().Server.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/options", s.handleOptions)
		r.Post("/generate", s.handleGenerate)
		r.Get("/download/{token}", s.handleDownload)
		r.Post("/regenerate", s.handleRegenerate)
	})
	return r
}

// requestLogger logs each request with zap once the response is written.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			zap.L().Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("elapsed", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg})
}

// writeRunError maps configuration and input errors to 400 and everything
// else to 500.
func writeRunError(w http.ResponseWriter, err error) {
	if pipeline.IsConfigError(err) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	zap.L().Error("server: generation failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, fmt.Sprintf("처리 중 오류가 발생했습니다: %v", err))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type optionsResponse struct {
	PatternOptions   []string `json:"pattern_options"`
	POIFilterSets    []string `json:"poi_filter_sets"`
	KeywordsPerGroup int      `json:"keywords_per_group"`
}

func (s *Server) handleOptions(w http.ResponseWriter, _ *http.Request) {
	cfg := s.pipeline.Config()
	writeJSON(w, http.StatusOK, optionsResponse{
		PatternOptions:   patternStrings(model.PatternsFrom(cfg.Keywords.Patterns)),
		POIFilterSets:    cfg.FilterSetNames(),
		KeywordsPerGroup: cfg.Output.KeywordsPerGroup,
	})
}

// resultResponse is returned by generate and regenerate.
type resultResponse struct {
	Token            string              `json:"token"`
	DownloadURL      string              `json:"download_url"`
	OutputName       string              `json:"output_name"`
	Warning          string              `json:"warning,omitempty"`
	TargetTotal      int                 `json:"target_total"`
	GeneratedTotal   int                 `json:"generated_total"`
	Shortfall        int                 `json:"shortfall"`
	Preview          []export.PreviewRow `json:"preview"`
	Components       model.Components    `json:"components"`
	SelectedPatterns []string            `json:"selected_patterns"`
	PatternOptions   []string            `json:"pattern_options"`
	POIFilterSets    []string            `json:"poi_filter_sets"`
	POIFilterSet     string              `json:"poi_filter_set"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	ctx := r.Context()

	inputName, inputRaw, err := formFile(r, "input_csv")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	groupsName, groupsRaw, err := formFile(r, "ad_groups_csv")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	records, err := ingest.ReadBusinessRecords(ctx, inputName, inputRaw)
	if err != nil {
		writeRunError(w, err)
		return
	}
	adGroupIDs, err := ingest.ReadAdGroupIDs(ctx, groupsName, groupsRaw)
	if err != nil {
		writeRunError(w, err)
		return
	}

	var extraTerms []string
	if _, extraRaw, err := formFile(r, "extra_terms_csv"); err == nil {
		if extraTerms, err = ingest.ParseExtraTerms(ctx, extraRaw); err != nil {
			writeRunError(w, err)
			return
		}
	}

	outputName := formValue(r, "output_name", defaultOutputName)
	filterSet := formValue(r, "poi_filter_set", defaultFilterSet)

	result, err := s.pipeline.Run(ctx, pipeline.Request{
		Records:        records,
		AdGroupIDs:     adGroupIDs,
		ExtraTerms:     extraTerms,
		POIFilterSet:   filterSet,
		AllowShortfall: true,
	})
	if err != nil {
		writeRunError(w, err)
		return
	}

	resp, err := s.store(result, outputName, filterSet)
	if err != nil {
		writeRunError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	entry, ok := s.sessions.Take(token)
	if !ok {
		writeError(w, http.StatusNotFound, "다운로드 링크가 만료되었습니다.")
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", entry.OutputName+".zip"))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(entry.Bundle); err != nil {
		zap.L().Warn("server: write download", zap.String("token", token), zap.Error(err))
	}
}

type regenerateRequest struct {
	Token          string   `json:"token"`
	Regions        string   `json:"regions"`
	Services       string   `json:"services"`
	Modifiers      string   `json:"modifiers"`
	POIs           string   `json:"pois"`
	Patterns       []string `json:"patterns"`
	PatternsCustom string   `json:"patterns_custom"`
}

func (s *Server) handleRegenerate(w http.ResponseWriter, r *http.Request) {
	var req regenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	entry, ok := s.sessions.Get(req.Token)
	if !ok {
		writeError(w, http.StatusBadRequest, "세션이 만료되었습니다. 다시 생성해주세요.")
		return
	}

	patterns := append(ingest.ParsePatterns(req.Patterns...), ingest.ParsePatternText(req.PatternsCustom)...)
	result, err := s.pipeline.Compose(pipeline.ComposeRequest{
		Components: model.Components{
			Regions:   ingest.ParseLines(req.Regions),
			Services:  ingest.ParseLines(req.Services),
			Modifiers: ingest.ParseLines(req.Modifiers),
			POIs:      ingest.ParseLines(req.POIs),
		},
		Patterns:         patterns,
		AdGroupIDs:       entry.AdGroupIDs,
		KeywordsPerGroup: entry.KeywordsPerGroup,
	})
	if err != nil {
		writeRunError(w, err)
		return
	}

	resp, err := s.store(result, entry.OutputName, entry.POIFilterSet)
	if err != nil {
		writeRunError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// store bundles the result, keeps it under a new token and builds the
// response body.
func (s *Server) store(result *pipeline.Result, outputName, filterSet string) (*resultResponse, error) {
	cfg := s.pipeline.Config()
	bundle, err := export.Bundle(result.Plan, cfg.Output)
	if err != nil {
		return nil, eris.Wrap(err, "server: bundle")
	}
	token := s.sessions.Put(session.Entry{
		Bundle:           bundle,
		AdGroupIDs:       result.AdGroupIDs,
		KeywordsPerGroup: result.KeywordsPerGroup,
		OutputName:       outputName,
		POIFilterSet:     filterSet,
	})

	limit := cfg.Server.PreviewLimit
	if limit <= 0 {
		limit = defaultPreviewLimit
	}
	resp := &resultResponse{
		Token:            token,
		DownloadURL:      "/api/download/" + token,
		OutputName:       outputName,
		TargetTotal:      result.TargetTotal,
		GeneratedTotal:   result.GeneratedTotal,
		Shortfall:        result.Shortfall,
		Preview:          export.Preview(result.Plan, limit),
		Components:       result.Components,
		SelectedPatterns: patternStrings(result.Patterns),
		PatternOptions:   patternStrings(model.PatternsFrom(cfg.Keywords.Patterns)),
		POIFilterSets:    cfg.FilterSetNames(),
		POIFilterSet:     filterSet,
	}
	if result.Shortfall > 0 {
		resp.Warning = fmt.Sprintf("키워드가 부족합니다. 생성 %d개 / 필요 %d개", result.GeneratedTotal, result.TargetTotal)
	}
	return resp, nil
}

// formFile reads an uploaded file field fully.
func formFile(r *http.Request, field string) (string, []byte, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return "", nil, eris.Errorf("%s is required", field)
	}
	defer file.Close()
	raw, err := io.ReadAll(file)
	if err != nil {
		return "", nil, eris.Wrapf(err, "read %s", field)
	}
	return header.Filename, raw, nil
}

func formValue(r *http.Request, field, fallback string) string {
	if v := strings.TrimSpace(r.FormValue(field)); v != "" {
		return v
	}
	return fallback
}

func patternStrings(patterns []model.Pattern) []string {
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, p.String())
	}
	return out
}

// Run serves h on addr until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("starting server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return eris.Wrap(err, "server: listen")
		}
		return nil
	case <-ctx.Done():
	}

	zap.L().Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return eris.Wrap(err, "server: shutdown")
	}
	return nil
}
