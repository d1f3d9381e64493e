// Package server 回归引擎的 HTTP 接口.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"regress/analysis/regression"
	"regress/infra/errorx"
	"regress/infra/errorx/errCode"
	"regress/infra/observe/log/staticLog"
	"regress/ingest"
	"regress/ml/preprocess"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	gojson "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

type Server struct {
	engine regression.EngineConfig
	cfg    regression.ServerConfig
}

func New(engine regression.EngineConfig) *Server {
	cfg := engine.Server
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.MaxBodyMB <= 0 {
		cfg.MaxBodyMB = 32
	}
	return &Server{engine: engine, cfg: cfg}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	origins := s.cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.Health)
	r.Post("/api/regression", s.Regression)
	r.Post("/api/regression/summary", s.RegressionSummary)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	return r
}

// ListenAndServe 阻塞直到 ctx 结束或监听失败
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		staticLog.Log.WithField("addr", s.cfg.Addr).Info("server: listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		staticLog.Log.Info("server: shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Request POST 请求体, rows 为对象数组
type Request struct {
	Target             string                      `json:"target"`
	TargetLogTransform bool                        `json:"targetLogTransform"`
	TargetLogPlusOne   bool                        `json:"targetLogPlusOne"`
	Features           []preprocess.VariableConfig `json:"features"`
	Seed               *int64                      `json:"seed,omitempty"`
}

func (s *Server) Regression(w http.ResponseWriter, r *http.Request) {
	res, ok := s.run(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, NewResultDTO(res))
}

func (s *Server) RegressionSummary(w http.ResponseWriter, r *http.Request) {
	res, ok := s.run(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, NewSummaryDTO(regression.Summarize(res)))
}

type outcome struct {
	res *regression.Result
	err error
}

func (s *Server) run(w http.ResponseWriter, r *http.Request) (*regression.Result, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, int64(s.cfg.MaxBodyMB)<<20))
	if err != nil {
		RunsTotal.WithLabelValues("bad_request").Inc()
		writeError(w, http.StatusBadRequest, errorx.Wrap(err, errCode.INVALID_VALUE, "read request body"))
		return nil, false
	}
	if !gjson.ValidBytes(body) {
		RunsTotal.WithLabelValues("bad_request").Inc()
		writeError(w, http.StatusBadRequest, errorx.New(errCode.INVALID_VALUE, "request body is not valid json"))
		return nil, false
	}
	var req Request
	if err := gojson.Unmarshal(body, &req); err != nil {
		RunsTotal.WithLabelValues("bad_request").Inc()
		writeError(w, http.StatusBadRequest, errorx.Wrap(err, errCode.INVALID_VALUE, "decode request"))
		return nil, false
	}
	table, err := ingest.RowsFromJSON(gjson.GetBytes(body, "rows"))
	if err != nil {
		RunsTotal.WithLabelValues("bad_request").Inc()
		writeError(w, http.StatusBadRequest, err)
		return nil, false
	}

	opts := []regression.Option{regression.WithEngineConfig(s.engine)}
	if req.Seed != nil {
		opts = append(opts, regression.WithSeed(*req.Seed))
	}
	cfg := preprocess.Config{
		Target:             req.Target,
		TargetLogTransform: req.TargetLogTransform,
		TargetLogPlusOne:   req.TargetLogPlusOne,
		Features:           req.Features,
	}

	ctx := r.Context()
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	done := make(chan outcome, 1)
	go func() {
		res, err := regression.Run(table.Rows, cfg, opts...)
		done <- outcome{res: res, err: err}
	}()

	var out outcome
	select {
	case out = <-done:
	case <-ctx.Done():
		out.err = errorx.Wrap(ctx.Err(), errCode.TIMEOUT, "regression did not finish before the deadline")
	}
	RunDuration.Observe(time.Since(start).Seconds())

	if out.err != nil {
		RunsTotal.WithLabelValues(errorx.CodeOf(out.err).String()).Inc()
		writeError(w, statusOf(out.err), out.err)
		return nil, false
	}
	RunsTotal.WithLabelValues("ok").Inc()
	if d := out.res.BootstrapIterations.Requested - out.res.BootstrapIterations.Succeeded; d > 0 {
		BootstrapDropped.Add(float64(d))
	}
	return out.res, true
}

// statusOf 超时 503, 其余引擎错误 422
func statusOf(err error) int {
	switch errorx.CodeOf(err) {
	case errCode.TIMEOUT:
		return http.StatusServiceUnavailable
	case errCode.OK:
		return http.StatusOK
	default:
		return http.StatusUnprocessableEntity
	}
}

type errorBody struct {
	Code      string   `json:"code"`
	Message   string   `json:"message"`
	Variables []string `json:"variables"`
	Retryable bool     `json:"retryable"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	code := errorx.CodeOf(err)
	vars := errorx.VarsOf(err)
	if vars == nil {
		vars = []string{}
	}
	writeJSON(w, status, errorBody{
		Code:      code.String(),
		Message:   err.Error(),
		Variables: vars,
		Retryable: code.Retryable(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	b, err := gojson.Marshal(v)
	if err != nil {
		staticLog.Log.WithError(err).Error("server: encode response")
		http.Error(w, `{"code":"INVALID_VALUE","message":"encode response"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(b)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		staticLog.Log.WithFields(logrus.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"bytes":      ww.BytesWritten(),
			"elapsed":    time.Since(start).String(),
			"request_id": middleware.GetReqID(r.Context()),
		}).Info("http")
	})
}
