package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"medialink/internal/logging"
	"medialink/internal/media"
	"medialink/internal/pipeline"
	"medialink/internal/services"
)

// APIServer exposes the daemon's read-mostly admin surface over HTTP.
type APIServer struct {
	store   *media.Store
	manager *pipeline.Manager
	logger  *slog.Logger
	server  *http.Server
}

// NewAPIServer builds the admin HTTP server bound to addr.
func NewAPIServer(addr string, store *media.Store, manager *pipeline.Manager, logger *slog.Logger) *APIServer {
	api := &APIServer{
		store:   store,
		manager: manager,
		logger:  logging.NewComponentLogger(logger, "api"),
	}

	router := chi.NewRouter()
	router.Use(api.requestID)
	router.Route("/api", func(r chi.Router) {
		r.Get("/status", api.handleStatus)
		r.Get("/stats", api.handleStats)
		r.Get("/files", api.handleListFiles)
		r.Get("/files/{id}", api.handleGetFile)
		r.Post("/files/{id}/retry", api.handleRetryFile)
	})

	api.server = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return api
}

// Start begins serving in the background. Listen errors after startup are
// reported through the returned channel.
func (a *APIServer) Start() (<-chan error, error) {
	listener, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		return nil, err
	}

	errs := make(chan error, 1)
	go func() {
		if err := a.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
		close(errs)
	}()
	a.logger.Info("api listening", logging.String("addr", listener.Addr().String()))
	return errs, nil
}

// Addr reports the bound listen address.
func (a *APIServer) Addr() string {
	return a.server.Addr
}

// Shutdown drains in-flight requests and stops the listener.
func (a *APIServer) Shutdown(ctx context.Context) error {
	return a.server.Shutdown(ctx)
}

func (a *APIServer) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := r.Header.Get("X-Request-ID")
		if rid == "" {
			rid = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", rid)
		next.ServeHTTP(w, r.WithContext(services.WithRequestID(r.Context(), rid)))
	})
}

type statusResponse struct {
	Status     string              `json:"status"`
	QueueDepth int                 `json:"queue_depth"`
	Counts     media.HealthSummary `json:"counts"`
}

func (a *APIServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	health, err := a.store.Health(r.Context())
	if err != nil {
		a.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	a.writeJSON(w, http.StatusOK, statusResponse{
		Status:     "ok",
		QueueDepth: a.manager.QueueDepth(),
		Counts:     health,
	})
}

func (a *APIServer) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.store.Stats(r.Context())
	if err != nil {
		a.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	byStatus := make(map[string]int, len(stats))
	total := 0
	for status, count := range stats {
		byStatus[string(status)] = count
		total += count
	}
	a.writeJSON(w, http.StatusOK, map[string]any{"total": total, "by_status": byStatus})
}

// fileView is the JSON shape for a stored file. Timestamps are RFC 3339.
type fileView struct {
	ID               int64  `json:"id"`
	OriginalFilepath string `json:"original_filepath"`
	OriginalFilename string `json:"original_filename"`
	FileSize         uint64 `json:"file_size"`
	Status           string `json:"status"`
	RetryCount       int    `json:"retry_count"`
	TMDBID           int64  `json:"tmdb_id,omitempty"`
	MediaType        string `json:"media_type,omitempty"`
	NewFilepath      string `json:"new_filepath,omitempty"`
	ErrorMessage     string `json:"error_message,omitempty"`
	CreatedAt        string `json:"created_at"`
	UpdatedAt        string `json:"updated_at"`
}

func viewOf(file *media.File) fileView {
	return fileView{
		ID:               file.ID,
		OriginalFilepath: file.OriginalFilepath,
		OriginalFilename: file.OriginalFilename,
		FileSize:         file.FileSize,
		Status:           string(file.Status),
		RetryCount:       file.RetryCount,
		TMDBID:           file.TMDBID,
		MediaType:        string(file.MediaType),
		NewFilepath:      file.NewFilepath,
		ErrorMessage:     file.ErrorMessage,
		CreatedAt:        file.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:        file.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func (a *APIServer) handleListFiles(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			a.writeError(w, r, http.StatusBadRequest, errors.New("limit must be a positive integer"))
			return
		}
		limit = parsed
	}

	var statuses []media.Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, ok := media.ParseStatus(raw)
		if !ok {
			a.writeError(w, r, http.StatusBadRequest, errors.New("unknown status "+strconv.Quote(raw)))
			return
		}
		statuses = append(statuses, status)
	}

	files, err := a.store.List(r.Context(), limit, statuses...)
	if err != nil {
		a.writeError(w, r, http.StatusInternalServerError, err)
		return
	}

	views := make([]fileView, 0, len(files))
	for _, file := range files {
		views = append(views, viewOf(file))
	}
	a.writeJSON(w, http.StatusOK, map[string]any{"files": views})
}

func (a *APIServer) handleGetFile(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		a.writeError(w, r, http.StatusBadRequest, errors.New("invalid file id"))
		return
	}

	file, err := a.store.GetByID(r.Context(), id)
	if err != nil {
		a.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	if file == nil {
		a.writeError(w, r, http.StatusNotFound, errors.New("file not found"))
		return
	}
	a.writeJSON(w, http.StatusOK, viewOf(file))
}

func (a *APIServer) handleRetryFile(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		a.writeError(w, r, http.StatusBadRequest, errors.New("invalid file id"))
		return
	}

	if err := a.store.Retry(r.Context(), id); err != nil {
		if errors.Is(err, media.ErrStaleTransition) {
			a.writeError(w, r, http.StatusConflict, errors.New("file is not in a retryable state"))
			return
		}
		a.writeError(w, r, http.StatusInternalServerError, err)
		return
	}

	if err := a.manager.Enqueue(r.Context(), id); err != nil {
		a.writeError(w, r, http.StatusServiceUnavailable, errors.New("queue is full, file will run on the next scan"))
		return
	}
	a.writeJSON(w, http.StatusAccepted, map[string]any{"id": id, "status": string(media.StatusPending)})
}

func (a *APIServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		a.logger.Error("encode response", logging.Error(err))
	}
}

func (a *APIServer) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	rid, _ := services.RequestIDFromContext(r.Context())
	a.logger.Warn("request failed",
		logging.String("path", r.URL.Path),
		logging.Int("status", status),
		logging.String(logging.FieldRequestID, rid),
		logging.Error(err))
	a.writeJSON(w, status, map[string]string{"error": err.Error()})
}
