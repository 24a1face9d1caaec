package server

import (
	"crypto/subtle"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spigell/resume-ranker/internal/ranking"
	"go.uber.org/zap"
)

const (
	rateLimitMessage     = "Rate limit exceeded. Max 10 requests per hour."
	internalErrorMessage = "Internal server error. Please try again."
)

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "healthy",
		"timestamp":  s.now().Format(time.RFC3339),
		"cache_size": s.cache.Len(),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"cached_embeddings":   s.cache.Len(),
		"active_clients":      s.limiter.Clients(),
		"rate_limit_window":   int(s.limiter.Window().Seconds()),
		"rate_limit_requests": s.limiter.Limit(),
		"cache_ttl":           int(s.cache.TTL().Seconds()),
	})
}

func (s *Server) handleRank(w http.ResponseWriter, r *http.Request) {
	client := clientID(r)

	if !s.limiter.Allow(client) {
		s.logger.Info("rejecting request", zap.String("client", client), zap.String("reason", "rate limit exceeded"))
		writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: rateLimitMessage})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)

	jobDescription, files, err := parseRankRequest(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	s.logger.Info("ranking batch", zap.String("client", client), zap.Int("files", len(files)))

	result, err := s.pipeline.Rank(r.Context(), jobDescription, files)
	if err != nil {
		var verr *ranking.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: verr.Error()})
			return
		}

		s.logger.Error("ranking failed", zap.String("client", client), zap.Error(err))

		resp := errorResponse{Error: internalErrorMessage}
		if s.cfg.Debug {
			resp.Details = err.Error()
		}
		writeJSON(w, http.StatusInternalServerError, resp)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleClearCache(w http.ResponseWriter, r *http.Request) {
	if s.cfg.AdminToken != "" {
		token := bearerToken(r)
		if subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.AdminToken)) != 1 {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "Unauthorized"})
			return
		}
	}

	cleared := s.cache.Clear()
	s.logger.Info("cache cleared", zap.Int("entries", cleared))

	writeJSON(w, http.StatusOK, map[string]any{
		"message":         "Cache cleared",
		"cleared_entries": cleared,
	})
}

func (s *Server) handleNotFound(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusNotFound, errorResponse{Error: "Endpoint not found"})
}

// parseRankRequest reads the multipart form: a job_description field and up
// to ten resume files. File contents are read fully; the declared sizes are
// validated by the pipeline before any expensive work.
func parseRankRequest(r *http.Request) (string, []ranking.File, error) {
	if err := r.ParseMultipartForm(maxRequestBytes); err != nil {
		return "", nil, errors.New("request must be multipart/form-data with a job_description field and resume files")
	}

	jobDescription := r.FormValue("job_description")

	var files []ranking.File
	if r.MultipartForm != nil {
		for _, header := range r.MultipartForm.File["resumes"] {
			file := ranking.File{Name: header.Filename, Size: header.Size}

			f, err := header.Open()
			if err != nil {
				return "", nil, errors.New("reading uploaded file " + header.Filename)
			}
			data, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				return "", nil, errors.New("reading uploaded file " + header.Filename)
			}

			file.Data = data
			files = append(files, file)
		}
	}

	return jobDescription, files, nil
}

// clientID identifies the caller: the first hop of X-Forwarded-For when
// present, otherwise the remote address without the port.
func clientID(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if first, _, found := strings.Cut(forwarded, ","); found {
			return strings.TrimSpace(first)
		}
		return strings.TrimSpace(forwarded)
	}

	host := r.RemoteAddr
	if idx := strings.LastIndex(host, ":"); idx != -1 {
		host = host[:idx]
	}
	return host
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(auth, "Bearer ")
	if !found {
		return ""
	}
	return strings.TrimSpace(token)
}
