package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"formcheck/internal/analysis"
	"formcheck/internal/blobstore"
	"formcheck/internal/logging"
	"formcheck/internal/preflight"
	"formcheck/internal/services"
)

const maxBodyBytes = 1 << 20

const invalidJSONHelp = "Please check your JSON format. Make sure it's properly formatted with quotes around keys and values where needed."

var titleCase = cases.Title(language.English)

func (s *Server) handleUsage(w http.ResponseWriter, r *http.Request) {
	base, _ := services.BaseURLFromContext(r.Context())
	s.writeJSON(w, http.StatusOK, UsageResponse{
		Message: "Exercise Analysis API",
		Usage: map[string]string{
			"GET /analyze":  base + "/analyze?video_url=https://your-storage-host/exercise-demo/video.mp4&frame_skip=" + strconv.Itoa(s.frameSkip.Default),
			"POST /analyze": `Send a JSON body with video_url: {"video_url": "https://your-storage-host/exercise-demo/video.mp4"}`,
			"GET /analyses": base + "/analyses?limit=20",
			"GET /health":   base + "/health",
		},
		FrameSkip: s.frameSkip,
		JSONFormatExample: JSONFormatExample{
			Correct:   jsonExample,
			Incorrect: `{video_url: "https://example.com/video.mp4"}`,
			Note:      "Make sure to use double quotes around both keys and values in your JSON",
		},
	})
}

func (s *Server) handleAnalyzeQuery(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	frameSkip, ok := s.queryFrameSkip(w, query)
	if !ok {
		return
	}
	videoURL := strings.TrimSpace(query.Get("video_url"))
	if videoURL == "" {
		base, _ := services.BaseURLFromContext(r.Context())
		s.writeJSON(w, http.StatusBadRequest, MissingParameterResponse{
			Error:   "Missing video_url parameter",
			Message: "You must provide a video_url parameter in your request",
			Example: base + "/analyze?video_url=Your video URL",
		})
		return
	}
	s.analyze(w, r, analysis.Request{VideoURL: videoURL, FrameSkip: frameSkip})
}

func (s *Server) handleAnalyzeBody(w http.ResponseWriter, r *http.Request) {
	frameSkip, ok := s.queryFrameSkip(w, r.URL.Query())
	if !ok {
		return
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{Detail: "Request body too large"})
			return
		}
		s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Detail: "Error reading request body"})
		return
	}

	var body AnalyzeBody
	if len(strings.TrimSpace(string(data))) > 0 {
		if err := json.Unmarshal(data, &body); err != nil {
			var syntaxErr *json.SyntaxError
			if errors.As(err, &syntaxErr) {
				s.writeJSON(w, http.StatusBadRequest, InvalidJSONResponse{
					Detail:  "Invalid JSON: " + err.Error(),
					Help:    invalidJSONHelp,
					Example: jsonExample,
				})
				return
			}
			s.writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Detail: err.Error()})
			return
		}
	}
	videoURL := strings.TrimSpace(body.VideoURL)
	if videoURL == "" {
		s.writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Detail: "video_url is required"})
		return
	}
	if body.FrameSkip != nil {
		frameSkip = *body.FrameSkip
	}
	s.analyze(w, r, analysis.Request{VideoURL: videoURL, FrameSkip: frameSkip})
}

// queryFrameSkip reads frame_skip from the query, writing a 422 for values
// that are not integers. Range checks happen in the analysis service.
func (s *Server) queryFrameSkip(w http.ResponseWriter, query url.Values) (int, bool) {
	raw := strings.TrimSpace(query.Get("frame_skip"))
	if raw == "" {
		return s.frameSkip.Default, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		s.writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Detail: fmt.Sprintf("frame_skip must be an integer between %d and %d", s.frameSkip.Min, s.frameSkip.Max),
		})
		return 0, false
	}
	return value, true
}

func (s *Server) analyze(w http.ResponseWriter, r *http.Request, req analysis.Request) {
	ctx := r.Context()
	record, err := s.analyzer.Analyze(ctx, req, nil)
	if err != nil {
		status := services.HTTPStatus(err)
		logger := logging.WithContext(ctx, s.logger)
		if errors.Is(err, context.Canceled) {
			logger.Info("analysis abandoned by client", logging.String(logging.FieldVideoURL, req.VideoURL))
		} else if status >= http.StatusInternalServerError {
			logger.Error("analysis request failed", logging.Int("status", status), logging.Error(err))
		} else {
			logger.Info("analysis request rejected", logging.Int("status", status), logging.Error(err))
		}
		s.writeJSON(w, status, ErrorResponse{Detail: analysis.ErrMessage(err)})
		return
	}
	s.writeJSON(w, http.StatusOK, record.Response())
}

func (s *Server) handleBlob(kind blobstore.Kind) http.HandlerFunc {
	missing := titleCase.String(kind.Name) + " not found"
	return func(w http.ResponseWriter, r *http.Request) {
		if s.blobs == nil {
			s.writeJSON(w, http.StatusNotFound, ErrorResponse{Detail: missing})
			return
		}
		name := r.PathValue("name")
		file, info, err := s.blobs.Open(kind, name)
		if err != nil {
			if !errors.Is(err, services.ErrNotFound) {
				logging.WithContext(r.Context(), s.logger).Warn("blob open failed",
					logging.String("kind", kind.Name),
					logging.String("name", name),
					logging.Error(err),
				)
			}
			s.writeJSON(w, http.StatusNotFound, ErrorResponse{Detail: missing})
			return
		}
		defer file.Close()
		w.Header().Set("Content-Type", kind.ContentType)
		http.ServeContent(w, r, name, info.ModTime(), file)
	}
}

func (s *Server) handleHistoryList(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.writeJSON(w, http.StatusNotFound, ErrorResponse{Detail: "History is disabled"})
		return
	}
	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			s.writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Detail: "limit must be a positive integer"})
			return
		}
		limit = parsed
	}
	records, err := s.history.List(r.Context(), limit)
	if err != nil {
		logging.WithContext(r.Context(), s.logger).Error("history list failed", logging.Error(err))
		s.writeJSON(w, http.StatusInternalServerError, ErrorResponse{Detail: "Failed to load analysis history"})
		return
	}
	if records == nil {
		records = []analysis.Record{}
	}
	s.writeJSON(w, http.StatusOK, HistoryListResponse{Items: records})
}

func (s *Server) handleHistoryItem(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.writeJSON(w, http.StatusNotFound, ErrorResponse{Detail: "History is disabled"})
		return
	}
	record, err := s.history.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		status := services.HTTPStatus(err)
		if status == http.StatusNotFound {
			s.writeJSON(w, status, ErrorResponse{Detail: "Analysis not found"})
			return
		}
		logging.WithContext(r.Context(), s.logger).Error("history lookup failed", logging.Error(err))
		s.writeJSON(w, http.StatusInternalServerError, ErrorResponse{Detail: "Failed to load analysis"})
		return
	}
	s.writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := preflight.Summarize(nil)
	if s.health != nil {
		report = s.health(r.Context())
	}
	resp := HealthResponse{Status: "ok", Report: report}
	status := http.StatusOK
	if !report.Ready {
		resp.Status = "degraded"
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, status, resp)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}
