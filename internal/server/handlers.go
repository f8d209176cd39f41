package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/verdantis/leafscan/internal/models"
	"github.com/verdantis/leafscan/internal/pipeline"
	"github.com/verdantis/leafscan/internal/preprocess"
)

const (
	formatText = "text"
	formatCSV  = "csv"
)

// healthHandler returns server health status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := HealthResponse{
		Status: "healthy",
		Time:   time.Now().UTC().Format(time.RFC3339),
	}

	writeJSON(w, response)
}

// labelsHandler returns the loaded label catalog.
func (s *Server) labelsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := LabelsResponse{
		Labels: s.labels,
		Count:  len(s.labels),
	}

	writeJSON(w, response)
}

// modelsHandler returns information about available model assets.
func (s *Server) modelsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	assets := models.ListAvailableAssets()
	modelList := make([]ModelInfo, len(assets))
	for i, info := range assets {
		modelList[i] = ModelInfo{
			Name:        info.Name,
			Path:        models.ResolveAssetPath("", info.Type, info.Variant, info.Filename),
			Type:        info.Type,
			Description: info.Description,
		}
	}

	response := ModelsResponse{
		Models: modelList,
		Count:  len(modelList),
	}

	writeJSON(w, response)
}

// classifyHandler processes leaf classification requests.
func (s *Server) classifyHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadMB*1024*1024)

	if err := r.ParseMultipartForm(s.maxUploadMB * 1024 * 1024); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "too large") {
			s.writeErrorResponse(w, "File too large", http.StatusRequestEntityTooLarge)
		} else {
			s.writeErrorResponse(w, "Failed to parse form data", http.StatusBadRequest)
		}
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		s.writeErrorResponse(w, "No image file provided", http.StatusBadRequest)
		return
	}
	defer func() { _ = file.Close() }()

	if header.Size > s.maxUploadMB*1024*1024 {
		s.writeErrorResponse(w, "File too large", http.StatusRequestEntityTooLarge)
		return
	}
	uploadSizeBytes.Observe(float64(header.Size))

	imageData, err := io.ReadAll(file)
	if err != nil {
		s.writeErrorResponse(w, "Failed to read image data", http.StatusInternalServerError)
		return
	}

	if s.pipeline == nil {
		s.writeErrorResponse(w, "Classification pipeline not initialized", http.StatusServiceUnavailable)
		return
	}

	start := time.Now()
	res, err := s.pipeline.ClassifyBytes(imageData)
	if err != nil {
		classifyRequestsTotal.WithLabelValues("http", "error").Inc()
		var perr *preprocess.Error
		if errors.As(err, &perr) {
			s.writeErrorResponse(w, "Invalid image format", http.StatusBadRequest)
			return
		}
		s.writeErrorResponse(w, fmt.Sprintf("Classification failed: %v", err), http.StatusInternalServerError)
		return
	}
	recordClassification("http", time.Since(start).Seconds(), res.Outcome, res.Confidence)

	format := r.FormValue("format")
	if format == "" {
		format = r.URL.Query().Get("format")
	}

	switch format {
	case formatCSV:
		w.Header().Set("Content-Type", "text/csv")
		out, err := pipeline.ToCSV(res)
		if err != nil {
			http.Error(w, fmt.Sprintf("formatting failed: %v", err), http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(out))
	case formatText:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		out, err := pipeline.ToPlainText(res)
		if err != nil {
			http.Error(w, fmt.Sprintf("formatting failed: %v", err), http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(out))
	default:
		writeJSON(w, ClassifyResponse{Success: true, Result: res})
	}
}

// writeJSON encodes v to the response with a JSON content type.
func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "encoding failed", http.StatusInternalServerError)
	}
}

// writeErrorResponse writes a JSON error response.
func (s *Server) writeErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ClassifyResponse{
		Success: false,
		Error:   message,
	}

	_ = json.NewEncoder(w).Encode(response)
}
