package handlers

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/google/uuid"
	"github.com/username/lotfolio/backend/src/config"
	"github.com/username/lotfolio/backend/src/logger"
	"github.com/username/lotfolio/backend/src/services"
	"github.com/username/lotfolio/backend/src/utils"
)

// UploadHandler serves the CSV upload endpoint.
type UploadHandler struct {
	metricsService services.MetricsService
}

func NewUploadHandler(metricsService services.MetricsService) *UploadHandler {
	return &UploadHandler{metricsService: metricsService}
}

// HandleUpload accepts a multipart form with an "account" file (the
// broker account statement) and a "portfolio" file (the holdings export)
// and responds with the computed metrics payload.
func (h *UploadHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	log := logger.FromContext(r.Context()).With("requestID", requestID, "handler", "HandleUpload")
	w.Header().Set("X-Request-ID", requestID)

	r.Body = http.MaxBytesReader(w, r.Body, config.Cfg.MaxUploadSizeBytes)
	if err := r.ParseMultipartForm(config.Cfg.MaxUploadSizeBytes); err != nil {
		log.Warn("Failed to parse multipart form", "error", err)
		utils.SendJSONError(w, "Uploaded files are too large or the form is malformed", http.StatusBadRequest)
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			r.MultipartForm.RemoveAll()
		}
	}()

	accountFile, err := formFile(r, "account")
	if err != nil {
		log.Warn("Missing account file", "error", err)
		utils.SendJSONError(w, "Missing 'account' file in upload", http.StatusBadRequest)
		return
	}
	defer accountFile.Close()

	portfolioFile, err := formFile(r, "portfolio")
	if err != nil {
		log.Warn("Missing portfolio file", "error", err)
		utils.SendJSONError(w, "Missing 'portfolio' file in upload", http.StatusBadRequest)
		return
	}
	defer portfolioFile.Close()

	result, err := h.metricsService.ComputeMetrics(r.Context(), accountFile, portfolioFile)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrParsingFailed):
			log.Warn("Upload rejected", "error", err)
			utils.SendJSONError(w, "Could not parse the uploaded CSV files", http.StatusUnprocessableEntity)
		default:
			log.Error("Metrics computation failed", "error", err)
			utils.SendJSONError(w, "Failed to compute portfolio metrics", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(result); err != nil {
		log.Error("Failed to encode metrics response", "error", err)
	}
}

func formFile(r *http.Request, field string) (multipart.File, error) {
	file, _, err := r.FormFile(field)
	if err != nil {
		return nil, err
	}
	return file, nil
}
