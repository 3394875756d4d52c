package ui

import (
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"adpulse/adapters/excel"
	"adpulse/domain/campaign"
	apperrors "adpulse/internal/errors"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.cfg)
}

// handleEvaluate runs the pipeline over a JSON input bundle
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var data campaign.AccountData
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		writeError(w, apperrors.InvalidInput("malformed request body: "+err.Error()))
		return
	}
	result, err := s.service.Evaluate(r.Context(), data)
	if err != nil {
		s.logger.Error("evaluation failed: %v", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleEvaluateUpload accepts an XLSX or CSV upload, reads it through the
// data reader and runs the pipeline over it.
func (s *Server) handleEvaluateUpload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, apperrors.InvalidInput("missing file upload: "+err.Error()))
		return
	}
	defer file.Close()

	tmp, err := os.CreateTemp("", "adpulse-upload-*"+filepath.Ext(header.Filename))
	if err != nil {
		writeError(w, err)
		return
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		writeError(w, apperrors.ReaderError(header.Filename, err))
		return
	}
	tmp.Close()

	reader := excel.NewDataReader(tmp.Name(), s.logger)
	data, err := reader.ReadAccountData(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	result, err := s.service.Evaluate(r.Context(), *data)
	if err != nil {
		s.logger.Error("evaluation failed: %v", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch apperrors.GetCode(err) {
	case apperrors.CodeInvalidInput, apperrors.CodeConfigInvalid:
		status = http.StatusBadRequest
	case apperrors.CodeInsufficientData, apperrors.CodeReaderError:
		status = http.StatusUnprocessableEntity
	case apperrors.CodeNotFound:
		status = http.StatusNotFound
	}
	writeJSON(w, status, map[string]string{
		"error": err.Error(),
		"code":  apperrors.GetCode(err),
	})
}
