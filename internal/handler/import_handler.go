package handler

import (
	"io"
	"net/http"
	"strings"

	"account-transfers/internal/errors"
	"account-transfers/internal/service"
)

type ImportHandler struct {
	importService *service.ImportService
}

func NewImportHandler(importService *service.ImportService) *ImportHandler {
	return &ImportHandler{
		importService: importService,
	}
}

type ImportRowError struct {
	Line    int    `json:"line"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ImportResponse struct {
	Processed int              `json:"processed"`
	Message   string           `json:"message,omitempty"`
	Errors    []ImportRowError `json:"errors,omitempty"`
}

// ImportAccounts accepts CSV data either as a multipart upload under the
// csv_file field or as the raw request body.
func (h *ImportHandler) ImportAccounts(w http.ResponseWriter, r *http.Request) {
	var src io.Reader = r.Body

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, _, err := r.FormFile("csv_file")
		if err != nil {
			writeError(w, errors.NewAppError(errors.InvalidFormat, "missing csv_file upload").WithDetails(err.Error()))
			return
		}
		defer file.Close()
		src = file
	}

	summary, err := h.importService.ImportAccounts(src)
	if err != nil {
		writeError(w, err)
		return
	}

	response := ImportResponse{
		Processed: summary.Processed,
		Message:   summary.Message(),
	}
	for _, rowErr := range summary.Errors {
		response.Errors = append(response.Errors, ImportRowError{
			Line:    rowErr.Line,
			Code:    string(rowErr.Err.Code),
			Message: rowErr.Err.Message,
		})
	}

	writeJSON(w, http.StatusOK, response)
}
