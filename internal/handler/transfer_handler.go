package handler

import (
	"encoding/json"
	"net/http"

	"account-transfers/internal/errors"
	"account-transfers/internal/service"
)

type TransferHandler struct {
	transferService *service.TransferService
}

func NewTransferHandler(transferService *service.TransferService) *TransferHandler {
	return &TransferHandler{
		transferService: transferService,
	}
}

type TransferRequest struct {
	FromAccount string `json:"from_account"`
	ToAccount   string `json:"to_account"`
	Amount      string `json:"amount"`
}

type TransferResponse struct {
	Amount          string `json:"amount"`
	FromAccountName string `json:"from_account_name"`
	ToAccountName   string `json:"to_account_name"`
	Message         string `json:"message"`
}

func (h *TransferHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewAppError(errors.MissingFields, "invalid request body").WithDetails(err.Error()))
		return
	}

	result, err := h.transferService.Transfer(req.FromAccount, req.ToAccount, req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, TransferResponse{
		Amount:          result.Amount.String(),
		FromAccountName: result.FromAccountName,
		ToAccountName:   result.ToAccountName,
		Message:         result.Message(),
	})
}
