package handler

import (
	"net/http"

	"github.com/rl1809/storefront/internal/core/domain"
)

func (h *HTTPHandler) UploadProofOfPayment(w http.ResponseWriter, r *http.Request) {
	if !isMultipart(r) {
		badRequest(w, "Expected multipart/form-data")
		return
	}
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		badRequest(w, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("ProofOfPayment")
	if err != nil {
		badRequest(w, "ProofOfPayment file is required")
		return
	}
	defer file.Close()

	result, err := h.uploads.UploadProofOfPayment(r.Context(), domain.ProofOfPayment{
		FileName:     header.Filename,
		ContentType:  header.Header.Get("Content-Type"),
		Size:         header.Size,
		OrderID:      r.FormValue("OrderId"),
		CustomerName: r.FormValue("CustomerName"),
	}, file)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
