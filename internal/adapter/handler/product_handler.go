package handler

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rl1809/storefront/internal/core/service"
	"github.com/rl1809/storefront/pkg/apperr"
)

type ProductRequest struct {
	Name        string          `json:"productName"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stockAvailable"`
	ImageURL    string          `json:"imageUrl"`
}

// productInput reads a product from a JSON body or, for multipart requests,
// from form fields plus an optional ImageFile part.
func productInput(r *http.Request) (service.ProductInput, error) {
	if !isMultipart(r) {
		var req ProductRequest
		if err := decodeJSON(r, &req); err != nil {
			return service.ProductInput{}, err
		}
		return service.ProductInput{
			Name:        req.Name,
			Description: req.Description,
			Price:       req.Price,
			Stock:       req.Stock,
			ImageURL:    req.ImageURL,
		}, nil
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		return service.ProductInput{}, apperr.Wrap(apperr.CodeInvalidInput, err, "invalid multipart form")
	}
	in := service.ProductInput{
		Name:        r.FormValue("ProductName"),
		Description: r.FormValue("Description"),
		ImageURL:    r.FormValue("ImageUrl"),
	}
	if raw := strings.TrimSpace(r.FormValue("Price")); raw != "" {
		price, err := decimal.NewFromString(raw)
		if err != nil {
			return in, apperr.Wrap(apperr.CodeInvalidInput, err, "Price must be a number")
		}
		in.Price = price
	}
	if raw := strings.TrimSpace(r.FormValue("StockAvailable")); raw != "" {
		stock, err := strconv.Atoi(raw)
		if err != nil {
			return in, apperr.Wrap(apperr.CodeInvalidInput, err, "StockAvailable must be an integer")
		}
		in.Stock = stock
	}

	file, header, err := r.FormFile("ImageFile")
	if err == nil {
		in.Image = &service.ImageUpload{
			FileName:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
			Body:        file,
		}
	} else if err != http.ErrMissingFile {
		return in, apperr.Wrap(apperr.CodeInvalidInput, err, "invalid ImageFile")
	}
	return in, nil
}

func closeImage(in service.ProductInput) {
	if in.Image == nil {
		return
	}
	if c, ok := in.Image.Body.(io.Closer); ok {
		c.Close()
	}
}

func (h *HTTPHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.ListProducts(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *HTTPHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.products.GetProduct(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (h *HTTPHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	in, err := productInput(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer closeImage(in)

	product, err := h.products.CreateProduct(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, product)
}

func (h *HTTPHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	in, err := productInput(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer closeImage(in)

	product, err := h.products.UpdateProduct(r.Context(), r.PathValue("id"), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (h *HTTPHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.products.DeleteProduct(r.Context(), r.PathValue("id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
