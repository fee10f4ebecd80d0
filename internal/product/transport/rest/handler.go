// Package rest provides HTTP handlers for product-related operations.
package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	producterrors "github.com/abgdnv/product-catalog/internal/product/errors"
	"github.com/abgdnv/product-catalog/internal/product/service"
	"github.com/abgdnv/product-catalog/internal/product/store"
	"github.com/abgdnv/product-catalog/pkg/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

const (
	msgEmptyBatch     = "Body must be a non-empty array of products"
	msgMissingFields  = "Each product requires field(s) [id, name, price, quantity]"
	msgNotAnObject    = "Body must be a product object"
	msgIDMismatch     = "Body id must match path id"
	msgDeleteNotFound = "Requested id not found for deletion"
	msgInvalidBody    = "Invalid request body"
)

type Handler struct {
	service  service.ProductService
	validate *validator.Validate
	logger   *slog.Logger
}

// patchResponse is the body of PUT /products/{id}.
type patchResponse struct {
	Summary service.SummaryDto `json:"summary"`
	Item    service.ProductDto `json:"item"`
}

// NewHandler creates a new Handler with the provided service.
func NewHandler(service service.ProductService, logger *slog.Logger) *Handler {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &Handler{
		service:  service,
		validate: validate,
		logger:   logger.With("component", "rest"),
	}
}

// RegisterRoutes registers the HTTP routes for the product service.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.Find)
		r.Post("/", h.Create)
		r.Put("/", h.Upsert)
		r.Get("/sorted/price", h.FindAllSortedByPrice)

		r.Route("/{id}", func(r chi.Router) {
			r.Put("/", h.Patch)
			r.Delete("/", h.DeleteByID)
			r.Get("/availability", h.CheckAvailability)
		})
	})
}

// Find returns every product, or the single product named by the id query parameter.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rawID := r.URL.Query().Get("id")
	if rawID == "" {
		h.logger.DebugContext(ctx, "Received request to find all products")
		list, err := h.service.FindAll(ctx)
		if err != nil {
			h.respondServiceError(w, r, err, "")
			return
		}
		h.logger.DebugContext(ctx, "Successfully retrieved product list", "count", len(list))
		web.RespondJSON(w, h.logger, http.StatusOK, list)
		return
	}

	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		web.RespondError(w, r, h.logger, http.StatusBadRequest, fmt.Sprintf("Invalid id number: %s", rawID))
		return
	}
	h.logger.DebugContext(ctx, "Received request to find product by ID", "id", id)
	found, err := h.service.FindByID(ctx, id)
	if err != nil {
		h.respondServiceError(w, r, err, fmt.Sprintf("Product id %d doesn't exist", id))
		return
	}
	web.RespondJSON(w, h.logger, http.StatusOK, found)
}

// Create handles bulk creation. Answers 409 when every id already exists.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	products, ok := h.decodeBatch(w, r)
	if !ok {
		return
	}
	result, err := h.service.Create(r.Context(), products)
	if err != nil {
		h.respondServiceError(w, r, err, "")
		return
	}
	status := http.StatusCreated
	if result.Summary.Created == 0 {
		h.logger.WarnContext(r.Context(), "No products created, all ids exist", "total", result.Summary.Total)
		status = http.StatusConflict
	}
	web.RespondJSON(w, h.logger, status, result)
}

// Upsert replaces or inserts every product of the body.
func (h *Handler) Upsert(w http.ResponseWriter, r *http.Request) {
	products, ok := h.decodeBatch(w, r)
	if !ok {
		return
	}
	result, err := h.service.Upsert(r.Context(), products)
	if err != nil {
		h.respondServiceError(w, r, err, "")
		return
	}
	web.RespondJSON(w, h.logger, http.StatusOK, result)
}

// Patch merges the body onto the product at the path id, creating it when absent.
func (h *Handler) Patch(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, h.logger)
	if !ok {
		return
	}
	var patch *service.ProductPatchDto
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		h.logger.WarnContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, r, h.logger, http.StatusBadRequest, msgInvalidBody)
		return
	}
	if patch == nil {
		web.RespondError(w, r, h.logger, http.StatusBadRequest, msgNotAnObject)
		return
	}
	if patch.ID != nil && *patch.ID != id {
		h.logger.WarnContext(r.Context(), "Body id does not match path id", "path_id", id, "body_id", *patch.ID)
		web.RespondError(w, r, h.logger, http.StatusBadRequest, msgIDMismatch)
		return
	}

	result, err := h.service.Patch(r.Context(), []service.ProductDto{patch.ToProductDto(id)})
	if err != nil {
		h.respondServiceError(w, r, err, "")
		return
	}
	web.RespondJSON(w, h.logger, http.StatusOK, patchResponse{Summary: result.Summary, Item: result.Items[0]})
}

// DeleteByID deletes a product by its ID.
func (h *Handler) DeleteByID(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, h.logger)
	if !ok {
		return
	}
	if err := h.service.DeleteByID(r.Context(), id); err != nil {
		h.respondServiceError(w, r, err, msgDeleteNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, h.logger)
	if !ok {
		return
	}
	count, ok := web.ParseValidateGt(r, w, h.logger, "count", 0)
	if !ok {
		return
	}
	availability, err := h.service.CheckAvailability(r.Context(), id, count)
	if err != nil {
		h.respondServiceError(w, r, err, fmt.Sprintf("Product id %d doesn't exist", id))
		return
	}
	web.RespondJSON(w, h.logger, http.StatusOK, availability)
}

func (h *Handler) FindAllSortedByPrice(w http.ResponseWriter, r *http.Request) {
	rawOrder := r.URL.Query().Get("order")
	order, ok := ParseOrder(rawOrder)
	if !ok {
		web.RespondError(w, r, h.logger, http.StatusBadRequest, fmt.Sprintf("Invalid order value: %s, expected ASC or DESC", rawOrder))
		return
	}
	list, err := h.service.FindAllSortedByPrice(r.Context(), order)
	if err != nil {
		h.respondServiceError(w, r, err, "")
		return
	}
	web.RespondJSON(w, h.logger, http.StatusOK, list)
}

// HealthCheck is a simple liveness endpoint.
func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// ParseOrder reads the order query parameter, case-insensitively. Empty means ascending.
func ParseOrder(value string) (store.SortOrder, bool) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "", "ASC":
		return store.Ascending, true
	case "DESC":
		return store.Descending, true
	default:
		return store.Ascending, false
	}
}

// decodeBatch reads a JSON array of products and checks every item carries the required fields.
func (h *Handler) decodeBatch(w http.ResponseWriter, r *http.Request) ([]service.ProductDto, bool) {
	var products []*service.ProductDto
	if err := json.NewDecoder(r.Body).Decode(&products); err != nil {
		h.logger.WarnContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, r, h.logger, http.StatusBadRequest, msgInvalidBody)
		return nil, false
	}
	if len(products) == 0 {
		web.RespondError(w, r, h.logger, http.StatusBadRequest, msgEmptyBatch)
		return nil, false
	}
	batch := make([]service.ProductDto, 0, len(products))
	for i, p := range products {
		if p == nil {
			h.logger.WarnContext(r.Context(), "Validation errors occurred", "index", i, "errors", "null item")
			web.RespondError(w, r, h.logger, http.StatusBadRequest, msgMissingFields)
			return nil, false
		}
		if err := h.validate.Struct(p); err != nil {
			var validationErrors validator.ValidationErrors
			if errors.As(err, &validationErrors) {
				errorResponse := make(map[string]string)
				for _, fieldErr := range validationErrors {
					errorResponse[fieldErr.Field()] = "failed on rule: " + fieldErr.Tag()
				}
				h.logger.WarnContext(r.Context(), "Validation errors occurred", "index", i, "errors", errorResponse)
			} else {
				h.logger.ErrorContext(r.Context(), "Error validating request body", "error", err)
			}
			web.RespondError(w, r, h.logger, http.StatusBadRequest, msgMissingFields)
			return nil, false
		}
		batch = append(batch, *p)
	}
	return batch, true
}

// respondServiceError maps the error taxonomy onto status codes.
// notFoundMessage replaces the error text for 404 answers when set.
func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, err error, notFoundMessage string) {
	ctx := r.Context()
	switch {
	case errors.Is(err, producterrors.ErrInvalidInput):
		h.logger.WarnContext(ctx, "Rejected invalid input", "error", err)
		web.RespondError(w, r, h.logger, http.StatusBadRequest, err.Error())
	case errors.Is(err, producterrors.ErrProductNotFound):
		h.logger.WarnContext(ctx, "Product not found", "error", err)
		if notFoundMessage == "" {
			notFoundMessage = err.Error()
		}
		web.RespondError(w, r, h.logger, http.StatusNotFound, notFoundMessage)
	case errors.Is(err, producterrors.ErrProductExists):
		h.logger.WarnContext(ctx, "Product id already taken", "error", err)
		web.RespondError(w, r, h.logger, http.StatusConflict, err.Error())
	default:
		h.logger.ErrorContext(ctx, "Request failed", "error", err)
		web.RespondError(w, r, h.logger, http.StatusInternalServerError, err.Error())
	}
}
