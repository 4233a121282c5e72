package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/item-catalog/internal/middleware"
	"github.com/vyrodovalexey/item-catalog/internal/model"
	"github.com/vyrodovalexey/item-catalog/internal/optional"
	"github.com/vyrodovalexey/item-catalog/internal/service"
	"github.com/vyrodovalexey/item-catalog/internal/store"
)

// Search query parameters.
const (
	paramName     = "name"
	paramMinPrice = "minPrice"
	paramMaxPrice = "maxPrice"
)

var errInvalidID = errors.New("invalid item ID")

// EventPublisher receives item change events after successful mutations.
type EventPublisher interface {
	Publish(event model.ItemEvent)
}

// RESTHandler handles REST API requests for items.
type RESTHandler struct {
	catalog service.Catalog
	events  EventPublisher
	logger  *zap.Logger
}

// NewRESTHandler creates a new RESTHandler instance. events may be nil.
func NewRESTHandler(catalog service.Catalog, events EventPublisher, logger *zap.Logger) *RESTHandler {
	return &RESTHandler{
		catalog: catalog,
		events:  events,
		logger:  logger,
	}
}

// RegisterRoutes registers the REST API routes with the router.
func (h *RESTHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/items", h.ListItems).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/items", h.CreateItem).Methods(http.MethodPost)
	// Must precede the {id} routes.
	router.HandleFunc("/api/v1/items/search", h.SearchItems).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/items/{id}", h.GetItem).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/items/{id}", h.UpdateItem).Methods(http.MethodPut)
	router.HandleFunc("/api/v1/items/{id}", h.DeleteItem).Methods(http.MethodDelete)
}

// HealthCheck handles GET /health requests.
func (h *RESTHandler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, healthy())
}

// ListItems handles GET /api/v1/items requests.
func (h *RESTHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.catalog.List(r.Context())
	if err != nil {
		h.handleStoreError(w, r, err, "list items")
		return
	}

	h.writeJSON(w, http.StatusOK, model.NewListResponse(items))
}

// SearchItems handles GET /api/v1/items/search requests.
func (h *RESTHandler) SearchItems(w http.ResponseWriter, r *http.Request) {
	filter, err := parseSearchFilter(r.URL.Query())
	if err != nil {
		h.log(r).Warn("invalid search parameters", zap.Error(err))
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, err := h.catalog.Search(r.Context(), filter)
	if err != nil {
		h.handleStoreError(w, r, err, "search items")
		return
	}

	h.writeJSON(w, http.StatusOK, model.NewListResponse(items))
}

// GetItem handles GET /api/v1/items/{id} requests.
func (h *RESTHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	found, err := h.catalog.GetByID(r.Context(), id)
	if err != nil {
		h.handleStoreError(w, r, err, "get item")
		return
	}

	item, ok := found.Get()
	if !ok {
		h.writeError(w, http.StatusNotFound, "item not found")
		return
	}

	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(item))
}

// CreateItem handles POST /api/v1/items requests.
func (h *RESTHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	input, ok := h.decodeInput(w, r)
	if !ok {
		return
	}

	item, err := h.catalog.Create(r.Context(), input.Item())
	if err != nil {
		h.handleStoreError(w, r, err, "create item")
		return
	}

	h.publish(model.EventItemCreated, item.ID, &item)
	h.writeJSON(w, http.StatusCreated, model.NewSuccessResponse(item))
}

// UpdateItem handles PUT /api/v1/items/{id} requests.
func (h *RESTHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	input, ok := h.decodeInput(w, r)
	if !ok {
		return
	}

	if !h.exists(w, r, id, "update item") {
		return
	}

	item, err := h.catalog.Update(r.Context(), id, input.Item())
	if err != nil {
		h.handleStoreError(w, r, err, "update item")
		return
	}

	h.publish(model.EventItemUpdated, item.ID, &item)
	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(item))
}

// DeleteItem handles DELETE /api/v1/items/{id} requests.
func (h *RESTHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if !h.exists(w, r, id, "delete item") {
		return
	}

	if err := h.catalog.Delete(r.Context(), id); err != nil {
		h.handleStoreError(w, r, err, "delete item")
		return
	}

	h.publish(model.EventItemDeleted, id, nil)
	h.writeJSON(w, http.StatusNoContent, nil)
}

// exists writes a 404 or error response and returns false unless the item
// with the given id is stored.
func (h *RESTHandler) exists(w http.ResponseWriter, r *http.Request, id int64, operation string) bool {
	found, err := h.catalog.GetByID(r.Context(), id)
	if err != nil {
		h.handleStoreError(w, r, err, operation)
		return false
	}
	if !found.IsPresent() {
		h.writeError(w, http.StatusNotFound, "item not found")
		return false
	}
	return true
}

func (h *RESTHandler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, errInvalidID.Error())
		return 0, false
	}
	return id, true
}

func (h *RESTHandler) decodeInput(w http.ResponseWriter, r *http.Request) (model.ItemInput, bool) {
	var input model.ItemInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.log(r).Warn("invalid request body", zap.Error(err))
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return input, false
	}

	if err := input.Validate(); err != nil {
		h.log(r).Warn("validation failed", zap.Error(err))
		h.writeError(w, http.StatusBadRequest, err.Error())
		return input, false
	}

	return input, true
}

func (h *RESTHandler) log(r *http.Request) *zap.Logger {
	return middleware.Logger(r.Context(), h.logger)
}

func (h *RESTHandler) publish(eventType string, id int64, item *model.Item) {
	if h.events == nil {
		return
	}
	h.events.Publish(model.NewItemEvent(eventType, id, item))
}

// parseSearchFilter reads the search parameters. name is present whenever
// its key is, even with an empty value; prices are present when non-empty.
func parseSearchFilter(query url.Values) (service.SearchFilter, error) {
	var filter service.SearchFilter

	if _, ok := query[paramName]; ok {
		filter.Name = optional.Some(query.Get(paramName))
	}

	var err error
	if filter.MinPrice, err = parsePrice(query, paramMinPrice); err != nil {
		return filter, err
	}
	if filter.MaxPrice, err = parsePrice(query, paramMaxPrice); err != nil {
		return filter, err
	}

	return filter, nil
}

func parsePrice(query url.Values, key string) (optional.Option[float64], error) {
	raw := query.Get(key)
	if raw == "" {
		return optional.None[float64](), nil
	}

	price, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(price) || math.IsInf(price, 0) {
		return optional.None[float64](), fmt.Errorf("invalid %s: %q", key, raw)
	}
	return optional.Some(price), nil
}

// handleStoreError handles store errors and writes appropriate HTTP responses.
func (h *RESTHandler) handleStoreError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	log := h.log(r).With(zap.String("operation", operation), zap.Error(err))
	switch {
	case errors.Is(err, store.ErrUnavailable):
		log.Error("storage unavailable")
		h.writeError(w, http.StatusServiceUnavailable, "storage unavailable")
	default:
		log.Error("store operation failed")
		h.writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func (h *RESTHandler) writeJSON(w http.ResponseWriter, status int, data any) {
	writeJSON(w, h.logger, status, data)
}

// writeError writes an error response with the given status code and message.
func (h *RESTHandler) writeError(w http.ResponseWriter, status int, message string) {
	response := model.ErrorResponse{
		Code:    status,
		Message: message,
	}
	h.writeJSON(w, status, response)
}
