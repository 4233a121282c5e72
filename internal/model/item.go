// Package model defines data structures used throughout the application.
package model

import (
	"errors"
	"time"
	"unicode/utf8"
)

// Validation errors for Item input.
var (
	ErrEmptyName     = errors.New("name cannot be empty")
	ErrNameTooLong   = errors.New("name cannot exceed 200 characters")
	ErrMissingPrice  = errors.New("price is required")
	ErrImageTooLong  = errors.New("image cannot exceed 500 characters")
	ErrMissingFields = errors.New("name and price are required")
)

// Column limits.
const (
	MaxNameLength  = 200
	MaxImageLength = 500
)

// Item is a catalog entry. ID is zero until storage assigns one.
type Item struct {
	ID    int64   `json:"id,omitempty" yaml:"id,omitempty"`
	Name  string  `json:"name" yaml:"name"`
	Price float64 `json:"price" yaml:"price"`
	Image *string `json:"image,omitempty" yaml:"image,omitempty"`
}

// ItemInput is the payload accepted on create and update. Pointer fields
// distinguish a missing value from a zero value.
type ItemInput struct {
	ID    *int64   `json:"id,omitempty" yaml:"id,omitempty"`
	Name  *string  `json:"name" yaml:"name"`
	Price *float64 `json:"price" yaml:"price"`
	Image *string  `json:"image,omitempty" yaml:"image,omitempty"`
}

// Validate checks required fields and column limits.
func (in *ItemInput) Validate() error {
	if in.Name == nil && in.Price == nil {
		return ErrMissingFields
	}

	if in.Name == nil || *in.Name == "" {
		return ErrEmptyName
	}

	if utf8.RuneCountInString(*in.Name) > MaxNameLength {
		return ErrNameTooLong
	}

	if in.Price == nil {
		return ErrMissingPrice
	}

	if in.Image != nil && utf8.RuneCountInString(*in.Image) > MaxImageLength {
		return ErrImageTooLong
	}

	return nil
}

// Item converts the input into an Item. The identifier is carried over
// as-is; callers decide whether it is honoured.
func (in *ItemInput) Item() Item {
	var item Item
	if in.ID != nil {
		item.ID = *in.ID
	}
	if in.Name != nil {
		item.Name = *in.Name
	}
	if in.Price != nil {
		item.Price = *in.Price
	}
	if in.Image != nil {
		image := *in.Image
		item.Image = &image
	}
	return item
}

// APIResponse is a generic wrapper for API responses.
type APIResponse[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitzero"`
	Error   string `json:"error,omitempty"`
}

// NewSuccessResponse creates a successful API response.
func NewSuccessResponse[T any](data T) APIResponse[T] {
	return APIResponse[T]{
		Success: true,
		Data:    data,
	}
}

// NewListResponse wraps a list of items. An empty list is encoded as [].
func NewListResponse(items []Item) APIResponse[[]Item] {
	if items == nil {
		items = []Item{}
	}
	return NewSuccessResponse(items)
}

// NewErrorResponse creates an error API response.
func NewErrorResponse[T any](errMsg string) APIResponse[T] {
	return APIResponse[T]{
		Success: false,
		Error:   errMsg,
	}
}

// ErrorResponse represents an error response structure.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Item change event types.
const (
	EventItemCreated = "created"
	EventItemUpdated = "updated"
	EventItemDeleted = "deleted"
)

// ItemEvent is pushed to change feed subscribers after a mutation.
type ItemEvent struct {
	Type      string    `json:"type"`
	ItemID    int64     `json:"item_id"`
	Item      *Item     `json:"item,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewItemEvent creates an event of the given type. Item is nil for deletions.
func NewItemEvent(eventType string, id int64, item *Item) ItemEvent {
	return ItemEvent{
		Type:      eventType,
		ItemID:    id,
		Item:      item,
		Timestamp: time.Now().UTC(),
	}
}
