// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import "smartsupply/internal/domain/gate"

// Envelope wraps every API response.
type Envelope struct {
	Success  bool       `json:"success"`
	Data     any        `json:"data,omitempty"`
	Message  string     `json:"message,omitempty"`
	GateType gate.Tier  `json:"gate_type,omitempty"`
	Error    *ErrorBody `json:"error,omitempty"`
}

// ErrorBody is the machine-readable part of a failed response.
type ErrorBody struct {
	Code    string         `json:"code"`
	Details map[string]any `json:"details,omitempty"`
}

// ListFilter contains catalog list parameters.
type ListFilter struct {
	Search   string `form:"search"`
	Category string `form:"category"`
	Region   string `form:"region"`
	Limit    int    `form:"limit" binding:"omitempty,min=1,max=500"`
	Offset   int    `form:"offset" binding:"omitempty,min=0"`
}

// ListResponse wraps list results.
type ListResponse[T any] struct {
	Items []T `json:"items"`
	Count int `json:"count"`
}

// NewListResponse never renders a null items array.
func NewListResponse[T any](items []T) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Items: items, Count: len(items)}
}
