package v1

import (
	ez_uuid "github.com/cofrinho/backend/internal/uuid"
)

type URIID struct {
	ID ez_uuid.UUID `uri:"id" binding:"required" format:"UUID"` // ID of the resource
}

// ResourceResponse wraps a single resource.
type ResourceResponse[T any] struct {
	Data T `json:"data"`
}

// ListResponse wraps a list of resources.
type ListResponse[T any] struct {
	Data []T `json:"data"`
}
