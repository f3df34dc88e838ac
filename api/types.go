package api

import (
	"github.com/google/uuid"
	openapi_types "github.com/oapi-codegen/runtime/types"
)

// TypesUUID is the identifier type used in API payloads
type TypesUUID = openapi_types.UUID

// ParseUUID converts a string to a TypesUUID
func ParseUUID(s string) (TypesUUID, error) {
	parsed, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, err
	}
	return parsed, nil
}

// ErrorBody is the JSON body of every error response
type ErrorBody struct {
	Error string `json:"error"`
}
