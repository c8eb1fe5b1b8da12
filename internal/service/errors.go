package service

import (
	"errors"
	"strings"
)

var (
	ErrProductInactive = errors.New("product is not active")
)

// ValidationError carries every failing input rule of a request.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Errors, "; ")
}
