// Package validation holds the pure input checks for products and sales.
// Product checks accumulate every failure; sale checks stop at the first one.
package validation

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cast"
)

// Validator instance
var validate = validator.New()

const (
	MsgNameInvalid        = "name must be a string with at least 2 characters"
	MsgPriceRequired      = "price is required"
	MsgPriceNotNumber     = "price must be a number"
	MsgPriceNegative      = "price must be greater than or equal to 0"
	MsgDescriptionInvalid = "description must be a string"
	MsgProductIDInvalid   = "productId must be a positive integer"
	MsgQuantityInvalid    = "quantity must be a positive integer"
	MsgTotalInvalid       = "total must be a number greater than or equal to 0"
	maxExactInteger       = 1 << 53
)

// FieldError is the first failing sale rule.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *FieldError) Error() string {
	return e.Message
}

// passes runs a single validator tag against value.
func passes(value interface{}, tag string) bool {
	return validate.Var(value, tag) == nil
}

// toNumber coerces JSON numbers, Go numerics and numeric strings to a finite
// float64. Booleans and blanks are not numbers.
func toNumber(v interface{}) (float64, bool) {
	var (
		f   float64
		err error
	)

	switch x := v.(type) {
	case nil, bool:
		return 0, false
	case json.Number:
		f, err = x.Float64()
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, false
		}
		f, err = cast.ToFloat64E(s)
	default:
		f, err = cast.ToFloat64E(x)
	}

	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// toInteger accepts only numbers without a fractional part.
func toInteger(v interface{}) (int64, bool) {
	f, ok := toNumber(v)
	if !ok || f != math.Trunc(f) || math.Abs(f) > maxExactInteger {
		return 0, false
	}
	return int64(f), true
}

// isBlank treats absent values and whitespace-only strings as missing.
func isBlank(v interface{}) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}
