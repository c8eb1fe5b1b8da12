package validation

import "strings"

// ValidateProduct checks the raw create-product fields and returns every
// failing rule. A nil value means the field was absent.
func ValidateProduct(name, price, description interface{}) []string {
	errs := []string{}

	if s, ok := name.(string); !ok || !passes(strings.TrimSpace(s), "min=2") {
		errs = append(errs, MsgNameInvalid)
	}

	if isBlank(price) {
		errs = append(errs, MsgPriceRequired)
	} else if p, ok := toNumber(price); !ok {
		errs = append(errs, MsgPriceNotNumber)
	} else if !passes(p, "gte=0") {
		errs = append(errs, MsgPriceNegative)
	}

	if description != nil {
		if _, ok := description.(string); !ok {
			errs = append(errs, MsgDescriptionInvalid)
		}
	}

	return errs
}

// ParsePrice returns the numeric price of an already validated input.
func ParsePrice(price interface{}) float64 {
	p, _ := toNumber(price)
	return p
}
