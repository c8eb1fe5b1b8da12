package validation

// SaleFields is a validated create-sale payload.
type SaleFields struct {
	ProductID int64
	Quantity  int64
	Total     float64
}

type saleRule struct {
	field   string
	message string
	check   func(v interface{}, out *SaleFields) bool
}

// Order matters: the first failing rule is reported.
var saleRules = []saleRule{
	{
		field:   "productId",
		message: MsgProductIDInvalid,
		check: func(v interface{}, out *SaleFields) bool {
			id, ok := toInteger(v)
			out.ProductID = id
			return ok && passes(id, "gt=0")
		},
	},
	{
		field:   "quantity",
		message: MsgQuantityInvalid,
		check: func(v interface{}, out *SaleFields) bool {
			q, ok := toInteger(v)
			out.Quantity = q
			return ok && passes(q, "gt=0")
		},
	},
	{
		field:   "total",
		message: MsgTotalInvalid,
		check: func(v interface{}, out *SaleFields) bool {
			total, ok := toNumber(v)
			out.Total = total
			return ok && passes(total, "gte=0")
		},
	},
}

// ValidateSale checks productId, quantity and total in that order and stops
// at the first failure.
func ValidateSale(productID, quantity, total interface{}) (SaleFields, error) {
	var out SaleFields
	values := []interface{}{productID, quantity, total}

	for i, rule := range saleRules {
		if !rule.check(values[i], &out) {
			return SaleFields{}, &FieldError{Field: rule.field, Message: rule.message}
		}
	}

	return out, nil
}
