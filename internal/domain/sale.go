package domain

import "time"

// Sale is a recorded transaction against one product
type Sale struct {
	ID        int64     `json:"id" db:"id"`
	ProductID int64     `json:"productId" db:"product_id"`
	Quantity  int64     `json:"quantity" db:"quantity"`
	Total     float64   `json:"total" db:"total"`
	SaleDate  time.Time `json:"saleDate" db:"sale_date"`
}

// SaleDetail is a sale joined with the name and photo of its product
type SaleDetail struct {
	Sale
	ProductName  string  `json:"productName" db:"name"`
	ProductPhoto *string `json:"productPhoto" db:"photo"`
}

// Pagination describes one page of a counted listing
type Pagination struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Pages int `json:"pages"`
}

// NewPagination computes the page count as ceil(total/limit).
func NewPagination(total, page, limit int) Pagination {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return Pagination{Total: total, Page: page, Limit: limit, Pages: pages}
}

// SalePage is one page of the sales listing
type SalePage struct {
	Data       []*SaleDetail `json:"data"`
	Pagination Pagination    `json:"pagination"`
}
