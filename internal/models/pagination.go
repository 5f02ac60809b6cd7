package models

// ProductPage is one page of a product listing together with the
// pagination metadata the views render.
type ProductPage struct {
	Products    []Product `json:"products"`
	TotalDocs   int       `json:"totalDocs"`
	Limit       int       `json:"limit"`
	Page        int       `json:"page"`
	TotalPages  int       `json:"totalPages"`
	HasPrevPage bool      `json:"hasPrevPage"`
	HasNextPage bool      `json:"hasNextPage"`
	PrevPage    int       `json:"prevPage,omitempty"`
	NextPage    int       `json:"nextPage,omitempty"`
}

// NewProductPage computes the metadata for page opts.Page of a listing with
// total documents. totalPages is never below 1.
func NewProductPage(products []Product, total int, opts QueryOptions) ProductPage {
	opts = opts.Normalized()
	if products == nil {
		products = []Product{}
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages < 1 {
		totalPages = 1
	}

	p := ProductPage{
		Products:    products,
		TotalDocs:   total,
		Limit:       opts.Limit,
		Page:        opts.Page,
		TotalPages:  totalPages,
		HasPrevPage: opts.Page > 1,
		HasNextPage: opts.Page < totalPages,
	}
	if p.HasPrevPage {
		p.PrevPage = opts.Page - 1
	}
	if p.HasNextPage {
		p.NextPage = opts.Page + 1
	}
	return p
}
