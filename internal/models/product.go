package models

type Product struct {
	ID          string   `json:"id"`
	Title       string   `json:"title" binding:"required"`
	Description string   `json:"description" binding:"required"`
	Price       float64  `json:"price" binding:"required,gt=0"`
	Thumbnails  []string `json:"thumbnails"`
	Code        string   `json:"code" binding:"required"`
	Stock       int      `json:"stock" binding:"gte=0"`
	Category    string   `json:"category" binding:"required"`
	Status      bool     `json:"status"`
}

// ProductUpdate carries the fields a PUT may change. Nil fields are left as is.
type ProductUpdate struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Price       *float64  `json:"price" binding:"omitempty,gt=0"`
	Thumbnails  *[]string `json:"thumbnails"`
	Code        *string   `json:"code"`
	Stock       *int      `json:"stock" binding:"omitempty,gte=0"`
	Category    *string   `json:"category"`
	Status      *bool     `json:"status"`
}

// Apply copies the non-nil fields of u onto p.
func (u ProductUpdate) Apply(p *Product) {
	if u.Title != nil {
		p.Title = *u.Title
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.Price != nil {
		p.Price = *u.Price
	}
	if u.Thumbnails != nil {
		p.Thumbnails = *u.Thumbnails
	}
	if u.Code != nil {
		p.Code = *u.Code
	}
	if u.Stock != nil {
		p.Stock = *u.Stock
	}
	if u.Category != nil {
		p.Category = *u.Category
	}
	if u.Status != nil {
		p.Status = *u.Status
	}
}

// Validate reports the first missing required field, or "" when p is complete.
func (p Product) Validate() string {
	switch {
	case p.Title == "":
		return "title"
	case p.Description == "":
		return "description"
	case p.Code == "":
		return "code"
	case p.Category == "":
		return "category"
	case p.Price <= 0:
		return "price"
	case p.Stock < 0:
		return "stock"
	}
	return ""
}
