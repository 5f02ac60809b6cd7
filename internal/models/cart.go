package models

type Cart struct {
	ID       string     `json:"id"`
	Products []CartItem `json:"products"`
}

// CartItem is a populated cart line. Product is the zero value when the
// referenced product no longer exists.
type CartItem struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

func (i CartItem) Subtotal() float64 {
	return i.Product.Price * float64(i.Quantity)
}

func (c Cart) Total() float64 {
	total := 0.0
	for _, item := range c.Products {
		total += item.Subtotal()
	}
	return total
}

func (c Cart) Count() int {
	n := 0
	for _, item := range c.Products {
		n += item.Quantity
	}
	return n
}
