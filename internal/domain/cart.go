package domain

// Product is a catalog entry offered to the cart. It carries no quantity.
type Product struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	ImageURL string  `json:"image_url"`
	Price    float64 `json:"price"`
}

// CartItem is one line of the cart. Values are never modified in place;
// reducers return fresh copies.
type CartItem struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	ImageURL string  `json:"image_url"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

type Summary struct {
	Lines    int     `json:"lines"`
	Quantity int     `json:"quantity"`
	Total    float64 `json:"total"`
}

func newItem(p Product) CartItem {
	return CartItem{
		ID:       p.ID,
		Title:    p.Title,
		ImageURL: p.ImageURL,
		Price:    p.Price,
		Quantity: 1,
	}
}

// Summarize returns line count, total units and the cart total.
func Summarize(items []CartItem) Summary {
	s := Summary{Lines: len(items)}
	for _, item := range items {
		s.Quantity += item.Quantity
		s.Total += item.Price * float64(item.Quantity)
	}
	return s
}
