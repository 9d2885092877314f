package domain

// The reducers below take the current collection and return the next one.
// They never write into the input slice, so a snapshot handed to observers
// or to the store stays valid after later mutations.

func indexOf(items []CartItem, id string) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a copy that shares no backing array with items.
// A nil or empty input yields an empty, non-nil slice.
func Clone(items []CartItem) []CartItem {
	out := make([]CartItem, len(items))
	copy(out, items)
	return out
}

// AddToCart bumps the quantity of an existing line or appends p with quantity 1.
// An existing line keeps its first-seen title, image and price.
func AddToCart(items []CartItem, p Product) []CartItem {
	i := indexOf(items, p.ID)
	if i < 0 {
		out := make([]CartItem, len(items), len(items)+1)
		copy(out, items)
		return append(out, newItem(p))
	}

	out := Clone(items)
	out[i].Quantity++
	return out
}

// Increment reports false and returns items unchanged when id is not in the cart.
func Increment(items []CartItem, id string) ([]CartItem, bool) {
	i := indexOf(items, id)
	if i < 0 {
		return items, false
	}

	out := Clone(items)
	out[i].Quantity++
	return out, true
}

// Decrement lowers the quantity of id by one, removing the line when it would reach zero.
func Decrement(items []CartItem, id string) ([]CartItem, bool) {
	i := indexOf(items, id)
	if i < 0 {
		return items, false
	}

	if items[i].Quantity > 1 {
		out := Clone(items)
		out[i].Quantity--
		return out, true
	}

	out := make([]CartItem, 0, len(items)-1)
	out = append(out, items[:i]...)
	out = append(out, items[i+1:]...)
	return out, true
}

// Normalize drops lines with an empty id or a quantity below 1 and keeps
// only the first line for a repeated id. dropped counts the discarded lines.
func Normalize(items []CartItem) (out []CartItem, dropped int) {
	out = make([]CartItem, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if item.ID == "" || item.Quantity < 1 {
			dropped++
			continue
		}
		if _, ok := seen[item.ID]; ok {
			dropped++
			continue
		}
		seen[item.ID] = struct{}{}
		out = append(out, item)
	}
	return out, dropped
}
