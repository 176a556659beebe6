package normalize

import "github.com/vencebem/vencebem-go/core"

// The backend does not guarantee which of two shapes a cart-returning
// endpoint produces: a single per-store cart object, or a container of
// several per-store carts plus a grand total. The shape is discriminated
// exactly once, here; downstream code operates on the flattened views and
// never re-inspects the raw payload.

// CartKind discriminates the resolved cart shape.
type CartKind int

const (
	// CartEmpty means the customer holds no cart
	CartEmpty CartKind = iota
	// CartSingle means one per-store cart
	CartSingle
	// CartMulti means concurrent carts across more than one store
	CartMulti
)

// CartResult is the tagged union produced by ResolveCart.
type CartResult struct {
	Kind  CartKind
	Cart  core.Cart   // populated when Kind == CartSingle
	Carts []core.Cart // populated when Kind == CartMulti
	Total float64
}

// EmptyCartResult returns the canonical empty-cart shape.
func EmptyCartResult() CartResult {
	return CartResult{Kind: CartEmpty}
}

// ResolveCart disambiguates the raw cart response shape:
//
//  1. a "carts" array means a multi-store container,
//  2. no "items" and no "id" means an empty cart,
//  3. anything else is a single cart.
//
// A null "items" value counts as absent.
func ResolveCart(raw map[string]interface{}) CartResult {
	if raw == nil {
		return EmptyCartResult()
	}

	if cartsVal, ok := raw["carts"]; ok {
		if entries, ok := cartsVal.([]interface{}); ok {
			carts := make([]core.Cart, 0, len(entries))
			for _, entry := range entries {
				if cartRaw, ok := entry.(map[string]interface{}); ok {
					carts = append(carts, Cart(cartRaw))
				}
			}
			total := number(raw, "total", "valor_total")
			if total == 0 {
				for _, c := range carts {
					total += c.Total
				}
			}
			return CartResult{Kind: CartMulti, Carts: carts, Total: total}
		}
	}

	hasItems := raw["items"] != nil || raw["itens"] != nil
	hasID := raw["id"] != nil
	if !hasItems && !hasID {
		return EmptyCartResult()
	}

	cart := Cart(raw)
	return CartResult{Kind: CartSingle, Cart: cart, Total: cart.Total}
}

// CartsArray flattens the union into a plain slice of carts: empty slice,
// [cart], or the multi container's carts.
func (r CartResult) CartsArray() []core.Cart {
	switch r.Kind {
	case CartSingle:
		return []core.Cart{r.Cart}
	case CartMulti:
		return r.Carts
	default:
		return []core.Cart{}
	}
}

// Items flattens all carts into a single item list, used for lookups.
func (r CartResult) Items() []core.CartItem {
	items := []core.CartItem{}
	for _, cart := range r.CartsArray() {
		items = append(items, cart.Items...)
	}
	return items
}

// ItemCount returns the sum of quantities across all carts.
func (r CartResult) ItemCount() int {
	count := 0
	for _, item := range r.Items() {
		count += item.Quantity
	}
	return count
}

// FindItem looks up a batch in any of the carts and reports its quantity.
func (r CartResult) FindItem(batchID string) (core.CartItem, bool) {
	for _, item := range r.Items() {
		if item.BatchID == batchID {
			return item, true
		}
	}
	return core.CartItem{}, false
}

// IsEmpty reports whether the result holds no items at all.
func (r CartResult) IsEmpty() bool {
	return r.Kind == CartEmpty || len(r.Items()) == 0
}

// DropEmptyCarts removes sub-carts with no items from a multi result.
// When every sub-cart is empty the canonical empty shape is returned.
// Single and empty results pass through, except a single cart with no
// items which also collapses to empty.
func (r CartResult) DropEmptyCarts() CartResult {
	switch r.Kind {
	case CartMulti:
		kept := make([]core.Cart, 0, len(r.Carts))
		total := 0.0
		for _, cart := range r.Carts {
			if len(cart.Items) > 0 {
				kept = append(kept, cart)
				total += cart.Total
			}
		}
		if len(kept) == 0 {
			return EmptyCartResult()
		}
		return CartResult{Kind: CartMulti, Carts: kept, Total: total}
	case CartSingle:
		if len(r.Cart.Items) == 0 {
			return EmptyCartResult()
		}
		return r
	default:
		return r
	}
}
