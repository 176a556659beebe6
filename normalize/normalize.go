// Package normalize maps raw backend payloads into the canonical client
// schema. The backend is mid-migration between two naming dialects (mixed
// Portuguese/English keys, singular/plural relation names); every mapping
// here is a first-match-wins precedence chain with the canonical English
// key listed first, so normalizing an already-normalized entity is a
// no-op. All functions are pure and never panic on missing fields: a
// missing relation yields a nil pointer, a missing scalar yields the zero
// value.
package normalize

import (
	"math"
	"strconv"

	"github.com/vencebem/vencebem-go/core"
)

// str returns the first string value found under the given keys.
func str(raw map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		v, ok := raw[key]
		if !ok || v == nil {
			continue
		}
		switch s := v.(type) {
		case string:
			return s
		case float64:
			// IDs occasionally arrive as numbers
			if s == math.Trunc(s) {
				return strconv.FormatFloat(s, 'f', 0, 64)
			}
			return strconv.FormatFloat(s, 'f', -1, 64)
		}
	}
	return ""
}

// number returns the first numeric value found under the given keys.
// Numeric strings are tolerated because the backend emits them for some
// price fields.
func number(raw map[string]interface{}, keys ...string) float64 {
	for _, key := range keys {
		v, ok := raw[key]
		if !ok || v == nil {
			continue
		}
		switch n := v.(type) {
		case float64:
			return n
		case int:
			return float64(n)
		case string:
			if parsed, err := strconv.ParseFloat(n, 64); err == nil {
				return parsed
			}
		}
	}
	return 0
}

// integer is number truncated to int, for quantity/stock fields.
func integer(raw map[string]interface{}, keys ...string) int {
	return int(number(raw, keys...))
}

// boolean returns the first boolean value found under the given keys.
// The backend also encodes flags as "true"/"false" strings and 0/1.
func boolean(raw map[string]interface{}, keys ...string) bool {
	for _, key := range keys {
		v, ok := raw[key]
		if !ok || v == nil {
			continue
		}
		switch b := v.(type) {
		case bool:
			return b
		case string:
			return b == "true" || b == "1"
		case float64:
			return b != 0
		}
	}
	return false
}

// object returns the first nested object found under the given keys.
// Plural relation keys sometimes hold a single-element array instead of
// an object; the first element is unwrapped in that case.
func object(raw map[string]interface{}, keys ...string) map[string]interface{} {
	for _, key := range keys {
		v, ok := raw[key]
		if !ok || v == nil {
			continue
		}
		switch o := v.(type) {
		case map[string]interface{}:
			return o
		case []interface{}:
			if len(o) > 0 {
				if first, ok := o[0].(map[string]interface{}); ok {
					return first
				}
			}
		}
	}
	return nil
}

// list returns the first array found under the given keys.
func list(raw map[string]interface{}, keys ...string) []interface{} {
	for _, key := range keys {
		v, ok := raw[key]
		if !ok || v == nil {
			continue
		}
		if l, ok := v.([]interface{}); ok {
			return l
		}
	}
	return nil
}

// DiscountPercent reconciles the server-reported discount with the two
// prices. A zero, absent or NaN server value is recomputed from the
// prices when original > promo; the result is clamped to [0, 100].
func DiscountPercent(reported, originalPrice, promoPrice float64) float64 {
	discount := reported
	if discount == 0 || math.IsNaN(discount) {
		if originalPrice > promoPrice && originalPrice > 0 {
			discount = (originalPrice - promoPrice) / originalPrice * 100
		} else {
			discount = 0
		}
	}
	if discount < 0 {
		return 0
	}
	if discount > 100 {
		return 100
	}
	return discount
}

// Batch normalizes a batch payload from either dialect.
func Batch(raw map[string]interface{}) core.Batch {
	if raw == nil {
		return core.Batch{}
	}

	b := core.Batch{
		ID:             str(raw, "id", "batch_id", "lote_id"),
		ProductID:      str(raw, "product_id", "produto_id"),
		StoreID:        str(raw, "store_id", "loja_id"),
		OriginalPrice:  number(raw, "original_price", "preco_original"),
		PromoPrice:     number(raw, "promo_price", "preco_promocional"),
		ExpirationDate: str(raw, "expiration_date", "data_validade", "validade"),
		// Availability fallback chain: explicit stock -> disponivel -> estoque_total -> 0
		Stock:  integer(raw, "stock", "disponivel", "estoque_total"),
		Active: batchActive(raw),
	}
	b.DiscountPercent = DiscountPercent(
		number(raw, "discount_percent", "desconto_percentual"),
		b.OriginalPrice, b.PromoPrice,
	)

	if p := object(raw, "product", "products", "produto"); p != nil {
		product := Product(p)
		b.Product = &product
		if b.ProductID == "" {
			b.ProductID = product.ID
		}
	}
	if s := object(raw, "store", "stores", "loja"); s != nil {
		store := Store(s)
		b.Store = &store
		if b.StoreID == "" {
			b.StoreID = store.ID
		}
	}
	return b
}

func batchActive(raw map[string]interface{}) bool {
	for _, key := range []string{"active", "ativo"} {
		if _, ok := raw[key]; ok {
			return boolean(raw, key)
		}
	}
	if status := str(raw, "status"); status != "" {
		return status == "active" || status == "ativo"
	}
	// No flag at all: treat the batch as sellable
	return true
}

// Product normalizes a product payload from either dialect.
func Product(raw map[string]interface{}) core.Product {
	if raw == nil {
		return core.Product{}
	}

	p := core.Product{
		ID:          str(raw, "id", "product_id", "produto_id"),
		StoreID:     str(raw, "store_id", "loja_id"),
		Name:        str(raw, "name", "nome"),
		Description: str(raw, "description", "descricao"),
		Category:    str(raw, "category", "categoria"),
		PhotoURL:    str(raw, "photo_url", "foto_url", "imagem_url"),
		PhotoURL2:   str(raw, "photo_url_2", "foto_url_2"),
		BasePrice:   number(raw, "base_price", "price", "preco"),
	}

	if s := object(raw, "store", "stores", "loja"); s != nil {
		store := Store(s)
		p.Store = &store
		if p.StoreID == "" {
			p.StoreID = store.ID
		}
	}
	return p
}

// Store normalizes a store payload from either dialect. When no
// structured hours string is present, hours are synthesized from the
// separate open/close fields as "{open} - {close}".
func Store(raw map[string]interface{}) core.Store {
	if raw == nil {
		return core.Store{}
	}

	s := core.Store{
		ID:          str(raw, "id", "store_id", "loja_id"),
		Name:        str(raw, "name", "nome"),
		Description: str(raw, "description", "descricao"),
		Address:     str(raw, "address", "endereco"),
		City:        str(raw, "city", "cidade"),
		Phone:       str(raw, "phone", "telefone"),
		Hours:       str(raw, "hours", "horario_funcionamento"),
		OpeningTime: str(raw, "opening_time", "horario_abertura"),
		ClosingTime: str(raw, "closing_time", "horario_fechamento"),
		LogoURL:     str(raw, "logo_url", "logo"),
		IsPremium:   boolean(raw, "is_premium", "premium"),
		WalletID:    str(raw, "wallet_id", "recipient_id", "carteira_id"),
	}

	if s.Hours == "" && s.OpeningTime != "" && s.ClosingTime != "" {
		s.Hours = s.OpeningTime + " - " + s.ClosingTime
	}
	return s
}

// CartItem normalizes a cart item payload from either dialect.
func CartItem(raw map[string]interface{}) core.CartItem {
	if raw == nil {
		return core.CartItem{}
	}

	item := core.CartItem{
		ID:       str(raw, "id", "item_id"),
		BatchID:  str(raw, "batch_id", "product_batch_id", "lote_id"),
		Quantity: integer(raw, "quantity", "quantidade"),
	}

	if b := object(raw, "batch", "product_batches", "product_batch", "lote"); b != nil {
		batch := Batch(b)
		item.Batch = &batch
		if item.BatchID == "" {
			item.BatchID = batch.ID
		}
	}
	return item
}

// Cart normalizes a single per-store cart payload. A missing total is
// derived as the sum of promo_price * quantity across the items.
func Cart(raw map[string]interface{}) core.Cart {
	if raw == nil {
		return core.Cart{Items: []core.CartItem{}}
	}

	c := core.Cart{
		ID:      str(raw, "id", "cart_id"),
		StoreID: str(raw, "store_id", "loja_id"),
		Items:   []core.CartItem{},
		Total:   number(raw, "total", "valor_total"),
	}

	for _, entry := range list(raw, "items", "itens", "cart_items") {
		if itemRaw, ok := entry.(map[string]interface{}); ok {
			c.Items = append(c.Items, CartItem(itemRaw))
		}
	}

	if c.Total == 0 {
		c.Total = derivedCartTotal(c.Items)
	}

	if s := object(raw, "store", "stores", "loja"); s != nil {
		store := Store(s)
		c.Store = &store
		if c.StoreID == "" {
			c.StoreID = store.ID
		}
	}
	if c.StoreID == "" {
		// Fall back to the items' batch relation
		for _, item := range c.Items {
			if item.Batch != nil && item.Batch.StoreID != "" {
				c.StoreID = item.Batch.StoreID
				break
			}
		}
	}
	return c
}

func derivedCartTotal(items []core.CartItem) float64 {
	total := 0.0
	for _, item := range items {
		if item.Batch != nil {
			total += item.Batch.PromoPrice * float64(item.Quantity)
		}
	}
	return total
}

// Order normalizes an order payload from either dialect.
func Order(raw map[string]interface{}) core.Order {
	if raw == nil {
		return core.Order{Items: []core.CartItem{}}
	}

	o := core.Order{
		ID:             str(raw, "id", "order_id", "pedido_id"),
		Status:         str(raw, "status"),
		StoreID:        str(raw, "store_id", "loja_id"),
		Items:          []core.CartItem{},
		Total:          number(raw, "total", "valor_total"),
		PickupCode:     str(raw, "pickup_code", "codigo_retirada"),
		PickupDeadline: str(raw, "pickup_deadline", "prazo_retirada"),
		CreatedAt:      str(raw, "created_at", "criado_em"),
	}

	for _, entry := range list(raw, "items", "itens", "order_items") {
		if itemRaw, ok := entry.(map[string]interface{}); ok {
			o.Items = append(o.Items, CartItem(itemRaw))
		}
	}

	if p := object(raw, "payment", "pagamento"); p != nil {
		o.Payment = &core.OrderPayment{
			PixCode:   str(p, "pix_code", "pix_copia_cola", "qr_code"),
			PaidAt:    str(p, "paid_at", "pago_em"),
			Fee:       number(p, "fee", "platform_fee", "taxa"),
			NetAmount: number(p, "net_amount", "valor_liquido"),
		}
	}
	if s := object(raw, "store", "stores", "loja"); s != nil {
		store := Store(s)
		o.Store = &store
		if o.StoreID == "" {
			o.StoreID = store.ID
		}
	}
	return o
}

// BatchList normalizes a listing payload. The backend returns either a
// bare array or an object wrapping one; each element passes through the
// Batch normalizer individually and non-object elements are skipped.
func BatchList(payload interface{}) []core.Batch {
	var entries []interface{}
	switch v := payload.(type) {
	case []interface{}:
		entries = v
	case map[string]interface{}:
		entries = list(v, "batches", "items", "lotes", "data")
	}

	batches := make([]core.Batch, 0, len(entries))
	for _, entry := range entries {
		if raw, ok := entry.(map[string]interface{}); ok {
			batches = append(batches, Batch(raw))
		}
	}
	return batches
}

// ProductList normalizes a product listing payload, same contract as
// BatchList.
func ProductList(payload interface{}) []core.Product {
	var entries []interface{}
	switch v := payload.(type) {
	case []interface{}:
		entries = v
	case map[string]interface{}:
		entries = list(v, "products", "items", "produtos", "data")
	}

	products := make([]core.Product, 0, len(entries))
	for _, entry := range entries {
		if raw, ok := entry.(map[string]interface{}); ok {
			products = append(products, Product(raw))
		}
	}
	return products
}

// OrderList normalizes an order listing payload, same contract as
// BatchList.
func OrderList(payload interface{}) []core.Order {
	var entries []interface{}
	switch v := payload.(type) {
	case []interface{}:
		entries = v
	case map[string]interface{}:
		entries = list(v, "orders", "items", "pedidos", "data")
	}

	orders := make([]core.Order, 0, len(entries))
	for _, entry := range entries {
		if raw, ok := entry.(map[string]interface{}); ok {
			orders = append(orders, Order(raw))
		}
	}
	return orders
}
