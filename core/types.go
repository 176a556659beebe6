package core

// Domain entities in their canonical client-side shape. The backend emits
// two naming dialects for the same concepts (mixed Portuguese/English keys,
// singular/plural relations); the normalize package maps either dialect
// into these structs. JSON tags use the canonical English names so that
// re-encoding a normalized entity round-trips through the normalizer
// unchanged.

// Batch is a priced, dated, quantity-limited sellable lot of a Product at
// a specific Store.
type Batch struct {
	ID              string  `json:"id"`
	ProductID       string  `json:"product_id"`
	StoreID         string  `json:"store_id"`
	OriginalPrice   float64 `json:"original_price"`
	PromoPrice      float64 `json:"promo_price"`
	DiscountPercent float64 `json:"discount_percent"`
	ExpirationDate  string  `json:"expiration_date"`
	Stock           int     `json:"stock"`
	Active          bool    `json:"active"`

	Product *Product `json:"product,omitempty"`
	Store   *Store   `json:"store,omitempty"`
}

// Product belongs to exactly one Store and may have multiple Batches
// (different expiration lots).
type Product struct {
	ID          string  `json:"id"`
	StoreID     string  `json:"store_id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	PhotoURL    string  `json:"photo_url"`
	PhotoURL2   string  `json:"photo_url_2"`
	BasePrice   float64 `json:"base_price"`

	Store *Store `json:"store,omitempty"`
}

// Store owns Products and Batches. WalletID is the payment-routing
// identifier used by the backend; the client only carries it.
type Store struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Address     string `json:"address"`
	City        string `json:"city"`
	Phone       string `json:"phone"`
	Hours       string `json:"hours"`
	OpeningTime string `json:"opening_time"`
	ClosingTime string `json:"closing_time"`
	LogoURL     string `json:"logo_url"`
	IsPremium   bool   `json:"is_premium"`
	WalletID    string `json:"wallet_id"`
}

// CartItem is a (Batch reference, quantity) pair, optionally populated
// with the full Batch relation for display.
type CartItem struct {
	ID       string `json:"id"`
	BatchID  string `json:"batch_id"`
	Quantity int    `json:"quantity"`

	Batch *Batch `json:"batch,omitempty"`
}

// Cart is a per-store collection of items. All items in one Cart belong
// to the same StoreID; the backend enforces this and signals a conflict
// when a batch from a different store is added.
type Cart struct {
	ID      string     `json:"id"`
	StoreID string     `json:"store_id"`
	Items   []CartItem `json:"items"`
	Total   float64    `json:"total"`

	Store *Store `json:"store,omitempty"`
}

// ItemCount returns the sum of quantities across the cart's items.
func (c Cart) ItemCount() int {
	count := 0
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

// Order status values as reported by the backend.
const (
	OrderPendingPayment = "pending_payment"
	OrderPaid           = "paid"
	OrderPickedUp       = "picked_up"
	OrderCancelled      = "cancelled"
)

// Order is created from a Cart at checkout. The client only reads and
// normalizes orders; the full lifecycle lives server-side.
type Order struct {
	ID             string     `json:"id"`
	Status         string     `json:"status"`
	StoreID        string     `json:"store_id"`
	Items          []CartItem `json:"items"`
	Total          float64    `json:"total"`
	PickupCode     string     `json:"pickup_code"`
	PickupDeadline string     `json:"pickup_deadline"`
	CreatedAt      string     `json:"created_at"`

	Payment *OrderPayment `json:"payment,omitempty"`
	Store   *Store        `json:"store,omitempty"`
}

// OrderPayment is the payment sub-record of an Order.
type OrderPayment struct {
	PixCode   string  `json:"pix_code"`
	PaidAt    string  `json:"paid_at"`
	Fee       float64 `json:"fee"`
	NetAmount float64 `json:"net_amount"`
}
