package handler

// RegisterPropertyRequest carries the registration fields. None of the
// string fields are validated beyond presence of the body; the marketplace
// accepts empty values.
type RegisterPropertyRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Address     string `json:"address"`
	ImageURI    string `json:"image_uri"`
	Price       uint64 `json:"price"`
}

// ListPropertyRequest sets the asking price for a listing.
type ListPropertyRequest struct {
	Price uint64 `json:"price"`
}

// BuyPropertyRequest attaches the payment for a purchase. Payment above the
// asking price is refunded during settlement.
type BuyPropertyRequest struct {
	Payment uint64 `json:"payment"`
}
