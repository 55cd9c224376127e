package handler

import (
	"time"

	"deedbook/internal/property/models"
	"deedbook/internal/settlement"
)

// PropertyResponse is the wire form of one property snapshot.
type PropertyResponse struct {
	ID           uint64    `json:"id"`
	Owner        string    `json:"owner"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Category     string    `json:"category"`
	Address      string    `json:"address"`
	ImageURI     string    `json:"image_uri"`
	Price        uint64    `json:"price"`
	IsListed     bool      `json:"is_listed"`
	RegisteredAt time.Time `json:"registered_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func toPropertyResponse(p *models.Property) PropertyResponse {
	return PropertyResponse{
		ID:           uint64(p.ID),
		Owner:        p.Owner.String(),
		Title:        p.Title,
		Description:  p.Description,
		Category:     p.Category,
		Address:      p.Address,
		ImageURI:     p.ImageURI,
		Price:        p.Price,
		IsListed:     p.IsListed,
		RegisteredAt: p.RegisteredAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

// PurchaseResponse returns the post-sale snapshot together with the
// settlement proof.
type PurchaseResponse struct {
	Property PropertyResponse `json:"property"`
	Receipt  ReceiptResponse  `json:"receipt"`
}

// ReceiptResponse is the wire form of a settlement receipt.
type ReceiptResponse struct {
	ID        string    `json:"id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Amount    uint64    `json:"amount"`
	Refund    uint64    `json:"refund"`
	SettledAt time.Time `json:"settled_at"`
}

func toReceiptResponse(r *settlement.Receipt) ReceiptResponse {
	return ReceiptResponse{
		ID:        r.ID.String(),
		From:      r.From.String(),
		To:        r.To.String(),
		Amount:    r.Amount,
		Refund:    r.Refund,
		SettledAt: r.SettledAt,
	}
}
