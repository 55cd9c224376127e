package models

import (
	"time"

	id "deedbook/pkg/domain"
	dErrors "deedbook/pkg/domain-errors"
)

// Draft carries the caller-supplied fields of a registration. String fields
// are stored as given; the marketplace accepts empty values and any
// non-negative price.
type Draft struct {
	Title       string
	Description string
	Category    string
	Address     string
	ImageURI    string
	Price       uint64
}

// Property is the aggregate root for one marketplace record.
//
// Invariants:
//   - ID is assigned once by the ledger and never changes
//   - Title, Description, Category, Address and ImageURI are immutable after
//     registration
//   - Owner changes only through a completed sale
//   - IsListed implies Price was set by the current owner at or after the
//     last ownership change
//
// Lifecycle: Unlisted -> (list, owner only) -> Listed -> (buy) -> Unlisted
// under the new owner, re-enterable indefinitely. Records are never deleted.
type Property struct {
	ID           id.PropertyID `json:"id"`
	Owner        id.AccountID  `json:"owner"`
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	Category     string        `json:"category"`
	Address      string        `json:"address"`
	ImageURI     string        `json:"image_uri"`
	Price        uint64        `json:"price"`
	IsListed     bool          `json:"is_listed"`
	RegisteredAt time.Time     `json:"registered_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// New constructs a freshly registered property. Registration never lists; the
// owner must list explicitly before the record is purchasable.
func New(propertyID id.PropertyID, owner id.AccountID, draft Draft, now time.Time) (*Property, error) {
	if propertyID.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "property id must be assigned")
	}
	if owner.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "property owner cannot be empty")
	}
	return &Property{
		ID:           propertyID,
		Owner:        owner,
		Title:        draft.Title,
		Description:  draft.Description,
		Category:     draft.Category,
		Address:      draft.Address,
		ImageURI:     draft.ImageURI,
		Price:        draft.Price,
		IsListed:     false,
		RegisteredAt: now,
		UpdatedAt:    now,
	}, nil
}

// CanList checks whether caller may list or re-price this property.
// Use with ApplyListing in Execute callbacks.
func (p *Property) CanList(caller id.AccountID) error {
	if caller != p.Owner {
		return dErrors.New(dErrors.CodeUnauthorized, "only the current owner can list a property")
	}
	return nil
}

// ApplyListing puts the property up for sale at the given price. Re-listing
// while already listed is allowed and simply updates the price.
// Call CanList first to validate the transition.
func (p *Property) ApplyListing(price uint64, now time.Time) {
	p.Price = price
	p.IsListed = true
	p.UpdatedAt = now
}

// CanPurchase checks the purchase preconditions in the order the marketplace
// guarantees: listed first, then payment sufficiency. The existence check
// happens earlier, at the ledger.
// Use with ApplySale in Execute callbacks.
func (p *Property) CanPurchase(payment uint64) error {
	if !p.IsListed {
		return dErrors.New(dErrors.CodeNotForSale, "property is not up for sale")
	}
	if payment < p.Price {
		return dErrors.New(dErrors.CodeInsufficientPayment, "sent amount is less than the required price")
	}
	return nil
}

// ApplySale transfers ownership to the buyer and delists the record.
// Call CanPurchase first and settle payment before applying.
func (p *Property) ApplySale(buyer id.AccountID, now time.Time) {
	p.Owner = buyer
	p.IsListed = false
	p.UpdatedAt = now
}

// Clone returns a deep copy so snapshots handed to callers cannot alias the
// stored record.
func (p *Property) Clone() *Property {
	if p == nil {
		return nil
	}
	copied := *p
	return &copied
}
