package domain

import "time"

// OfferType classifies a card offer event.
type OfferType string

const (
	OfferTypeTransferBonus OfferType = "transfer_bonus"
	OfferTypeFeeChange     OfferType = "fee_change"
	OfferTypeBenefitChange OfferType = "benefit_change"
	OfferTypePromotion     OfferType = "promotion"
	OfferTypeOther         OfferType = "other"
)

// ParseOfferType maps a collaborator-supplied type to a known OfferType.
// Anything unrecognised becomes OfferTypeOther.
func ParseOfferType(s string) OfferType {
	switch t := OfferType(s); t {
	case OfferTypeTransferBonus, OfferTypeFeeChange, OfferTypeBenefitChange, OfferTypePromotion:
		return t
	default:
		return OfferTypeOther
	}
}

// Offer is a candidate event returned by the offer service for one card
// product. It is never persisted as-is.
type Offer struct {
	Type        OfferType  `json:"type" validate:"required"`
	Title       string     `json:"title" validate:"required,max=200"`
	Description string     `json:"description"`
	StartDate   time.Time  `json:"start_date"`
	EndDate     *time.Time `json:"end_date,omitempty"`
}
