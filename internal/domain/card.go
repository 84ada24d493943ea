package domain

import "strings"

// HeldCard is one user's card-holding row. The table is owned outside this
// service; the pipeline only reads it.
type HeldCard struct {
	UserCardID string `json:"id" dynamodbav:"user_card_id"`
	UserID     string `json:"user_id" dynamodbav:"user_id"`
	Bank       string `json:"bank" dynamodbav:"bank"`
	CardName   string `json:"card_name" dynamodbav:"card_name"`
	Country    string `json:"country" dynamodbav:"country"`
	CardKey    string `json:"-" dynamodbav:"card_key"` // bank#card_name, hash key of card_key-index
}

// CardProductKey identifies a card product, not a physical card.
type CardProductKey struct {
	Bank     string `json:"bank"`
	CardName string `json:"card_name"`
	Country  string `json:"country"`
}

func (k CardProductKey) String() string {
	return k.Bank + "|" + k.CardName + "|" + k.Country
}

// CardKey builds the composite attribute stored on held_cards rows.
func CardKey(bank, cardName string) string {
	return strings.TrimSpace(bank) + "#" + strings.TrimSpace(cardName)
}
