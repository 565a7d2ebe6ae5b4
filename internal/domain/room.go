package domain

import "github.com/shopspring/decimal"

// Room is a bookable room. ID and CreatedAt are assigned by the store/service.
type Room struct {
	ID          int64
	Description string
	Price       decimal.Decimal // two fractional digits
	CreatedAt   Date
}

// Room field limits shared by validation and storage schemas.
const (
	DescriptionMinLen = 5
	DescriptionMaxLen = 200
	PriceMaxDigits    = 9
	PriceDecimals     = 2
)

// MinPrice is the lowest accepted room price.
var MinPrice = decimal.New(100, -PriceDecimals)

// MaxPrice is the largest price representable with PriceMaxDigits digits.
var MaxPrice = decimal.New(999_999_999, -PriceDecimals)
