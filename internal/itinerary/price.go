package itinerary

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var ErrInvalidPrice = errors.New("INVALID_PRICE")

// maxAmount keeps ToCents within int64.
const maxAmount = math.MaxInt64 / 100

// leading amount: digits with optional thousands separators, stopping at a
// decimal point or a range dash.
var priceAmount = regexp.MustCompile(`\d[\d,]*`)

// ParsePrice extracts the whole-currency amount from an estimatedPrice string
// such as "$1,200", "$1200" or "1200". Cents are dropped and for ranges like
// "$900-1200" the lower bound wins. A string without digits is an error, never
// a silent zero.
func ParsePrice(estimated string) (int64, error) {
	match := priceAmount.FindString(estimated)
	if match == "" {
		return 0, fmt.Errorf("%w: no digits in %q", ErrInvalidPrice, estimated)
	}

	digits := strings.ReplaceAll(match, ",", "")
	amount, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrInvalidPrice, estimated, err)
	}
	if amount <= 0 {
		return 0, fmt.Errorf("%w: non-positive amount in %q", ErrInvalidPrice, estimated)
	}
	if amount > maxAmount {
		return 0, fmt.Errorf("%w: amount out of range in %q", ErrInvalidPrice, estimated)
	}
	return amount, nil
}

// ToCents converts a whole-currency amount to the smallest currency unit.
func ToCents(amount int64) int64 {
	return amount * 100
}
