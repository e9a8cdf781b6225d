package enums

import "fmt"

// SaleReturnType distinguishes full-order returns from partial ones.
type SaleReturnType string

const (
	SaleReturnTypeFull    SaleReturnType = "full"
	SaleReturnTypePartial SaleReturnType = "partial"
)

var validSaleReturnTypes = []SaleReturnType{
	SaleReturnTypeFull,
	SaleReturnTypePartial,
}

// String implements fmt.Stringer.
func (s SaleReturnType) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SaleReturnType.
func (s SaleReturnType) IsValid() bool {
	for _, candidate := range validSaleReturnTypes {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSaleReturnType converts raw input into a SaleReturnType.
func ParseSaleReturnType(value string) (SaleReturnType, error) {
	for _, candidate := range validSaleReturnTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sale return type %q", value)
}
