package market

import "fmt"

// ErrListingNotFound is returned by callers that need to distinguish "no
// such listing" from the REMOVE operation, which is idempotent and always
// returns success — Remove itself never returns this.
type ErrListingNotFound struct {
	PrimaryKey string
	SellerID   string
}

func (e *ErrListingNotFound) Error() string {
	return fmt.Sprintf("listing not found: key=%s seller=%s", e.PrimaryKey, e.SellerID)
}
