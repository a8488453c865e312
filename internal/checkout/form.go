package checkout

import (
	"strings"

	"github.com/iliyamo/zoo-checkout/internal/validate"
)

// Validation messages shown next to the offending field.
const (
	MsgCartEmpty = "Your cart is empty"
	MsgNameBlank = "Please enter your name"
	MsgEmailBad  = "Please enter a valid email address"
	MsgDateBad   = "Please choose a visit date (YYYY-MM-DD)"
	MsgCardBad   = "Card number must be 12 to 19 digits"
	MsgExpiryBad = "Expiry must be MM/YY"
	MsgCVCBad    = "CVC must be 3 or 4 digits"
)

// Form is what the buyer typed on the checkout screen plus who they are.
type Form struct {
	BuyerName    string  `json:"buyer_name"`
	GuestEmail   string  `json:"buyer_email"`
	VisitDate    string  `json:"visit_date"`
	Payment      Payment `json:"payment"`
	AccountEmail string  `json:"-"` // set for signed-in members
	Bearer       string  `json:"-"` // forwarded to the backend for signed-in members
}

// Payment holds the demo card fields.  They are checked for shape when
// filled in and never leave this service.
type Payment struct {
	CardNumber string `json:"card_number"`
	Expiry     string `json:"expiry"`
	CVC        string `json:"cvc"`
}

// EffectiveEmail is the account email when signed in, else the guest email.
func (f Form) EffectiveEmail() string {
	if e := strings.TrimSpace(f.AccountEmail); e != "" {
		return e
	}
	return strings.TrimSpace(f.GuestEmail)
}

// ValidationError rejects a submission before anything is sent.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string { return e.Message }

// validateBuyer runs the field checks in order; the first failure wins.
// The cart check happens before this in Submit.
func validateBuyer(f Form) *ValidationError {
	if strings.TrimSpace(f.BuyerName) == "" {
		return &ValidationError{Field: "buyer_name", Message: MsgNameBlank}
	}
	if !validate.Email(f.EffectiveEmail()) {
		return &ValidationError{Field: "buyer_email", Message: MsgEmailBad}
	}
	if !validate.VisitDate(strings.TrimSpace(f.VisitDate)) {
		return &ValidationError{Field: "visit_date", Message: MsgDateBad}
	}
	p := f.Payment
	if strings.TrimSpace(p.CardNumber) != "" && !validate.CardNumber(p.CardNumber) {
		return &ValidationError{Field: "card_number", Message: MsgCardBad}
	}
	if strings.TrimSpace(p.Expiry) != "" && !validate.Expiry(p.Expiry) {
		return &ValidationError{Field: "expiry", Message: MsgExpiryBad}
	}
	if strings.TrimSpace(p.CVC) != "" && !validate.CVC(p.CVC) {
		return &ValidationError{Field: "cvc", Message: MsgCVCBad}
	}
	return nil
}
