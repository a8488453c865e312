package model

// Identity is who is sitting at the tab.  Guests have Authenticated set to
// false and every other field empty; an expired or unreadable session token
// also yields a guest rather than an error.
type Identity struct {
	Authenticated  bool   `json:"authenticated"`
	Subject        string `json:"subject,omitempty"`
	Email          string `json:"email,omitempty"`
	MembershipTier string `json:"membership_tier,omitempty"`
	Token          string `json:"-"` // raw bearer token, forwarded to the backend
}

// Guest is the anonymous identity.
var Guest = Identity{}
