package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Kind identifies one of the two item families a visitor can put in the
// cart.  Tickets and point-of-sale (food/gift) items are stored under
// separate keys and priced by separate catalog endpoints.
type Kind string

const (
	KindTicket Kind = "ticket" // admission tickets
	KindPOS    Kind = "pos"    // food and gift shop items
)

// ParseKind maps a path segment such as "tickets" or "pos" onto a Kind.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "ticket", "tickets":
		return KindTicket, true
	case "pos", "pos-items", "pos_items":
		return KindPOS, true
	}
	return "", false
}

// CartQuantity maps item identifiers to positive quantities.  Keys keep
// their insertion order so derived line items render in the order the
// visitor added them.  The zero value is an empty, usable map.
//
// Entries with a quantity of zero or less are never stored: Set deletes
// them instead.
type CartQuantity struct {
	keys []string
	qty  map[string]int
}

// NewCartQuantity returns an empty CartQuantity.
func NewCartQuantity() CartQuantity {
	return CartQuantity{qty: map[string]int{}}
}

// Len returns the number of entries.
func (c CartQuantity) Len() int { return len(c.keys) }

// Get returns the quantity stored for id, or 0.
func (c CartQuantity) Get(id string) int { return c.qty[id] }

// Set stores qty for id.  A non-positive qty removes the entry.
func (c *CartQuantity) Set(id string, qty int) {
	if qty <= 0 {
		c.Delete(id)
		return
	}
	if c.qty == nil {
		c.qty = map[string]int{}
	}
	if _, ok := c.qty[id]; !ok {
		c.keys = append(c.keys, id)
	}
	c.qty[id] = qty
}

// Delete removes id if present.
func (c *CartQuantity) Delete(id string) {
	if _, ok := c.qty[id]; !ok {
		return
	}
	delete(c.qty, id)
	for i, k := range c.keys {
		if k == id {
			c.keys = append(c.keys[:i:i], c.keys[i+1:]...)
			break
		}
	}
}

// Each calls fn for every entry in insertion order.
func (c CartQuantity) Each(fn func(id string, qty int)) {
	for _, k := range c.keys {
		fn(k, c.qty[k])
	}
}

// Keys returns a copy of the identifiers in insertion order.
func (c CartQuantity) Keys() []string {
	out := make([]string, len(c.keys))
	copy(out, c.keys)
	return out
}

// MarshalJSON encodes the map as a JSON object with keys in insertion order.
func (c CartQuantity) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range c.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.WriteString(strconv.Itoa(c.qty[k]))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, preserving key order.  Quantities
// may be encoded as numbers or numeric strings; entries whose quantity is
// not positive are skipped.
func (c *CartQuantity) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("cart quantity: expected object, got %v", tok)
	}
	out := NewCartQuantity()
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := kt.(string)
		if !ok {
			return fmt.Errorf("cart quantity: expected key, got %v", kt)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		n, err := parseQty(raw)
		if err != nil {
			return fmt.Errorf("cart quantity %q: %w", key, err)
		}
		out.Set(key, n)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*c = out
	return nil
}

func parseQty(raw json.RawMessage) (int, error) {
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if i, err := n.Int64(); err == nil {
			return int(i), nil
		}
		if f, err := n.Float64(); err == nil {
			return int(f), nil
		}
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("invalid quantity %s", string(raw))
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid quantity %q", s)
	}
	return i, nil
}
