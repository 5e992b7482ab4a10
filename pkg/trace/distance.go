package trace

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Infinity is the display form of an unreachable distance.
const Infinity = "∞"

// Distance is either a finite non-negative path length or unreachable.
// The zero value is unreachable.
type Distance struct {
	value  int64
	finite bool
}

// Unreachable returns the distance of a node with no known path.
func Unreachable() Distance { return Distance{} }

// Finite returns a finite distance of n.
func Finite(n int64) Distance { return Distance{value: n, finite: true} }

// IsFinite reports whether d is a known path length.
func (d Distance) IsFinite() bool { return d.finite }

// Value returns the path length. It is 0 for unreachable distances; check
// IsFinite first.
func (d Distance) Value() int64 { return d.value }

// Less reports whether d is strictly shorter than o. Any finite distance is
// shorter than unreachable; two unreachable distances are equal.
func (d Distance) Less(o Distance) bool {
	switch {
	case !d.finite:
		return false
	case !o.finite:
		return true
	default:
		return d.value < o.value
	}
}

// Add extends d by an edge weight. Unreachable stays unreachable.
func (d Distance) Add(w int64) Distance {
	if !d.finite {
		return d
	}
	return Finite(d.value + w)
}

// String returns the decimal value or ∞.
func (d Distance) String() string {
	if !d.finite {
		return Infinity
	}
	return strconv.FormatInt(d.value, 10)
}

// MarshalJSON encodes finite distances as integers and unreachable as null.
func (d Distance) MarshalJSON() ([]byte, error) {
	if !d.finite {
		return []byte("null"), nil
	}
	return strconv.AppendInt(nil, d.value, 10), nil
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (d *Distance) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*d = Unreachable()
		return nil
	}
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*d = Finite(n)
	return nil
}
