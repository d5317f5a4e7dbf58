// Package rarity classifies loosely-typed rarity signals into canonical tiers and
// scores them.
package rarity

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
)

// Tier is one of the four canonical rarity tiers.
type Tier string

const (
	Common    Tier = "common"
	Uncommon  Tier = "uncommon"
	Rare      Tier = "rare"
	Legendary Tier = "legendary"
)

// Tiers lists the canonical tiers from most to least frequent.
func Tiers() []Tier {
	return []Tier{Common, Uncommon, Rare, Legendary}
}

// Valid reports whether t is a canonical tier.
func (t Tier) Valid() bool {
	switch t {
	case Common, Uncommon, Rare, Legendary:
		return true
	}
	return false
}

// Color is the display color used for the tier.
func (t Tier) Color() string {
	switch t {
	case Uncommon:
		return "#26A69A"
	case Rare:
		return "#5C6BC0"
	case Legendary:
		return "#D81B60"
	default:
		return "#8D6E63"
	}
}

// Label is the capitalised tier name.
func (t Tier) Label() string {
	if t == "" {
		return ""
	}
	s := string(t)
	return strings.ToUpper(s[:1]) + s[1:]
}

// Points returns the score for a tier. Unknown tiers score 5.
func Points(t Tier) int {
	switch t {
	case Common:
		return 10
	case Uncommon:
		return 25
	case Rare:
		return 50
	case Legendary:
		return 100
	default:
		return 5
	}
}

// SignalKind tags the shape of a raw rarity signal.
type SignalKind int

const (
	SignalAbsent SignalKind = iota
	SignalString
	SignalNumber
)

// Signal is a raw rarity value as reported by an identification source: a string, a
// number, or nothing at all.
type Signal struct {
	Kind SignalKind
	Str  string
	Num  float64
}

// String builds a string signal.
func String(s string) Signal { return Signal{Kind: SignalString, Str: s} }

// Number builds a numeric signal.
func Number(n float64) Signal { return Signal{Kind: SignalNumber, Num: n} }

// Absent is the empty signal.
func Absent() Signal { return Signal{} }

// UnmarshalJSON accepts a JSON string, number or null.
func (s *Signal) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = Absent()
		return nil
	}
	if data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = String(str)
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		// Anything else (objects, booleans) degrades to an absent signal.
		*s = Absent()
		return nil
	}
	*s = Number(n)
	return nil
}

// MarshalJSON writes the signal back in its original shape.
func (s Signal) MarshalJSON() ([]byte, error) {
	switch s.Kind {
	case SignalString:
		return json.Marshal(s.Str)
	case SignalNumber:
		return json.Marshal(s.Num)
	default:
		return []byte("null"), nil
	}
}

// Parse maps a raw signal to a tier. It never fails: unrecognised input is Common.
//
// Canonical strings are returned as-is. Other strings are matched by substring in
// priority order legend, rare, uncommon (or "uncomon"). Numbers map >=4 legendary,
// >=3 rare, >=2 uncommon. An absent or non-finite number counts as 1.
func Parse(s Signal) Tier {
	switch s.Kind {
	case SignalString:
		if t := Tier(s.Str); t.Valid() {
			return t
		}
		lower := strings.ToLower(s.Str)
		switch {
		case strings.Contains(lower, "legend"):
			return Legendary
		case strings.Contains(lower, "rare"):
			return Rare
		case strings.Contains(lower, "uncommon"), strings.Contains(lower, "uncomon"):
			return Uncommon
		default:
			return Common
		}
	case SignalNumber:
		return fromSmallLevel(s.Num)
	default:
		return fromSmallLevel(1)
	}
}

func fromSmallLevel(n float64) Tier {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		n = 1
	}
	switch {
	case n >= 4:
		return Legendary
	case n >= 3:
		return Rare
	case n >= 2:
		return Uncommon
	default:
		return Common
	}
}

// FromCatalogLevel maps the 1-10 rarity level of the animal catalog.
func FromCatalogLevel(level int) Tier {
	switch {
	case level >= 8:
		return Legendary
	case level >= 6:
		return Rare
	case level >= 4:
		return Uncommon
	default:
		return Common
	}
}
