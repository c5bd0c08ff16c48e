package domain

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Confidence is a coarse trust label for a forecast.
type Confidence string

const (
	ConfidenceNone   Confidence = "none"
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

var confidenceRanks = map[Confidence]int{
	ConfidenceNone:   0,
	ConfidenceLow:    1,
	ConfidenceMedium: 2,
	ConfidenceHigh:   3,
}

// Rank orders confidence tiers; unknown labels rank below "none".
func (c Confidence) Rank() int {
	if r, ok := confidenceRanks[c]; ok {
		return r
	}
	return -1
}

// ParseConfidence returns the tier for a label (case-insensitive).
func ParseConfidence(label string) (Confidence, bool) {
	c := Confidence(strings.ToLower(strings.TrimSpace(label)))
	_, ok := confidenceRanks[c]
	return c, ok
}

// Urgency labels how soon a reorder should be placed.
type Urgency string

const (
	UrgencyNone     Urgency = "none"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

var urgencyOrder = map[Urgency]int{
	UrgencyCritical: 1,
	UrgencyHigh:     2,
	UrgencyMedium:   3,
	UrgencyNone:     4,
}

// UrgencyOrder sorts critical first.
func UrgencyOrder(u Urgency) int {
	if o, ok := urgencyOrder[u]; ok {
		return o
	}
	return 5
}

// Reorder reasons, in decision priority order.
const (
	ReasonBelowMinimum      = "below minimum level"
	ReasonInsufficientDays  = "insufficient days of supply"
	ReasonDemandExceedStock = "predicted demand exceeds stock"
	ReasonNoReorderNeeded   = "no immediate reorder needed"
)

// Days is a days-of-supply figure. An infinite value (no demand) encodes as null.
type Days float64

func (d Days) IsInf() bool {
	return math.IsInf(float64(d), 1)
}

func (d Days) MarshalJSON() ([]byte, error) {
	f := float64(d)
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(f, 'f', -1, 64)), nil
}

func (d *Days) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*d = Days(math.Inf(1))
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*d = Days(f)
	return nil
}

func (d Days) String() string {
	if d.IsInf() {
		return "inf"
	}
	return strconv.FormatFloat(float64(d), 'f', 1, 64)
}
