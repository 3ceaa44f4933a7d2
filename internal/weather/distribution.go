package weather

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Sentinel labels used in place of numeric bins.
const (
	LabelNotEnoughData = "Not enough data"
	LabelAllSame       = "All values are the same"
)

// Distribution maps a bin label to the percentage of samples in that bin.
// Iteration and JSON key order follow insertion order, i.e. ascending bins.
type Distribution struct {
	bins *orderedmap.OrderedMap[string, float64]
}

// Bin is one label/percentage entry of a Distribution.
type Bin struct {
	Label   string  `json:"label"`
	Percent float64 `json:"percent"`
}

// NewDistribution returns an empty distribution.
func NewDistribution() *Distribution {
	return &Distribution{bins: orderedmap.New[string, float64]()}
}

func sentinelDistribution(label string) *Distribution {
	d := NewDistribution()
	d.Set(label, 100.0)
	return d
}

// Set appends (or overwrites) the percentage for label.
func (d *Distribution) Set(label string, percent float64) {
	d.init()
	d.bins.Set(label, percent)
}

// Get returns the percentage recorded for label.
func (d *Distribution) Get(label string) (float64, bool) {
	if d == nil || d.bins == nil {
		return 0, false
	}
	return d.bins.Get(label)
}

// Len returns the number of retained bins.
func (d *Distribution) Len() int {
	if d == nil || d.bins == nil {
		return 0
	}
	return d.bins.Len()
}

// Bins returns the entries in bin order.
func (d *Distribution) Bins() []Bin {
	if d == nil || d.bins == nil {
		return nil
	}
	out := make([]Bin, 0, d.bins.Len())
	for pair := d.bins.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, Bin{Label: pair.Key, Percent: pair.Value})
	}
	return out
}

// IsSentinel reports whether the distribution carries a single sentinel label
// rather than numeric bins. Consumers render a "no variation" state for these.
func (d *Distribution) IsSentinel() bool {
	if d.Len() != 1 {
		return false
	}
	_, notEnough := d.Get(LabelNotEnoughData)
	_, allSame := d.Get(LabelAllSame)
	return notEnough || allSame
}

func (d *Distribution) MarshalJSON() ([]byte, error) {
	d.init()
	return d.bins.MarshalJSON()
}

func (d *Distribution) UnmarshalJSON(b []byte) error {
	d.bins = orderedmap.New[string, float64]()
	return d.bins.UnmarshalJSON(b)
}

func (d *Distribution) init() {
	if d.bins == nil {
		d.bins = orderedmap.New[string, float64]()
	}
}
