package directory

import "strings"

// NoGST is stored when a trader has no GST number.
const NoGST = "NO GST"

// Record is one (city, trader, GST) entry of the directory.
// JSON field names match the persisted file layout and the REST responses.
type Record struct {
	City   string `json:"CITIES" yaml:"city"`
	Trader string `json:"Traders" yaml:"trader"`
	GST    string `json:"GST" yaml:"gst"`
}

// Key identifies a record. Stores only ever see normalized keys.
type Key struct {
	City   string
	Trader string
}

// Key returns the (city, trader) pair of the record.
func (r Record) Key() Key {
	return Key{City: r.City, Trader: r.Trader}
}

func (k Key) String() string {
	return k.City + "/" + k.Trader
}

// Normalize trims surrounding whitespace and upper-cases s.
func Normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// NormalizeKey applies Normalize to both halves of a key.
func NormalizeKey(city, trader string) Key {
	return Key{City: Normalize(city), Trader: Normalize(trader)}
}

// NewRecord builds a normalized record. A blank gst becomes NoGST.
func NewRecord(city, trader, gst string) Record {
	g := Normalize(gst)
	if g == "" {
		g = NoGST
	}
	return Record{
		City:   Normalize(city),
		Trader: Normalize(trader),
		GST:    g,
	}
}

// Validate reports ErrValidation when city or trader is blank.
func (k Key) Validate() error {
	switch {
	case k.City == "" && k.Trader == "":
		return validationError("city and trader are required")
	case k.City == "":
		return validationError("city is required")
	case k.Trader == "":
		return validationError("trader is required")
	}
	return nil
}
