package model

// LocationLevel names one selector of the country/state/city cascade.
type LocationLevel string

const (
	LocationCountry LocationLevel = "country"
	LocationState   LocationLevel = "state"
	LocationCity    LocationLevel = "city"
)

// IsValid reports whether level is one of the three known levels.
func (l LocationLevel) IsValid() bool {
	return l == LocationCountry || l == LocationState || l == LocationCity
}

// LocationQuery parameterizes a directory lookup.
type LocationQuery struct {
	Level   LocationLevel
	Country string
	State   string
}

// LevelSnapshot is the observable state of one selector.
type LevelSnapshot struct {
	Value    string
	Options  []string
	Loading  bool
	Disabled bool
	Error    string
}

// LocationSnapshot is the observable state of the whole cascade.
type LocationSnapshot struct {
	Country LevelSnapshot
	State   LevelSnapshot
	City    LevelSnapshot
}
