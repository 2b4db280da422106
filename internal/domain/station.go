package domain

import "strings"

// Station is a kitchen room that prepares a set of menu categories.
type Station string

const (
	StationCold Station = "cold"
	StationHot  Station = "hot"
)

func ParseStation(s string) (Station, bool) {
	switch Station(strings.ToLower(strings.TrimSpace(s))) {
	case StationCold:
		return StationCold, true
	case StationHot:
		return StationHot, true
	default:
		return "", false
	}
}

// StationMap routes a dish category to its station. Keys are compared
// case-insensitively.
type StationMap map[string]Station

func DefaultStationMap() StationMap {
	return StationMap{
		"cold dishes": StationCold,
		"drinks":      StationCold,
		"hot dishes":  StationHot,
		"soups":       StationHot,
		"staples":     StationHot,
	}
}

func NewStationMap(raw map[string]string) (StationMap, error) {
	m := StationMap{}
	for cat, st := range raw {
		s, ok := ParseStation(st)
		if !ok {
			return nil, Errorf(KindInvalidInput, "category %q mapped to unknown station %q", cat, st)
		}
		m[normCategory(cat)] = s
	}
	return m, nil
}

// For returns the station for category; unmapped categories go to the hot room.
func (m StationMap) For(category string) Station {
	if s, ok := m[normCategory(category)]; ok {
		return s
	}
	return StationHot
}

func normCategory(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
