// Package town holds the static map of the simulation: canonical locations,
// the portal graph connecting them, and the per-building integrity state that
// earthquakes erode. The map is immutable after process start; only building
// integrity changes at runtime.
package town

import "sort"

// Canonical location labels. Agents are always "at" one of these (or at a
// portal mid-transition).
const (
	ApartmentF1 = "Apartment_F1"
	ApartmentF2 = "Apartment_F2"
	School      = "School"
	Rest        = "Rest"
	Gym         = "Gym"
	Super       = "Super"
	Subway      = "Subway"
	Exterior    = "Exterior"
)

// location carries the scene anchor and the free-text aliases that LLM output
// may use for it.
type location struct {
	anchor  [2]float64
	aliases []string
}

var locations = map[string]location{
	ApartmentF1: {anchor: [2]float64{-83.5, -50.6}, aliases: []string{"Apartment", "公寓", "公寓一樓", "公寓F1"}},
	ApartmentF2: {anchor: [2]float64{-184.7, -57.0}, aliases: []string{"公寓二樓", "Apartment_Floor2", "公寓F2"}},
	School:      {anchor: [2]float64{-1.0, -109.7}, aliases: []string{"學校", "教室", "校園", "校园"}},
	Rest:        {anchor: [2]float64{-98.0, 10.5}, aliases: []string{"餐廳", "餐厅", "咖啡店", "Cafe", "Restaurant"}},
	Gym:         {anchor: [2]float64{-86.8, 42.9}, aliases: []string{"健身房", "Gymnasium"}},
	Super:       {anchor: [2]float64{52.2, 92.9}, aliases: []string{"超市", "商場", "商场", "便利店"}},
	Subway:      {anchor: [2]float64{166.7, -97.1}, aliases: []string{"地鐵", "地铁", "Metro"}},
	Exterior:    {anchor: [2]float64{174.8, 1.9}, aliases: []string{"室外", "戶外", "户外", "公園", "Park"}},
}

// environmentObjects lists what an agent can see at each location; fed into
// reasoning prompts.
var environmentObjects = map[string][]string{
	ApartmentF1: {"床", "沙發", "書桌"},
	ApartmentF2: {"床", "書架", "陽台椅"},
	School:      {"黑板", "課桌椅", "講台"},
	Rest:        {"咖啡機", "甜點櫃", "沙發椅"},
	Gym:         {"啞鈴", "跑步機", "瑜珈墊"},
	Super:       {"貨架", "收銀台", "購物籃"},
	Subway:      {"售票機", "候車椅", "路線圖"},
	Exterior:    {"長椅", "路燈", "噴泉"},
}

var aliasToCanonical = buildAliasIndex()

func buildAliasIndex() map[string]string {
	idx := make(map[string]string)
	for name, loc := range locations {
		for _, a := range loc.aliases {
			idx[a] = name
		}
	}
	return idx
}

// CanGoPlaces returns the canonical location names in a stable order.
func CanGoPlaces() []string {
	names := make([]string, 0, len(locations))
	for name := range locations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Canonicalize maps aliases (Chinese or English) to a canonical location
// name. Unknown names pass through unchanged.
func Canonicalize(name string) string {
	if _, ok := locations[name]; ok {
		return name
	}
	if c, ok := aliasToCanonical[name]; ok {
		return c
	}
	return name
}

// IsCanonical reports whether name is a canonical location label.
func IsCanonical(name string) bool {
	_, ok := locations[name]
	return ok
}

// Anchor returns the scene coordinates of a canonical location or a portal.
func Anchor(name string) (x, y float64, ok bool) {
	if loc, found := locations[name]; found {
		return loc.anchor[0], loc.anchor[1], true
	}
	if p, found := portals[name]; found {
		return p.X, p.Y, true
	}
	if c, found := aliasToCanonical[name]; found {
		loc := locations[c]
		return loc.anchor[0], loc.anchor[1], true
	}
	return 0, 0, false
}

// EnvironmentObjects returns what is visible at a canonical location.
func EnvironmentObjects(name string) []string {
	return environmentObjects[Canonicalize(name)]
}

// Indoor reports whether a place counts as indoors. Portals carry an explicit
// 室內/室外 suffix; among canonical locations only Exterior is outdoors.
func Indoor(name string) bool {
	if isInteriorPortal(name) {
		return true
	}
	if isExteriorPortal(name) {
		return false
	}
	c := Canonicalize(name)
	if _, ok := locations[c]; ok {
		return c != Exterior
	}
	return false
}
