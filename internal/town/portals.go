package town

import (
	"sort"
	"strings"
)

// Portal is a named transition point with fixed scene coordinates and one or
// more destination portals. Multi-target portals resolve by uniform random
// choice at traversal time.
type Portal struct {
	Name    string
	X, Y    float64
	Targets []string
}

const (
	interiorSuffix = "_室內"
	exteriorSuffix = "_室外"
)

var portals = map[string]Portal{
	"健身房_室內":   {Name: "健身房_室內", X: -66.92, Y: 17.73, Targets: []string{"健身房_室外"}},
	"健身房_室外":   {Name: "健身房_室外", X: 97.5, Y: 15.17, Targets: []string{"健身房_室內"}},
	"公寓一樓_室內":  {Name: "公寓一樓_室內", X: -67.92, Y: -13.82, Targets: []string{"公寓二樓_室內"}},
	"公寓二樓_室內":  {Name: "公寓二樓_室內", X: -117.08, Y: -46.82, Targets: []string{"公寓頂樓_室內", "公寓一樓_室內"}},
	"公寓側門_室內":  {Name: "公寓側門_室內", X: -57.92, Y: -44.995003, Targets: []string{"公寓側門_室外"}},
	"公寓側門_室外":  {Name: "公寓側門_室外", X: 6.06, Y: -10.34, Targets: []string{"公寓側門_室內"}},
	"公寓大門_室內":  {Name: "公寓大門_室內", X: -77.008, Y: -44.995003, Targets: []string{"公寓大門_室外"}},
	"公寓大門_室外":  {Name: "公寓大門_室外", X: -3.4, Y: -9.01, Targets: []string{"公寓大門_室內"}},
	"公寓頂樓_室內":  {Name: "公寓頂樓_室內", X: -117.08, Y: -13.62, Targets: []string{"公寓頂樓_室外", "公寓二樓_室內"}},
	"公寓頂樓_室外":  {Name: "公寓頂樓_室外", X: -2.4, Y: 4.42, Targets: []string{"公寓頂樓_室內"}},
	"地鐵上入口_室外": {Name: "地鐵上入口_室外", X: 42.46, Y: -30.38, Targets: []string{"地鐵左樓梯_室內"}},
	"地鐵下入口_室外": {Name: "地鐵下入口_室外", X: 42.46, Y: -36.45, Targets: []string{"地鐵右樓梯_室內"}},
	"地鐵右入口_室外": {Name: "地鐵右入口_室外", X: 45.46, Y: -33.47, Targets: []string{"地鐵右樓梯_室內"}},
	"地鐵右樓梯_室內": {Name: "地鐵右樓梯_室內", X: 78.03999, Y: -32.58, Targets: []string{"地鐵右入口_室外", "地鐵下入口_室外"}},
	"地鐵左入口_室外": {Name: "地鐵左入口_室外", X: 39.4, Y: -33.5, Targets: []string{"地鐵左樓梯_室內"}},
	"地鐵左樓梯_室內": {Name: "地鐵左樓梯_室內", X: 55.970005, Y: -48.980003, Targets: []string{"地鐵左入口_室外", "地鐵上入口_室外"}},
	"學校門口_室內":  {Name: "學校門口_室內", X: -26.504, Y: -63.017, Targets: []string{"學校門口_室外"}},
	"學校門口_室外":  {Name: "學校門口_室外", X: 106.4, Y: -33.0, Targets: []string{"學校門口_室內"}},
	"超市側門_室內":  {Name: "超市側門_室內", X: 8.98, Y: 55.15, Targets: []string{"超市側門_室外"}},
	"超市側門_室外":  {Name: "超市側門_室外", X: 12.1, Y: 19.830002, Targets: []string{"超市側門_室內"}},
	"超市右門_室內":  {Name: "超市右門_室內", X: 5.98, Y: 38.07, Targets: []string{"超市右門_室外"}},
	"超市左門_室內":  {Name: "超市左門_室內", X: -3.91, Y: 38.07, Targets: []string{"超市左門_室外"}},
	"超市左門_室外":  {Name: "超市左門_室外", X: 1.87, Y: 15.88, Targets: []string{"超市左門_室內"}},
	// The scene has no 超市右門_室外 marker; synthesized from the second 左門
	// anchor so 超市右門_室內 has a resolvable target.
	"超市右門_室外": {Name: "超市右門_室外", X: 8.03, Y: 15.88, Targets: []string{"超市右門_室內"}},
	"餐廳_室內":   {Name: "餐廳_室內", X: -73.00139, Y: 0.972929, Targets: []string{"餐廳_室外"}},
	"餐廳_室外":   {Name: "餐廳_室外", X: 96.95, Y: -5.1, Targets: []string{"餐廳_室內"}},
}

// entryPortals maps an indoor canonical location to the exterior portal an
// outdoor agent should walk to first.
var entryPortals = map[string]string{
	ApartmentF1: "公寓大門_室外",
	ApartmentF2: "公寓大門_室外",
	School:      "學校門口_室外",
	Gym:         "健身房_室外",
	Rest:        "餐廳_室外",
	Super:       "超市左門_室外",
	Subway:      "地鐵左入口_室外",
}

// buildingPrefix maps an indoor canonical location to the Chinese prefix its
// portals are named with.
var buildingPrefix = map[string]string{
	ApartmentF1: "公寓",
	ApartmentF2: "公寓",
	School:      "學校",
	Gym:         "健身房",
	Rest:        "餐廳",
	Super:       "超市",
	Subway:      "地鐵",
}

// subwayEntrances are the exterior portals leading down into the subway.
var subwayEntrances = []string{"地鐵上入口_室外", "地鐵下入口_室外", "地鐵右入口_室外", "地鐵左入口_室外"}

// IsPortal reports whether name is a known portal.
func IsPortal(name string) bool {
	_, ok := portals[name]
	return ok
}

// PortalTargets returns the destinations of a portal, or nil for an unknown
// name. The returned slice must not be modified.
func PortalTargets(name string) []string {
	p, ok := portals[name]
	if !ok {
		return nil
	}
	return p.Targets
}

// PortalNames returns all portal names in a stable order.
func PortalNames() []string {
	names := make([]string, 0, len(portals))
	for name := range portals {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func isInteriorPortal(name string) bool {
	return strings.HasSuffix(name, interiorSuffix)
}

func isExteriorPortal(name string) bool {
	return strings.HasSuffix(name, exteriorSuffix)
}

func isSubwayInterior(name string) bool {
	return strings.HasPrefix(name, "地鐵") && isInteriorPortal(name)
}

// interiorPortalsOf returns the interior portals of a building prefix in a
// stable order.
func interiorPortalsOf(prefix string) []string {
	var names []string
	for name := range portals {
		if strings.HasPrefix(name, prefix) && isInteriorPortal(name) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
