package town

import (
	"math"
	"strings"

	"github.com/talgya/ai-town/internal/entropy"
)

// ResolvePath turns a desired destination into the next concrete place or
// portal to head for, given the agent's current place. The result is either a
// canonical location (same indoor/outdoor side, walk directly) or a portal
// name (cross-side transition).
func ResolvePath(cur, dest string) string {
	if dest == "" || dest == cur {
		return cur
	}
	d := Canonicalize(dest)

	// Subway is reached through its street entrances: going there from
	// anywhere outside means walking to the closest one first.
	if d == Subway {
		if Canonicalize(cur) == Subway || isSubwayInterior(cur) {
			return Subway
		}
		return nearestSubwayEntrance(cur)
	}

	if Indoor(cur) == Indoor(d) {
		return d
	}

	if !Indoor(cur) && Indoor(d) {
		if entry, ok := entryPortals[d]; ok {
			return entry
		}
		if strings.Contains(d, "_") {
			return d + "_門口" + exteriorSuffix
		}
		return d
	}

	// Indoor heading outdoors: a portal can be traversed as-is, otherwise
	// exit through the building's main door.
	if IsPortal(cur) {
		return cur
	}
	prefix, ok := buildingPrefix[Canonicalize(cur)]
	if !ok {
		return d
	}
	if main := prefix + "大門" + interiorSuffix; IsPortal(main) {
		return main
	}
	if interiors := interiorPortalsOf(prefix); len(interiors) > 0 {
		return interiors[0]
	}
	return d
}

// nearestSubwayEntrance picks the exterior subway entrance closest to the
// given place's anchor. Unknown places default to the left entrance.
func nearestSubwayEntrance(from string) string {
	fx, fy, ok := Anchor(from)
	if !ok {
		return "地鐵左入口_室外"
	}
	best := subwayEntrances[0]
	bestDist := math.Inf(1)
	for _, name := range subwayEntrances {
		p := portals[name]
		d := math.Hypot(p.X-fx, p.Y-fy)
		if d < bestDist {
			best = name
			bestDist = d
		}
	}
	return best
}

// Traverse resolves a portal crossing: it picks the destination portal
// (uniformly at random for multi-exit portals) and the canonical location the
// agent ends up in. Returns ok=false for unknown portals.
func Traverse(rng *entropy.Source, portal string) (toPortal, canonical string, ok bool) {
	p, found := portals[portal]
	if !found || len(p.Targets) == 0 {
		return "", "", false
	}
	to := p.Targets[0]
	if len(p.Targets) > 1 {
		to = entropy.Pick(rng, p.Targets)
	}
	return to, PortalCanonical(to), true
}

// PortalCanonical maps a portal name to the canonical location an agent
// standing at it is considered to be in. Exterior portals map to Exterior,
// subway interiors to Subway, and other interiors to their building.
func PortalCanonical(portal string) string {
	if isExteriorPortal(portal) {
		return Exterior
	}
	if !isInteriorPortal(portal) {
		return Canonicalize(portal)
	}
	if strings.HasPrefix(portal, "地鐵") {
		return Subway
	}
	switch {
	case strings.HasPrefix(portal, "公寓二樓"), strings.HasPrefix(portal, "公寓頂樓"):
		return ApartmentF2
	case strings.HasPrefix(portal, "公寓"):
		return ApartmentF1
	case strings.HasPrefix(portal, "學校"):
		return School
	case strings.HasPrefix(portal, "健身房"):
		return Gym
	case strings.HasPrefix(portal, "餐廳"):
		return Rest
	case strings.HasPrefix(portal, "超市"):
		return Super
	}
	return ""
}
