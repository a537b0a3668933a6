package osmparser

import (
	"strings"

	"lintang/bmssp/pkg/server"
)

type Profile string

const (
	// ProfileHighway semua way dengan tag highway kecuali area=yes
	ProfileHighway Profile = "highway"
	// ProfileCar way yang bisa dilewati mobil
	ProfileCar Profile = "car"
	// ProfileAll semua way linear kecuali area=yes
	ProfileAll Profile = "all"
)

func ParseProfile(s string) (Profile, error) {
	switch Profile(strings.ToLower(strings.TrimSpace(s))) {
	case "", ProfileHighway:
		return ProfileHighway, nil
	case ProfileCar:
		return ProfileCar, nil
	case ProfileAll:
		return ProfileAll, nil
	}
	return "", server.WrapErrorf(nil, server.ErrBadParamInput, "unknown way profile %q, want highway, car or all", s)
}

// IsWayRoutable filter way sesuai profile.
func IsWayRoutable(tagMap map[string]string, profile Profile) bool {
	if tagMap["area"] == "yes" {
		return false
	}
	switch profile {
	case ProfileCar:
		return isOsmWayUsedByCars(tagMap)
	case ProfileAll:
		return true
	default:
		_, ok := tagMap["highway"]
		return ok
	}
}

type direction int8

const (
	bothWays direction = 0
	forward  direction = 1
	backward direction = -1
)

// wayDirection oneway=yes|true|1 maju, oneway=-1 mundur, junction=roundabout implisit oneway.
func wayDirection(tagMap map[string]string) direction {
	switch tagMap["oneway"] {
	case "yes", "true", "1":
		return forward
	case "-1":
		return backward
	}
	if tagMap["junction"] == "roundabout" {
		return forward
	}
	return bothWays
}

var carHighways = map[string]bool{
	"motorway":       true,
	"trunk":          true,
	"primary":        true,
	"secondary":      true,
	"tertiary":       true,
	"unclassified":   true,
	"residential":    true,
	"living_street":  true,
	"service":        true,
	"motorway_link":  true,
	"trunk_link":     true,
	"primary_link":   true,
	"secondary_link": true,
	"tertiary_link":  true,
}

var nonCarHighways = map[string]bool{
	"construction": true,
	"path":         true,
	"footway":      true,
	"cycleway":     true,
	"bridleway":    true,
	"pedestrian":   true,
	"bus_guideway": true,
	"raceway":      true,
	"escape":       true,
	"steps":        true,
	"proposed":     true,
	"conveying":    true,
}

// https://github.com/RoutingKit/RoutingKit/blob/master/src/osm_profile.cpp  [is_osm_way_used_by_cars()]
func isOsmWayUsedByCars(tagMap map[string]string) bool {
	if _, ok := tagMap["junction"]; ok {
		return true
	}
	if tagMap["route"] == "ferry" || tagMap["ferry"] == "yes" {
		return true
	}

	highway, ok := tagMap["highway"]
	if !ok {
		return false
	}
	if tagMap["motorcar"] == "no" || tagMap["motor_vehicle"] == "no" {
		return false
	}
	if access, ok := tagMap["access"]; ok {
		if !(access == "yes" || access == "permissive" || access == "designated" || access == "delivery" || access == "destination") {
			return false
		}
	}

	if carHighways[highway] {
		return true
	}
	if highway == "bicycle_road" {
		return tagMap["motorcar"] == "yes"
	}
	if nonCarHighways[highway] {
		return false
	}
	if oneway := tagMap["oneway"]; oneway == "reversible" || oneway == "alternating" {
		return false
	}
	_, ok = tagMap["maxspeed"]
	return ok
}
