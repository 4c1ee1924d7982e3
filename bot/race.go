package bot

import (
	"fmt"
	"strings"
)

// Race is the in-game race a bot plays. It appears verbatim in the
// generated bwapi.ini and in bwheadless arguments.
type Race int

const (
	RaceRandom Race = iota
	RaceProtoss
	RaceTerran
	RaceZerg
)

func (r Race) String() string {
	switch r {
	case RaceProtoss:
		return "Protoss"
	case RaceTerran:
		return "Terran"
	case RaceZerg:
		return "Zerg"
	default:
		return "Random"
	}
}

// ParseRace accepts full race names or their single-letter shorthands,
// case-insensitive.
func ParseRace(s string) (Race, error) {
	switch strings.ToLower(s) {
	case "r", "random":
		return RaceRandom, nil
	case "p", "protoss":
		return RaceProtoss, nil
	case "t", "terran":
		return RaceTerran, nil
	case "z", "zerg":
		return RaceZerg, nil
	}
	return RaceRandom, fmt.Errorf("invalid race '%s': expected one of Zerg/Protoss/Terran/Random or z/p/t/r", s)
}

// UnmarshalText lets TOML decode race values directly.
func (r *Race) UnmarshalText(text []byte) error {
	parsed, err := ParseRace(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
