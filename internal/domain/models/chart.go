package models

import "time"

// Body identifies a celestial body or chart point.
type Body string

const (
	Sun       Body = "sun"
	Moon      Body = "moon"
	Mercury   Body = "mercury"
	Venus     Body = "venus"
	Mars      Body = "mars"
	Jupiter   Body = "jupiter"
	Saturn    Body = "saturn"
	Uranus    Body = "uranus"
	Neptune   Body = "neptune"
	Pluto     Body = "pluto"
	NorthNode Body = "north_node"
	SouthNode Body = "south_node"
)

// Planets is the default body set in canonical order.
var Planets = []Body{Sun, Moon, Mercury, Venus, Mars, Jupiter, Saturn, Uranus, Neptune, Pluto}

// Nodes are the optional mean lunar nodes.
var Nodes = []Body{NorthNode, SouthNode}

var bodyOrder = map[Body]int{
	Sun: 0, Moon: 1, Mercury: 2, Venus: 3, Mars: 4, Jupiter: 5,
	Saturn: 6, Uranus: 7, Neptune: 8, Pluto: 9, NorthNode: 10, SouthNode: 11,
}

// IsValid reports whether b is a known body.
func (b Body) IsValid() bool {
	_, ok := bodyOrder[b]
	return ok
}

// Index returns the canonical ordering position of b, or -1.
func (b Body) Index() int {
	if i, ok := bodyOrder[b]; ok {
		return i
	}
	return -1
}

// BodySet returns the bodies evaluated for a chart.
func BodySet(includeNodes bool) []Body {
	out := make([]Body, 0, len(Planets)+len(Nodes))
	out = append(out, Planets...)
	if includeNodes {
		out = append(out, Nodes...)
	}
	return out
}

// Sign is one of the twelve zodiac signs.
type Sign string

const (
	Aries       Sign = "aries"
	Taurus      Sign = "taurus"
	Gemini      Sign = "gemini"
	Cancer      Sign = "cancer"
	Leo         Sign = "leo"
	Virgo       Sign = "virgo"
	Libra       Sign = "libra"
	Scorpio     Sign = "scorpio"
	Sagittarius Sign = "sagittarius"
	Capricorn   Sign = "capricorn"
	Aquarius    Sign = "aquarius"
	Pisces      Sign = "pisces"
)

// Signs lists the zodiac in ecliptic order starting at 0° Aries.
var Signs = [12]Sign{Aries, Taurus, Gemini, Cancer, Leo, Virgo, Libra, Scorpio, Sagittarius, Capricorn, Aquarius, Pisces}

// Index returns the position of s in Signs, or -1.
func (s Sign) Index() int {
	for i, v := range Signs {
		if v == s {
			return i
		}
	}
	return -1
}

// Motion is the apparent direction of a body along the ecliptic.
type Motion string

const (
	Direct     Motion = "direct"
	Retrograde Motion = "retrograde"
)

// MotionOf classifies a longitude velocity. Stationary bodies are Direct.
func MotionOf(velocity float64) Motion {
	if velocity < 0 {
		return Retrograde
	}
	return Direct
}

// AspectType is a named angular relationship between two bodies.
type AspectType string

const (
	Conjunction    AspectType = "conjunction"
	SemiSextile    AspectType = "semi_sextile"
	SemiSquare     AspectType = "semi_square"
	Sextile        AspectType = "sextile"
	Square         AspectType = "square"
	Trine          AspectType = "trine"
	Sesquiquadrate AspectType = "sesquiquadrate"
	Quincunx       AspectType = "quincunx"
	Opposition     AspectType = "opposition"
)

// AspectDef describes the canonical angle and default orb of an aspect type.
type AspectDef struct {
	Type       AspectType
	Angle      float64
	DefaultOrb float64
	Major      bool
}

// AspectDefs lists every supported aspect type ordered by canonical angle.
var AspectDefs = []AspectDef{
	{Type: Conjunction, Angle: 0, DefaultOrb: 8, Major: true},
	{Type: SemiSextile, Angle: 30, DefaultOrb: 2},
	{Type: SemiSquare, Angle: 45, DefaultOrb: 2},
	{Type: Sextile, Angle: 60, DefaultOrb: 6, Major: true},
	{Type: Square, Angle: 90, DefaultOrb: 8, Major: true},
	{Type: Trine, Angle: 120, DefaultOrb: 8, Major: true},
	{Type: Sesquiquadrate, Angle: 135, DefaultOrb: 2},
	{Type: Quincunx, Angle: 150, DefaultOrb: 3},
	{Type: Opposition, Angle: 180, DefaultOrb: 8, Major: true},
}

// LookupAspect returns the definition of t.
func LookupAspect(t AspectType) (AspectDef, bool) {
	for _, d := range AspectDefs {
		if d.Type == t {
			return d, true
		}
	}
	return AspectDef{}, false
}

// HouseSystemName names a house division method.
type HouseSystemName string

const (
	Placidus  HouseSystemName = "placidus"
	Equal     HouseSystemName = "equal"
	WholeSign HouseSystemName = "whole_sign"
	Porphyry  HouseSystemName = "porphyry"
)

// ChartInput is the resolved input of a chart computation.
type ChartInput struct {
	Instant   time.Time
	Latitude  float64
	Longitude float64
}

// BodyPosition is the geocentric ecliptic state of a body at an instant.
type BodyPosition struct {
	Body      Body
	Longitude float64 // degrees, [0,360)
	Latitude  float64 // degrees
	Distance  float64 // AU
	Velocity  float64 // degrees/day of longitude
}

// Motion derives the apparent direction from the velocity.
func (p BodyPosition) Motion() Motion { return MotionOf(p.Velocity) }

// HouseCusp is the ecliptic longitude where a house begins.
type HouseCusp struct {
	House     int
	Longitude float64
}

// SignPlacement locates a longitude within the zodiac.
type SignPlacement struct {
	Sign   Sign
	Degree float64 // [0,30)
}

// HousePlacement binds a body to the house containing it.
type HousePlacement struct {
	Body  Body
	House int
}

// Aspect is a qualifying angular relationship between two distinct bodies.
// Degree carries the observed separation, Orb the distance from the exact angle.
type Aspect struct {
	First  Body
	Second Body
	Type   AspectType
	Degree float64
	Orb    float64
}

// ChartOptions configure how a chart is computed.
type ChartOptions struct {
	HouseSystem         HouseSystemName
	FallbackHouseSystem HouseSystemName
	Orbs                OrbTable
	IncludeNodes        bool
}

// OrbTable maps enabled aspect types to their tolerance in degrees.
type OrbTable map[AspectType]float64

// DefaultOrbTable enables the major aspects with their default orbs.
func DefaultOrbTable() OrbTable {
	t := make(OrbTable)
	for _, d := range AspectDefs {
		if d.Major {
			t[d.Type] = d.DefaultOrb
		}
	}
	return t
}

// Chart is a complete natal chart.
type Chart struct {
	ID          string
	Input       ChartInput
	HouseSystem HouseSystemName
	Ascendant   float64
	Midheaven   float64
	Positions   []BodyPosition
	Signs       map[Body]SignPlacement
	Houses      []HousePlacement
	Cusps       [12]HouseCusp
	Aspects     []Aspect
	ComputedAt  time.Time
}

// Position returns the computed position of b.
func (c *Chart) Position(b Body) (BodyPosition, bool) {
	for _, p := range c.Positions {
		if p.Body == b {
			return p, true
		}
	}
	return BodyPosition{}, false
}

// HouseOf returns the house assigned to b, or 0.
func (c *Chart) HouseOf(b Body) int {
	for _, h := range c.Houses {
		if h.Body == b {
			return h.House
		}
	}
	return 0
}

// Houses is the output of a house computation.
type Houses struct {
	System    HouseSystemName
	Ascendant float64
	Midheaven float64
	Cusps     [12]HouseCusp
}

// Longitudes returns the cusp longitudes indexed from house 1.
func (h Houses) Longitudes() [12]float64 {
	var out [12]float64
	for i, c := range h.Cusps {
		out[i] = c.Longitude
	}
	return out
}
