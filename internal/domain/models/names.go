package models

// Locale selects the display names used at the API boundary.
type Locale string

const (
	LocaleEN Locale = "en"
	LocaleES Locale = "es"
)

// Names renders canonical identifiers for presentation.
type Names struct {
	Bodies  map[Body]string
	Signs   map[Sign]string
	Aspects map[AspectType]string
	Motions map[Motion]string
}

var namesByLocale = map[Locale]Names{
	LocaleEN: {
		Bodies: map[Body]string{
			Sun: "Sun", Moon: "Moon", Mercury: "Mercury", Venus: "Venus", Mars: "Mars",
			Jupiter: "Jupiter", Saturn: "Saturn", Uranus: "Uranus", Neptune: "Neptune",
			Pluto: "Pluto", NorthNode: "North Node", SouthNode: "South Node",
		},
		Signs: map[Sign]string{
			Aries: "Aries", Taurus: "Taurus", Gemini: "Gemini", Cancer: "Cancer",
			Leo: "Leo", Virgo: "Virgo", Libra: "Libra", Scorpio: "Scorpio",
			Sagittarius: "Sagittarius", Capricorn: "Capricorn", Aquarius: "Aquarius", Pisces: "Pisces",
		},
		Aspects: map[AspectType]string{
			Conjunction: "Conjunction", SemiSextile: "Semi-sextile", SemiSquare: "Semi-square",
			Sextile: "Sextile", Square: "Square", Trine: "Trine",
			Sesquiquadrate: "Sesquiquadrate", Quincunx: "Quincunx", Opposition: "Opposition",
		},
		Motions: map[Motion]string{Direct: "Direct", Retrograde: "Retrograde"},
	},
	LocaleES: {
		Bodies: map[Body]string{
			Sun: "Sol", Moon: "Luna", Mercury: "Mercurio", Venus: "Venus", Mars: "Marte",
			Jupiter: "Júpiter", Saturn: "Saturno", Uranus: "Urano", Neptune: "Neptuno",
			Pluto: "Plutón", NorthNode: "Nodo Norte", SouthNode: "Nodo Sur",
		},
		Signs: map[Sign]string{
			Aries: "Aries", Taurus: "Tauro", Gemini: "Géminis", Cancer: "Cáncer",
			Leo: "Leo", Virgo: "Virgo", Libra: "Libra", Scorpio: "Escorpio",
			Sagittarius: "Sagitario", Capricorn: "Capricornio", Aquarius: "Acuario", Pisces: "Piscis",
		},
		Aspects: map[AspectType]string{
			Conjunction: "Conjunción", SemiSextile: "Semisextil", SemiSquare: "Semicuadratura",
			Sextile: "Sextil", Square: "Cuadratura", Trine: "Trígono",
			Sesquiquadrate: "Sesquicuadratura", Quincunx: "Quincuncio", Opposition: "Oposición",
		},
		Motions: map[Motion]string{Direct: "Directo", Retrograde: "Retrógrado"},
	},
}

// NamesFor returns the display table for l, falling back to English.
func NamesFor(l Locale) Names {
	if n, ok := namesByLocale[l]; ok {
		return n
	}
	return namesByLocale[LocaleEN]
}

func (n Names) Body(b Body) string {
	if s, ok := n.Bodies[b]; ok {
		return s
	}
	return string(b)
}

func (n Names) Sign(s Sign) string {
	if v, ok := n.Signs[s]; ok {
		return v
	}
	return string(s)
}

func (n Names) Aspect(t AspectType) string {
	if v, ok := n.Aspects[t]; ok {
		return v
	}
	return string(t)
}

func (n Names) Motion(m Motion) string {
	if v, ok := n.Motions[m]; ok {
		return v
	}
	return string(m)
}
