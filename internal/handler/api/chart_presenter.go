package api

import (
	"fmt"
	"math"
	"time"

	"NatalChart/internal/domain/models"
	"NatalChart/internal/services/zodiac"
)

// ChartView is the chart document returned by the API.
type ChartView struct {
	ID          string       `json:"id"`
	Name        string       `json:"name,omitempty"`
	Location    string       `json:"location,omitempty"`
	Date        string       `json:"date"`
	Time        string       `json:"time"`
	Instant     string       `json:"instant"`
	Latitude    float64      `json:"latitude"`
	Longitude   float64      `json:"longitude"`
	HouseSystem string       `json:"house_system"`
	Ascendant   PointView    `json:"ascendant"`
	Midheaven   PointView    `json:"midheaven"`
	Planets     []PlanetView `json:"planets"`
	Houses      []HouseView  `json:"houses"`
	Aspects     []AspectView `json:"aspects"`
	ComputedAt  string       `json:"computed_at,omitempty"`
}

// PointView places an angle in the zodiac.
type PointView struct {
	Sign     string  `json:"sign"`
	Degrees  float64 `json:"degrees"`
	Position float64 `json:"position"`
}

type PlanetView struct {
	Planet      string  `json:"planet"`
	Sign        string  `json:"sign"`
	SignDegrees float64 `json:"sign_degrees"`
	Retrograde  string  `json:"retrograde"`
	Position    float64 `json:"position"`
	House       int     `json:"house"`
	Latitude    float64 `json:"latitude"`
	Distance    float64 `json:"distance"`
	Velocity    float64 `json:"velocity"`
}

type HouseView struct {
	House    int     `json:"house"`
	Sign     string  `json:"sign"`
	Degrees  float64 `json:"degrees"`
	Position float64 `json:"position"`
}

type AspectView struct {
	Planet1 string  `json:"planet_1"`
	Planet2 string  `json:"planet_2"`
	Aspect  string  `json:"aspect"`
	Degree  float64 `json:"degree"`
	Orb     float64 `json:"orb"`
}

// Labels are caller-supplied strings echoed back unchanged.
type Labels struct {
	Name     string
	Location string
	Date     string
	Time     string
}

// LabelsFor copies the echoed fields of req.
func LabelsFor(req models.ChartRequest) Labels {
	return Labels{Name: req.Name, Location: req.Location, Date: req.Date, Time: req.Time}
}

// PresentChart renders c with the display names of locale. Positions and
// in-sign degrees are truncated to two decimals so they stay inside their
// half-open ranges. Missing labels fall back to the chart input: the UTC
// date and time of the instant, and "lat, lon" for the location.
func PresentChart(c *models.Chart, locale models.Locale, labels Labels) ChartView {
	names := models.NamesFor(locale)
	utc := c.Input.Instant.UTC()
	if labels.Date == "" {
		labels.Date, labels.Time = utc.Format("02/01/2006"), utc.Format("15:04")
	}
	if labels.Location == "" {
		labels.Location = fmt.Sprintf("%v, %v", c.Input.Latitude, c.Input.Longitude)
	}
	v := ChartView{
		ID:          c.ID,
		Name:        labels.Name,
		Location:    labels.Location,
		Date:        labels.Date,
		Time:        labels.Time,
		Instant:     utc.Format(time.RFC3339),
		Latitude:    c.Input.Latitude,
		Longitude:   c.Input.Longitude,
		HouseSystem: string(c.HouseSystem),
		Ascendant:   point(c.Ascendant, names),
		Midheaven:   point(c.Midheaven, names),
		Planets:     make([]PlanetView, 0, len(c.Positions)),
		Houses:      make([]HouseView, 0, len(c.Cusps)),
		Aspects:     make([]AspectView, 0, len(c.Aspects)),
	}
	if !c.ComputedAt.IsZero() {
		v.ComputedAt = c.ComputedAt.UTC().Format(time.RFC3339)
	}

	for _, p := range c.Positions {
		sp := c.Signs[p.Body]
		v.Planets = append(v.Planets, PlanetView{
			Planet:      names.Body(p.Body),
			Sign:        names.Sign(sp.Sign),
			SignDegrees: truncate2(sp.Degree),
			Retrograde:  names.Motion(p.Motion()),
			Position:    truncate2(p.Longitude),
			House:       c.HouseOf(p.Body),
			Latitude:    round4(p.Latitude),
			Distance:    round4(p.Distance),
			Velocity:    round4(p.Velocity),
		})
	}
	for _, cusp := range c.Cusps {
		pv := point(cusp.Longitude, names)
		v.Houses = append(v.Houses, HouseView{House: cusp.House, Sign: pv.Sign, Degrees: pv.Degrees, Position: pv.Position})
	}
	for _, a := range c.Aspects {
		v.Aspects = append(v.Aspects, AspectView{
			Planet1: names.Body(a.First),
			Planet2: names.Body(a.Second),
			Aspect:  names.Aspect(a.Type),
			Degree:  round4(a.Degree),
			Orb:     round4(a.Orb),
		})
	}
	return v
}

func point(lon float64, names models.Names) PointView {
	sp, err := zodiac.ToSignDegree(lon)
	if err != nil {
		return PointView{Position: lon}
	}
	return PointView{Sign: names.Sign(sp.Sign), Degrees: truncate2(sp.Degree), Position: truncate2(lon)}
}

func truncate2(x float64) float64 { return math.Floor(x*100) / 100 }

func round4(x float64) float64 { return math.Round(x*1e4) / 1e4 }
