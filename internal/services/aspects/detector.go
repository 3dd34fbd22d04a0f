// Package aspects finds the angular relationships between chart bodies.
package aspects

import (
	"math"

	"NatalChart/internal/domain/models"
	"NatalChart/pkg/util"
)

// Detector implements service.AspectDetector.
type Detector struct{}

func NewDetector() *Detector { return &Detector{} }

type candidate struct {
	def models.AspectDef
	orb float64
}

// Detect returns at most one aspect per unordered pair of positions, in pair
// order. The enabled aspect types and their orbs come from orbs; an empty
// table enables nothing.
func (d *Detector) Detect(positions []models.BodyPosition, orbs models.OrbTable) ([]models.Aspect, error) {
	enabled, err := resolve(orbs)
	if err != nil {
		return nil, err
	}
	seen := make(map[models.Body]struct{}, len(positions))
	for _, p := range positions {
		if !util.IsFinite(p.Longitude) {
			return nil, models.NewChartError(models.ErrInvalidInputRange, models.StageAspects, p.Body, "longitude %v", p.Longitude)
		}
		if _, dup := seen[p.Body]; dup {
			return nil, models.NewChartError(models.ErrInvalidInputRange, models.StageAspects, p.Body, "duplicate body")
		}
		seen[p.Body] = struct{}{}
	}

	var out []models.Aspect
	for i := 0; i < len(positions); i++ {
		for j := i + 1; j < len(positions); j++ {
			a, b := positions[i], positions[j]
			sep := util.Separation(a.Longitude, b.Longitude)
			if def, orb, ok := match(sep, enabled); ok {
				out = append(out, models.Aspect{
					First:  a.Body,
					Second: b.Body,
					Type:   def.Type,
					Degree: sep,
					Orb:    orb,
				})
			}
		}
	}
	return out, nil
}

// match picks the aspect closest to sep among candidates. On an exact tie the
// lower canonical angle wins.
func match(sep float64, candidates []candidate) (models.AspectDef, float64, bool) {
	var (
		best    models.AspectDef
		bestOrb = math.Inf(1)
		found   bool
	)
	for _, c := range candidates {
		dev := math.Abs(sep - c.def.Angle)
		if dev > c.orb {
			continue
		}
		if dev < bestOrb || (dev == bestOrb && c.def.Angle < best.Angle) {
			best, bestOrb, found = c.def, dev, true
		}
	}
	return best, bestOrb, found
}

// resolve validates orbs and returns the enabled aspects ordered by angle.
func resolve(orbs models.OrbTable) ([]candidate, error) {
	for t, orb := range orbs {
		if _, ok := models.LookupAspect(t); !ok {
			return nil, models.NewChartError(models.ErrInvalidInputRange, models.StageAspects, "", "unknown aspect type %q", t)
		}
		if !util.IsFinite(orb) || orb < 0 || orb >= 90 {
			return nil, models.NewChartError(models.ErrInvalidInputRange, models.StageAspects, "", "orb %v for %s", orb, t)
		}
	}
	out := make([]candidate, 0, len(orbs))
	for _, def := range models.AspectDefs {
		if orb, ok := orbs[def.Type]; ok {
			out = append(out, candidate{def: def, orb: orb})
		}
	}
	return out, nil
}
