package service

import (
	"context"
	"time"

	"NatalChart/internal/domain/models"
)

// Ephemeris evaluates body positions at an instant.
type Ephemeris interface {
	Evaluate(body models.Body, instant time.Time) (models.BodyPosition, error)
}

// HouseCalculator derives the angles and house cusps for a place and time.
type HouseCalculator interface {
	Compute(ctx context.Context, instant time.Time, lat, lon float64, system models.HouseSystemName) (models.Houses, error)
}

// AspectDetector finds aspects between body positions.
type AspectDetector interface {
	Detect(positions []models.BodyPosition, orbs models.OrbTable) ([]models.Aspect, error)
}
