package usecase

import (
	"strings"
	"time"

	"NatalChart/internal/domain/models"
	"NatalChart/pkg/util"
)

// ResolveRequest turns a validated API request into engine input. Either
// Instant (RFC 3339) or Date+Time in Timezone must be set. Node inclusion
// falls back to defaults when the request leaves it unset.
func ResolveRequest(req *models.ChartRequest, defaults models.ChartOptions) (models.ChartInput, models.ChartOptions, error) {
	var (
		instant time.Time
		err     error
	)
	switch {
	case req.Instant != "":
		instant, err = time.Parse(time.RFC3339, req.Instant)
	case req.Date != "":
		instant, err = util.ParseCivilTime(req.Date, req.Time, req.Timezone)
	default:
		return models.ChartInput{}, models.ChartOptions{}, models.NewChartError(models.ErrInvalidInputRange, models.StageInput, "", "instant or date/time is required")
	}
	if err != nil {
		return models.ChartInput{}, models.ChartOptions{}, models.NewChartError(models.ErrInvalidInputRange, models.StageInput, "", "%v", err)
	}
	if req.Latitude == nil || req.Longitude == nil {
		return models.ChartInput{}, models.ChartOptions{}, models.NewChartError(models.ErrInvalidInputRange, models.StageInput, "", "latitude and longitude are required")
	}

	in := models.ChartInput{
		Instant:   instant.UTC(),
		Latitude:  *req.Latitude,
		Longitude: *req.Longitude,
	}
	opts := models.ChartOptions{
		HouseSystem:  models.HouseSystemName(strings.ToLower(req.HouseSystem)),
		IncludeNodes: defaults.IncludeNodes,
	}
	if req.IncludeNodes != nil {
		opts.IncludeNodes = *req.IncludeNodes
	}
	return in, opts, nil
}

// ResolveMessage turns a Kafka chart request into engine input.
func ResolveMessage(m *models.ChartRequestMessage) (models.ChartInput, models.ChartOptions, error) {
	if m.Instant.IsZero() {
		return models.ChartInput{}, models.ChartOptions{}, models.NewChartError(models.ErrInvalidInputRange, models.StageInput, "", "instant is required")
	}
	return models.ChartInput{
			Instant:   m.Instant.UTC(),
			Latitude:  m.Latitude,
			Longitude: m.Longitude,
		}, models.ChartOptions{
			HouseSystem:  models.HouseSystemName(strings.ToLower(m.HouseSystem)),
			IncludeNodes: m.IncludeNodes,
		}, nil
}
