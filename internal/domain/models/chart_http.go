package models

import "time"

// Requests for chart endpoints. Defined in domain for reuse by HTTP, WebSocket and Kafka.

type ChartRequest struct {
	Name         string   `json:"name" validate:"max=120"`
	Location     string   `json:"location" validate:"max=200"`
	Instant      string   `json:"instant" validate:"required_without=Date,omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	Date         string   `json:"date" validate:"required_without=Instant,omitempty,datetime=02/01/2006"`
	Time         string   `json:"time" validate:"required_with=Date,omitempty,datetime=15:04"`
	Timezone     string   `json:"timezone" default:"UTC" validate:"timezone"`
	Latitude     *float64 `json:"latitude" validate:"required,gte=-90,lte=90"`
	Longitude    *float64 `json:"longitude" validate:"required,gte=-180,lte=180"`
	HouseSystem  string   `json:"house_system" validate:"omitempty,oneof=placidus equal whole_sign porphyry"`
	IncludeNodes *bool    `json:"include_nodes"`
	Lang         string   `json:"lang" default:"en" validate:"oneof=en es"`
}

type ChartIDRequest struct {
	ID   string `param:"id" validate:"required,uuid"`
	Lang string `query:"lang" default:"en" validate:"oneof=en es"`
}

// ChartComputed is the event emitted after a chart is computed.
type ChartComputed struct {
	ChartID     string    `json:"chart_id"`
	Instant     time.Time `json:"instant"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	HouseSystem string    `json:"house_system"`
	BodyCount   int       `json:"body_count"`
	AspectCount int       `json:"aspect_count"`
	ComputedAt  time.Time `json:"computed_at"`
}

// ChartRequestMessage is the Kafka payload asking for a chart computation.
type ChartRequestMessage struct {
	RequestID    string    `json:"request_id"`
	Instant      time.Time `json:"instant"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	HouseSystem  string    `json:"house_system"`
	IncludeNodes bool      `json:"include_nodes"`
}
