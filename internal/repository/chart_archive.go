package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"NatalChart/internal/domain/models"
	domrepo "NatalChart/internal/domain/repository"
	pkgch "NatalChart/pkg/clickhouse"
	applogger "NatalChart/pkg/logger"
)

// CHChartArchive stores charts in ClickHouse: the full document in
// <db>.charts and one row per body in <db>.chart_positions.
type CHChartArchive struct {
	db       *sql.DB
	database string
	l        *applogger.Logger
}

// NewCHChartArchive creates the archive and ensures its schema.
func NewCHChartArchive(ctx context.Context, ch *pkgch.Client, l *applogger.Logger) (*CHChartArchive, error) {
	if err := ch.InitSchema(ctx, pkgch.ChartSchema(ch.Database())); err != nil {
		return nil, err
	}
	if l == nil {
		l = applogger.NewNop()
	}
	return &CHChartArchive{db: ch.DB(), database: ch.Database(), l: l}, nil
}

func (s *CHChartArchive) Store(ctx context.Context, c *models.Chart) error {
	start := time.Now()
	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode chart: %w", err)
	}

	q := fmt.Sprintf(`INSERT INTO %s.charts
        (chart_id, instant, latitude, longitude, house_system, ascendant, midheaven, aspect_count, payload, computed_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, s.database)
	if _, err := s.db.ExecContext(ctx, q,
		c.ID,
		c.Input.Instant.UTC(),
		c.Input.Latitude,
		c.Input.Longitude,
		string(c.HouseSystem),
		c.Ascendant,
		c.Midheaven,
		uint16(len(c.Aspects)),
		string(payload),
		c.ComputedAt.UTC(),
	); err != nil {
		s.l.Error("clickhouse store chart error", applogger.String("chart_id", c.ID), applogger.Error(err))
		return fmt.Errorf("insert chart: %w", err)
	}

	values, args := positionRows(c)
	if len(values) > 0 {
		q = fmt.Sprintf(`INSERT INTO %s.chart_positions
            (chart_id, body, longitude, latitude, distance, velocity, sign, degree, house, computed_at)
            VALUES %s`, s.database, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			s.l.Error("clickhouse store positions error", applogger.String("chart_id", c.ID), applogger.Error(err))
			return fmt.Errorf("insert positions: %w", err)
		}
	}

	s.l.Debug("clickhouse store chart ok",
		applogger.String("chart_id", c.ID),
		applogger.Int("positions", len(values)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return nil
}

func (s *CHChartArchive) Get(ctx context.Context, id string) (*models.Chart, error) {
	q := fmt.Sprintf(`SELECT payload FROM %s.charts FINAL WHERE chart_id = ? LIMIT 1`, s.database)
	var payload string
	if err := s.db.QueryRowContext(ctx, q, id).Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domrepo.ErrChartNotFound
		}
		s.l.Error("clickhouse get chart error", applogger.String("chart_id", id), applogger.Error(err))
		return nil, fmt.Errorf("get chart: %w", err)
	}
	var c models.Chart
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		return nil, fmt.Errorf("decode chart %s: %w", id, err)
	}
	return &c, nil
}

func (s *CHChartArchive) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close is a no-op; the pool belongs to the ClickHouse client.
func (s *CHChartArchive) Close() error {
	return nil
}

// positionRows builds the VALUES placeholders and arguments for c's bodies.
func positionRows(c *models.Chart) ([]string, []interface{}) {
	values := make([]string, 0, len(c.Positions))
	args := make([]interface{}, 0, len(c.Positions)*10)
	computedAt := c.ComputedAt.UTC()
	for _, p := range c.Positions {
		sp := c.Signs[p.Body]
		values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args,
			c.ID,
			string(p.Body),
			p.Longitude,
			p.Latitude,
			p.Distance,
			p.Velocity,
			string(sp.Sign),
			sp.Degree,
			uint8(c.HouseOf(p.Body)),
			computedAt,
		)
	}
	return values, args
}

var _ domrepo.ChartArchive = (*CHChartArchive)(nil)
