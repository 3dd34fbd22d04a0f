package clickhouse

import "fmt"

// ChartSchema returns the DDL for the chart archive tables in database.
// charts holds one row per chart with the full JSON document; chart_positions
// holds one row per body for analytical queries.
func ChartSchema(database string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.charts (
    chart_id      String,
    instant       DateTime64(3, 'UTC'),
    latitude      Float64,
    longitude     Float64,
    house_system  LowCardinality(String),
    ascendant     Float64,
    midheaven     Float64,
    aspect_count  UInt16,
    payload       String,
    computed_at   DateTime64(3, 'UTC')
) ENGINE = ReplacingMergeTree(computed_at)
ORDER BY chart_id`, database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.chart_positions (
    chart_id   String,
    body       LowCardinality(String),
    longitude  Float64,
    latitude   Float64,
    distance   Float64,
    velocity   Float64,
    sign       LowCardinality(String),
    degree     Float64,
    house      UInt8,
    computed_at DateTime64(3, 'UTC')
) ENGINE = MergeTree
ORDER BY (body, chart_id)`, database),
	}
}
