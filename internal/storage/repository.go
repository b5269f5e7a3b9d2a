package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
	// ErrNoReadings indicates no reading has ever been persisted.
	ErrNoReadings = errors.New("storage: no readings")
)

const (
	insertReadingSQL = `INSERT INTO weather_readings (
        captured_at,
        schema_version,
        temp,
        wind,
        gust,
        dir,
        humidity,
        pressure,
        rain,
        uv,
        solar
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11
    );`

	readingColumns = `captured_at,
        schema_version,
        temp,
        wind,
        gust,
        dir,
        humidity,
        pressure,
        rain,
        uv,
        solar,
        created_at`

	listReadingsBetweenSQL = `SELECT ` + readingColumns + `
    FROM weather_readings
    WHERE captured_at >= $1
      AND captured_at < $2
    ORDER BY captured_at;`

	listRecentReadingsSQL = `SELECT ` + readingColumns + `
    FROM weather_readings
    ORDER BY captured_at DESC
    LIMIT $1;`

	latestReadingSQL = `SELECT ` + readingColumns + `
    FROM weather_readings
    ORDER BY captured_at DESC
    LIMIT 1;`

	countReadingsSQL = `SELECT COUNT(*) FROM weather_readings;`

	deleteReadingsBeforeSQL = `DELETE FROM weather_readings WHERE captured_at < $1;`

	upsertDailyStatSQL = `INSERT INTO weather_stats (day, low, high, current)
    VALUES ($1, $2, $2, $2)
    ON CONFLICT (day) DO UPDATE
    SET low        = LEAST(weather_stats.low, EXCLUDED.low),
        high       = GREATEST(weather_stats.high, EXCLUDED.high),
        current    = EXCLUDED.current,
        updated_at = now();`

	reconcileDailyStatSQL = `UPDATE weather_stats ws
    SET low        = agg.true_low,
        high       = agg.true_high,
        updated_at = now()
    FROM (
        SELECT MIN(temp) AS true_low, MAX(temp) AS true_high
        FROM weather_readings
        WHERE captured_at >= $2
          AND captured_at < $3
    ) agg
    WHERE ws.day = $1
      AND (ws.low IS DISTINCT FROM agg.true_low OR ws.high IS DISTINCT FROM agg.true_high);`

	getDailyStatSQL = `SELECT day, low, high, current, updated_at
    FROM weather_stats
    WHERE day = $1;`

	upsertDailyRollupSQL = `INSERT INTO weather_daily_rollups (day, metric, max_value, avg_value, min_value)
    VALUES ($1, $2, $3, $4, $5)
    ON CONFLICT (day, metric) DO UPDATE
    SET max_value = EXCLUDED.max_value,
        avg_value = EXCLUDED.avg_value,
        min_value = EXCLUDED.min_value;`

	listRollupRangeSQL = `SELECT d.day, r.max_value, r.avg_value, r.min_value
    FROM (SELECT DISTINCT day FROM weather_daily_rollups WHERE day >= $2 AND day < $3) d
    LEFT JOIN weather_daily_rollups r
      ON r.day = d.day AND r.metric = $1
    ORDER BY d.day;`

	listRollupRangeAllSQL = `SELECT d.day, r.max_value, r.avg_value, r.min_value
    FROM (SELECT DISTINCT day FROM weather_daily_rollups) d
    LEFT JOIN weather_daily_rollups r
      ON r.day = d.day AND r.metric = $1
    ORDER BY d.day;`

	tryAdvisoryLockSQL = `SELECT pg_try_advisory_lock($1);`
	advisoryUnlockSQL  = `SELECT pg_advisory_unlock($1);`
)

// ReadingStore defines the append-only reading log.
type ReadingStore interface {
	InsertReading(ctx context.Context, rec ReadingRecord) error
	ListReadingsBetween(ctx context.Context, from, to time.Time) ([]ReadingRecord, error)
	LatestReading(ctx context.Context) (ReadingRecord, error)
	DeleteReadingsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// StatsStore defines the running daily low/high/current row.
type StatsStore interface {
	UpsertDailyStat(ctx context.Context, day time.Time, value float64) error
	ReconcileDailyStat(ctx context.Context, day, dayStart, dayEnd time.Time) (bool, error)
	GetDailyStat(ctx context.Context, day time.Time) (DailyStat, bool, error)
}

// RollupStore defines closed-day aggregates.
type RollupStore interface {
	UpsertDailyRollup(ctx context.Context, rollup DailyRollup) error
	ListRollupRange(ctx context.Context, metric string, from, to time.Time) ([]RollupRangeRow, error)
	ListRollupRangeAll(ctx context.Context, metric string) ([]RollupRangeRow, error)
}

// AdvisoryLocker exposes advisory lock helpers.
type AdvisoryLocker interface {
	TryAdvisoryLock(ctx context.Context, key int64) (unlock func(), acquired bool, err error)
}

// Store aggregates access to readings, stats, and rollups.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// TryAdvisoryLock attempts to acquire a postgres advisory lock and returns a release func.
func (s *Store) TryAdvisoryLock(ctx context.Context, key int64) (func(), bool, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, false, err
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("acquire connection: %w", err)
	}

	var acquired bool
	if err := conn.QueryRow(ctx, tryAdvisoryLockSQL, key).Scan(&acquired); err != nil {
		conn.Release()
		return nil, false, fmt.Errorf("try advisory lock: %w", err)
	}
	if !acquired {
		conn.Release()
		return nil, false, nil
	}

	unlock := func() {
		ctxUnlock, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_, _ = conn.Exec(ctxUnlock, advisoryUnlockSQL, key)
		conn.Release()
	}
	return unlock, true, nil
}

// InsertReading appends one decoded observation.
func (s *Store) InsertReading(ctx context.Context, rec ReadingRecord) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	_, execErr := pool.Exec(ctx, insertReadingSQL,
		rec.CapturedAt,
		rec.SchemaVersion,
		rec.Temp,
		rec.Wind,
		rec.Gust,
		rec.Dir,
		rec.Humidity,
		rec.Pressure,
		rec.Rain,
		rec.UV,
		rec.Solar,
	)
	if execErr != nil {
		return fmt.Errorf("insert reading: %w", execErr)
	}
	return nil
}

// ListReadingsBetween lists readings in [from, to) ordered by capture time.
func (s *Store) ListReadingsBetween(ctx context.Context, from, to time.Time) ([]ReadingRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listReadingsBetweenSQL, from, to)
	if queryErr != nil {
		return nil, fmt.Errorf("list readings between: %w", queryErr)
	}
	defer rows.Close()

	return collectReadings(rows)
}

// ListRecentReadings lists the most recent readings, newest first.
func (s *Store) ListRecentReadings(ctx context.Context, limit int) ([]ReadingRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentReadingsSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent readings: %w", queryErr)
	}
	defer rows.Close()

	return collectReadings(rows)
}

// LatestReading returns the newest persisted reading.
func (s *Store) LatestReading(ctx context.Context) (ReadingRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return ReadingRecord{}, err
	}

	rows, queryErr := pool.Query(ctx, latestReadingSQL)
	if queryErr != nil {
		return ReadingRecord{}, fmt.Errorf("latest reading: %w", queryErr)
	}
	defer rows.Close()

	readings, err := collectReadings(rows)
	if err != nil {
		return ReadingRecord{}, err
	}
	if len(readings) == 0 {
		return ReadingRecord{}, ErrNoReadings
	}
	return readings[0], nil
}

// CountReadings counts stored readings.
func (s *Store) CountReadings(ctx context.Context) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	var count int64
	if scanErr := pool.QueryRow(ctx, countReadingsSQL).Scan(&count); scanErr != nil {
		return 0, fmt.Errorf("count readings: %w", scanErr)
	}
	return count, nil
}

// DeleteReadingsBefore expires raw readings older than the retention cutoff.
func (s *Store) DeleteReadingsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	tag, execErr := pool.Exec(ctx, deleteReadingsBeforeSQL, cutoff)
	if execErr != nil {
		return 0, fmt.Errorf("delete readings before: %w", execErr)
	}
	return tag.RowsAffected(), nil
}

// UpsertDailyStat folds one temperature into the day's low/high/current row.
// First reading of a day seeds low=high=current=value.
func (s *Store) UpsertDailyStat(ctx context.Context, day time.Time, value float64) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if _, execErr := pool.Exec(ctx, upsertDailyStatSQL, day, value); execErr != nil {
		return fmt.Errorf("upsert daily stat: %w", execErr)
	}
	return nil
}

// ReconcileDailyStat overwrites low/high with the true MIN/MAX over the
// day's readings. Returns true when a divergence was corrected. The current
// column is never reconciled.
func (s *Store) ReconcileDailyStat(ctx context.Context, day, dayStart, dayEnd time.Time) (bool, error) {
	pool, err := s.getPool()
	if err != nil {
		return false, err
	}
	tag, execErr := pool.Exec(ctx, reconcileDailyStatSQL, day, dayStart, dayEnd)
	if execErr != nil {
		return false, fmt.Errorf("reconcile daily stat: %w", execErr)
	}
	return tag.RowsAffected() > 0, nil
}

// GetDailyStat fetches one day's stat row.
func (s *Store) GetDailyStat(ctx context.Context, day time.Time) (DailyStat, bool, error) {
	pool, err := s.getPool()
	if err != nil {
		return DailyStat{}, false, err
	}

	var stat DailyStat
	scanErr := pool.QueryRow(ctx, getDailyStatSQL, day).Scan(
		&stat.Day,
		&stat.Low,
		&stat.High,
		&stat.Current,
		&stat.UpdatedAt,
	)
	if errors.Is(scanErr, pgx.ErrNoRows) {
		return DailyStat{}, false, nil
	}
	if scanErr != nil {
		return DailyStat{}, false, fmt.Errorf("get daily stat: %w", scanErr)
	}
	return stat, true, nil
}

// UpsertDailyRollup persists one closed-day aggregate, keyed (day, metric).
func (s *Store) UpsertDailyRollup(ctx context.Context, rollup DailyRollup) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	_, execErr := pool.Exec(ctx, upsertDailyRollupSQL,
		rollup.Day,
		rollup.Metric,
		rollup.Max,
		rollup.Avg,
		rollup.Min,
	)
	if execErr != nil {
		return fmt.Errorf("upsert daily rollup: %w", execErr)
	}
	return nil
}

// ListRollupRange returns, for every date any metric was rolled up in
// [from, to), the requested metric's aggregates, nulls where missing.
func (s *Store) ListRollupRange(ctx context.Context, metric string, from, to time.Time) ([]RollupRangeRow, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}
	rows, queryErr := pool.Query(ctx, listRollupRangeSQL, metric, from, to)
	if queryErr != nil {
		return nil, fmt.Errorf("list rollup range: %w", queryErr)
	}
	defer rows.Close()
	return collectRollupRows(rows)
}

// ListRollupRangeAll is ListRollupRange over the full history.
func (s *Store) ListRollupRangeAll(ctx context.Context, metric string) ([]RollupRangeRow, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}
	rows, queryErr := pool.Query(ctx, listRollupRangeAllSQL, metric)
	if queryErr != nil {
		return nil, fmt.Errorf("list rollup range all: %w", queryErr)
	}
	defer rows.Close()
	return collectRollupRows(rows)
}

func collectReadings(rows pgx.Rows) ([]ReadingRecord, error) {
	readings := make([]ReadingRecord, 0)
	for rows.Next() {
		var rec ReadingRecord
		if err := rows.Scan(
			&rec.CapturedAt,
			&rec.SchemaVersion,
			&rec.Temp,
			&rec.Wind,
			&rec.Gust,
			&rec.Dir,
			&rec.Humidity,
			&rec.Pressure,
			&rec.Rain,
			&rec.UV,
			&rec.Solar,
			&rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		readings = append(readings, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return readings, nil
}

func collectRollupRows(rows pgx.Rows) ([]RollupRangeRow, error) {
	out := make([]RollupRangeRow, 0)
	for rows.Next() {
		var row RollupRangeRow
		if err := rows.Scan(&row.Day, &row.Max, &row.Avg, &row.Min); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}
