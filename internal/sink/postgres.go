package sink

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// BatchSender is the subset of *pgxpool.Pool used by Postgres.
type BatchSender interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// PostgresConfig configures a Postgres sink.
type PostgresConfig struct {
	Table         string        // Target table: (id uuid, destination text, payload text, received_at timestamptz)
	BatchSize     int           // Default: 500
	FlushInterval time.Duration // Default: 1s; 0 disables the periodic flush
	FlushTimeout  time.Duration // Timeout for the final flush on Close. Default: 10s
}

// DefaultPostgresConfig returns default configuration.
func DefaultPostgresConfig() PostgresConfig {
	return PostgresConfig{
		Table:         "fork_records",
		BatchSize:     500,
		FlushInterval: time.Second,
		FlushTimeout:  10 * time.Second,
	}
}

// PostgresStats contains writer metrics.
type PostgresStats struct {
	Inserts   int64
	Conflicts int64
	Flushes   int64
	Errors    int64
}

// Postgres batches payloads for one destination and inserts them with pgx.
type Postgres struct {
	cfg         PostgresConfig
	destination string
	db          BatchSender
	logger      *slog.Logger
	insertSQL   string

	// Batching
	batchMu sync.Mutex
	batch   []recordRow
	lastErr error
	closed  bool
	stats   PostgresStats

	// Lifecycle
	done chan struct{}
	wg   sync.WaitGroup
}

type recordRow struct {
	ID          uuid.UUID
	Destination string
	Payload     string
	ReceivedAt  time.Time
}

// NewPostgres creates a Postgres sink for destination and starts its flush loop.
func NewPostgres(cfg PostgresConfig, destination string, db BatchSender, logger *slog.Logger) (*Postgres, error) {
	if db == nil {
		return nil, errors.New("postgres sink requires a database")
	}
	if cfg.Table == "" {
		return nil, errors.New("postgres sink requires a table")
	}
	def := DefaultPostgresConfig()
	if cfg.BatchSize < 1 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.FlushTimeout <= 0 {
		cfg.FlushTimeout = def.FlushTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	p := &Postgres{
		cfg:         cfg,
		destination: destination,
		db:          db,
		logger:      logger.With("sink", "postgres", "destination", destination),
		insertSQL:   insertStatement(cfg.Table),
		batch:       make([]recordRow, 0, cfg.BatchSize),
		done:        make(chan struct{}),
	}

	if cfg.FlushInterval > 0 {
		p.wg.Add(1)
		go p.flushLoop()
	}

	return p, nil
}

func insertStatement(table string) string {
	return fmt.Sprintf(
		"INSERT INTO %s (id, destination, payload, received_at) VALUES ($1, $2, $3, $4) ON CONFLICT (id) DO NOTHING",
		pgx.Identifier{table}.Sanitize(),
	)
}

// Write queues payload, flushing when the batch is full. An error from a
// previous background flush is returned here.
func (p *Postgres) Write(ctx context.Context, payload string) error {
	p.batchMu.Lock()
	if p.closed {
		p.batchMu.Unlock()
		return ErrClosed
	}
	if err := p.lastErr; err != nil {
		p.batchMu.Unlock()
		return err
	}
	p.batch = append(p.batch, recordRow{
		ID:          uuid.New(),
		Destination: p.destination,
		Payload:     payload,
		ReceivedAt:  time.Now().UTC(),
	})
	shouldFlush := len(p.batch) >= p.cfg.BatchSize
	p.batchMu.Unlock()

	if shouldFlush {
		return p.flush(ctx)
	}
	return nil
}

// Close stops the flush loop and writes any pending rows.
func (p *Postgres) Close() error {
	p.batchMu.Lock()
	if p.closed {
		p.batchMu.Unlock()
		return nil
	}
	p.closed = true
	p.batchMu.Unlock()

	close(p.done)
	p.wg.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), p.cfg.FlushTimeout)
	defer cancel()

	if err := p.flush(ctx); err != nil {
		return err
	}
	p.logger.Debug("postgres sink closed", "inserts", p.Stats().Inserts)
	return nil
}

// Stats returns current metrics.
func (p *Postgres) Stats() PostgresStats {
	p.batchMu.Lock()
	defer p.batchMu.Unlock()
	return p.stats
}

// flushLoop periodically flushes the batch.
func (p *Postgres) flushLoop() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.done:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), p.cfg.FlushTimeout)
			p.flush(ctx)
			cancel()
		}
	}
}

// flush writes the current batch to the database.
func (p *Postgres) flush(ctx context.Context) error {
	p.batchMu.Lock()
	if len(p.batch) == 0 {
		p.batchMu.Unlock()
		return nil
	}

	// Take ownership of current batch
	batch := p.batch
	p.batch = make([]recordRow, 0, p.cfg.BatchSize)
	p.batchMu.Unlock()

	start := time.Now()

	conflicts, err := p.batchInsert(ctx, batch)
	if err != nil {
		p.logger.Error("batch insert failed", "error", err, "count", len(batch))
		p.batchMu.Lock()
		p.stats.Errors++
		p.lastErr = fmt.Errorf("insert %d rows: %w", len(batch), err)
		err = p.lastErr
		p.batchMu.Unlock()
		return err
	}

	p.batchMu.Lock()
	p.stats.Inserts += int64(len(batch) - conflicts)
	p.stats.Conflicts += int64(conflicts)
	p.stats.Flushes++
	p.batchMu.Unlock()

	p.logger.Debug("flushed records",
		"count", len(batch),
		"conflicts", conflicts,
		"duration", time.Since(start),
	)
	return nil
}

// batchInsert inserts rows using pgx.Batch with ON CONFLICT DO NOTHING.
func (p *Postgres) batchInsert(ctx context.Context, rows []recordRow) (conflicts int, err error) {
	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(p.insertSQL, r.ID, r.Destination, r.Payload, r.ReceivedAt)
	}

	results := p.db.SendBatch(ctx, batch)
	defer results.Close()

	for range rows {
		ct, err := results.Exec()
		if err != nil {
			return 0, err
		}
		if ct.RowsAffected() == 0 {
			conflicts++
		}
	}

	return conflicts, nil
}
