package provider

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"taxharvest/pkg/harvest"
)

// Options controls Repository initialization.
type Options struct {
	DBPath string
	Logger *slog.Logger
	// SkipSeed leaves a fresh database empty instead of loading the bundled
	// fixture snapshot.
	SkipSeed bool
}

// Repository is the sqlite-backed holdings and capital-gains provider. It
// stands in for a real portfolio backend and serves the same shapes.
type Repository struct {
	db     *sql.DB
	logger *slog.Logger
	dbPath string
}

var _ harvest.Source = (*Repository)(nil)

// Open initializes a Repository at dbPath with default options.
func Open(dbPath string) (*Repository, error) {
	return OpenWithOptions(Options{DBPath: dbPath})
}

// OpenWithOptions initializes a Repository using the provided options.
func OpenWithOptions(opts Options) (*Repository, error) {
	if opts.DBPath == "" {
		return nil, errors.New("db path is required")
	}
	cleanPath := filepath.Clean(opts.DBPath)
	if err := os.MkdirAll(filepath.Dir(cleanPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite", cleanPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// SQLite performs best with a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logger.Warn("pragma busy_timeout failed", "err", err)
	}

	if err := initDatabase(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init database: %w", err)
	}

	r := &Repository{db: db, logger: logger, dbPath: cleanPath}
	if !opts.SkipSeed {
		if err := r.seedIfNeeded(context.Background()); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("seed database: %w", err)
		}
	}
	return r, nil
}

// Close releases database resources.
func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// DBPath returns the underlying database path.
func (r *Repository) DBPath() string {
	return r.dbPath
}

// Holdings returns the stored holdings in display order.
func (r *Repository) Holdings(ctx context.Context) ([]harvest.Holding, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT coin, coin_name, logo, current_price, total_holding, average_buy_price,
			stcg_balance, stcg_gain, ltcg_balance, ltcg_gain
		FROM holdings
		ORDER BY position ASC
	`)
	if err != nil {
		return nil, harvest.WrapError(harvest.ErrCodeDatabase, "query holdings", err)
	}
	defer rows.Close()

	holdings := []harvest.Holding{}
	for rows.Next() {
		var h harvest.Holding
		if err := rows.Scan(
			&h.Coin, &h.CoinName, &h.Logo, &h.CurrentPrice, &h.TotalHolding, &h.AverageBuyPrice,
			&h.STCG.Balance, &h.STCG.Gain, &h.LTCG.Balance, &h.LTCG.Gain,
		); err != nil {
			return nil, harvest.WrapError(harvest.ErrCodeDatabase, "scan holding", err)
		}
		holdings = append(holdings, h)
	}
	if err := rows.Err(); err != nil {
		return nil, harvest.WrapError(harvest.ErrCodeDatabase, "iterate holdings", err)
	}
	return holdings, nil
}

// CapitalGains returns the stored pre-harvest totals.
func (r *Repository) CapitalGains(ctx context.Context) (harvest.CapitalGains, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT bucket, profits, losses FROM capital_gains`)
	if err != nil {
		return harvest.CapitalGains{}, harvest.WrapError(harvest.ErrCodeDatabase, "query capital gains", err)
	}
	defer rows.Close()

	var cg harvest.CapitalGains
	found := 0
	for rows.Next() {
		var bucket string
		var t harvest.Totals
		if err := rows.Scan(&bucket, &t.Profits, &t.Losses); err != nil {
			return harvest.CapitalGains{}, harvest.WrapError(harvest.ErrCodeDatabase, "scan capital gains", err)
		}
		switch bucket {
		case bucketSTCG:
			cg.STCG = t
		case bucketLTCG:
			cg.LTCG = t
		default:
			continue
		}
		found++
	}
	if err := rows.Err(); err != nil {
		return harvest.CapitalGains{}, harvest.WrapError(harvest.ErrCodeDatabase, "iterate capital gains", err)
	}
	if found == 0 {
		return harvest.CapitalGains{}, harvest.NewError(harvest.ErrCodeNotFound, "capital gains not recorded")
	}
	return cg, nil
}

// ReplaceHoldings swaps the whole holdings list. Order is preserved.
func (r *Repository) ReplaceHoldings(ctx context.Context, holdings []harvest.Holding) error {
	for i, h := range holdings {
		if err := harvest.ValidateHolding(h); err != nil {
			return harvest.WrapError(harvest.ErrCodeInvalidInput, fmt.Sprintf("holding %d", i), err)
		}
	}
	return r.withTx(ctx, func(tx *sql.Tx) error {
		return replaceHoldingsTx(ctx, tx, holdings)
	})
}

// SetCapitalGains overwrites both buckets.
func (r *Repository) SetCapitalGains(ctx context.Context, cg harvest.CapitalGains) error {
	if err := harvest.ValidateCapitalGains(cg); err != nil {
		return harvest.WrapError(harvest.ErrCodeInvalidInput, "capital gains", err)
	}
	return r.withTx(ctx, func(tx *sql.Tx) error {
		return setCapitalGainsTx(ctx, tx, cg)
	})
}

// FetchHoldings implements harvest.Source.
func (r *Repository) FetchHoldings(ctx context.Context) ([]harvest.Holding, error) {
	return r.Holdings(ctx)
}

// FetchCapitalGains implements harvest.Source.
func (r *Repository) FetchCapitalGains(ctx context.Context) (harvest.CapitalGains, error) {
	return r.CapitalGains(ctx)
}

func replaceHoldingsTx(ctx context.Context, tx *sql.Tx, holdings []harvest.Holding) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM holdings`); err != nil {
		return harvest.WrapError(harvest.ErrCodeDatabase, "clear holdings", err)
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO holdings (
			position, coin, coin_name, logo, current_price, total_holding, average_buy_price,
			stcg_balance, stcg_gain, ltcg_balance, ltcg_gain
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return harvest.WrapError(harvest.ErrCodeDatabase, "prepare holding insert", err)
	}
	defer stmt.Close()

	for i, h := range holdings {
		if _, err := stmt.ExecContext(ctx,
			i, h.Coin, h.CoinName, h.Logo, h.CurrentPrice, h.TotalHolding, h.AverageBuyPrice,
			h.STCG.Balance, h.STCG.Gain, h.LTCG.Balance, h.LTCG.Gain,
		); err != nil {
			return harvest.WrapError(harvest.ErrCodeDatabase, fmt.Sprintf("insert holding %s", h.Coin), err)
		}
	}
	return nil
}

func setCapitalGainsTx(ctx context.Context, tx *sql.Tx, cg harvest.CapitalGains) error {
	for bucket, t := range map[string]harvest.Totals{bucketSTCG: cg.STCG, bucketLTCG: cg.LTCG} {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO capital_gains (bucket, profits, losses) VALUES (?, ?, ?)
			ON CONFLICT(bucket) DO UPDATE SET profits = excluded.profits, losses = excluded.losses
		`, bucket, t.Profits, t.Losses); err != nil {
			return harvest.WrapError(harvest.ErrCodeDatabase, "upsert capital gains "+bucket, err)
		}
	}
	return nil
}

// withTx executes fn within a transaction, rolling back on error or panic.
func (r *Repository) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return harvest.WrapError(harvest.ErrCodeDatabase, "failed to begin transaction", err)
	}

	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				r.logger.Error("transaction rollback failed on panic", "error", rbErr, "panic_value", p)
			}
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			r.logger.Error("transaction rollback failed", "error", rbErr, "original_error", err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return harvest.WrapError(harvest.ErrCodeDatabase, "failed to commit transaction", err)
	}
	return nil
}
