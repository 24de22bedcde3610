package provider

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	"taxharvest/pkg/harvest"
)

const (
	bucketSTCG = "stcg"
	bucketLTCG = "ltcg"

	metaSeeded = "fixtures_seeded"
)

//go:embed fixtures/holdings.json
var fixtureHoldings []byte

//go:embed fixtures/capital_gains.json
var fixtureCapitalGains []byte

func initDatabase(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Monetary columns are TEXT so decimal values round-trip exactly.
	if err := exec(tx, `
		CREATE TABLE IF NOT EXISTS holdings (
			coin TEXT PRIMARY KEY,
			position INTEGER NOT NULL,
			coin_name TEXT NOT NULL,
			logo TEXT NOT NULL DEFAULT '',
			current_price TEXT NOT NULL DEFAULT '0',
			total_holding REAL NOT NULL DEFAULT 0,
			average_buy_price TEXT NOT NULL DEFAULT '0',
			stcg_balance REAL NOT NULL DEFAULT 0,
			stcg_gain TEXT NOT NULL DEFAULT '0',
			ltcg_balance REAL NOT NULL DEFAULT 0,
			ltcg_gain TEXT NOT NULL DEFAULT '0'
		)
	`); err != nil {
		return err
	}
	if err := exec(tx, `CREATE INDEX IF NOT EXISTS idx_holdings_position ON holdings(position)`); err != nil {
		return err
	}

	if err := exec(tx, `
		CREATE TABLE IF NOT EXISTS capital_gains (
			bucket TEXT PRIMARY KEY CHECK (bucket IN ('stcg', 'ltcg')),
			profits TEXT NOT NULL DEFAULT '0',
			losses TEXT NOT NULL DEFAULT '0'
		)
	`); err != nil {
		return err
	}

	if err := exec(tx, `
		CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)
	`); err != nil {
		return err
	}

	return tx.Commit()
}

func exec(tx *sql.Tx, query string) error {
	if _, err := tx.Exec(query); err != nil {
		return fmt.Errorf("exec schema: %w", err)
	}
	return nil
}

// seedIfNeeded loads the bundled snapshot once per database. A database
// whose holdings were later emptied on purpose is not reseeded.
func (r *Repository) seedIfNeeded(ctx context.Context) error {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, metaSeeded).Scan(&value)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return harvest.WrapError(harvest.ErrCodeDatabase, "read seed marker", err)
	}

	holdings, cg, err := loadFixtures()
	if err != nil {
		return err
	}
	if err := r.withTx(ctx, func(tx *sql.Tx) error {
		if err := replaceHoldingsTx(ctx, tx, holdings); err != nil {
			return err
		}
		if err := setCapitalGainsTx(ctx, tx, cg); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO meta (key, value) VALUES (?, '1')`, metaSeeded); err != nil {
			return harvest.WrapError(harvest.ErrCodeDatabase, "write seed marker", err)
		}
		return nil
	}); err != nil {
		return err
	}
	r.logger.Info("seeded provider fixtures", "holdings", len(holdings), "db_path", r.dbPath)
	return nil
}

func loadFixtures() ([]harvest.Holding, harvest.CapitalGains, error) {
	holdings, err := harvest.DecodeHoldings(fixtureHoldings)
	if err != nil {
		return nil, harvest.CapitalGains{}, fmt.Errorf("holdings fixture: %w", err)
	}
	cg, err := harvest.DecodeCapitalGains(fixtureCapitalGains)
	if err != nil {
		return nil, harvest.CapitalGains{}, fmt.Errorf("capital gains fixture: %w", err)
	}
	return holdings, cg, nil
}
