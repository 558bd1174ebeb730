// Command taxmatch matches crypto trade executions into realized-gain tax
// lots: it normalizes a trade ledger against a historic price table, merges
// nearby fills, folds in wallet-transfer fees, runs a FIFO or LIFO match,
// and prints one of four report views for downstream sorting and totaling.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/taxlot/matcher/config"
	"github.com/taxlot/matcher/internal/ingest"
	"github.com/taxlot/matcher/internal/logger"
	"github.com/taxlot/matcher/internal/matching"
	"github.com/taxlot/matcher/internal/merge"
	"github.com/taxlot/matcher/internal/normalize"
	"github.com/taxlot/matcher/internal/prices"
	"github.com/taxlot/matcher/internal/report"
	"github.com/taxlot/matcher/internal/storage"
	"github.com/taxlot/matcher/internal/types"
)

var (
	tradesPath     string
	pricesPath     string
	transfersPath  string
	transferUpdate bool
	currencyHist   string
	currencyOut    string
	strategyName   string
	mergeMinutes   int
	fiat           cli.StringSlice
	direct         bool
	outputView     string
	verbose        bool
)

func main() {
	app := &cli.App{
		Name:  "taxmatch",
		Usage: "IRS Form 8949 FIFO/LIFO matching for crypto trade ledgers",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "trades",
				Aliases:     []string{"t"},
				Usage:       "filename for trade data",
				Required:    true,
				Destination: &tradesPath,
			},
			&cli.StringFlag{
				Name:        "prices",
				Aliases:     []string{"p"},
				Usage:       "optional filename for historical price data",
				Destination: &pricesPath,
			},
			&cli.StringFlag{
				Name:        "transfers",
				Usage:       "optional filename for wallet transfer data",
				Destination: &transfersPath,
			},
			&cli.BoolFlag{
				Name:        "transfer-update",
				Usage:       "consume transfer fees from open lots during matching instead of debiting basis at the end",
				Destination: &transferUpdate,
			},
			&cli.StringFlag{
				Name:        "currency-hist",
				Value:       "USD",
				Usage:       "the currency the prices file is in",
				Destination: &currencyHist,
			},
			&cli.StringFlag{
				Name:        "currency-out",
				Value:       "USD",
				Usage:       "the currency the output is in",
				Destination: &currencyOut,
			},
			&cli.StringFlag{
				Name:        "strategy",
				Aliases:     []string{"s"},
				Value:       "fifo",
				Usage:       "the matching strategy (fifo or lifo)",
				Destination: &strategyName,
			},
			&cli.IntFlag{
				Name:        "merge-minutes",
				Aliases:     []string{"m"},
				Usage:       "merge similar executions within this many minutes of each other",
				Destination: &mergeMinutes,
			},
			&cli.StringSliceFlag{
				Name:        "fiat",
				Usage:       "fiat currency to exclude from matching (repeatable)",
				Destination: &fiat,
			},
			&cli.BoolFlag{
				Name:        "direct",
				Aliases:     []string{"d"},
				Usage:       "price the top of an A/B pair from historical data directly, ignoring the trade price",
				Destination: &direct,
			},
			&cli.StringFlag{
				Name:        "output",
				Aliases:     []string{"o"},
				Value:       "match",
				Usage:       "output view: match, basis, unmatched, or summary",
				Destination: &outputView,
			},
			&cli.BoolFlag{
				Name:        "verbose",
				Aliases:     []string{"v"},
				Usage:       "increase output verbosity",
				Destination: &verbose,
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(_ *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	level := cfg.Logger.Level
	if verbose {
		level = "debug"
	}
	log, err := logger.New(level)
	if err != nil {
		return err
	}
	defer log.Sync()

	strategy, err := types.ParseStrategy(strategyName)
	if err != nil {
		return err
	}
	view, err := types.ParseView(outputView)
	if err != nil {
		return err
	}
	mode := types.Indirect
	if direct {
		mode = types.Direct
	}

	log.Debug("using arguments",
		logger.F("trades", tradesPath), logger.F("prices", pricesPath),
		logger.F("transfers", transfersPath), logger.F("currency", currencyHist),
		logger.F("ccy out", currencyOut), logger.F("strategy", strategy.String()),
		logger.F("merge", mergeMinutes), logger.F("pricing", mode.String()))

	table := prices.NewTable()
	if pricesPath != "" {
		if table, err = ingest.ReadPriceFile(pricesPath); err != nil {
			return err
		}
		log.Debug("price table loaded", logger.F("currencies", table.Currencies()))
	}

	trades, err := ingest.ReadTradesFile(tradesPath)
	if err != nil {
		return err
	}

	var transfers []types.TransferRecord
	transferMode := types.TransfersIgnored
	if transfersPath != "" {
		if transfers, err = ingest.ReadTransfersFile(transfersPath); err != nil {
			return err
		}
		transferMode = types.TransfersBasisOnly
		if transferUpdate {
			transferMode = types.TransfersMatch
		}
	}

	resolver := prices.NewResolver(table, currencyHist, currencyOut, mode, fiat.Value(), log)
	normalizer := normalize.New(resolver, fiat.Value(), log)

	executions, err := normalizer.Run(trades)
	if err != nil {
		log.Error(err)
		return cli.Exit("normalization failed, no output produced", 1)
	}

	executions = merge.Coalesce(executions, time.Duration(mergeMinutes)*time.Minute)
	executions = matching.InterleaveTransfers(executions, transfers)

	engine := matching.New(strategy, transferMode, log)
	result := engine.Run(executions)

	if err := persistMatches(cfg, result.Matches, log); err != nil {
		// stores are an audit convenience; the report still stands
		log.Warn("failed to persist matches", logger.F("error", err.Error()))
	}

	reporter := report.New(os.Stdout, currencyOut)
	return reporter.Render(view, result)
}

// persistMatches writes the emitted matches through every enabled store.
func persistMatches(cfg *config.Config, matches []*types.Match, log *logger.Logger) error {
	var stores []storage.MatchStore

	if cfg.Memory.Enabled {
		stores = append(stores, storage.NewInMemoryMatchStore(cfg.Memory.MaxMatches))
	}
	if cfg.File.LogPath != "" {
		fs, err := storage.NewFileMatchStore(cfg.File.LogPath)
		if err != nil {
			return err
		}
		stores = append(stores, fs)
	}
	if cfg.Database.Enabled {
		ps, err := storage.NewPostgresMatchStore(storage.PostgresConfig{
			Host:            cfg.Database.Host,
			Port:            cfg.Database.Port,
			Database:        cfg.Database.Name,
			User:            cfg.Database.User,
			Password:        cfg.Database.Password,
			MaxConns:        cfg.Database.MaxConns,
			MinConns:        cfg.Database.MinConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
			SSLMode:         cfg.Database.SSLMode,
		})
		if err != nil {
			return err
		}
		stores = append(stores, ps)
	}
	if cfg.Redis.Enabled {
		rs, err := storage.NewRedisMatchStore(storage.RedisConfig{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			MaxRetries:   cfg.Redis.MaxRetries,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			MaxMatches:   cfg.Redis.MaxMatches,
		})
		if err != nil {
			return err
		}
		stores = append(stores, rs)
	}

	if len(stores) == 0 {
		return nil
	}
	store := storage.NewCompositeMatchStore(stores...)
	defer store.Close()

	log.Debug("persisting matches", logger.F("count", len(matches)), logger.F("stores", len(stores)))
	return store.SaveBatch(matches)
}
