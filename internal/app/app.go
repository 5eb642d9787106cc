// Package app wires configuration into concrete dependencies and runs the
// selected application mode.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/takahiro47/marketstore/internal/config"
	"github.com/takahiro47/marketstore/internal/domain"
	"github.com/takahiro47/marketstore/internal/numeric"
	"github.com/takahiro47/marketstore/internal/service"
)

// App runs one of the store's operating modes to completion.
type App struct {
	cfg    *config.Config
	logger *slog.Logger
}

// New creates the application.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run wires dependencies and dispatches on the configured mode.
func (a *App) Run(ctx context.Context) error {
	deps, cleanup, err := Wire(ctx, a.cfg, a.logger)
	if err != nil {
		return err
	}
	defer cleanup()

	a.logger.InfoContext(ctx, "marketstore starting", slog.String("mode", a.cfg.Mode))

	switch a.cfg.Mode {
	case "provision":
		return a.runProvision(ctx, deps)
	case "status":
		return a.runStatus(ctx, deps)
	case "export":
		return a.runExport(ctx, deps)
	default:
		return fmt.Errorf("app: unknown mode %q", a.cfg.Mode)
	}
}

// runProvision ensures every configured market's tables exist. Existing
// tables are left untouched; this mode never drops data.
func (a *App) runProvision(ctx context.Context, deps *Dependencies) error {
	targets := make([]service.ProvisionTarget, 0, len(a.cfg.Markets))
	for _, m := range a.cfg.Markets {
		targets = append(targets, service.ProvisionTarget{
			Market:          domain.Market{Exchange: m.Exchange, Symbol: m.Symbol},
			DollarIntervals: m.DollarIntervals,
			TimeIntervals:   m.TimeIntervals,
		})
	}
	return deps.Service.Provision(ctx, targets, false)
}

// runStatus logs the first and latest trade of every configured market.
func (a *App) runStatus(ctx context.Context, deps *Dependencies) error {
	for _, mc := range a.cfg.Markets {
		m := domain.Market{Exchange: mc.Exchange, Symbol: mc.Symbol}

		lp, err := deps.Service.LatestPrice(ctx, m)
		if errors.Is(err, domain.ErrNotFound) {
			a.logger.InfoContext(ctx, "no trades recorded",
				slog.String("table", m.TradeTableName()),
			)
			continue
		}
		if err != nil {
			return err
		}

		first, err := deps.Service.FirstTrade(ctx, m)
		if err != nil {
			return err
		}

		attrs := []any{
			slog.String("table", m.TradeTableName()),
			slog.String("latest_price", numeric.Encode(lp.Price)),
			slog.String("latest_dollar_cumsum", numeric.Encode(lp.DollarCumsum)),
			slog.Time("latest_at", lp.Datetime),
		}
		if first != nil {
			attrs = append(attrs,
				slog.String("first_dollar_cumsum", numeric.Encode(first.DollarCumsum)),
				slog.Time("first_at", first.Datetime),
			)
		}
		a.logger.InfoContext(ctx, "market status", attrs...)
	}
	return nil
}

// runExport uploads one configured bar range to object storage.
func (a *App) runExport(ctx context.Context, deps *Dependencies) error {
	from, to, err := a.cfg.Export.Window()
	if err != nil {
		return err
	}

	series := domain.BarSeries{
		Market:   domain.Market{Exchange: a.cfg.Export.Exchange, Symbol: a.cfg.Export.Symbol},
		Kind:     domain.BarKind(a.cfg.Export.Kind),
		Interval: a.cfg.Export.Interval,
	}

	count, err := deps.Exporter.ExportBars(ctx, series, from, to)
	if err != nil {
		return err
	}

	a.logger.InfoContext(ctx, "export finished",
		slog.String("table", series.TableName()),
		slog.Int64("bars", count),
	)
	return nil
}
