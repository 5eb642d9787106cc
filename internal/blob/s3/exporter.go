package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/takahiro47/marketstore/internal/domain"
	"github.com/takahiro47/marketstore/internal/numeric"
)

// BarRangeLoader is the narrow read surface the exporter needs: the
// range-load operation of a bar store.
type BarRangeLoader interface {
	LoadRange(ctx context.Context, s domain.BarSeries, from, to time.Time) ([]domain.BarPoint, error)
}

// Exporter serializes bar ranges to JSONL and uploads them to object
// storage. Rows in the database are immutable and stay where they are; an
// export never deletes anything.
type Exporter struct {
	writer domain.BlobWriter
	bars   BarRangeLoader
	logger *slog.Logger
}

// NewExporter creates an Exporter.
func NewExporter(writer domain.BlobWriter, bars BarRangeLoader, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{
		writer: writer,
		bars:   bars,
		logger: logger.With(slog.String("component", "exporter")),
	}
}

// barPointRecord is the JSONL shape of one exported bar. Decimal fields are
// written in their canonical text form; a JSON number would round them.
type barPointRecord struct {
	Datetime                    string `json:"datetime"`
	Open                        string `json:"open"`
	High                        string `json:"high"`
	Low                         string `json:"low"`
	Close                       string `json:"close"`
	DollarVolume                string `json:"dollar_volume"`
	DollarBuyVolume             string `json:"dollar_buy_volume"`
	DollarSellVolume            string `json:"dollar_sell_volume"`
	DollarLiquidationBuyVolume  string `json:"dollar_liquidation_buy_volume"`
	DollarLiquidationSellVolume string `json:"dollar_liquidation_sell_volume"`
	DollarCumsum                string `json:"dollar_cumsum"`
	DollarBuyCumsum             string `json:"dollar_buy_cumsum"`
	DollarSellCumsum            string `json:"dollar_sell_cumsum"`
}

func toRecord(p domain.BarPoint) barPointRecord {
	return barPointRecord{
		Datetime:                    p.Datetime.UTC().Format(time.RFC3339Nano),
		Open:                        numeric.Encode(p.Open),
		High:                        numeric.Encode(p.High),
		Low:                         numeric.Encode(p.Low),
		Close:                       numeric.Encode(p.Close),
		DollarVolume:                numeric.Encode(p.DollarVolume),
		DollarBuyVolume:             numeric.Encode(p.DollarBuyVolume),
		DollarSellVolume:            numeric.Encode(p.DollarSellVolume),
		DollarLiquidationBuyVolume:  numeric.Encode(p.DollarLiquidationBuyVolume),
		DollarLiquidationSellVolume: numeric.Encode(p.DollarLiquidationSellVolume),
		DollarCumsum:                numeric.Encode(p.DollarCumsum),
		DollarBuyCumsum:             numeric.Encode(p.DollarBuyCumsum),
		DollarSellCumsum:            numeric.Encode(p.DollarSellCumsum),
	}
}

// exportPath builds the object key for one exported range. Symbols like
// "BTC/USDT" would otherwise introduce extra path segments, so slashes in
// identity components are flattened to dashes.
func exportPath(s domain.BarSeries, from, to time.Time) string {
	seg := func(v string) string {
		return strings.ReplaceAll(strings.ToLower(v), "/", "-")
	}
	return fmt.Sprintf("bars/%s/%s/%s_%s/%s--%s.jsonl",
		seg(s.Exchange), seg(s.Symbol), string(s.Kind), seg(s.Interval),
		from.UTC().Format("20060102T150405Z"), to.UTC().Format("20060102T150405Z"),
	)
}

// ExportBars loads the published projection of all bars in [from, to) and
// uploads them as one JSONL object. It returns the number of bars exported;
// an empty range uploads nothing.
func (e *Exporter) ExportBars(ctx context.Context, series domain.BarSeries, from, to time.Time) (int64, error) {
	points, err := e.bars.LoadRange(ctx, series, from, to)
	if err != nil {
		return 0, fmt.Errorf("s3blob: export bars: %w", err)
	}
	if len(points) == 0 {
		e.logger.InfoContext(ctx, "no bars in range, skipping export",
			slog.String("table", series.TableName()),
		)
		return 0, nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, p := range points {
		if err := enc.Encode(toRecord(p)); err != nil {
			return 0, fmt.Errorf("s3blob: encode bar: %w", err)
		}
	}

	path := exportPath(series, from, to)
	if err := e.writer.Put(ctx, path, bytes.NewReader(buf.Bytes()), "application/x-ndjson"); err != nil {
		return 0, err
	}

	e.logger.InfoContext(ctx, "exported bars",
		slog.String("path", path),
		slog.Int("count", len(points)),
		slog.Int("bytes", buf.Len()),
	)
	return int64(len(points)), nil
}
