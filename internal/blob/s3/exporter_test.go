package s3blob

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/takahiro47/marketstore/internal/domain"
)

type fakeLoader struct {
	points []domain.BarPoint
}

func (f *fakeLoader) LoadRange(context.Context, domain.BarSeries, time.Time, time.Time) ([]domain.BarPoint, error) {
	return f.points, nil
}

type fakeWriter struct {
	path        string
	contentType string
	body        []byte
	puts        int
}

func (f *fakeWriter) Put(_ context.Context, path string, data io.Reader, contentType string) error {
	body, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.path = path
	f.contentType = contentType
	f.body = body
	f.puts++
	return nil
}

func (f *fakeWriter) PutMultipart(_ context.Context, path string, data io.Reader, _ int64) error {
	return f.Put(context.Background(), path, data, "")
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}

func TestExportPath(t *testing.T) {
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		series domain.BarSeries
		want   string
	}{
		{
			name: "dollar bar",
			series: domain.BarSeries{
				Market:   domain.Market{Exchange: "ftx", Symbol: "BTC-PERP"},
				Kind:     domain.DollarBar,
				Interval: "10000000",
			},
			want: "bars/ftx/btc-perp/dollarbar_10000000/20240301T000000Z--20240302T000000Z.jsonl",
		},
		{
			name: "slash symbol is flattened",
			series: domain.BarSeries{
				Market:   domain.Market{Exchange: "Binance", Symbol: "BTC/USDT"},
				Kind:     domain.TimeBar,
				Interval: "1h",
			},
			want: "bars/binance/btc-usdt/timebar_1h/20240301T000000Z--20240302T000000Z.jsonl",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exportPath(tt.series, from, to); got != tt.want {
				t.Errorf("exportPath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExportBarsWritesJSONL(t *testing.T) {
	t1 := time.Date(2024, 3, 1, 1, 0, 0, 0, time.UTC)
	loader := &fakeLoader{points: []domain.BarPoint{
		{
			Datetime:     t1,
			Open:         dec(t, "42000.5"),
			High:         dec(t, "42100"),
			Low:          dec(t, "41900"),
			Close:        dec(t, "42050"),
			DollarCumsum: dec(t, "1000000"),
		},
		{
			Datetime:     t1.Add(time.Hour),
			Open:         dec(t, "42050"),
			High:         dec(t, "42200"),
			Low:          dec(t, "42000"),
			Close:        dec(t, "42150"),
			DollarCumsum: dec(t, "2000000"),
		},
	}}
	writer := &fakeWriter{}
	exp := NewExporter(writer, loader, nil)

	series := domain.BarSeries{
		Market:   domain.Market{Exchange: "ftx", Symbol: "BTC-PERP"},
		Kind:     domain.TimeBar,
		Interval: "1h",
	}
	n, err := exp.ExportBars(context.Background(), series, t1, t1.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("ExportBars() error = %v", err)
	}
	if n != 2 {
		t.Errorf("exported = %d, want 2", n)
	}
	if writer.contentType != "application/x-ndjson" {
		t.Errorf("content type = %q", writer.contentType)
	}

	var lines []barPointRecord
	sc := bufio.NewScanner(bytes.NewReader(writer.body))
	for sc.Scan() {
		var rec barPointRecord
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			t.Fatalf("bad JSONL line %q: %v", sc.Text(), err)
		}
		lines = append(lines, rec)
	}
	if len(lines) != 2 {
		t.Fatalf("line count = %d, want 2", len(lines))
	}
	if lines[0].Open != "42000.5" {
		t.Errorf("open = %q, want canonical decimal text", lines[0].Open)
	}
	if lines[0].Datetime != "2024-03-01T01:00:00Z" {
		t.Errorf("datetime = %q", lines[0].Datetime)
	}
}

func TestExportBarsEmptyRangeSkipsUpload(t *testing.T) {
	writer := &fakeWriter{}
	exp := NewExporter(writer, &fakeLoader{}, nil)

	series := domain.BarSeries{
		Market:   domain.Market{Exchange: "ftx", Symbol: "BTC-PERP"},
		Kind:     domain.DollarBar,
		Interval: "5000000",
	}
	n, err := exp.ExportBars(context.Background(), series, time.Now().Add(-time.Hour), time.Now())
	if err != nil {
		t.Fatalf("ExportBars() error = %v", err)
	}
	if n != 0 || writer.puts != 0 {
		t.Errorf("empty range exported %d rows via %d uploads", n, writer.puts)
	}
}
