package timescale

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/takahiro47/marketstore/internal/domain"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}

func TestTradeInsertArgs(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	trade := domain.Trade{
		Datetime:         at,
		ID:               "8812345",
		Side:             domain.SideBuy,
		Liquidation:      true,
		Price:            dec(t, "42000.50"),
		Volume:           dec(t, "0.25"),
		DollarVolume:     dec(t, "10500.125"),
		DollarCumsum:     dec(t, "10500.125"),
		DollarBuyCumsum:  dec(t, "10500.125"),
		DollarSellCumsum: dec(t, "0"),
	}

	args := tradeInsertArgs(trade)
	if len(args) != 10 {
		t.Fatalf("len(args) = %d, want 10", len(args))
	}

	if got := args[0].(time.Time); !got.Equal(at) {
		t.Errorf("datetime = %v, want %v", got, at)
	}
	if got := args[1].(*string); got == nil || *got != "8812345" {
		t.Errorf("id = %v, want 8812345", got)
	}
	if got := args[2].(string); got != "buy" {
		t.Errorf("side = %q, want buy", got)
	}
	if got := args[3].(bool); !got {
		t.Error("liquidation = false, want true")
	}

	// Decimals go out in canonical text form, trailing zeros trimmed.
	wantNums := []string{"42000.5", "0.25", "10500.125", "10500.125", "10500.125", "0"}
	for i, want := range wantNums {
		if got := args[4+i].(string); got != want {
			t.Errorf("args[%d] = %q, want %q", 4+i, got, want)
		}
	}
}

func TestTradeInsertArgsAbsentID(t *testing.T) {
	args := tradeInsertArgs(domain.Trade{Side: domain.SideSell})
	if got := args[1].(*string); got != nil {
		t.Errorf("absent id = %v, want nil", got)
	}
	if got := args[2].(string); got != "sell" {
		t.Errorf("side = %q, want sell", got)
	}
}

func TestTradeAppendRejectsInvalidIdentity(t *testing.T) {
	s := NewTradeStore(nil)
	_, err := s.Append(context.Background(), domain.Market{Exchange: "bad;exchange", Symbol: "x"},
		[]domain.Trade{{Side: domain.SideBuy}}, domain.AppendOnly)
	if err == nil {
		t.Fatal("expected identifier error, got nil")
	}
}

func TestTradeAppendEmptyBatchIsNoop(t *testing.T) {
	// A nil pool would panic on any I/O; the empty batch must return before
	// touching it.
	s := NewTradeStore(nil)
	n, err := s.Append(context.Background(), domain.Market{Exchange: "ftx", Symbol: "BTC-PERP"}, nil, domain.AppendOnly)
	if err != nil {
		t.Fatalf("Append(empty) error = %v", err)
	}
	if n != 0 {
		t.Errorf("Append(empty) = %d rows, want 0", n)
	}
}
