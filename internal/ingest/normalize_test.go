package ingest

import (
	"testing"
	"time"

	"github.com/kalshiwatch/engine/internal/store"
)

func TestNormalizeTrade(t *testing.T) {
	got := NormalizeTrade(APITrade{
		TradeID:     "t-1",
		Ticker:      "FED-25DEC-T4.00",
		Count:       150,
		YesPrice:    62,
		NoPrice:     38,
		TakerSide:   "yes",
		CreatedTime: "2026-03-01T12:30:00Z",
	})

	if got.TradeID != "t-1" || got.Ticker != "FED-25DEC-T4.00" {
		t.Errorf("identity fields lost: %+v", got)
	}
	if got.YesPrice != 0.62 || got.NoPrice != 0.38 {
		t.Errorf("expected prices 0.62/0.38, got %v/%v", got.YesPrice, got.NoPrice)
	}
	if got.TakerSide != store.SideYes {
		t.Errorf("expected taker side yes, got %q", got.TakerSide)
	}
	want := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)
	if !got.CreatedTime.Equal(want) {
		t.Errorf("expected %v, got %v", want, got.CreatedTime)
	}
}

func TestNormalizeTradeBadTimestamp(t *testing.T) {
	got := NormalizeTrade(APITrade{TradeID: "t-2", CreatedTime: "not-a-time"})
	if !got.CreatedTime.IsZero() {
		t.Errorf("expected zero time for unparseable timestamp, got %v", got.CreatedTime)
	}
}

func TestNormalizeMarket(t *testing.T) {
	got := NormalizeMarket(APIMarket{
		Ticker:       "FED-25DEC-T4.00",
		Title:        "Fed funds above 4.00%?",
		Status:       "open",
		YesBid:       61,
		YesAsk:       63,
		NoBid:        37,
		NoAsk:        39,
		LastPrice:    62,
		Volume:       12000,
		OpenInterest: 8000,
		CloseTime:    "2026-12-10T20:00:00Z",
	})

	if got.YesBid != 0.61 || got.YesAsk != 0.63 || got.LastPrice != 0.62 {
		t.Errorf("quote normalization wrong: %+v", got)
	}
	if got.Volume != 12000 || got.OpenInterest != 8000 {
		t.Errorf("size fields lost: %+v", got)
	}
	if got.CloseTime.IsZero() {
		t.Error("close time should parse")
	}
}

func TestNormalizeMarketMissingFields(t *testing.T) {
	got := NormalizeMarket(APIMarket{Ticker: "X"})
	if got.YesBid != 0 || got.LastPrice != 0 {
		t.Errorf("zero wire fields should stay zero: %+v", got)
	}
	if !got.CloseTime.IsZero() {
		t.Errorf("missing close time should be zero, got %v", got.CloseTime)
	}
}

func TestNormalizeOrderbookKeepsCents(t *testing.T) {
	got := NormalizeOrderbook(APIOrderbook{
		Yes: [][2]float64{{61, 500}, {60, 250}},
		No:  [][2]float64{{37, 400}},
	})

	if len(got.Yes) != 2 || len(got.No) != 1 {
		t.Fatalf("level counts wrong: %d yes, %d no", len(got.Yes), len(got.No))
	}
	if got.Yes[0].Price() != 61 || got.Yes[0].Size() != 500 {
		t.Errorf("book prices must stay in cents: %+v", got.Yes[0])
	}
	if store.Depth(got.Yes) != 750 {
		t.Errorf("expected yes depth 750, got %v", store.Depth(got.Yes))
	}
}

func TestParseTimeFormats(t *testing.T) {
	cases := []string{
		"2026-03-01T12:30:00Z",
		"2026-03-01T12:30:00.123456Z",
		"2026-03-01 12:30:00",
	}
	for _, s := range cases {
		if parseTime(s).IsZero() {
			t.Errorf("parseTime(%q) returned zero time", s)
		}
	}
	if !parseTime("").IsZero() {
		t.Error("empty timestamp should return zero time")
	}
}
