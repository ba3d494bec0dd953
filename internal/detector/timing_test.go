package detector

import (
	"testing"
	"time"

	"github.com/kalshiwatch/engine/internal/store"
)

func TestPreEventSurgeSkipsClosedMarkets(t *testing.T) {
	a := New(DefaultParams())

	trades := make([]store.Trade, 0, 30)
	for i := 0; i < 30; i++ {
		trades = append(trades, makeTrade(time.Duration(i)*time.Minute, 50, 0.5, store.SideYes))
	}

	// Market resolved far outside the surge window.
	f := a.analyzePreEventSurge(trades, testBase.Add(-30*24*time.Hour))
	if f.anomalous {
		t.Error("surge should not be evaluated for long-closed markets")
	}

	f = a.analyzePreEventSurge(trades, time.Time{})
	if f.anomalous {
		t.Error("surge should not be evaluated without a close time")
	}
}

func TestPreEventSurgeSteadyFlow(t *testing.T) {
	params := DefaultParams()
	a := New(params)
	a.now = func() time.Time { return testBase.Add(2 * time.Hour) }

	// Constant rate throughout; ratio should stay near 1.
	trades := make([]store.Trade, 0, 100)
	for i := 0; i < 100; i++ {
		trades = append(trades, makeTrade(time.Duration(i)*time.Minute, 10, 0.5, store.SideYes))
	}

	f := a.analyzePreEventSurge(trades, testBase.Add(3*time.Hour))
	if f.anomalous {
		t.Errorf("steady flow flagged as surge: %s", f.description)
	}
}

func TestPreEventSurgeDetectsSpike(t *testing.T) {
	a := New(DefaultParams())
	a.now = func() time.Time { return testBase.Add(2 * time.Hour) }

	// 90 small trades followed by 10 whales in the last stretch.
	trades := make([]store.Trade, 0, 100)
	for i := 0; i < 100; i++ {
		count := 1
		if i >= 90 {
			count = 100
		}
		trades = append(trades, makeTrade(time.Duration(i)*time.Minute, count, 0.5, store.SideYes))
	}

	f := a.analyzePreEventSurge(trades, testBase.Add(3*time.Hour))
	if !f.anomalous {
		t.Fatal("expected surge to trigger")
	}
	if f.severity != 5 {
		t.Errorf("expected severity 5, got %d", f.severity)
	}
}

func TestTimingEntropyUniformGaps(t *testing.T) {
	// Identical 1-minute gaps collapse into a single histogram bucket.
	trades := make([]store.Trade, 0, 30)
	for i := 0; i < 30; i++ {
		trades = append(trades, makeTrade(time.Duration(i)*time.Minute, 10, 0.5, store.SideYes))
	}

	f := analyzeTimingEntropy(trades)
	if !f.anomalous {
		t.Fatal("expected uniform gaps to trigger low entropy")
	}
	if f.severity != 4 {
		t.Errorf("expected severity 4, got %d", f.severity)
	}
	if f.data["interpretation"] != "Highly coordinated" {
		t.Errorf("expected 'Highly coordinated', got %v", f.data["interpretation"])
	}
}

func TestTimingEntropyNoisyGaps(t *testing.T) {
	// Gaps spread across many distinct 30s buckets keep entropy high.
	trades := make([]store.Trade, 0, 30)
	offset := time.Duration(0)
	for i := 0; i < 30; i++ {
		trades = append(trades, makeTrade(offset, 10, 0.5, store.SideYes))
		offset += time.Duration(30+i*37) * time.Second
	}

	f := analyzeTimingEntropy(trades)
	if f.anomalous {
		t.Errorf("noisy gaps flagged as coordinated: %s", f.description)
	}
}

func TestTimingEntropyGate(t *testing.T) {
	trades := make([]store.Trade, 0, 19)
	for i := 0; i < 19; i++ {
		trades = append(trades, makeTrade(time.Duration(i)*time.Minute, 10, 0.5, store.SideYes))
	}
	if f := analyzeTimingEntropy(trades); f.anomalous {
		t.Error("entropy should not run below 20 trades")
	}
}

func TestClusteringCVRegular(t *testing.T) {
	// Metronome tape: CV = 0.
	trades := make([]store.Trade, 0, 30)
	for i := 0; i < 30; i++ {
		trades = append(trades, makeTrade(time.Duration(i)*time.Minute, 10, 0.5, store.SideYes))
	}

	f := analyzeClusteringCV(trades)
	if !f.anomalous {
		t.Fatal("expected zero-variance intervals to trigger")
	}
	if f.severity != 4 {
		t.Errorf("expected severity 4, got %d", f.severity)
	}
	if f.data["pattern"] != "Bot-like regularity" {
		t.Errorf("unexpected pattern: %v", f.data["pattern"])
	}
}

func TestClusteringCVBursty(t *testing.T) {
	// 19 one-second gaps and a single 200-second pause make the interval
	// distribution heavily right-skewed.
	trades := make([]store.Trade, 0, 21)
	offset := time.Duration(0)
	for i := 0; i < 21; i++ {
		trades = append(trades, makeTrade(offset, 10, 0.5, store.SideYes))
		if i == 9 {
			offset += 200 * time.Second
		} else {
			offset += time.Second
		}
	}

	f := analyzeClusteringCV(trades)
	if !f.anomalous {
		t.Fatal("expected bursty intervals to trigger")
	}
	if f.data["pattern"] != "Clustered bursts" {
		t.Errorf("unexpected pattern: %v", f.data["pattern"])
	}
}
