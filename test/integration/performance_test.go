package integration

import (
	"testing"
	"time"

	"github.com/iwvelando/mortgage-calculator/internal/calculator"
	"github.com/iwvelando/mortgage-calculator/internal/config"
	"go.uber.org/zap"
)

// TestPerformance checks that loading and fully recomputing the fixture
// stays far below interactive latency.
func TestPerformance(t *testing.T) {
	logger := zap.NewNop()

	start := time.Now()
	conf, err := config.LoadConfiguration("../test_config.yaml")
	if err != nil {
		t.Fatalf("LoadConfiguration failed: %v", err)
	}
	loadTime := time.Since(start)

	start = time.Now()
	results, err := calculator.GetCalculations(logger, *conf)
	if err != nil {
		t.Fatalf("GetCalculations failed: %v", err)
	}
	calculateTime := time.Since(start)

	t.Logf("Performance metrics:")
	t.Logf("  Load config: %v", loadTime)
	t.Logf("  Calculate: %v", calculateTime)

	if calculateTime > time.Second {
		t.Errorf("Calculation time %v exceeds 1 second threshold", calculateTime)
	}
	if len(results) != 3 {
		t.Errorf("Expected 3 results, got %d", len(results))
	}
}

// TestRecalculationLatency simulates a user dragging the price input and
// recomputing after every change.
func TestRecalculationLatency(t *testing.T) {
	calc := calculator.New(zap.NewNop(), nil)
	in := calculator.DefaultInputs()

	const iterations = 200
	var slowest time.Duration
	start := time.Now()
	for i := 0; i < iterations; i++ {
		in.Price = 250000 + float64(i)*1000
		result, err := calc.Calculate("latency", in)
		if err != nil {
			t.Fatalf("Calculate failed at price %.0f: %v", in.Price, err)
		}
		if result.Duration > slowest {
			slowest = result.Duration
		}
	}
	total := time.Since(start)

	t.Logf("%d recalculations in %v (slowest %v)", iterations, total, slowest)
	if average := total / iterations; average > 50*time.Millisecond {
		t.Errorf("Average recalculation %v exceeds 50ms", average)
	}
}

func BenchmarkCalculate(b *testing.B) {
	calc := calculator.New(zap.NewNop(), nil)
	in := calculator.DefaultInputs()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := calc.Calculate("benchmark", in); err != nil {
			b.Fatal(err)
		}
	}
}
