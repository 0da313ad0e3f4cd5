package aggregate

import (
	"math"
	"math/rand"
	"testing"

	"github.com/teamflex/teamcredits/internal/analytics"
)

const epsilon = 1e-9

func approx(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

func sampleRecords() []analytics.UsageRecord {
	return []analytics.UsageRecord{
		{APIKey: "key-a", Date: "2025-09-01", Model: "MODEL_X", FlexCreditsUsed: "150", PromptsUsed: "40"},
		{APIKey: "key-b", Date: "2025-09-01", Model: "MODEL_Y", FlexCreditsUsed: "50", PromptsUsed: ""},
		{APIKey: "key-a", Date: "2025-09-02", Model: "", FlexCreditsUsed: "25", PromptsUsed: "<nil>"},
		{APIKey: "key-b", Date: "2025-10-15", Model: "MODEL_X", FlexCreditsUsed: "300", PromptsUsed: "100"},
		{APIKey: "key-b", Date: "", Model: "MODEL_X", FlexCreditsUsed: "9999", PromptsUsed: "9999"},
	}
}

func TestByDate(t *testing.T) {
	daily, err := ByDate(sampleRecords())
	if err != nil {
		t.Fatalf("ByDate() error: %v", err)
	}

	want := map[string]float64{
		"2025-09-01": 2.00,
		"2025-09-02": 0.25,
		"2025-10-15": 3.00,
	}
	if len(daily) != len(want) {
		t.Fatalf("dates = %d, want %d (%v)", len(daily), len(want), daily)
	}
	for date, credits := range want {
		if !approx(daily[date], credits) {
			t.Errorf("daily[%s] = %v, want %v", date, daily[date], credits)
		}
	}
}

func TestByDate_TwoKeysSameDate(t *testing.T) {
	records := []analytics.UsageRecord{
		{APIKey: "key-a", Date: "2025-09-01", Model: "X", FlexCreditsUsed: "150"},
		{APIKey: "key-b", Date: "2025-09-01", Model: "Y", FlexCreditsUsed: "50"},
	}
	daily, err := ByDate(records)
	if err != nil {
		t.Fatalf("ByDate() error: %v", err)
	}
	if len(daily) != 1 || !approx(daily["2025-09-01"], 2.00) {
		t.Errorf("daily = %v, want {2025-09-01: 2.00}", daily)
	}
}

func TestByDateAndModel(t *testing.T) {
	records := []analytics.UsageRecord{
		{Date: "2025-09-01", Model: "X", FlexCreditsUsed: "150"},
		{Date: "2025-09-01", Model: "Y", FlexCreditsUsed: "50"},
		{Date: "2025-09-01", Model: "X", FlexCreditsUsed: "100"},
		{Date: "2025-09-02", Model: "", FlexCreditsUsed: "30"},
		{Date: "2025-09-02", Model: analytics.NilSentinel, FlexCreditsUsed: "20"},
	}
	dailyModel, err := ByDateAndModel(records)
	if err != nil {
		t.Fatalf("ByDateAndModel() error: %v", err)
	}

	if !approx(dailyModel["2025-09-01"]["X"], 2.50) {
		t.Errorf("X = %v, want 2.50", dailyModel["2025-09-01"]["X"])
	}
	if !approx(dailyModel["2025-09-01"]["Y"], 0.50) {
		t.Errorf("Y = %v, want 0.50", dailyModel["2025-09-01"]["Y"])
	}
	if !approx(dailyModel["2025-09-02"][UnknownModel], 0.30) {
		t.Errorf("empty model bucket = %v, want 0.30", dailyModel["2025-09-02"][UnknownModel])
	}
	// The "<nil>" sentinel stays a distinct bucket; only empty collapses.
	if !approx(dailyModel["2025-09-02"][analytics.NilSentinel], 0.20) {
		t.Errorf("nil sentinel bucket = %v, want 0.20", dailyModel["2025-09-02"][analytics.NilSentinel])
	}
}

func TestByDateAndModel_CollapsesToByDate(t *testing.T) {
	records := sampleRecords()

	daily, err := ByDate(records)
	if err != nil {
		t.Fatalf("ByDate() error: %v", err)
	}
	dailyModel, err := ByDateAndModel(records)
	if err != nil {
		t.Fatalf("ByDateAndModel() error: %v", err)
	}

	for date, models := range dailyModel {
		var sum float64
		for _, credits := range models {
			sum += credits
		}
		if !approx(sum, daily[date]) {
			t.Errorf("sum of models on %s = %v, want %v", date, sum, daily[date])
		}
	}
	if len(dailyModel) != len(daily) {
		t.Errorf("date sets differ: %d vs %d", len(dailyModel), len(daily))
	}
}

func TestByMonth(t *testing.T) {
	records := []analytics.UsageRecord{
		{Date: "2025-09-01", FlexCreditsUsed: "300", PromptsUsed: "<nil>"},
		{Date: "2025-09-15", FlexCreditsUsed: "100", PromptsUsed: "50"},
		{Date: "2025-10-01", FlexCreditsUsed: "", PromptsUsed: "200"},
	}
	monthly, err := ByMonth(records)
	if err != nil {
		t.Fatalf("ByMonth() error: %v", err)
	}

	sep := monthly["2025-09"]
	if !approx(sep.TotalFlexCredits, 4.00) {
		t.Errorf("September flex = %v, want 4.00", sep.TotalFlexCredits)
	}
	if !approx(sep.TotalPromptCredits, 0.50) {
		t.Errorf("September prompt = %v, want 0.50", sep.TotalPromptCredits)
	}
	if !approx(sep.TotalCreditsUsed, 4.50) {
		t.Errorf("September total = %v, want 4.50", sep.TotalCreditsUsed)
	}
	if sep.DataPoints != 2 {
		t.Errorf("September data points = %d, want 2", sep.DataPoints)
	}

	oct := monthly["2025-10"]
	if !approx(oct.TotalFlexCredits, 0) || !approx(oct.TotalPromptCredits, 2.00) {
		t.Errorf("October = %+v", oct)
	}
	if oct.DataPoints != 1 {
		t.Errorf("October data points = %d, want 1", oct.DataPoints)
	}
}

func TestByMonth_TotalIsFlexPlusPrompt(t *testing.T) {
	monthly, err := ByMonth(sampleRecords())
	if err != nil {
		t.Fatalf("ByMonth() error: %v", err)
	}
	for month, totals := range monthly {
		if !approx(totals.TotalCreditsUsed, totals.TotalFlexCredits+totals.TotalPromptCredits) {
			t.Errorf("%s: total = %v, flex+prompt = %v",
				month, totals.TotalCreditsUsed, totals.TotalFlexCredits+totals.TotalPromptCredits)
		}
	}
}

func TestAggregation_OrderIndependent(t *testing.T) {
	records := sampleRecords()
	wantDaily, err := ByDate(records)
	if err != nil {
		t.Fatalf("ByDate() error: %v", err)
	}
	wantMonthly, err := ByMonth(records)
	if err != nil {
		t.Fatalf("ByMonth() error: %v", err)
	}

	rng := rand.New(rand.NewSource(1))
	for trial := 0; trial < 10; trial++ {
		shuffled := make([]analytics.UsageRecord, len(records))
		copy(shuffled, records)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		daily, err := ByDate(shuffled)
		if err != nil {
			t.Fatalf("trial %d: ByDate() error: %v", trial, err)
		}
		for date, credits := range wantDaily {
			if !approx(daily[date], credits) {
				t.Errorf("trial %d: daily[%s] = %v, want %v", trial, date, daily[date], credits)
			}
		}

		monthly, err := ByMonth(shuffled)
		if err != nil {
			t.Fatalf("trial %d: ByMonth() error: %v", trial, err)
		}
		for month, totals := range wantMonthly {
			got := monthly[month]
			if !approx(got.TotalCreditsUsed, totals.TotalCreditsUsed) || got.DataPoints != totals.DataPoints {
				t.Errorf("trial %d: monthly[%s] = %+v, want %+v", trial, month, got, totals)
			}
		}
	}
}

func TestAggregation_NonNumericCreditFails(t *testing.T) {
	records := []analytics.UsageRecord{
		{Date: "2025-09-01", Model: "X", FlexCreditsUsed: "plenty"},
	}

	if _, err := ByDate(records); err == nil {
		t.Error("ByDate() error = nil, want error")
	}
	if _, err := ByDateAndModel(records); err == nil {
		t.Error("ByDateAndModel() error = nil, want error")
	}
	if _, err := ByMonth(records); err == nil {
		t.Error("ByMonth() error = nil, want error")
	}
}

func TestAggregation_EmptyInput(t *testing.T) {
	daily, err := ByDate(nil)
	if err != nil {
		t.Fatalf("ByDate(nil) error: %v", err)
	}
	if len(daily) != 0 {
		t.Errorf("daily = %v, want empty", daily)
	}

	monthly, err := ByMonth(nil)
	if err != nil {
		t.Fatalf("ByMonth(nil) error: %v", err)
	}
	if len(monthly) != 0 {
		t.Errorf("monthly = %v, want empty", monthly)
	}
}
