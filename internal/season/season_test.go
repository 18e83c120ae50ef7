package season

import (
	"strconv"
	"strings"
	"testing"
	"time"

	crerr "github.com/cockroachdb/errors"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestEngine_CurrentSeason_SplitYearCutover(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		now  time.Time
		want string
	}{
		{"day before cutover", time.Date(2025, time.July, 31, 23, 0, 0, 0, time.UTC), "2024-2025"},
		{"cutover day", time.Date(2025, time.August, 1, 0, 0, 0, 0, time.UTC), "2025-2026"},
		{"mid season", time.Date(2026, time.January, 15, 12, 0, 0, 0, time.UTC), "2025-2026"},
		{"late spring", time.Date(2026, time.May, 30, 0, 0, 0, 0, time.UTC), "2025-2026"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			engine := NewEngineWithClock(fixedClock(tc.now))
			if got := engine.CurrentSeason("Premier League"); got != tc.want {
				t.Fatalf("CurrentSeason at %s = %q, want %q", tc.now, got, tc.want)
			}
		})
	}
}

func TestEngine_CurrentSeason_CalendarYear(t *testing.T) {
	t.Parallel()

	engine := NewEngineWithClock(fixedClock(time.Date(2025, time.August, 1, 0, 0, 0, 0, time.UTC)))
	if got := engine.CurrentSeason("MLS"); got != "2025" {
		t.Fatalf("CurrentSeason(MLS) = %q, want 2025", got)
	}
	if got := engine.CurrentSeason("Some Unknown Cup"); got != "2025" {
		t.Fatalf("unknown league should fall open to calendar-year, got %q", got)
	}
}

func TestEngine_DisplayRoundTrip(t *testing.T) {
	t.Parallel()

	engine := NewEngine()
	for year := 1990; year <= 2090; year++ {
		if year%100 == 99 {
			// Century-crossing display forms do not round trip.
			continue
		}
		storage := strconv.Itoa(year) + "-" + strconv.Itoa(year+1)

		display := engine.DisplaySeason("Premier League", storage)
		back, err := engine.ToStorageFormat("Premier League", display)
		if err != nil {
			t.Fatalf("round trip %q -> %q failed: %v", storage, display, err)
		}
		if back != storage {
			t.Fatalf("round trip %q -> %q -> %q, want original", storage, display, back)
		}
	}
}

func TestEngine_DisplaySeason(t *testing.T) {
	t.Parallel()

	engine := NewEngine()
	if got := engine.DisplaySeason("Premier League", "2024-2025"); got != "2024-25" {
		t.Fatalf("DisplaySeason = %q, want 2024-25", got)
	}
	if got := engine.DisplaySeason("MLS", "2025"); got != "2025" {
		t.Fatalf("calendar-year display should be identity, got %q", got)
	}
	if got := engine.DisplaySeason("Premier League", "garbage"); got != "garbage" {
		t.Fatalf("unparseable input should pass through, got %q", got)
	}
}

func TestEngine_ToStorageFormat(t *testing.T) {
	t.Parallel()

	engine := NewEngine()

	cases := []struct {
		league string
		input  string
		want   string
	}{
		{"Premier League", "2024-25", "2024-2025"},
		{"Premier League", "2024-2025", "2024-2025"},
		{"Premier League", "2024", "2024-2025"},
		{"Premier League", " 2024-25 ", "2024-2025"},
		{"MLS", "2025", "2025"},
	}
	for _, tc := range cases {
		got, err := engine.ToStorageFormat(tc.league, tc.input)
		if err != nil {
			t.Fatalf("ToStorageFormat(%q, %q) error: %v", tc.league, tc.input, err)
		}
		if got != tc.want {
			t.Fatalf("ToStorageFormat(%q, %q) = %q, want %q", tc.league, tc.input, got, tc.want)
		}
	}

	if _, err := engine.ToStorageFormat("Premier League", "2024-2026"); err == nil {
		t.Fatal("expected error for non-consecutive years")
	}
	if _, err := engine.ToStorageFormat("MLS", "2024-2025"); err == nil {
		t.Fatal("expected error for split spelling on calendar-year league")
	}
}

func TestEngine_ToStorageFormat_CenturyBoundary(t *testing.T) {
	t.Parallel()

	engine := NewEngine()
	_, err := engine.ToStorageFormat("Premier League", "2099-00")
	if !crerr.Is(err, ErrCenturyBoundary) {
		t.Fatalf("expected ErrCenturyBoundary, got %v", err)
	}
}

func TestEngine_AvailableSeasons(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, time.September, 10, 0, 0, 0, 0, time.UTC)
	engine := NewEngineWithClock(fixedClock(now))

	got := engine.AvailableSeasons("Premier League", 5)
	if len(got) != 6 {
		t.Fatalf("expected 6 entries, got %d", len(got))
	}
	if got[0].Value != "2025-2026" || got[0].Label != "2025-26" {
		t.Fatalf("unexpected first entry: %+v", got[0])
	}

	seen := make(map[string]bool, len(got))
	prev := 10000
	for _, opt := range got {
		if seen[opt.Value] {
			t.Fatalf("duplicate season value %q", opt.Value)
		}
		seen[opt.Value] = true

		start, err := strconv.Atoi(strings.SplitN(opt.Value, "-", 2)[0])
		if err != nil {
			t.Fatalf("unparseable value %q", opt.Value)
		}
		if start >= prev {
			t.Fatalf("seasons not strictly descending: %v", got)
		}
		prev = start
	}

	mls := engine.AvailableSeasons("MLS", 2)
	if len(mls) != 3 || mls[0].Value != "2025" || mls[2].Value != "2023" {
		t.Fatalf("unexpected MLS seasons: %v", mls)
	}

	unknown := engine.AvailableSeasons("No Such League", 0)
	if len(unknown) != 1 || unknown[0].Value != "2025" {
		t.Fatalf("unknown league should still return calendar-year entries: %v", unknown)
	}
}

func TestEngine_IsValidSeasonFormat(t *testing.T) {
	t.Parallel()

	engine := NewEngine()

	valid := []struct{ league, value string }{
		{"Premier League", "2024-2025"},
		{"MLS", "2024"},
		{"Unknown League", "2024"},
	}
	for _, tc := range valid {
		if !engine.IsValidSeasonFormat(tc.league, tc.value) {
			t.Fatalf("IsValidSeasonFormat(%q, %q) = false, want true", tc.league, tc.value)
		}
	}

	invalid := []struct{ league, value string }{
		{"Premier League", "2024-2026"},
		{"Premier League", "2024"},
		{"Premier League", "2024-25"},
		{"MLS", "2024-2025"},
		{"MLS", "24"},
	}
	for _, tc := range invalid {
		if engine.IsValidSeasonFormat(tc.league, tc.value) {
			t.Fatalf("IsValidSeasonFormat(%q, %q) = true, want false", tc.league, tc.value)
		}
	}
}

func TestEngine_CurrentWeekEstimate(t *testing.T) {
	t.Parallel()

	engine := NewEngineWithClock(fixedClock(time.Date(2025, time.August, 15, 0, 0, 0, 0, time.UTC)))
	if got := engine.CurrentWeekEstimate("Premier League"); got != 3 {
		t.Fatalf("two weeks into the season should be week 3, got %d", got)
	}

	deep := NewEngineWithClock(fixedClock(time.Date(2026, time.July, 20, 0, 0, 0, 0, time.UTC)))
	if got := deep.CurrentWeekEstimate("Premier League"); got != 38 {
		t.Fatalf("estimate should clamp at 38, got %d", got)
	}
}
