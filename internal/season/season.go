package season

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
)

// Calendar schemes. Split-year leagues run across two calendar years
// (August through May); calendar-year leagues and short tournaments
// are named after a single year.
const (
	CalendarSplitYear    = "split_year"
	CalendarCalendarYear = "calendar_year"
)

// ErrCenturyBoundary is returned for two-digit end-year spellings that
// would cross a century (e.g. "2099-00"). Product behavior for these is
// undecided, so they are rejected rather than guessed at.
var ErrCenturyBoundary = crerr.New("two-digit season end year crosses a century boundary")

// Descriptor says how one league names its seasons.
type Descriptor struct {
	Calendar   string
	StartMonth time.Month
}

var leagueCalendars = map[string]Descriptor{
	"Premier League": {Calendar: CalendarSplitYear, StartMonth: time.August},
	"La Liga":        {Calendar: CalendarSplitYear, StartMonth: time.August},
	"Bundesliga":     {Calendar: CalendarSplitYear, StartMonth: time.August},
	"Serie A":        {Calendar: CalendarSplitYear, StartMonth: time.August},
	"Ligue 1":        {Calendar: CalendarSplitYear, StartMonth: time.August},
	"Champions League": {
		Calendar:   CalendarSplitYear,
		StartMonth: time.August,
	},
	"MLS":       {Calendar: CalendarCalendarYear, StartMonth: time.February},
	"World Cup": {Calendar: CalendarCalendarYear, StartMonth: time.June},
	"Euro":      {Calendar: CalendarCalendarYear, StartMonth: time.June},
}

// DescriptorFor resolves a league's calendar. Unknown leagues fall
// open to calendar-year naming.
func DescriptorFor(league string) Descriptor {
	if d, ok := leagueCalendars[strings.TrimSpace(league)]; ok {
		return d
	}
	return Descriptor{Calendar: CalendarCalendarYear, StartMonth: time.January}
}

// Option is one season picker entry: Value is the storage spelling,
// Label the display spelling.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

var (
	fourDigitYear = regexp.MustCompile(`^\d{4}$`)
	fullSplit     = regexp.MustCompile(`^(\d{4})-(\d{4})$`)
	shortSplit    = regexp.MustCompile(`^(\d{4})-(\d{2})$`)
)

// Engine converts between current, storage, and display season
// spellings. The clock is injectable so cutover behavior is testable.
type Engine struct {
	now func() time.Time
}

func NewEngine() *Engine {
	return &Engine{now: time.Now}
}

func NewEngineWithClock(now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{now: now}
}

// CurrentSeason returns today's season in storage format. For
// split-year leagues the cutover month is exact: on the first day of
// the start month the new season has begun.
func (e *Engine) CurrentSeason(league string) string {
	d := DescriptorFor(league)
	now := e.now()
	year := now.Year()

	if d.Calendar != CalendarSplitYear {
		return strconv.Itoa(year)
	}

	if now.Month() >= d.StartMonth {
		return fmt.Sprintf("%d-%d", year, year+1)
	}
	return fmt.Sprintf("%d-%d", year-1, year)
}

// DisplaySeason shortens a split-year storage season for display
// ("2024-2025" -> "2024-25"). Calendar-year seasons and anything
// unparseable pass through unchanged.
func (e *Engine) DisplaySeason(league, storageSeason string) string {
	storageSeason = strings.TrimSpace(storageSeason)
	if DescriptorFor(league).Calendar != CalendarSplitYear {
		return storageSeason
	}

	m := fullSplit.FindStringSubmatch(storageSeason)
	if m == nil {
		return storageSeason
	}
	return m[1] + "-" + m[2][2:]
}

// ToStorageFormat normalizes any user or API season spelling into the
// storage form. A bare year is read as the season's start year.
func (e *Engine) ToStorageFormat(league, input string) (string, error) {
	input = strings.TrimSpace(input)
	d := DescriptorFor(league)

	if d.Calendar != CalendarSplitYear {
		if !fourDigitYear.MatchString(input) {
			return "", crerr.Newf("invalid season %q for calendar-year league %q", input, league)
		}
		return input, nil
	}

	if fourDigitYear.MatchString(input) {
		start, _ := strconv.Atoi(input)
		return fmt.Sprintf("%d-%d", start, start+1), nil
	}

	if m := fullSplit.FindStringSubmatch(input); m != nil {
		start, _ := strconv.Atoi(m[1])
		end, _ := strconv.Atoi(m[2])
		if end != start+1 {
			return "", crerr.Newf("invalid split-year season %q: end year must follow start year", input)
		}
		return input, nil
	}

	if m := shortSplit.FindStringSubmatch(input); m != nil {
		start, _ := strconv.Atoi(m[1])
		short, _ := strconv.Atoi(m[2])
		end := start - start%100 + short
		if end == start+1 {
			return fmt.Sprintf("%d-%d", start, end), nil
		}
		if (start+1)%100 == short {
			return "", crerr.Wrapf(ErrCenturyBoundary, "season %q", input)
		}
		return "", crerr.Newf("invalid split-year season %q: end year must follow start year", input)
	}

	return "", crerr.Newf("unrecognized season spelling %q", input)
}

// AvailableSeasons lists yearsBack+1 seasons, most recent first, for a
// season picker. It never fails: unknown leagues get calendar-year
// entries.
func (e *Engine) AvailableSeasons(league string, yearsBack int) []Option {
	if yearsBack < 0 {
		yearsBack = 0
	}

	d := DescriptorFor(league)
	current := e.CurrentSeason(league)

	startYear := e.now().Year()
	if d.Calendar == CalendarSplitYear {
		if m := fullSplit.FindStringSubmatch(current); m != nil {
			startYear, _ = strconv.Atoi(m[1])
		}
	}

	out := make([]Option, 0, yearsBack+1)
	for i := 0; i <= yearsBack; i++ {
		year := startYear - i
		var value string
		if d.Calendar == CalendarSplitYear {
			value = fmt.Sprintf("%d-%d", year, year+1)
		} else {
			value = strconv.Itoa(year)
		}
		out = append(out, Option{Value: value, Label: e.DisplaySeason(league, value)})
	}

	return out
}

// IsValidSeasonFormat checks a storage-format season against the
// league's calendar scheme.
func (e *Engine) IsValidSeasonFormat(league, seasonValue string) bool {
	seasonValue = strings.TrimSpace(seasonValue)
	if DescriptorFor(league).Calendar != CalendarSplitYear {
		return fourDigitYear.MatchString(seasonValue)
	}

	m := fullSplit.FindStringSubmatch(seasonValue)
	if m == nil {
		return false
	}
	start, _ := strconv.Atoi(m[1])
	end, _ := strconv.Atoi(m[2])
	return end == start+1
}

// CurrentWeekEstimate gives a rough matchweek number from the time
// elapsed since the season's start month. Good enough to seed week
// pickers; the backend's group record is authoritative.
func (e *Engine) CurrentWeekEstimate(league string) int {
	d := DescriptorFor(league)
	now := e.now()

	start := time.Date(now.Year(), d.StartMonth, 1, 0, 0, 0, 0, now.Location())
	if start.After(now) {
		start = start.AddDate(-1, 0, 0)
	}

	week := int(now.Sub(start)/(7*24*time.Hour)) + 1
	if week < 1 {
		week = 1
	}
	if week > 38 {
		week = 38
	}
	return week
}
