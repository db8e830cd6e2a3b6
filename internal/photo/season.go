package photo

import "strconv"

// Season is a migration-relevant quarter of the year.
type Season int

const (
	SeasonUnknown Season = iota
	SeasonSpring         // March to May, spring migration
	SeasonSummer         // June to August, breeding
	SeasonAutumn         // September to November, autumn migration
	SeasonWinter         // December to February, wintering
)

// SeasonForMonth buckets a calendar month into [3-5], [6-8], [9-11], [12-2].
func SeasonForMonth(month int) Season {
	switch month {
	case 3, 4, 5:
		return SeasonSpring
	case 6, 7, 8:
		return SeasonSummer
	case 9, 10, 11:
		return SeasonAutumn
	case 12, 1, 2:
		return SeasonWinter
	}
	return SeasonUnknown
}

func (s Season) String() string {
	switch s {
	case SeasonSpring:
		return "spring/migration"
	case SeasonSummer:
		return "summer/breeding"
	case SeasonAutumn:
		return "autumn/migration"
	case SeasonWinter:
		return "winter/wintering"
	}
	return "unknown"
}

// Label is the prompt wording for the season.
func (s Season) Label() string {
	switch s {
	case SeasonSpring:
		return "春季（春迁期，3-5月）"
	case SeasonSummer:
		return "夏季（繁殖期，6-8月）"
	case SeasonAutumn:
		return "秋季（秋迁期，9-11月）"
	case SeasonWinter:
		return "冬季（越冬期，12-2月）"
	}
	return ""
}

// monthFromShootTime reads MM from a YYYYMMDD_HHMM token.
func monthFromShootTime(shootTime string) (int, bool) {
	if len(shootTime) < 6 {
		return 0, false
	}
	m, err := strconv.Atoi(shootTime[4:6])
	if err != nil || m < 1 || m > 12 {
		return 0, false
	}
	return m, true
}
