package recurrence

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// TranslateFunc resolves a message token to localized text. The expander only
// selects tokens and substitutes placeholders; wording is the caller's.
type TranslateFunc func(token string) string

// Placeholder names substituted into translated templates.
const (
	placeholderInterval = "{interval}"
	placeholderUnit     = "{unit}"
	placeholderSummary  = "{summary}"
	placeholderDays     = "{days}"
)

var weekdayTokens = map[time.Weekday]string{
	time.Sunday:    "weekday.sunday",
	time.Monday:    "weekday.monday",
	time.Tuesday:   "weekday.tuesday",
	time.Wednesday: "weekday.wednesday",
	time.Thursday:  "weekday.thursday",
	time.Friday:    "weekday.friday",
	time.Saturday:  "weekday.saturday",
}

// Describe builds a human-readable summary for the rule from translator
// provided templates. The base template is "recurrence.summary"
// ("Every {interval} {unit}"); weekly rules with an explicit weekday set wrap
// it in "recurrence.summary.weekdays" ("{summary} on {days}"). When translate
// is nil the raw tokens are returned, which is how tests pin selection.
func Describe(rule Rule, translate TranslateFunc) string {
	if translate == nil {
		translate = func(token string) string { return token }
	}

	unit := "recurrence.unit." + unitName(rule.Type)
	if rule.Interval > 1 {
		unit += ".plural"
	}

	summary := translate("recurrence.summary")
	summary = strings.ReplaceAll(summary, placeholderInterval, strconv.Itoa(rule.Interval))
	summary = strings.ReplaceAll(summary, placeholderUnit, translate(unit))

	if rule.Type == TypeWeekly && len(rule.Weekdays) > 0 {
		days := make([]time.Weekday, len(rule.Weekdays))
		copy(days, rule.Weekdays)
		sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })

		names := make([]string, 0, len(days))
		for _, day := range days {
			names = append(names, translate(weekdayTokens[day]))
		}

		wrapped := translate("recurrence.summary.weekdays")
		wrapped = strings.ReplaceAll(wrapped, placeholderSummary, summary)
		wrapped = strings.ReplaceAll(wrapped, placeholderDays, strings.Join(names, translate("recurrence.day_separator")))
		return wrapped
	}

	return summary
}

func unitName(t Type) string {
	switch t {
	case TypeDaily:
		return "day"
	case TypeWeekly:
		return "week"
	case TypeMonthly:
		return "month"
	case TypeYearly:
		return "year"
	default:
		return "none"
	}
}
