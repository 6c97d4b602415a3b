package view

import (
	"math"
	"time"

	"golang.org/x/text/feature/plural"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	"github.com/sakif/skillflow/internal/model"
)

// Message keys. Each is also the fallback format when no translation exists.
const (
	msgJustNow     = "Just now"
	msgRecently    = "Recently"
	msgMinutesAgo  = "%d minutes ago"
	msgHoursAgo    = "%d hours ago"
	msgDaysAgo     = "%d days ago"
	msgMonthsAgo   = "%d months ago"
	msgLikes       = "%d likes"
	msgComments    = "%d comments"
	msgUnread      = "%d unread"
	msgStoryLength = "%d min"
)

// newPrinter builds an English printer with plural forms for the counted
// messages.
func newPrinter() *message.Printer {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, one := range map[string]string{
		msgMinutesAgo: "1 minute ago",
		msgHoursAgo:   "1 hour ago",
		msgDaysAgo:    "1 day ago",
		msgMonthsAgo:  "1 month ago",
		msgLikes:      "1 like",
		msgComments:   "1 comment",
	} {
		// Keys are constants; Set only fails on malformed selectors.
		_ = b.Set(language.English, key, plural.Selectf(1, "%d", "=1", one, "other", key))
	}
	return message.NewPrinter(language.English, message.Catalog(b))
}

// RelativeTime describes how long ago t was. Past 30 days it counts in
// 30-day months.
func RelativeTime(p *message.Printer, t, now time.Time) string {
	if t.IsZero() {
		return p.Sprintf(msgRecently)
	}
	d := now.Sub(t)
	if d < 0 {
		d = 0
	}

	mins := int(d / time.Minute)
	hours := mins / 60
	days := hours / 24

	switch {
	case days > 30:
		return p.Sprintf(msgMonthsAgo, days/30)
	case days > 0:
		return p.Sprintf(msgDaysAgo, days)
	case hours > 0:
		return p.Sprintf(msgHoursAgo, hours)
	case mins > 0:
		return p.Sprintf(msgMinutesAgo, mins)
	default:
		return p.Sprintf(msgJustNow)
	}
}

// Progress returns the completion percentage of a plan. A plan with nothing
// completed, or without a total, shows 25.
func Progress(lp model.LearningProgress) int {
	if lp.CompletedItems <= 0 || lp.TotalItems <= 0 {
		return 25
	}
	pct := int(math.Round(float64(lp.CompletedItems) / float64(lp.TotalItems) * 100))
	return min(pct, 100)
}

// StatusTag labels a plan by its completion percentage.
func StatusTag(pct int) string {
	switch {
	case pct == 100:
		return "Completed"
	case pct >= 70:
		return "Advanced"
	case pct >= 30:
		return "In Progress"
	default:
		return "Just Started"
	}
}

// Intensity labels a workout by its length in minutes.
func Intensity(minutes int) string {
	switch {
	case minutes < 15:
		return "Easy"
	case minutes < 30:
		return "Moderate"
	case minutes < 60:
		return "Intense"
	default:
		return "Very Intense"
	}
}
