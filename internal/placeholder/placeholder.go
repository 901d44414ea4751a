// Package placeholder substitutes {{token}} markers in subject and body
// templates. Every token family has a base form and an _ar variant using
// Arabic script and Eastern Arabic numerals; the base form follows the
// render language. Unknown tokens pass through unchanged so a template
// typo degrades gracefully instead of failing.
package placeholder

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Context carries the injected lookups a template can reference.
type Context struct {
	Department string // Department display name
	UserName   string // Acting operator's display name
}

var tokenPattern = regexp.MustCompile(`\{\{([a-z_]+)\}\}`)

var monthNamesAr = [12]string{
	"يناير", "فبراير", "مارس", "أبريل", "مايو", "يونيو",
	"يوليو", "أغسطس", "سبتمبر", "أكتوبر", "نوفمبر", "ديسمبر",
}

var dayNamesAr = [7]string{
	"الأحد", "الاثنين", "الثلاثاء", "الأربعاء", "الخميس", "الجمعة", "السبت",
}

var ordinalsEn = [5]string{"first", "second", "third", "fourth", "fifth"}

var ordinalsAr = [5]string{"الأول", "الثاني", "الثالث", "الرابع", "الخامس"}

// Render substitutes all recognized tokens in template for the given date
// and language. Pure text transform; lang selects the script of the base
// token forms ("ar" localizes them), while _ar tokens are always Arabic.
func Render(template string, asOf time.Time, lang string, rctx Context) string {
	arabic := lang == "ar"

	return tokenPattern.ReplaceAllStringFunc(template, func(match string) string {
		token := strings.Trim(match, "{}")

		if value, ok := resolve(token, asOf, arabic, rctx); ok {
			return value
		}
		return match
	})
}

func resolve(token string, asOf time.Time, arabic bool, rctx Context) (string, bool) {
	base := strings.TrimSuffix(token, "_ar")
	if base != token {
		arabic = true
	}

	switch base {
	case "date":
		return localizeDigits(asOf.Format("2006-01-02"), arabic), true
	case "day_name":
		if arabic {
			return dayNamesAr[int(asOf.Weekday())], true
		}
		return asOf.Weekday().String(), true
	case "week_number":
		_, week := asOf.ISOWeek()
		return localizeDigits(fmt.Sprintf("%d", week), arabic), true
	case "week_of_month":
		return localizeDigits(fmt.Sprintf("%d", weekOfMonth(asOf)), arabic), true
	case "week_of_month_ordinal":
		if arabic {
			return ordinalsAr[weekOfMonth(asOf)-1], true
		}
		return ordinalsEn[weekOfMonth(asOf)-1], true
	case "month_name":
		if arabic {
			return monthNamesAr[int(asOf.Month())-1], true
		}
		return asOf.Month().String(), true
	case "year":
		return localizeDigits(fmt.Sprintf("%d", asOf.Year()), arabic), true
	case "department":
		return rctx.Department, true
	case "user_name":
		return rctx.UserName, true
	default:
		return "", false
	}
}

// weekOfMonth numbers the weeks of a month 1 to 5, counting from the 1st.
func weekOfMonth(t time.Time) int {
	return ((t.Day() - 1) / 7) + 1
}

// localizeDigits maps Western digits to Eastern Arabic numerals.
func localizeDigits(s string, arabic bool) string {
	if !arabic {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune('٠' + (r - '0'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
