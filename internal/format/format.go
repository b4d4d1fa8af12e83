package format

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// Price renders a Colombian peso amount: "$25.000", thousands separated with
// dots, no decimals.
func Price(amount float64) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}
	formatted := group(int64(amount + 0.5))
	if negative {
		return "-$" + formatted
	}
	return "$" + formatted
}

// Number renders an integer with dot thousands separators.
func Number(n int64) string {
	if n < 0 {
		return "-" + group(-n)
	}
	return group(n)
}

func group(n int64) string {
	digits := fmt.Sprintf("%d", n)
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// Date renders a timestamp, optionally with the clock time.
func Date(t time.Time, includeTime bool) string {
	if t.IsZero() {
		return ""
	}
	if includeTime {
		return t.Format("Jan 2, 2006 15:04")
	}
	return t.Format("Jan 2, 2006")
}

// Clock renders only the time of day.
func Clock(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("15:04")
}

// RelativeTime renders how long ago t was, falling back to the full date
// after a week.
func RelativeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	elapsed := time.Since(t)
	switch {
	case elapsed < time.Minute:
		return "just now"
	case elapsed < time.Hour:
		minutes := int(elapsed.Minutes())
		return fmt.Sprintf("%d %s ago", minutes, plural(minutes, "minute"))
	case elapsed < 24*time.Hour:
		hours := int(elapsed.Hours())
		return fmt.Sprintf("%d %s ago", hours, plural(hours, "hour"))
	case elapsed < 7*24*time.Hour:
		days := int(elapsed.Hours() / 24)
		return fmt.Sprintf("%d %s ago", days, plural(days, "day"))
	default:
		return Date(t, false)
	}
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

// Truncate cuts text to maxLength runes, appending "..." when trimmed.
func Truncate(text string, maxLength int) string {
	const suffix = "..."
	runes := []rune(text)
	if len(runes) <= maxLength {
		return text
	}
	if maxLength <= len(suffix) {
		return string(runes[:maxLength])
	}
	return string(runes[:maxLength-len(suffix)]) + suffix
}

// Capitalize upper-cases the first letter of every word.
func Capitalize(text string) string {
	words := strings.Fields(strings.ToLower(text))
	for i, word := range words {
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

// OrderID renders an order identifier for display: readable ORD- ids pass
// through, opaque ids shorten to their first eight characters.
func OrderID(orderID string) string {
	if orderID == "" {
		return ""
	}
	if strings.HasPrefix(orderID, "ORD-") {
		return orderID
	}
	runes := []rune(orderID)
	if len(runes) > 8 {
		runes = runes[:8]
	}
	return strings.ToUpper(string(runes))
}

// Pluralize renders a count with the properly pluralized word.
func Pluralize(count int, singular, pluralForm string) string {
	word := singular
	if count != 1 {
		if pluralForm != "" {
			word = pluralForm
		} else {
			word = singular + "s"
		}
	}
	return fmt.Sprintf("%d %s", count, word)
}

// PreparationTime renders an estimate in minutes as human-readable text.
func PreparationTime(minutes int) string {
	switch {
	case minutes <= 0:
		return "ready immediately"
	case minutes < 60:
		return fmt.Sprintf("%d min", minutes)
	case minutes%60 == 0:
		hours := minutes / 60
		return fmt.Sprintf("%d %s", hours, plural(hours, "hour"))
	default:
		return fmt.Sprintf("%dh %dmin", minutes/60, minutes%60)
	}
}
