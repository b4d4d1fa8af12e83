package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPrice(t *testing.T) {
	assert.Equal(t, "$0", Price(0))
	assert.Equal(t, "$950", Price(950))
	assert.Equal(t, "$25.000", Price(25000))
	assert.Equal(t, "$1.250.000", Price(1250000))
	assert.Equal(t, "-$5.000", Price(-5000))
	assert.Equal(t, "$2.500", Price(2499.5))
}

func TestNumber(t *testing.T) {
	assert.Equal(t, "42", Number(42))
	assert.Equal(t, "1.000", Number(1000))
	assert.Equal(t, "-12.345", Number(-12345))
}

func TestRelativeTime(t *testing.T) {
	now := time.Now()
	assert.Equal(t, "just now", RelativeTime(now.Add(-30*time.Second)))
	assert.Equal(t, "1 minute ago", RelativeTime(now.Add(-90*time.Second)))
	assert.Equal(t, "5 minutes ago", RelativeTime(now.Add(-5*time.Minute)))
	assert.Equal(t, "2 hours ago", RelativeTime(now.Add(-2*time.Hour)))
	assert.Equal(t, "3 days ago", RelativeTime(now.Add(-3*24*time.Hour)))

	old := now.Add(-30 * 24 * time.Hour)
	assert.Equal(t, Date(old, false), RelativeTime(old))
	assert.Equal(t, "", RelativeTime(time.Time{}))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "a lon...", Truncate("a long sentence", 8))
	assert.Equal(t, "ab", Truncate("abcdef", 2))
	assert.Equal(t, "ééé...", Truncate("éééééééé", 6))
}

func TestCapitalize(t *testing.T) {
	assert.Equal(t, "Café Con Leche", Capitalize("café CON leche"))
	assert.Equal(t, "", Capitalize("   "))
}

func TestOrderID(t *testing.T) {
	assert.Equal(t, "ORD-2024-001", OrderID("ORD-2024-001"))
	assert.Equal(t, "A1B2C3D4", OrderID("a1b2c3d4-e5f6-7890"))
	assert.Equal(t, "AB", OrderID("ab"))
	assert.Equal(t, "", OrderID(""))
}

func TestPluralize(t *testing.T) {
	assert.Equal(t, "1 item", Pluralize(1, "item", ""))
	assert.Equal(t, "3 items", Pluralize(3, "item", ""))
	assert.Equal(t, "2 mesas", Pluralize(2, "mesa", "mesas"))
}

func TestPreparationTime(t *testing.T) {
	assert.Equal(t, "ready immediately", PreparationTime(0))
	assert.Equal(t, "25 min", PreparationTime(25))
	assert.Equal(t, "1 hour", PreparationTime(60))
	assert.Equal(t, "2 hours", PreparationTime(120))
	assert.Equal(t, "1h 30min", PreparationTime(90))
}

func TestDateAndClock(t *testing.T) {
	ts := time.Date(2025, time.March, 9, 14, 5, 0, 0, time.UTC)
	assert.Equal(t, "Mar 9, 2025", Date(ts, false))
	assert.Equal(t, "Mar 9, 2025 14:05", Date(ts, true))
	assert.Equal(t, "14:05", Clock(ts))
	assert.Equal(t, "", Date(time.Time{}, true))
}
