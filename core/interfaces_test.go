package core_test

import (
	"testing"

	"github.com/Skryldev/photo-archive/core"
)

func TestNaiveTimestamp_Time_NoTimezoneConversion(t *testing.T) {
	n := core.NaiveTimestamp{Year: 2024, Month: 12, Day: 25, Hour: 9, Minute: 30, Second: 0}
	got := n.Time()
	if got.Year() != 2024 || got.Month() != 12 || got.Day() != 25 || got.Hour() != 9 || got.Minute() != 30 {
		t.Fatalf("Time() = %v, want the wall-clock fields unchanged", got)
	}
	if got.Location().String() != "UTC" {
		t.Fatalf("Time() location = %v, want UTC label", got.Location())
	}
}
