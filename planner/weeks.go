package planner

import (
	"sort"
	"time"

	"github.com/Dosada05/tennis-planner/models"
	"github.com/google/uuid"
)

// WeekNumber returns the club's week number of d:
//
//	ceil((dayOfYear0 + weekday(Jan 1) + 1) / 7)
//
// with dayOfYear0 counted from zero and Sunday as weekday 0. Weeks therefore
// turn over on Sundays. This is not ISO-8601 and must stay that way, stored
// plans and printed schedules use these numbers.
//
// dayOfYear0 is taken from the civil date, so the result does not depend on
// a time zone. A client that counts days from local midnight east of UTC
// (Europe/Prague included) gets a count one higher, which moves Saturdays
// into the following week: 2024-01-06 is week 1 here and week 2 there.
func WeekNumber(d models.Date) int {
	jan1 := models.NewDate(d.Year, time.January, 1)
	pastDays := d.YearDay() - 1
	n := pastDays + int(jan1.Weekday()) + 1
	return (n + 6) / 7
}

// WeekRange is the Monday-to-Sunday window containing a day, both ends inclusive.
type WeekRange struct {
	Start models.Date `json:"start"`
	End   models.Date `json:"end"`
}

func (r WeekRange) Contains(d models.Date) bool {
	return !d.Before(r.Start) && !d.After(r.End)
}

// RangeOf returns the Monday-start week containing d; a Sunday belongs to
// the week that began six days earlier.
func RangeOf(d models.Date) WeekRange {
	offset := int(d.Weekday()) - int(time.Monday)
	if d.Weekday() == time.Sunday {
		offset = 6
	}
	start := d.AddDays(-offset)
	return WeekRange{Start: start, End: start.AddDays(6)}
}

// WeekBucket groups entries whose tournaments share a week number.
type WeekBucket struct {
	Week    int                  `json:"week"`
	Range   WeekRange            `json:"range"`
	Entries []models.EntryDetail `json:"entries"`
}

// GroupByWeek buckets entries by the week number of their tournament date.
// Buckets come out in ascending week order, entries keep their source order
// and each bucket's range is taken from its first entry.
func GroupByWeek(entries []models.EntryDetail) []WeekBucket {
	index := make(map[int]int)
	buckets := make([]WeekBucket, 0)
	for _, e := range entries {
		week := WeekNumber(e.Tournament.Date)
		i, ok := index[week]
		if !ok {
			i = len(buckets)
			index[week] = i
			buckets = append(buckets, WeekBucket{Week: week, Range: RangeOf(e.Tournament.Date)})
		}
		buckets[i].Entries = append(buckets[i].Entries, e)
	}
	sort.SliceStable(buckets, func(a, b int) bool { return buckets[a].Week < buckets[b].Week })
	return buckets
}

// ForPlayer keeps only the player's entries and drops buckets left empty.
// Ranges are not recomputed.
func ForPlayer(buckets []WeekBucket, playerID uuid.UUID) []WeekBucket {
	out := make([]WeekBucket, 0, len(buckets))
	for _, b := range buckets {
		var kept []models.EntryDetail
		for _, e := range b.Entries {
			if e.PlayerID == playerID {
				kept = append(kept, e)
			}
		}
		if len(kept) == 0 {
			continue
		}
		out = append(out, WeekBucket{Week: b.Week, Range: b.Range, Entries: kept})
	}
	return out
}

// AvailableWeeks lists the distinct week numbers of the tournaments, ascending.
func AvailableWeeks(tournaments []models.Tournament) []int {
	seen := make(map[int]struct{})
	weeks := make([]int, 0)
	for _, t := range tournaments {
		w := WeekNumber(t.Date)
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		weeks = append(weeks, w)
	}
	sort.Ints(weeks)
	return weeks
}
