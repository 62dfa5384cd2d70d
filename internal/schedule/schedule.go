package schedule

import "sort"

// Item is one schedule entry: do Action at Start (HH-MM), heading to Target.
type Item struct {
	Action string `json:"action"`
	Start  string `json:"start"`
	Target string `json:"target"`
}

// HourlyEntry is one element of an LLM-generated duration list.
type HourlyEntry struct {
	Label   string
	Minutes int
}

// Roll converts a duration list into concrete schedule items beginning at the
// wake time. Targets default to the action label; the resolver maps them to
// places later.
func Roll(wake string, hourly []HourlyEntry) ([]Item, error) {
	cur, err := NormalizeHM(wake)
	if err != nil {
		return nil, err
	}
	items := make([]Item, 0, len(hourly))
	for _, h := range hourly {
		items = append(items, Item{Action: h.Label, Start: cur, Target: h.Label})
		cur, err = AddHM(cur, h.Minutes)
		if err != nil {
			return nil, err
		}
	}
	return items, nil
}

// TotalMinutes sums the durations of a duration list.
func TotalMinutes(hourly []HourlyEntry) int {
	total := 0
	for _, h := range hourly {
		total += h.Minutes
	}
	return total
}

// SortItems orders schedule items ascending by start time.
func SortItems(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		return HMBefore(items[i].Start, items[j].Start)
	})
}

// CurrentItem returns the schedule entry in effect at hm: the latest item
// whose start time is at or before hm. ok is false for an empty schedule,
// malformed hm, or hm earlier than the first entry.
func CurrentItem(items []Item, hm string) (Item, bool) {
	norm, err := NormalizeHM(hm)
	if err != nil || len(items) == 0 {
		return Item{}, false
	}
	best := -1
	for i, it := range items {
		if !HMBefore(norm, it.Start) {
			best = i
		}
	}
	if best < 0 {
		return Item{}, false
	}
	return items[best], true
}

// WakeTime is the start of the first schedule entry.
func WakeTime(items []Item) (string, bool) {
	if len(items) == 0 {
		return "", false
	}
	return items[0].Start, true
}

// SleepTime is one hour past the start of the last schedule entry, wrapping
// past midnight.
func SleepTime(items []Item) (string, bool) {
	if len(items) == 0 {
		return "", false
	}
	t, err := AddHM(items[len(items)-1].Start, 60)
	if err != nil {
		return "", false
	}
	return t, true
}
