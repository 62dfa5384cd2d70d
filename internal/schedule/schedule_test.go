package schedule

import "testing"

func TestRoll(t *testing.T) {
	hourly := []HourlyEntry{
		{Label: "吃飯", Minutes: 30},
		{Label: "工作", Minutes: 240},
		{Label: "休息", Minutes: 60},
	}
	items, err := Roll("7:0", hourly)
	if err != nil {
		t.Fatalf("Roll: %v", err)
	}
	wantStarts := []string{"07-00", "07-30", "11-30"}
	if len(items) != len(wantStarts) {
		t.Fatalf("Roll produced %d items, want %d", len(items), len(wantStarts))
	}
	for i, it := range items {
		if it.Start != wantStarts[i] {
			t.Errorf("item %d start = %q, want %q", i, it.Start, wantStarts[i])
		}
		if it.Action != hourly[i].Label || it.Target != hourly[i].Label {
			t.Errorf("item %d = %+v, want label %q", i, it, hourly[i].Label)
		}
	}

	if _, err := Roll("25-00", hourly); err == nil {
		t.Fatal("Roll accepted out-of-range wake time")
	}
}

func TestCurrentItem(t *testing.T) {
	items := []Item{
		{Action: "醒來", Start: "07-00"},
		{Action: "吃飯", Start: "07-30"},
		{Action: "工作", Start: "09-00"},
	}

	cases := []struct {
		hm     string
		want   string
		wantOK bool
	}{
		{hm: "06-59", wantOK: false},
		{hm: "07-00", want: "醒來", wantOK: true},
		{hm: "08-59", want: "吃飯", wantOK: true},
		{hm: "09-00", want: "工作", wantOK: true},
		{hm: "23-00", want: "工作", wantOK: true},
		{hm: "bogus", wantOK: false},
	}
	for _, tc := range cases {
		got, ok := CurrentItem(items, tc.hm)
		if ok != tc.wantOK {
			t.Errorf("CurrentItem(%q) ok = %v, want %v", tc.hm, ok, tc.wantOK)
			continue
		}
		if ok && got.Action != tc.want {
			t.Errorf("CurrentItem(%q) = %q, want %q", tc.hm, got.Action, tc.want)
		}
	}

	if _, ok := CurrentItem(nil, "12-00"); ok {
		t.Error("empty schedule should have no current item")
	}
}

func TestWakeAndSleepTimes(t *testing.T) {
	items := []Item{
		{Action: "醒來", Start: "07-00"},
		{Action: "睡前休息", Start: "23-30"},
	}
	wake, ok := WakeTime(items)
	if !ok || wake != "07-00" {
		t.Errorf("WakeTime = %q, %v", wake, ok)
	}
	sleep, ok := SleepTime(items)
	if !ok || sleep != "00-30" {
		t.Errorf("SleepTime = %q, %v (expected wrap past midnight)", sleep, ok)
	}

	if _, ok := WakeTime(nil); ok {
		t.Error("WakeTime on empty schedule")
	}
	if _, ok := SleepTime(nil); ok {
		t.Error("SleepTime on empty schedule")
	}
}

func TestSortItems(t *testing.T) {
	items := []Item{
		{Action: "c", Start: "12-00"},
		{Action: "a", Start: "06-00"},
		{Action: "b", Start: "09-30"},
	}
	SortItems(items)
	got := items[0].Action + items[1].Action + items[2].Action
	if got != "abc" {
		t.Errorf("SortItems order = %q", got)
	}
}

func TestTotalMinutes(t *testing.T) {
	hourly := []HourlyEntry{{Minutes: 30}, {Minutes: 240}, {Minutes: 90}}
	if got := TotalMinutes(hourly); got != 360 {
		t.Errorf("TotalMinutes = %d", got)
	}
}
