package schedule

import (
	"testing"
	"time"
)

func TestParseSim(t *testing.T) {
	got, err := ParseSim("2025-03-01-07-30")
	if err != nil {
		t.Fatalf("ParseSim: %v", err)
	}
	want := time.Date(2025, 3, 1, 7, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("ParseSim = %v, want %v", got, want)
	}

	if _, err := ParseSim("2025/03/01 07:30"); err == nil {
		t.Fatal("ParseSim accepted malformed timestamp")
	}
}

func TestNormalizeHM(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "6-5", want: "06-05"},
		{in: "06:30", want: "06-30"},
		{in: " 23-59 ", want: "23-59"},
		{in: "0-0", want: "00-00"},
		{in: "24-00", wantErr: true},
		{in: "12-60", wantErr: true},
		{in: "noon", wantErr: true},
		{in: "12", wantErr: true},
	}
	for _, tc := range cases {
		got, err := NormalizeHM(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("NormalizeHM(%q) = %q, want error", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("NormalizeHM(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("NormalizeHM(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestAddHM(t *testing.T) {
	cases := []struct {
		hm      string
		minutes int
		want    string
	}{
		{hm: "06-30", minutes: 90, want: "08-00"},
		{hm: "23-30", minutes: 60, want: "00-30"},
		{hm: "00-00", minutes: -30, want: "23-30"},
		{hm: "12-00", minutes: 24 * 60, want: "12-00"},
	}
	for _, tc := range cases {
		got, err := AddHM(tc.hm, tc.minutes)
		if err != nil {
			t.Errorf("AddHM(%q, %d): %v", tc.hm, tc.minutes, err)
			continue
		}
		if got != tc.want {
			t.Errorf("AddHM(%q, %d) = %q, want %q", tc.hm, tc.minutes, got, tc.want)
		}
	}
}

func TestHMBefore(t *testing.T) {
	if !HMBefore("06-00", "06-01") {
		t.Error("06-00 should sort before 06-01")
	}
	if HMBefore("10-00", "09-59") {
		t.Error("10-00 should not sort before 09-59")
	}
	if HMBefore("08-00", "08-00") {
		t.Error("equal times are not strictly before")
	}
}

func TestInstantHelpers(t *testing.T) {
	at := time.Date(2025, 3, 2, 9, 5, 0, 0, time.UTC) // a Sunday
	if got := HM(at); got != "09-05" {
		t.Errorf("HM = %q", got)
	}
	if got := FormatChinese(at); got != "2025年03月02日09点05分" {
		t.Errorf("FormatChinese = %q", got)
	}
	if got := WeekdayLabel(at); got != "星期天" {
		t.Errorf("WeekdayLabel = %q", got)
	}
}
