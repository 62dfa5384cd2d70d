package town

import (
	"testing"

	"github.com/talgya/ai-town/internal/entropy"
)

func TestCanonicalize(t *testing.T) {
	cases := []struct{ in, want string }{
		{in: "公寓", want: ApartmentF1},
		{in: "Apartment", want: ApartmentF1},
		{in: "地铁", want: Subway},
		{in: School, want: School},
		{in: "火星基地", want: "火星基地"},
	}
	for _, tc := range cases {
		if got := Canonicalize(tc.in); got != tc.want {
			t.Errorf("Canonicalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}

	// Canonical names are fixed points.
	for _, name := range CanGoPlaces() {
		if got := Canonicalize(name); got != name {
			t.Errorf("Canonicalize(%q) = %q, not idempotent", name, got)
		}
	}
}

func TestResolvePath(t *testing.T) {
	cases := []struct{ cur, dest, want string }{
		{cur: School, dest: School, want: School},
		{cur: School, dest: "", want: School},
		{cur: School, dest: Gym, want: Gym},
		{cur: Exterior, dest: School, want: "學校門口_室外"},
		{cur: School, dest: Exterior, want: "學校門口_室內"},
		{cur: ApartmentF1, dest: Exterior, want: "公寓大門_室內"},
		{cur: School, dest: Subway, want: "地鐵下入口_室外"},
		{cur: "地鐵左樓梯_室內", dest: Subway, want: Subway},
		{cur: Subway, dest: "地鐵", want: Subway},
		{cur: Exterior, dest: "餐廳", want: "餐廳_室外"},
	}
	for _, tc := range cases {
		if got := ResolvePath(tc.cur, tc.dest); got != tc.want {
			t.Errorf("ResolvePath(%q, %q) = %q, want %q", tc.cur, tc.dest, got, tc.want)
		}
	}
}

func TestTraverse(t *testing.T) {
	rng := entropy.New(7)

	to, canonical, ok := Traverse(rng, "健身房_室內")
	if !ok || to != "健身房_室外" || canonical != Exterior {
		t.Errorf("Traverse(健身房_室內) = %q, %q, %v", to, canonical, ok)
	}

	if _, _, ok := Traverse(rng, "不存在的門"); ok {
		t.Error("Traverse accepted an unknown portal")
	}

	// Multi-exit portals always land on one of the declared targets.
	targets := map[string]bool{"公寓頂樓_室內": true, "公寓一樓_室內": true}
	for i := 0; i < 20; i++ {
		to, _, ok := Traverse(rng, "公寓二樓_室內")
		if !ok || !targets[to] {
			t.Fatalf("Traverse(公寓二樓_室內) = %q, %v", to, ok)
		}
	}
}

func TestPortalCanonical(t *testing.T) {
	cases := []struct{ portal, want string }{
		{portal: "學校門口_室外", want: Exterior},
		{portal: "地鐵左樓梯_室內", want: Subway},
		{portal: "公寓二樓_室內", want: ApartmentF2},
		{portal: "公寓大門_室內", want: ApartmentF1},
		{portal: "超市側門_室內", want: Super},
	}
	for _, tc := range cases {
		if got := PortalCanonical(tc.portal); got != tc.want {
			t.Errorf("PortalCanonical(%q) = %q, want %q", tc.portal, got, tc.want)
		}
	}
}

func TestIndoor(t *testing.T) {
	cases := []struct {
		name string
		want bool
	}{
		{name: School, want: true},
		{name: Exterior, want: false},
		{name: "餐廳", want: true},
		{name: "公寓大門_室內", want: true},
		{name: "公寓大門_室外", want: false},
	}
	for _, tc := range cases {
		if got := Indoor(tc.name); got != tc.want {
			t.Errorf("Indoor(%q) = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestAnchor(t *testing.T) {
	if x, y, ok := Anchor(School); !ok || x != -1.0 || y != -109.7 {
		t.Errorf("Anchor(School) = %v, %v, %v", x, y, ok)
	}
	if _, _, ok := Anchor("健身房_室內"); !ok {
		t.Error("portal anchors should resolve")
	}
	if _, _, ok := Anchor("公寓"); !ok {
		t.Error("alias anchors should resolve")
	}
	if _, _, ok := Anchor("霍格華茲"); ok {
		t.Error("unknown anchor should not resolve")
	}
}
