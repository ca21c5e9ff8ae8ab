package dom

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestScopeReleasesInReverseOrder(t *testing.T) {
	var s Scope
	var got []int
	s.Add(func() { got = append(got, 1) })
	s.Add(func() { got = append(got, 2) })
	s.Add(nil)
	s.Close()
	s.Close()
	if diff := cmp.Diff([]int{2, 1}, got); diff != "" {
		t.Fatalf("release order (-want +got):\n%s", diff)
	}
	if !s.Closed() {
		t.Fatal("scope should report closed")
	}
	s.Add(func() { got = append(got, 3) })
	if diff := cmp.Diff([]int{2, 1, 3}, got); diff != "" {
		t.Fatalf("late add should run at once (-want +got):\n%s", diff)
	}
}

func TestParseCookies(t *testing.T) {
	got := ParseCookies(" ga_consent=granted; lng=en;broken; =x; _ga=GA1.1.2; lng=sk; msg=a%20b")
	want := map[string]string{
		"ga_consent": "granted",
		"lng":        "en",
		"_ga":        "GA1.1.2",
		"msg":        "a b",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("cookies (-want +got):\n%s", diff)
	}
	if len(ParseCookies("")) != 0 {
		t.Fatal("empty string should yield no cookies")
	}
}
