package table

import (
	"testing"
	"time"
)

type pathContact struct {
	Email string `json:"email"`
	Town  string `json:"town"`
}

type pathDoc struct {
	ID string `json:"id"`
}

type pathRow struct {
	pathDoc
	Name        string      `json:"name"`
	ContactInfo pathContact `json:"contactInfo"`
	Labels      map[string]string
	Count       int        `json:"count"`
	When        *time.Time `json:"when"`
	hidden      string
}

func TestResolvePathByJSONTag(t *testing.T) {
	row := pathRow{Name: "Beachcomber", ContactInfo: pathContact{Email: "res@beachcomber.mu"}}

	got := ResolvePath(row, "contactInfo.email")
	if got != "res@beachcomber.mu" {
		t.Errorf("Expected email, got %v", got)
	}
}

func TestResolvePathByFieldName(t *testing.T) {
	row := pathRow{Count: 7}
	if got := ResolvePath(row, "Count"); got != 7 {
		t.Errorf("Expected 7, got %v", got)
	}
}

func TestResolvePathThroughEmbedded(t *testing.T) {
	row := pathRow{pathDoc: pathDoc{ID: "abc"}}
	if got := ResolvePath(row, "id"); got != "abc" {
		t.Errorf("Expected embedded id, got %v", got)
	}
}

func TestResolvePathIntoMap(t *testing.T) {
	row := pathRow{Labels: map[string]string{"region": "north"}}
	if got := ResolvePath(row, "Labels.region"); got != "north" {
		t.Errorf("Expected map value, got %v", got)
	}
}

func TestResolvePathMissingIsNil(t *testing.T) {
	row := pathRow{}
	cases := []string{"nope", "contactInfo.nope", "Labels.missing", "when.year", "hidden"}
	for _, path := range cases {
		if got := ResolvePath(row, path); got != nil {
			t.Errorf("Path %q: expected nil, got %v", path, got)
		}
	}
}

func TestResolvePathThroughPointer(t *testing.T) {
	row := &pathRow{Name: "x"}
	if got := ResolvePath(row, "name"); got != "x" {
		t.Errorf("Expected x, got %v", got)
	}
}

func TestStringify(t *testing.T) {
	when := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	cases := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"plain", "plain"},
		{42, "42"},
		{3.5, "3.5"},
		{true, "true"},
		{when, "2026-03-14T10:00:00Z"},
		{&when, "2026-03-14T10:00:00Z"},
		{(*time.Time)(nil), ""},
		{time.Time{}, ""},
	}
	for _, tc := range cases {
		if got := Stringify(tc.in); got != tc.want {
			t.Errorf("Stringify(%v): expected %q, got %q", tc.in, tc.want, got)
		}
	}
}
