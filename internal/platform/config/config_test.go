package config

import (
	"reflect"
	"testing"
	"time"

	kit "callerid/internal/platform/testkit"
)

func TestPrefix(t *testing.T) {
	c := New().Prefix("CALLERID_").Prefix("CACHE_")
	if got := c.key("TTL"); got != "CALLERID_CACHE_TTL" {
		t.Fatalf("key = %q", got)
	}
}

func TestMustString(t *testing.T) {
	c := New().Prefix("CORE_API_")
	t.Setenv("CORE_API_AUTH_SECRET", "  s3cret ")
	if got := c.MustString("AUTH_SECRET"); got != "s3cret" {
		t.Fatalf("MustString = %q", got)
	}
	t.Setenv("CORE_API_BLANK", "   ")
	kit.MustPanic(t, func() { c.MustString("BLANK") })
	kit.MustPanic(t, func() { c.MustString("MISSING") })
}

func TestMay(t *testing.T) {
	t.Setenv("REPUTATION_SPAM_THRESHOLD", " 25 ")
	t.Setenv("REPUTATION_BAD_INT", "lots")
	t.Setenv("REPUTATION_MIGRATE", "true")
	t.Setenv("REPUTATION_BAD_BOOL", "sure")
	t.Setenv("REPUTATION_STATEMENT_TIMEOUT", "750ms")
	t.Setenv("REPUTATION_BAD_DUR", "soon")
	t.Setenv("REPUTATION_NAME", "callerid")
	c := New().Prefix("REPUTATION_")

	cases := []struct {
		name string
		got  any
		want any
	}{
		{"int", c.MayInt("SPAM_THRESHOLD", 50), 25},
		{"int invalid", c.MayInt("BAD_INT", 50), 50},
		{"int missing", c.MayInt("NOPE", 7), 7},
		{"bool", c.MayBool("MIGRATE", false), true},
		{"bool invalid", c.MayBool("BAD_BOOL", false), false},
		{"duration", c.MayDuration("STATEMENT_TIMEOUT", time.Second), 750 * time.Millisecond},
		{"duration invalid", c.MayDuration("BAD_DUR", time.Second), time.Second},
		{"string", c.MayString("NAME", "x"), "callerid"},
		{"string missing", c.MayString("NOPE", "x"), "x"},
	}
	for _, tc := range cases {
		if tc.got != tc.want {
			t.Errorf("%s: got %v, want %v", tc.name, tc.got, tc.want)
		}
	}
}

func TestMayCSV(t *testing.T) {
	c := New().Prefix("REPUTATION_")
	t.Setenv("REPUTATION_CURATORS", " u-1, ,u-2 ,")
	if got := c.MayCSV("CURATORS", nil); !reflect.DeepEqual(got, []string{"u-1", "u-2"}) {
		t.Fatalf("MayCSV = %q", got)
	}
	t.Setenv("REPUTATION_EMPTY", " , ,")
	if got := c.MayCSV("EMPTY", []string{"d"}); !reflect.DeepEqual(got, []string{"d"}) {
		t.Fatalf("blank list = %q", got)
	}
}

func TestMayEnum(t *testing.T) {
	c := New().Prefix("REPUTATION_")
	if got := c.MayEnum("STORE", "pg", "pg", "memory"); got != "pg" {
		t.Fatalf("default = %q", got)
	}
	t.Setenv("REPUTATION_STORE", "Memory")
	if got := c.MayEnum("STORE", "pg", "pg", "memory"); got != "Memory" {
		t.Fatalf("case-insensitive match = %q", got)
	}
	t.Setenv("REPUTATION_STORE", "sqlite")
	kit.MustPanic(t, func() { c.MayEnum("STORE", "pg", "pg", "memory") })
}
