package normalize

import (
	"testing"

	perr "callerid/internal/platform/errors"
)

func TestDigits_Table(t *testing.T) {
	tests := []struct {
		name string
		in   string
		out  string
	}{
		{name: "empty", in: "", out: ""},
		{name: "plain", in: "9876543210", out: "9876543210"},
		{name: "punctuation", in: "+1 (987) 654-3210", out: "19876543210"},
		{name: "fullwidth", in: "９８７６５４３２１０", out: "9876543210"},
		{name: "arabic indic", in: "٩٨٧", out: "987"},
		{name: "letters dropped", in: "call 555-CALL-NOW 12", out: "55512"},
		{name: "invalid utf8", in: string([]byte{0xff, '1', '2'}), out: "12"},
	}
	for _, tc := range tests {
		if got := Digits(tc.in); got != tc.out {
			t.Fatalf("%s: Digits(%q) = %q, want %q", tc.name, tc.in, got, tc.out)
		}
	}
}

func TestKey(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		invalid bool
	}{
		{in: "9876543210", want: "9876543210"},
		{in: "+91 98765-43210", want: "9876543210"},
		{in: "001 987 654 3210", want: "9876543210"},
		{in: "987654321", invalid: true},
		{in: "abc", invalid: true},
		{in: "", invalid: true},
	}
	for _, tc := range tests {
		got, err := Key(tc.in)
		if tc.invalid {
			if !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
				t.Fatalf("Key(%q) err = %v, want invalid argument", tc.in, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("Key(%q) = %q, %v; want %q", tc.in, got, err, tc.want)
		}
	}
}

func TestKey_SuffixCollision(t *testing.T) {
	a := MustKey("+1 987 654 3210")
	b := MustKey("+44 987 654 3210")
	if a != b {
		t.Fatalf("suffix keys differ: %q vs %q", a, b)
	}
}

func TestSetKeyFunc(t *testing.T) {
	restore := SetKeyFunc(func(d string) string { return "x" + d })
	got := MustKey("+1 987 654 3210")
	restore()
	if got != "x19876543210" {
		t.Fatalf("custom key = %q", got)
	}
	if MustKey("19876543210") != "9876543210" {
		t.Fatalf("restore did not reinstate LastDigits")
	}
}

func TestMustKey_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	MustKey("12")
}

func TestName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  John   Smith ", "John Smith"},
		{"Jon\tDoe\n", "Jon Doe"},
		{"A\x00B", "AB"},
		{"", ""},
	}
	for _, tc := range tests {
		if got := Name(tc.in); got != tc.want {
			t.Fatalf("Name(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestEqualNames(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"John", "john", true},
		{"JOHN ", " john", true},
		{"José", "jose", true},
		{"Jon", "John", false},
		{"Ｊｏｈｎ", "john", true},
	}
	for _, tc := range tests {
		if got := EqualNames(tc.a, tc.b); got != tc.want {
			t.Fatalf("EqualNames(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestSanitize_FastPath(t *testing.T) {
	s := "plain name"
	if Sanitize(s) != s {
		t.Fatalf("clean input should pass through")
	}
	if got := Sanitize("a\u0085b\x7f"); got != "ab" {
		t.Fatalf("Sanitize C1/DEL = %q", got)
	}
}
