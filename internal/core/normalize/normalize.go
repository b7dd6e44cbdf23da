// Package normalize turns raw caller input into stable lookup keys
// Phone numbers
// 1 NFKC + width fold so fullwidth and other Unicode decimal digits read as ASCII
// 2 Keep digits only
// 3 Reject fewer than MinDigits
// 4 Key on the trailing KeyDigits via the pluggable KeyFunc
// Display names
// 1 Sanitize controls and invalid UTF-8
// 2 NFKC, collapse whitespace, trim
// 3 Fold (case fold + strip marks) gives the comparison key
package normalize

import (
	"strings"
	"sync"
	"unicode"

	perr "callerid/internal/platform/errors"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

const (
	// MinDigits is the shortest digit string accepted as a phone number
	MinDigits = 10
	// KeyDigits is how many trailing digits identify a number
	KeyDigits = 10
)

// ErrInvalidNumber is returned when fewer than MinDigits remain after stripping
var ErrInvalidNumber = perr.New(perr.ErrorCodeInvalidArgument, "invalid number")

// KeyFunc maps a digits-only string to its identity key.
// Every call site goes through Key so the collision policy lives in one place
type KeyFunc func(digits string) string

// LastDigits keys a number on its trailing KeyDigits digits. Numbers from different
// country codes that share a local suffix collide; this is accepted behavior
func LastDigits(digits string) string {
	if len(digits) <= KeyDigits {
		return digits
	}
	return digits[len(digits)-KeyDigits:]
}

var (
	keyMu sync.RWMutex
	keyFn KeyFunc = LastDigits
)

// SetKeyFunc swaps the active key policy and returns a restore func. Nil resets to LastDigits
func SetKeyFunc(fn KeyFunc) (restore func()) {
	if fn == nil {
		fn = LastDigits
	}
	keyMu.Lock()
	prev := keyFn
	keyFn = fn
	keyMu.Unlock()
	return func() {
		keyMu.Lock()
		keyFn = prev
		keyMu.Unlock()
	}
}

// pool of digit folding chains
var digitPool = sync.Pool{
	New: func() any {
		return transform.Chain(norm.NFKC, width.Fold)
	},
}

// pool of name folding chains
var foldPool = sync.Pool{
	New: func() any {
		return transform.Chain(
			norm.NFKD,
			cases.Fold(),
			runes.Remove(runes.In(unicode.Mn)), // strip combining marks
			runes.Remove(runes.In(unicode.Cf)), // strip ZWJ ZWNJ FEFF etc
			norm.NFC,
		)
	},
}

func run(p *sync.Pool, s string) string {
	tr := p.Get().(transform.Transformer)
	out, _, err := transform.String(tr, s)
	tr.Reset()
	p.Put(tr)
	if err != nil {
		return s
	}
	return out
}

// Digits strips everything but decimal digits. Non-ASCII decimal digits
// (fullwidth, Arabic-Indic, ...) are mapped to their ASCII value
func Digits(raw string) string {
	if raw == "" {
		return ""
	}
	s := run(&digitPool, strings.ToValidUTF8(raw, ""))
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
			continue
		}
		if d, ok := decimalValue(r); ok {
			b.WriteByte(byte('0' + d))
		}
	}
	return b.String()
}

// decimalValue finds the value of a Unicode Nd rune. Nd digits come in
// contiguous runs of ten starting at zero, so the offset from the run start mod 10 is the value
func decimalValue(r rune) (int, bool) {
	if !unicode.Is(unicode.Nd, r) {
		return 0, false
	}
	d := 0
	for unicode.Is(unicode.Nd, r-1) {
		r--
		d++
	}
	return d % 10, true
}

// Key returns the identity key for raw input or ErrInvalidNumber
func Key(raw string) (string, error) {
	d := Digits(raw)
	if len(d) < MinDigits {
		return "", perr.WithField(ErrInvalidNumber, "number")
	}
	keyMu.RLock()
	fn := keyFn
	keyMu.RUnlock()
	return fn(d), nil
}

// MustKey is Key for trusted input such as fixtures; it panics on error
func MustKey(raw string) string {
	k, err := Key(raw)
	if err != nil {
		panic(err)
	}
	return k
}

// Name cleans a display name for storage and display. Case is preserved
func Name(s string) string {
	if s == "" {
		return ""
	}
	s = Sanitize(s)
	s = norm.NFKC.String(s)
	return collapseSpaces(s)
}

// FoldName returns the comparison key for a display name: cleaned, case folded, marks stripped
func FoldName(s string) string {
	s = Name(s)
	if s == "" {
		return ""
	}
	return run(&foldPool, s)
}

// EqualNames reports whether two display names are the same candidate
func EqualNames(a, b string) bool { return FoldName(a) == FoldName(b) }

// collapseSpaces converts whitespace runs to a single ASCII space and trims the edges
func collapseSpaces(s string) string {
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}
