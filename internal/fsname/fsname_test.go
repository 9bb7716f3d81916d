package fsname

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: `a/b\c`, want: "a_b_c"},
		{in: "  My note.  ", want: "My note_"},
		{in: `<a>:"b"?*|`, want: "_a___b____"},
		{in: "", want: ""},
		{in: "   ", want: ""},
		{in: "Über café", want: "Über café"},
		{in: "SN|ItemsKey", want: "SN_ItemsKey"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.in))
		})
	}
}

func TestSanitize_NoReservedCharactersRemain(t *testing.T) {
	inputs := []string{
		`...\\\///:::"""???***|||<<<>>>`,
		"normal title",
		" \t../../etc/passwd\n",
		strings.Repeat(`a.b/c`, 50),
	}
	for _, in := range inputs {
		out := Sanitize(in)
		assert.False(t, strings.ContainsAny(out, `.\/:"?*|<>`), "input %q produced %q", in, out)
	}
}

func TestBoundedTxtName(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		suffix string
		want   string
	}{
		{name: "short", in: "Groceries", suffix: "-ab12", want: "Groceries-ab12.txt"},
		{name: "no suffix", in: "Backup and Import File", suffix: "", want: "Backup and Import File.txt"},
		{name: "empty name", in: "", suffix: "-1f2e", want: "-1f2e.txt"},
		{name: "sanitized", in: "a/b", suffix: "", want: "a_b.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BoundedTxtName(tt.in, tt.suffix))
		})
	}
}

func TestBoundedTxtName_TruncatesToExactlyHundred(t *testing.T) {
	got := BoundedTxtName(strings.Repeat("x", 300), "-ab12")

	assert.Len(t, got, 100)
	assert.True(t, strings.HasSuffix(got, "-ab12.txt"))
	assert.Equal(t, strings.Repeat("x", 91)+"-ab12.txt", got)
}

func TestBoundedTxtName_Bounds(t *testing.T) {
	suffixes := []string{"", "-a", "-0123abcd", strings.Repeat("s", 95), strings.Repeat("s", 150)}
	names := []string{"", "x", strings.Repeat("y", 99), strings.Repeat("é", 120), strings.Repeat("a.b", 80)}

	for _, suffix := range suffixes {
		for _, name := range names {
			got := BoundedTxtName(name, suffix)
			ending := suffix + ".txt"

			assert.True(t, strings.HasSuffix(got, ending))
			assert.True(t, utf8.ValidString(got))
			if len(ending) <= 100 {
				assert.LessOrEqual(t, len(got), 100)
			} else {
				assert.Equal(t, ending, got)
			}
		}
	}
}

func TestBoundedTxtName_DoesNotSplitRunes(t *testing.T) {
	// "é" is two bytes; 91 bytes of room forces a cut inside a rune.
	got := BoundedTxtName(strings.Repeat("é", 60), "-ab12")

	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, strings.Repeat("é", 45)+"-ab12.txt", got)
}
