package ngram

import (
	"errors"
	"testing"

	"github.com/cognicore/labelhier/pkg/labelhier/internalerr"
)

func TestKeyRoundTrip(t *testing.T) {
	n := Of("change", "of", "control")
	k := n.Key()

	if k.Len() != 3 {
		t.Errorf("Expected key length 3, got %d", k.Len())
	}
	if !k.NGram().Equal(n) {
		t.Errorf("Key round trip mismatch: got %v, want %v", k.NGram(), n)
	}
	if Key("").Len() != 0 {
		t.Error("Empty key should have length 0")
	}
}

func TestFromText(t *testing.T) {
	n := FromText("  Governing   Law ")
	if !n.Equal(Of("governing", "law")) {
		t.Errorf("Unexpected tokens: %v", n)
	}
}

func TestFromTextSplitsOnKeySeparator(t *testing.T) {
	n := FromText("A\x1fB")
	if !n.Equal(Of("a", "b")) {
		t.Fatalf("Unexpected tokens: %q", []string(n))
	}
	if n.Key() != Of("a", "b").Key() || n.Key().Len() != 2 {
		t.Errorf("Key %q should be the two-token key", n.Key())
	}
	if err := n.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	for _, n := range []NGram{{}, {""}, {"a", ""}, {"a\x1fb"}} {
		if err := n.Validate(); !errors.Is(err, internalerr.ErrInvalidInput) {
			t.Errorf("Validate(%q): expected ErrInvalidInput, got %v", []string(n), err)
		}
	}
	if err := Of("change", "of", "control").Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestSubNGrams(t *testing.T) {
	subs := Of("a", "b", "c").SubNGrams()

	want := []NGram{
		Of("a"), Of("b"), Of("c"),
		Of("a", "b"), Of("b", "c"),
		Of("a", "b", "c"),
	}
	if len(subs) != len(want) {
		t.Fatalf("Expected %d sub-n-grams, got %d: %v", len(want), len(subs), subs)
	}
	for i := range want {
		if !subs[i].Equal(want[i]) {
			t.Errorf("Sub-n-gram %d: got %v, want %v", i, subs[i], want[i])
		}
	}
}

func TestBoundaryReductions(t *testing.T) {
	red := Of("without", "cause", "termination").BoundaryReductions()
	if len(red) != 2 {
		t.Fatalf("Expected 2 reductions, got %d", len(red))
	}
	if !red[0].Equal(Of("cause", "termination")) || !red[1].Equal(Of("without", "cause")) {
		t.Errorf("Unexpected reductions: %v", red)
	}

	if got := Of("a", "a").BoundaryReductions(); len(got) != 1 {
		t.Errorf("Repeated token should collapse to 1 reduction, got %v", got)
	}
	if got := Of("a").BoundaryReductions(); got != nil {
		t.Errorf("Unigram has no reductions, got %v", got)
	}
}

func TestIsBoundaryReductionOf(t *testing.T) {
	parent := Of("a", "b", "c")
	if !Of("a", "b").IsBoundaryReductionOf(parent) {
		t.Error("('a','b') should reduce ('a','b','c')")
	}
	if !Of("b", "c").IsBoundaryReductionOf(parent) {
		t.Error("('b','c') should reduce ('a','b','c')")
	}
	if Of("a", "c").IsBoundaryReductionOf(parent) {
		t.Error("('a','c') drops an inner token")
	}
	if Of("a").IsBoundaryReductionOf(parent) {
		t.Error("Reduction must remove exactly one token")
	}
}

func TestStringLiteral(t *testing.T) {
	cases := []struct {
		in   NGram
		want string
	}{
		{Of("termination"), "('termination',)"},
		{Of("good", "reason"), "('good', 'reason')"},
		{Of("party's", "consent"), `("party's", 'consent')`},
		{NGram{}, "()"},
	}
	for _, tc := range cases {
		if got := tc.in.String(); got != tc.want {
			t.Errorf("String(%v) = %s, want %s", []string(tc.in), got, tc.want)
		}
	}
}

func TestParse(t *testing.T) {
	cases := []struct {
		in   string
		want NGram
	}{
		{"('termination',)", Of("termination")},
		{"('good', 'reason')", Of("good", "reason")},
		{` ( "party's" , 'consent' ) `, Of("party's", "consent")},
		{`('it\'s',)`, Of("it's")},
		{`('caf\xe9',)`, Of("café")},
		{"['a', 'b']", Of("a", "b")},
		{"['a']", Of("a")},
		{"()", NGram{}},
	}
	for _, tc := range cases {
		got, err := Parse(tc.in)
		if err != nil {
			t.Errorf("Parse(%s): %v", tc.in, err)
			continue
		}
		if !got.Equal(tc.want) {
			t.Errorf("Parse(%s) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseRoundTrip(t *testing.T) {
	for _, n := range []NGram{
		Of("termination", "by", "tyson"),
		Of(`back\slash`, "tab\there"),
		Of(`mixed'"quotes`),
	} {
		got, err := Parse(n.String())
		if err != nil {
			t.Fatalf("Parse(%s): %v", n.String(), err)
		}
		if !got.Equal(n) {
			t.Errorf("Round trip mismatch: got %v, want %v", got, n)
		}
	}
}

func TestParseMalformed(t *testing.T) {
	for _, in := range []string{
		"",
		"termination",
		"('termination')",
		"('a', 'b'",
		"('a' 'b')",
		"('a', b)",
		"('',)",
		"('a',) trailing",
		`('a\q',)`,
	} {
		_, err := Parse(in)
		if err == nil {
			t.Errorf("Parse(%q) should fail", in)
			continue
		}
		if !errors.Is(err, internalerr.ErrMalformedIdentity) {
			t.Errorf("Parse(%q) error should wrap ErrMalformedIdentity, got %v", in, err)
		}
	}
}
