package expand

import (
	"errors"
	"slices"
	"testing"

	"github.com/danmuck/linkctl/internal/testutil/testlog"
)

func TestExpandWithoutGroupReturnsInput(t *testing.T) {
	testlog.Start(t)
	for _, in := range []string{"", "mic", "alsa_output.pci-0000:00:1f.3:playback_FL", "a..b", "x,y"} {
		got, err := Expand(in)
		if err != nil {
			t.Fatalf("expand %q: %v", in, err)
		}
		if len(got) != 1 || got[0] != in {
			t.Fatalf("expand %q got=%q", in, got)
		}
	}
}

func TestExpandAccepted(t *testing.T) {
	testlog.Start(t)
	cases := []struct {
		in   string
		want []string
	}{
		{"a{b,c}d", []string{"abd", "acd"}},
		{"a{1..3}", []string{"a1", "a2", "a3"}},
		{"a{0..0}", []string{"a0"}},
		{"a{1,2..3}", []string{"a1", "a2..3"}},
		{"a{}b", []string{"ab"}},
		{"{FL,FR}", []string{"FL", "FR"}},
		{"p{x..y}", []string{"px..y"}},
		{"p{..3}", []string{"p..3"}},
		{"p{b,a,b}", []string{"pb", "pa"}},
		{"p{a,}", []string{"pa", "p"}},
		{"in_{9..11}_x", []string{"in_9_x", "in_10_x", "in_11_x"}},
	}
	for _, tc := range cases {
		got, err := Expand(tc.in)
		if err != nil {
			t.Fatalf("expand %q: %v", tc.in, err)
		}
		if !slices.Equal(got, tc.want) {
			t.Fatalf("expand %q got=%q want=%q", tc.in, got, tc.want)
		}
		testlog.Logf("expand: %q -> %q", tc.in, got)
	}
}

func TestExpandRejected(t *testing.T) {
	testlog.Start(t)
	cases := []struct {
		in   string
		want error
	}{
		{"a{2..3,4}", ErrRangeNotNumeric},
		{"a{1..}", ErrRangeNotNumeric},
		{"a{1..2..3}", ErrRangeNotNumeric},
		{"a{", ErrUnclosedBrace},
		{"a{b", ErrUnclosedBrace},
		{"a}", ErrCloseBeforeOpen},
		{"a{b}c}", ErrCloseBeforeOpen},
		{"a{}b{", ErrMultipleGroups},
		{"a{b{c}}", ErrMultipleGroups},
		{"a{3..1}", ErrRangeDecreasing},
		{"a{0..99999999}", ErrRangeTooLarge},
		{"a{1..99999999999999999999}", ErrRangeNotNumeric},
	}
	for _, tc := range cases {
		_, err := Expand(tc.in)
		if !errors.Is(err, tc.want) {
			t.Fatalf("expand %q err=%v want=%v", tc.in, err, tc.want)
		}
		var perr *Error
		if !errors.As(err, &perr) || perr.Pattern != tc.in {
			t.Fatalf("expand %q: error does not carry pattern: %#v", tc.in, err)
		}
	}
}
