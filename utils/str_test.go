package utils

import "testing"

func TestCommonPrefix(t *testing.T) {
	for _, tc := range []struct {
		in   []string
		want string
	}{
		{nil, ""},
		{[]string{"nbar_blue"}, "nbar_blue"},
		{[]string{"nbar_blue", "nbar_red"}, "nbar_"},
		{[]string{"nbar_band08", "nbart_band08"}, "nbar"},
		{[]string{"abc", "xyz"}, ""},
	} {
		if got := CommonPrefix(tc.in); got != tc.want {
			t.Fatalf("CommonPrefix(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCommonSuffix(t *testing.T) {
	for _, tc := range []struct {
		in   []string
		want string
	}{
		{nil, ""},
		{[]string{"panchromatic"}, "panchromatic"},
		{[]string{"nbar_band08", "nbart_band08"}, "_band08"},
		{[]string{"nbar_blue", "nbar_red"}, ""},
	} {
		if got := CommonSuffix(tc.in); got != tc.want {
			t.Fatalf("CommonSuffix(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestStrBytesRoundtrip(t *testing.T) {
	s := "geo"
	if string(S2B(s)) != s {
		t.Fatal("S2B mismatch")
	}
	if B2S([]byte(s)) != s {
		t.Fatal("B2S mismatch")
	}
}
