package merge

import "testing"

func TestFingerprint_IdenticalTexts(t *testing.T) {
	text := "the quick brown fox jumps over the lazy dog"
	if Fingerprint(text) != Fingerprint(text) {
		t.Error("identical texts produced different fingerprints")
	}
}

func TestFingerprint_CaseInsensitive(t *testing.T) {
	if Fingerprint("Hello World") != Fingerprint("hello world") {
		t.Error("case should not change the fingerprint")
	}
}

func TestFingerprint_SimilarTexts(t *testing.T) {
	a := Fingerprint("the quick brown fox jumps over the lazy dog")
	b := Fingerprint("the quick brown fox leaps over the lazy dog")
	if d := Distance(a, b); d > 10 {
		t.Errorf("similar texts have too large distance: %d", d)
	}
}

func TestFingerprint_DifferentTexts(t *testing.T) {
	a := Fingerprint("the quick brown fox jumps over the lazy dog")
	b := Fingerprint("completely unrelated content about quantum physics and mathematics")
	if d := Distance(a, b); d < 5 {
		t.Errorf("very different texts have too small distance: %d", d)
	}
}

func TestFingerprint_EmptyInput(t *testing.T) {
	if fp := Fingerprint("   "); fp != 0 {
		t.Errorf("empty input should produce fingerprint 0, got: %064b", fp)
	}
}

func TestSimilar(t *testing.T) {
	tests := []struct {
		a, b      uint64
		threshold int
		want      bool
	}{
		{0b0000, 0b0000, 0, true},
		{0b1010, 0b1000, 1, true},
		{0b1111, 0b0000, 3, false},
		{0b1111, 0b0000, 4, true},
	}
	for _, tt := range tests {
		if got := Similar(tt.a, tt.b, tt.threshold); got != tt.want {
			t.Errorf("Similar(%b, %b, %d) = %v, want %v", tt.a, tt.b, tt.threshold, got, tt.want)
		}
	}
}
