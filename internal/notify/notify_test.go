package notify

import "testing"

func TestQuote(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`New publication added`, `"New publication added"`},
		{`Maps of "Dust" Emission`, `"Maps of \"Dust\" Emission"`},
		{`back\slash`, `"back\\slash"`},
	}
	for _, tt := range tests {
		if got := quote(tt.in); got != tt.want {
			t.Errorf("quote(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestNewSoundSelection(t *testing.T) {
	if n := New(true, nil); n.sound != DefaultSound {
		t.Errorf("sound = %q, want %q", n.sound, DefaultSound)
	}
	if n := New(false, nil); n.sound != "" {
		t.Errorf("sound = %q, want silent", n.sound)
	}
	if New(false, nil).log == nil {
		t.Error("nil logger not defaulted")
	}
}
