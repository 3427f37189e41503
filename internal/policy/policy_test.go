package policy

import "testing"

func TestDecideBrightness(t *testing.T) {
	tests := []struct {
		name    string
		value   float64
		wantDir Direction
		wantOK  bool
	}{
		{"too dark yields raise", 60, Raise, true},
		{"too bright yields lower", 200, Lower, true},
		{"inside band yields nothing", 130, 0, false},
		{"exactly at low bound yields nothing", 80, 0, false},
		{"exactly at high bound yields nothing", 180, 0, false},
		{"just below low", 79.9, Raise, true},
		{"just above high", 180.1, Lower, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir, ok := DefaultBrightness.Decide(tt.value)
			if ok != tt.wantOK {
				t.Fatalf("Decide(%v) ok = %v, want %v", tt.value, ok, tt.wantOK)
			}
			if ok && dir != tt.wantDir {
				t.Errorf("Decide(%v) = %v, want %v", tt.value, dir, tt.wantDir)
			}
		})
	}
}

func TestDecideVolume(t *testing.T) {
	tests := []struct {
		name    string
		value   float64
		wantDir Direction
		wantOK  bool
	}{
		{"too loud yields lower", -15, Lower, true},
		{"too quiet yields raise", -50, Raise, true},
		{"inside band yields nothing", -30, 0, false},
		{"exactly at low bound yields nothing", -40, 0, false},
		{"exactly at high bound yields nothing", -20, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir, ok := DefaultVolume.Decide(tt.value)
			if ok != tt.wantOK {
				t.Fatalf("Decide(%v) ok = %v, want %v", tt.value, ok, tt.wantOK)
			}
			if ok && dir != tt.wantDir {
				t.Errorf("Decide(%v) = %v, want %v", tt.value, dir, tt.wantDir)
			}
		})
	}
}

func TestDecideIsDeterministic(t *testing.T) {
	b := Bounds{Low: 10, High: 20}
	for i := 0; i < 100; i++ {
		dir, ok := b.Decide(5)
		if !ok || dir != Raise {
			t.Fatalf("iteration %d: Decide(5) = (%v, %v), want (Raise, true)", i, dir, ok)
		}
	}
}

func TestDirectionPayload(t *testing.T) {
	if got := Raise.Payload(); got != "UP" {
		t.Errorf("Raise.Payload() = %q, want UP", got)
	}
	if got := Lower.Payload(); got != "DOWN" {
		t.Errorf("Lower.Payload() = %q, want DOWN", got)
	}
}

func TestBoundsValidate(t *testing.T) {
	if err := DefaultBrightness.Validate(); err != nil {
		t.Errorf("DefaultBrightness.Validate() = %v, want nil", err)
	}
	if err := (Bounds{Low: 5, High: 5}).Validate(); err == nil {
		t.Error("Validate() accepted degenerate bounds")
	}
	if err := (Bounds{Low: 20, High: -40}).Validate(); err == nil {
		t.Error("Validate() accepted inverted bounds")
	}
}
