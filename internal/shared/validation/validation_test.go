package validation

import "testing"

func TestIsPhone(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"+225 07 08 09 10", true},
		{"0708091011", true},
		{"07.08.09.10", true},
		{"1234567", false},
		{"07-08-09-10-11-12-13-14", false},
		{"07 08 AB 10", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsPhone(tt.in); got != tt.want {
			t.Errorf("IsPhone(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestBusphoneTag(t *testing.T) {
	type passenger struct {
		Phone string `validate:"required,busphone"`
	}
	v := New()
	if err := v.Struct(passenger{Phone: "+225 0700000000"}); err != nil {
		t.Fatalf("expected valid phone, got %v", err)
	}
	if err := v.Struct(passenger{Phone: "abc"}); err == nil {
		t.Fatal("expected busphone to reject letters")
	}
}
