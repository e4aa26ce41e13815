package fleet

import (
	"reflect"
	"testing"

	"busline/internal/shared/apperrors"

	"github.com/google/uuid"
)

func TestParseSeatRanges(t *testing.T) {
	tests := []struct {
		in   string
		want []int
	}{
		{"", nil},
		{"1-4,7", []int{1, 2, 3, 4, 7}},
		{" 10 - 12 , 3 ,3", []int{3, 10, 11, 12}},
		{"5,", []int{5}},
	}
	for _, tt := range tests {
		got, err := ParseSeatRanges(tt.in)
		if err != nil {
			t.Fatalf("ParseSeatRanges(%q): %v", tt.in, err)
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ParseSeatRanges(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseSeatRangesRejectsGarbage(t *testing.T) {
	for _, in := range []string{"a", "4-2", "0", "1-x"} {
		if _, err := ParseSeatRanges(in); !apperrors.IsValidation(err) {
			t.Errorf("ParseSeatRanges(%q): expected validation error, got %v", in, err)
		}
	}
}

func TestGenerateSeats(t *testing.T) {
	bus := &Bus{ID: uuid.New(), SeatCapacity: 8, VIPSeatNumbers: "1-2"}
	seats, err := GenerateSeats(bus)
	if err != nil {
		t.Fatal(err)
	}
	if len(seats) != 8 {
		t.Fatalf("expected 8 seats, got %d", len(seats))
	}
	if seats[0].Type != SeatTypeVIP || seats[1].Type != SeatTypeVIP || seats[2].Type != SeatTypeStandard {
		t.Fatalf("unexpected seat types %+v", seats[:3])
	}
	if seats[7].Number != 8 || seats[7].BusID != bus.ID {
		t.Fatalf("unexpected last seat %+v", seats[7])
	}
}

func TestGenerateSeatsVIPBeyondCapacity(t *testing.T) {
	_, err := GenerateSeats(&Bus{SeatCapacity: 4, VIPSeatNumbers: "3-6"})
	if !apperrors.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
