package fleet

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"busline/internal/shared/apperrors"

	"github.com/google/uuid"
)

// ParseSeatRanges parses seat lists such as "1-4, 7, 10-12" into sorted seat numbers.
func ParseSeatRanges(ranges string) ([]int, error) {
	ranges = strings.ReplaceAll(ranges, " ", "")
	if ranges == "" {
		return nil, nil
	}

	set := map[int]struct{}{}
	for _, part := range strings.Split(ranges, ",") {
		if part == "" {
			continue
		}
		if start, end, ok := strings.Cut(part, "-"); ok {
			lo, err1 := strconv.Atoi(start)
			hi, err2 := strconv.Atoi(end)
			if err1 != nil || err2 != nil || lo < 1 || hi < lo {
				return nil, apperrors.Validation("vip_seat_numbers", fmt.Sprintf("bad range %q", part))
			}
			for n := lo; n <= hi; n++ {
				set[n] = struct{}{}
			}
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 1 {
			return nil, apperrors.Validation("vip_seat_numbers", fmt.Sprintf("bad seat number %q", part))
		}
		set[n] = struct{}{}
	}

	out := make([]int, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	sort.Ints(out)
	return out, nil
}

// GenerateSeats builds seats 1..SeatCapacity, flagging VIP numbers.
func GenerateSeats(bus *Bus) ([]Seat, error) {
	if bus.SeatCapacity <= 0 {
		return nil, apperrors.Validation("seat_capacity", "must be positive")
	}
	vip, err := ParseSeatRanges(bus.VIPSeatNumbers)
	if err != nil {
		return nil, err
	}
	isVIP := make(map[int]bool, len(vip))
	for _, n := range vip {
		if n > bus.SeatCapacity {
			return nil, apperrors.Validation("vip_seat_numbers", fmt.Sprintf("seat %d exceeds capacity %d", n, bus.SeatCapacity))
		}
		isVIP[n] = true
	}

	seats := make([]Seat, 0, bus.SeatCapacity)
	for n := 1; n <= bus.SeatCapacity; n++ {
		seatType := SeatTypeStandard
		if isVIP[n] {
			seatType = SeatTypeVIP
		}
		seats = append(seats, Seat{ID: uuid.New(), BusID: bus.ID, Number: n, Type: seatType})
	}
	return seats, nil
}
