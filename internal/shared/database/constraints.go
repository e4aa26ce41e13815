package database

import (
	"fmt"
	"strings"

	"busline/internal/bookings"

	"gorm.io/gorm"
)

func occupancyStateList() string {
	quoted := make([]string, len(bookings.OccupancyStates))
	for i, s := range bookings.OccupancyStates {
		quoted[i] = "'" + string(s) + "'"
	}
	return strings.Join(quoted, ", ")
}

func constraintStatements() []string {
	return []string{
		// one occupying booking per assigned seat and trip
		fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS %s ON bookings (trip_id, seat_id) WHERE seat_id IS NOT NULL AND state IN (%s)`,
			bookings.SeatIndexName, occupancyStateList()),

		fmt.Sprintf(`DO $$ BEGIN
	IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = '%[1]s') THEN
		ALTER TABLE bookings ADD CONSTRAINT %[1]s CHECK (amount_paid <= total_amount);
	END IF;
END $$`, bookings.AmountCheckName),

		`CREATE INDEX IF NOT EXISTS idx_bookings_trip_state ON bookings (trip_id, state)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_state_deadline ON bookings (state, reservation_deadline) WHERE reservation_deadline IS NOT NULL`,
		`CREATE INDEX IF NOT EXISTS idx_payments_booking_state ON payments (booking_id, state)`,
	}
}

// MigrateConstraints adds the indexes and checks that the booking repository maps back to
// domain errors. Every statement is idempotent.
func MigrateConstraints(db *gorm.DB) error {
	for _, stmt := range constraintStatements() {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to apply constraint: %w", err)
		}
	}
	return nil
}
