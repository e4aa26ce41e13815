package database

import (
	"busline/internal/bookings"
	"busline/internal/companies"
	"busline/internal/fleet"
	"busline/internal/payments"
	"busline/internal/routes"
	"busline/internal/trips"
	"busline/internal/users"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
		return err
	}
	err := db.AutoMigrate(
		&users.User{},
		&companies.Company{},
		&routes.City{},
		&routes.Route{},
		&routes.RouteStop{},
		&fleet.Bus{},
		&fleet.Seat{},
		&trips.Trip{},
		&bookings.Booking{},
		&payments.Payment{},
	)
	if err != nil {
		return err
	}
	return MigrateConstraints(db)
}
