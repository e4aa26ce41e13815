package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"busline/internal/companies"
	"busline/internal/fleet"
	"busline/internal/routes"
	"busline/internal/shared/config"
	"busline/internal/shared/database"
	"busline/internal/trips"
	"busline/internal/users"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type Seeder struct {
	db *database.DB
}

func main() {
	fmt.Println("Starting Busline database seeder...")

	cfg := config.Load()

	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	seeder := &Seeder{db: db}

	fmt.Println("\nCleaning database...")
	if err := seeder.CleanDatabase(); err != nil {
		log.Fatalf("Failed to clean database: %v", err)
	}

	fmt.Println("\nSeeding database...")
	if err := seeder.SeedAll(); err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}

	fmt.Println("\nSeeding completed! Database is ready for testing.")
}

// CleanDatabase truncates all tables in reverse dependency order
func (s *Seeder) CleanDatabase() error {
	tables := []string{
		"payments",
		"bookings",
		"trips",
		"seats",
		"buses",
		"route_stops",
		"routes",
		"cities",
		"users",
		"companies",
	}

	return s.db.PostgreSQL.Transaction(func(tx *gorm.DB) error {
		for _, table := range tables {
			fmt.Printf("  Truncating table: %s\n", table)
			if err := tx.Exec(fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table)).Error; err != nil {
				return fmt.Errorf("failed to truncate table %s: %w", table, err)
			}
		}
		return nil
	})
}

// SeedAll seeds all required data
func (s *Seeder) SeedAll() error {
	ctx := context.Background()

	company, err := s.SeedCompany()
	if err != nil {
		return fmt.Errorf("failed to seed company: %w", err)
	}

	userIDs, err := s.SeedUsers(company.ID)
	if err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	cities, err := s.SeedCities()
	if err != nil {
		return fmt.Errorf("failed to seed cities: %w", err)
	}

	route, err := s.SeedRoute(company.ID, cities)
	if err != nil {
		return fmt.Errorf("failed to seed route: %w", err)
	}

	bus, err := s.SeedBus(company.ID)
	if err != nil {
		return fmt.Errorf("failed to seed bus: %w", err)
	}

	if err := s.SeedTrips(route, bus, userIDs["admin"]); err != nil {
		return fmt.Errorf("failed to seed trips: %w", err)
	}

	// cached graphs and company settings refer to the old rows
	if s.db.Redis != nil {
		if err := s.db.Redis.FlushDB(ctx).Err(); err != nil {
			log.Printf("Warning: Failed to clear Redis cache: %v", err)
		}
	}
	return nil
}

func (s *Seeder) SeedCompany() (*companies.Company, error) {
	fmt.Println("  Seeding company...")
	company := companies.Company{
		ID:                       uuid.New(),
		Name:                     "Union des Transports de Bouake",
		Phone:                    "+225 27 22 44 55 66",
		Email:                    "contact@utb.example.com",
		Currency:                 "XOF",
		ReservationDurationHours: 6,
		ReservationFee:           500,
		AllowOnlinePayment:       true,
		Active:                   true,
	}
	if err := s.db.PostgreSQL.Create(&company).Error; err != nil {
		return nil, err
	}
	return &company, nil
}

// SeedUsers creates one admin and two counter agents, all with password "qwerty"
func (s *Seeder) SeedUsers(companyID uuid.UUID) (map[string]uuid.UUID, error) {
	fmt.Println("  Seeding users...")

	userIDs := make(map[string]uuid.UUID)
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("qwerty"), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	usersData := []struct {
		key       string
		firstName string
		lastName  string
		email     string
		role      users.Role
	}{
		{"admin", "Admin", "User", "admin@busline.local", users.RoleAdmin},
		{"agent1", "Awa", "Kone", "awa.kone@busline.local", users.RoleAgent},
		{"agent2", "Yao", "Kouassi", "yao.kouassi@busline.local", users.RoleAgent},
	}

	for _, userData := range usersData {
		user := users.User{
			ID:        uuid.New(),
			FirstName: userData.firstName,
			LastName:  userData.lastName,
			Email:     userData.email,
			Password:  string(hashedPassword),
			Role:      userData.role,
			CompanyID: &companyID,
			Active:    true,
		}
		if err := s.db.PostgreSQL.Create(&user).Error; err != nil {
			return nil, fmt.Errorf("failed to create user %s: %w", userData.email, err)
		}
		userIDs[userData.key] = user.ID
		fmt.Printf("    Created user: %s (%s)\n", user.Email, user.Role)
	}
	return userIDs, nil
}

func (s *Seeder) SeedCities() ([]routes.City, error) {
	fmt.Println("  Seeding cities...")
	cities := []routes.City{
		{ID: uuid.New(), Name: "Abidjan", Code: "ABJ"},
		{ID: uuid.New(), Name: "Yamoussoukro", Code: "YAM"},
		{ID: uuid.New(), Name: "Bouake", Code: "BKE"},
		{ID: uuid.New(), Name: "Korhogo", Code: "KHG"},
	}
	if err := s.db.PostgreSQL.Create(&cities).Error; err != nil {
		return nil, err
	}
	return cities, nil
}

// SeedRoute creates Abidjan -> Yamoussoukro -> Bouake -> Korhogo
func (s *Seeder) SeedRoute(companyID uuid.UUID, cities []routes.City) (*routes.Route, error) {
	fmt.Println("  Seeding route...")
	route := routes.Route{
		ID:              uuid.New(),
		CompanyID:       companyID,
		Code:            "ABJ-KHG",
		Name:            "Abidjan - Korhogo",
		DepartureCityID: cities[0].ID,
		ArrivalCityID:   cities[3].ID,
		BasePrice:       15000,
		DurationMinutes: 600,
		State:           routes.RouteStateActive,
		Stops: []routes.RouteStop{
			{ID: uuid.New(), CityID: cities[1].ID, Sequence: 1, DurationFromStartMinutes: 180, PriceFromStart: 5000, IsBoardingPoint: true, IsDropoffPoint: true},
			{ID: uuid.New(), CityID: cities[2].ID, Sequence: 2, DurationFromStartMinutes: 300, PriceFromStart: 8000, IsBoardingPoint: true, IsDropoffPoint: true},
		},
	}
	if err := s.db.PostgreSQL.Create(&route).Error; err != nil {
		return nil, err
	}
	return &route, nil
}

func (s *Seeder) SeedBus(companyID uuid.UUID) (*fleet.Bus, error) {
	fmt.Println("  Seeding bus...")
	bus := fleet.Bus{
		ID:                       uuid.New(),
		CompanyID:                companyID,
		Name:                     "Bus 01",
		PlateNumber:              "AB-1234-CI",
		SeatCapacity:             50,
		VIPSeatNumbers:           "1,2,3,4",
		MaxLuggagePerPassengerKg: 20,
		ExtraLuggagePricePerKg:   100,
		Active:                   true,
	}
	seats, err := fleet.GenerateSeats(&bus)
	if err != nil {
		return nil, err
	}
	bus.Seats = seats
	if err := s.db.PostgreSQL.Create(&bus).Error; err != nil {
		return nil, err
	}
	return &bus, nil
}

// SeedTrips schedules one departure a day for the next three days
func (s *Seeder) SeedTrips(route *routes.Route, bus *fleet.Bus, adminID uuid.UUID) error {
	fmt.Println("  Seeding trips...")
	tomorrow := time.Now().UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)

	for day := 0; day < 3; day++ {
		departure := tomorrow.Add(time.Duration(day)*24*time.Hour + 7*time.Hour)
		trip := trips.Trip{
			ID:                     uuid.New(),
			Reference:              fmt.Sprintf("TRP-%s-SEED%d", departure.Format("20060102"), day+1),
			CompanyID:              route.CompanyID,
			RouteID:                route.ID,
			BusID:                  bus.ID,
			DriverName:             "Ibrahim Traore",
			DriverPhone:            "+225 07 11 22 33 44",
			DepartureTime:          departure,
			ArrivalTime:            departure.Add(time.Duration(route.DurationMinutes) * time.Minute),
			MeetingPoint:           "Gare d'Adjame, quai 4",
			TotalSeats:             bus.SeatCapacity,
			BookingQuota:           45,
			Price:                  route.BasePrice,
			VIPPrice:               20000,
			ChildPrice:             10000,
			IncludedLuggageKg:      bus.MaxLuggagePerPassengerKg,
			ExtraLuggagePricePerKg: bus.ExtraLuggagePricePerKg,
			State:                  trips.StateScheduled,
			CreatedBy:              adminID,
		}
		if err := s.db.PostgreSQL.Create(&trip).Error; err != nil {
			return err
		}
		fmt.Printf("    Created trip: %s\n", trip.Reference)
	}
	return nil
}
