// Seed inserts a demo tenant with service areas and reviews for local development.
// It is idempotent: nothing is written when the demo owner already exists.
package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"thatsmartsite/backend/internal/config"
	"thatsmartsite/backend/internal/db"
	"thatsmartsite/backend/internal/industry"
	"thatsmartsite/backend/internal/logger"
	reviewdomain "thatsmartsite/backend/internal/review/domain"
	reviewrepo "thatsmartsite/backend/internal/review/repository"
	reviewservice "thatsmartsite/backend/internal/review/service"
	"thatsmartsite/backend/internal/security"
	areadomain "thatsmartsite/backend/internal/servicearea/domain"
	arearepo "thatsmartsite/backend/internal/servicearea/repository"
	areaservice "thatsmartsite/backend/internal/servicearea/service"
	tenantdomain "thatsmartsite/backend/internal/tenant/domain"
	tenantrepo "thatsmartsite/backend/internal/tenant/repository"
	tenantservice "thatsmartsite/backend/internal/tenant/service"
)

const demoOwnerEmail = "owner@demo-detailing.test"

var demoAreas = []areadomain.Input{
	{City: "Round Rock", State: "TX", Zip: "78664"},
	{City: "Pflugerville", State: "TX"},
}

var demoReviews = []reviewdomain.CreateInput{
	{CustomerName: "Maria G.", Rating: 5, Comment: "Truck looks brand new after the ceramic coating.", VehicleType: "truck", CeramicCoating: true},
	{CustomerName: "Dev P.", Rating: 5, Comment: "On time and very thorough.", VehicleType: "car", Source: "google"},
	{CustomerName: "Sam K.", Rating: 4, Comment: "Great interior detail, a little late.", VehicleType: "suv", Source: "yelp"},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := seed(context.Background(), cfg, log); err != nil {
		log.Fatal("seed failed", zap.Error(err))
	}
}

func seed(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer conn.Close()

	tenants := tenantrepo.NewPostgresRepository(conn)
	exists, err := tenants.EmailExists(ctx, demoOwnerEmail)
	if err != nil {
		return fmt.Errorf("check demo owner: %w", err)
	}
	if exists {
		log.Info("seed already applied; skipping", zap.String("email", demoOwnerEmail))
		return nil
	}

	registry, err := industry.Load()
	if err != nil {
		return err
	}
	tenantSvc := tenantservice.NewService(tenants, registry, security.NewHasher(cfg.BcryptCost), nil, nil, log)
	res, err := tenantSvc.Signup(ctx, tenantdomain.SignupInput{
		FirstName:     "Demo",
		LastName:      "Owner",
		PersonalEmail: demoOwnerEmail,
		BusinessName:  "Demo Detailing",
		BusinessPhone: "512-555-0100",
		BusinessAddress: tenantdomain.Address{
			Address: "100 Main St",
			City:    "Austin",
			State:   "TX",
			Zip:     "78701",
		},
		Industry: "mobile-detailing",
	})
	if err != nil {
		return fmt.Errorf("signup: %w", err)
	}
	log.Info("seeded tenant", zap.String("slug", res.Slug), zap.String("user_id", res.UserID))

	areas := areaservice.NewService(arearepo.NewPostgresRepository(conn, log), log)
	for _, in := range demoAreas {
		if _, err := areas.Add(ctx, res.Slug, in); err != nil {
			return fmt.Errorf("add service area %s: %w", in.City, err)
		}
	}

	reviews := reviewservice.NewService(reviewrepo.NewPostgresRepository(conn), nil, nil, log)
	for _, in := range demoReviews {
		in.TenantSlug = res.Slug
		if _, err := reviews.Create(ctx, in); err != nil {
			return fmt.Errorf("create review: %w", err)
		}
	}
	log.Info("seed complete", zap.Int("service_areas", len(demoAreas)), zap.Int("reviews", len(demoReviews)))
	return nil
}
