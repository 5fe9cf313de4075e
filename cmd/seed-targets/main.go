package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"donation-platform/internal/config"
	"donation-platform/internal/database"
	"donation-platform/internal/models"
	"donation-platform/internal/repositories"
	"donation-platform/internal/services"
)

func main() {
	fmt.Println("🌱 Seeding sample campaigns, programs and patients")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	targets := services.NewTargetService(
		repositories.NewCampaignRepository(db.DB),
		repositories.NewProgramRepository(db.DB),
		repositories.NewPatientRepository(db.DB),
		nil,
		services.NewTargetCache(cfg.Redis),
		cfg.Donation.DefaultPerPage,
		cfg.Donation.MaxPerPage,
	)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	endsAt := time.Now().AddDate(0, 3, 0).Truncate(24 * time.Hour)
	campaigns := []models.CampaignInput{
		{
			Title:       "Clean Water for Rural Schools",
			Summary:     "Boreholes and water tanks for five rural primary schools.",
			Description: "Every school gets a borehole, a storage tank and hand-washing stations, maintained for three years by the local water committee.",
			GoalAmount:  25000,
			Status:      models.TargetActive,
			EndsAt:      &endsAt,
		},
		{
			Title:       "Ramadan Food Baskets",
			Summary:     "Monthly food baskets for families in need during Ramadan.",
			Description: "Each basket feeds a family of five for a month: flour, rice, oil, lentils, dates and sugar.",
			GoalAmount:  12000,
			Status:      models.TargetActive,
		},
	}
	programs := []models.ProgramInput{
		{
			Title:       "Orphan Sponsorship",
			Description: "School fees, uniforms and meals for orphaned children, reviewed every term.",
			Status:      models.TargetActive,
		},
		{
			Title:       "Mobile Clinic",
			Description: "A weekly mobile clinic visiting villages without a health centre.",
			GoalAmount:  40000,
			Status:      models.TargetActive,
		},
	}
	patients := []models.PatientInput{
		{
			Name:       "Yusuf A.",
			Age:        9,
			Diagnosis:  "Congenital heart defect requiring surgery",
			Hospital:   "City Children's Hospital",
			Story:      "Yusuf needs open heart surgery before his next birthday. His family has covered the first consultation.",
			GoalAmount: 8500,
			Status:     models.TargetActive,
		},
		{
			Name:       "Maryam K.",
			Age:        34,
			Diagnosis:  "Chronic kidney disease, weekly dialysis",
			Hospital:   "General Hospital Renal Unit",
			Story:      "Maryam is a mother of three who needs six months of dialysis while she waits for a transplant.",
			GoalAmount: 6000,
			Status:     models.TargetActive,
		},
	}

	var created, skipped int
	record := func(kind, title string, err error) {
		switch {
		case err == nil:
			created++
			fmt.Printf("✅ %s: %s\n", kind, title)
		case errors.Is(err, models.ErrDuplicateEntry):
			skipped++
			fmt.Printf("⏭  %s already exists: %s\n", kind, title)
		default:
			log.Fatalf("Failed to create %s %q: %v", kind, title, err)
		}
	}

	for i := range campaigns {
		_, err := targets.CreateCampaign(ctx, &campaigns[i])
		record("campaign", campaigns[i].Title, err)
	}
	for i := range programs {
		_, err := targets.CreateProgram(ctx, &programs[i])
		record("program", programs[i].Title, err)
	}
	for i := range patients {
		_, err := targets.CreatePatient(ctx, &patients[i])
		record("patient", patients[i].Name, err)
	}

	fmt.Printf("\n🎉 Seeding complete: %d created, %d already present\n", created, skipped)
}
