package main

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/exambuddy/exambuddy-backend/internal/config"
	"github.com/exambuddy/exambuddy-backend/internal/database"
	"github.com/exambuddy/exambuddy-backend/internal/logger"
	"github.com/exambuddy/exambuddy-backend/internal/model"
	"github.com/exambuddy/exambuddy-backend/internal/questions"
	"github.com/exambuddy/exambuddy-backend/internal/repository"
)

const demoProject = "demo-geography"

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	candidateRepo := repository.NewCandidateRepository(pool)
	provider := questions.NewPostgresProvider(pool)

	fmt.Println("=== Seeding demo candidate and question pool ===")

	hash, err := bcrypt.GenerateFromPassword([]byte("demo-password"), cfg.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash demo password")
	}

	candidate := &model.Candidate{
		Email:        "demo@exambuddy.dev",
		Name:         "Demo Candidate",
		PasswordHash: string(hash),
	}
	if err := candidateRepo.Create(ctx, candidate); err != nil {
		fmt.Printf("Candidate seed skipped: %v\n", err)
	} else {
		fmt.Printf("Created candidate %s (%s)\n", candidate.Name, candidate.ID)
	}

	seed := []struct {
		text    string
		options []string
		correct int
	}{
		{"Which is the longest river in the world?", []string{"Amazon", "Nile", "Yangtze", "Mississippi"}, 1},
		{"What is the capital of Australia?", []string{"Sydney", "Melbourne", "Canberra", "Perth"}, 2},
		{"Which desert is the largest?", []string{"Gobi", "Kalahari", "Sahara", "Atacama"}, 2},
		{"Mount Everest lies on the border of Nepal and which country?", []string{"India", "China", "Bhutan", "Pakistan"}, 1},
		{"Which ocean is the deepest?", []string{"Atlantic", "Indian", "Arctic", "Pacific"}, 3},
		{"Which country has the most time zones?", []string{"Russia", "USA", "France", "China"}, 2},
		{"The Strait of Gibraltar separates Spain from which country?", []string{"Morocco", "Algeria", "Tunisia", "Portugal"}, 0},
		{"Which continent has the most countries?", []string{"Asia", "Africa", "Europe", "South America"}, 1},
		{"What is the smallest country by area?", []string{"Monaco", "Nauru", "Vatican City", "San Marino"}, 2},
		{"Which lake is the deepest in the world?", []string{"Superior", "Victoria", "Baikal", "Tanganyika"}, 2},
	}

	created := 0
	for _, s := range seed {
		q := &model.Question{
			ProjectID:    demoProject,
			Text:         s.text,
			Options:      s.options,
			CorrectIndex: s.correct,
		}
		if err := provider.Create(ctx, q); err != nil {
			fmt.Printf("Error creating question %q: %v\n", s.text, err)
			continue
		}
		created++
	}

	fmt.Printf("\nSeed completed! Project %q now has %d new questions.\n", demoProject, created)
}
