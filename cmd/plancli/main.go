// Command plancli generates a training plan from the terminal or prints the
// plan stored in the local state directory.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/vcscsvcscs/runcoach/internal/azure"
	"github.com/vcscsvcscs/runcoach/internal/config"
	"github.com/vcscsvcscs/runcoach/internal/repository"
	"github.com/vcscsvcscs/runcoach/internal/security"
	"github.com/vcscsvcscs/runcoach/internal/service"
	"github.com/vcscsvcscs/runcoach/pkg/model"
	"go.uber.org/zap"
)

const usage = `usage:
  plancli generate -name NAME -age N -level LEVEL -goal GOAL [-days N] [-distance KM] [-notes TEXT] [-dir DIR]
  plancli show [-dir DIR]`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var err error
	switch os.Args[1] {
	case "generate":
		err = runGenerate(ctx, os.Args[2:])
	case "show":
		err = runShow(ctx, os.Args[2:])
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	if err != nil {
		color.Red("error: %v", err)
		os.Exit(1)
	}
}

func runGenerate(ctx context.Context, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	name := fs.String("name", "", "runner name")
	age := fs.Int("age", 0, "runner age")
	level := fs.String("level", "beginner", "beginner, intermediate or advanced")
	goal := fs.String("goal", "5k", "5k, 10k, half marathon, marathon or fitness")
	days := fs.Int("days", 3, "training days per week")
	distance := fs.Float64("distance", 0, "current weekly distance in km")
	notes := fs.String("notes", "", "injuries, preferences")
	dir := fs.String("dir", cfg.Storage.File.Dir, "state directory")
	if err := fs.Parse(args); err != nil {
		return err
	}

	profile, err := buildProfile(*name, *age, *level, *goal, *days, *distance, *notes)
	if err != nil {
		return err
	}

	logger, err := config.NewLogger(cfg.Server, config.LoggingConfig{Level: "warn", Format: "console"})
	if err != nil {
		return err
	}
	defer logger.Sync()

	state, err := openState(*dir, cfg.Storage.EncryptionKey, logger)
	if err != nil {
		return err
	}

	ai, err := azure.NewOpenAIClient(azure.OpenAIConfig{
		Provider:    cfg.AI.Provider,
		Endpoint:    cfg.AI.Endpoint,
		APIKey:      cfg.AI.APIKey,
		Model:       cfg.AI.Model,
		APIVersion:  cfg.AI.APIVersion,
		Temperature: cfg.AI.Temperature,
		MaxRetries:  cfg.AI.MaxRetries,
		BaseDelay:   cfg.AI.BaseDelay,
	}, logger)
	if err != nil {
		return err
	}

	plans := service.NewPlanService(service.NewAIPlanGenerator(ai, cfg.AI.PlanWeeks, logger), state, nil, logger)

	color.Cyan("Generating a %d-week plan for %s...", cfg.AI.PlanWeeks, profile.Name)
	p, err := plans.OnboardingComplete(ctx, profile)
	if err != nil {
		return err
	}

	printPlan(os.Stdout, &profile, p)
	color.Green("Plan saved to %s", *dir)
	return nil
}

func runShow(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	dir := fs.String("dir", envOr("STATE_DIR", "./data"), "state directory")
	if err := fs.Parse(args); err != nil {
		return err
	}

	state, err := openState(*dir, os.Getenv("STATE_ENCRYPTION_KEY"), zap.NewNop())
	if err != nil {
		return err
	}

	snapshot := state.Load(ctx)
	if snapshot.Plan == nil {
		return errors.New("no stored plan, run plancli generate first")
	}

	printPlan(os.Stdout, snapshot.Profile, snapshot.Plan)
	return nil
}

func openState(dir, encryptionKey string, logger *zap.Logger) (*service.StateService, error) {
	store, err := repository.NewFileStateStore(afero.NewOsFs(), dir, logger)
	if err != nil {
		return nil, err
	}

	var encryptor *security.Encryptor
	if encryptionKey != "" {
		key, err := security.ParseKey(encryptionKey)
		if err != nil {
			return nil, err
		}
		if encryptor, err = security.NewEncryptor(key); err != nil {
			return nil, err
		}
	}

	return service.NewStateService(store, encryptor, logger), nil
}

func buildProfile(name string, age int, level, goal string, days int, distance float64, notes string) (model.UserProfile, error) {
	lvl, err := model.ParseLevel(level)
	if err != nil {
		return model.UserProfile{}, err
	}
	g, err := model.ParseGoal(goal)
	if err != nil {
		return model.UserProfile{}, err
	}

	return model.UserProfile{
		Name:                  name,
		Age:                   age,
		Level:                 lvl,
		Goal:                  g,
		DaysPerWeek:           days,
		CurrentWeeklyDistance: distance,
		Notes:                 notes,
	}, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
