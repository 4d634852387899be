// Command calltest runs the intake conversation in a terminal, with an
// in-memory calendar and no telephony, for trying dialogue changes locally.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fieldline/intake-ai/internal/calendar"
	appconfig "github.com/fieldline/intake-ai/internal/config"
	"github.com/fieldline/intake-ai/internal/dialog"
	"github.com/fieldline/intake-ai/internal/llm"
	"github.com/fieldline/intake-ai/internal/scheduling"
	"github.com/fieldline/intake-ai/pkg/logging"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New("warn")
	ctx := context.Background()

	loc, err := time.LoadLocation(cfg.BusinessTimezone)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid timezone %q: %v\n", cfg.BusinessTimezone, err)
		os.Exit(1)
	}

	var primary dialog.Classifier
	if cfg.GeminiAPIKey != "" {
		gemini, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "gemini client: %v\n", err)
			os.Exit(1)
		}
		defer gemini.Close()
		primary = dialog.NewLLMClassifier(gemini, cfg.GeminiModelID)
	}
	classifier := dialog.NewCompositeClassifier(primary, cfg.LLMTimeout, logger, nil)

	hours := scheduling.DefaultBusinessHours(cfg.BusinessTimezone)
	engine := scheduling.NewEngine(
		scheduling.NewJobDurationEstimator(nil, cfg.LLMTimeout, logger),
		scheduling.NewTravelEstimator(nil, nil, scheduling.TravelEstimatorOptions{
			AvgSpeedKmh:    cfg.AverageSpeedKmh,
			DefaultMinutes: cfg.DefaultTravelMins,
		}, logger),
		scheduling.NewSlotGenerator(hours),
		scheduling.NewSlotScorer(hours),
		calendar.NewMemoryCalendar(),
		hours,
		scheduling.EngineOptions{DepotAddress: cfg.DepotAddress},
		logger,
	)

	machine := dialog.NewMachine(classifier, engine, logger, dialog.MachineOptions{Location: loc})
	session := dialog.NewSession(uuid.NewString(), "+61400000000", time.Now())

	fmt.Printf("agent: %s\n", machine.Greeting())

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("caller: ")
		if !scanner.Scan() {
			break
		}
		reply := machine.Handle(ctx, session, scanner.Text())
		fmt.Printf("agent: %s\n", reply)
		if session.State() == dialog.StateEnded {
			fmt.Printf("\ncall ended, outcome=%s\n", session.Outcome)
			return
		}
	}
}
