package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hummbl-dev/flowcore/internal/config"
	"github.com/hummbl-dev/flowcore/internal/events"
	"github.com/hummbl-dev/flowcore/internal/invoker"
	"github.com/hummbl-dev/flowcore/internal/persistence"
	"github.com/hummbl-dev/flowcore/internal/scheduler"
	"github.com/hummbl-dev/flowcore/internal/tui"
	"github.com/hummbl-dev/flowcore/internal/workflow"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: flowcore <workflow.json> [input.json]")
		os.Exit(1)
	}

	// Signal-aware context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadDefault()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	wf, err := workflow.LoadFile(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading workflow: %v\n", err)
		os.Exit(1)
	}
	applyAgentDefaults(wf, cfg)

	var input map[string]any
	if len(os.Args) > 2 {
		data, err := os.ReadFile(os.Args[2])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading input file: %v\n", err)
			os.Exit(1)
		}
		if err := json.Unmarshal(data, &input); err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing input file: %v\n", err)
			os.Exit(1)
		}
	}

	var store persistence.Store
	if cfg.Archive.Enabled {
		s, err := persistence.NewSQLiteStore(ctx, cfg.Archive.Path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening archive: %v\n", err)
			os.Exit(1)
		}
		defer s.Close()
		store = s
	}

	bus := events.NewBus()
	defer bus.Close()

	capability := invoker.WithBreaker(simulateCapability, invoker.NewBreakerRegistry())
	inv := invoker.NewTaskInvoker(capability, cfg.InvokeTimeout())
	retry := invoker.NewRetryPolicy(inv, invoker.RetryConfig{
		InitialInterval:     cfg.RetryInitialInterval(),
		MaxInterval:         cfg.RetryMaxInterval(),
		Multiplier:          cfg.Retry.Multiplier,
		RandomizationFactor: cfg.Retry.RandomizationFactor,
	})
	runner := scheduler.NewRunner(inv, retry, scheduler.Config{
		ConcurrencyLimit: cfg.Runner.ConcurrencyLimit,
		Bus:              bus,
	})

	controls := tui.Controls{
		Pause: func() error {
			if ex := runner.Current(); ex != nil {
				return runner.Pause(ex)
			}
			return nil
		},
		Resume: func() error {
			ex := runner.Current()
			if ex == nil || ex.Status() != workflow.ExecutionPaused {
				return nil
			}
			go func() {
				if err := runner.Resume(ctx, ex, wf, nil, input); err != nil {
					log.Printf("Resume error: %v", err)
				}
				archive(ctx, store, ex)
			}()
			return nil
		},
		Stop: func() error {
			if ex := runner.Current(); ex != nil {
				runner.Stop(ex)
			}
			return nil
		},
	}

	model := tui.New(bus, controls)
	p := tea.NewProgram(model, tea.WithAltScreen())

	errChan := make(chan error, 1)
	go func() {
		_, err := p.Run()
		errChan <- err
	}()

	// Give the TUI a moment to subscribe and size itself before events flow.
	go func() {
		time.Sleep(200 * time.Millisecond)
		ex, err := runner.Run(ctx, wf, nil, input)
		if err != nil {
			log.Printf("Run error: %v", err)
		}
		archive(ctx, store, ex)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		// Restore default signal handling so a second Ctrl+C force-exits.
		stop()

		log.Println("Shutdown signal received, cleaning up...")
		p.Quit()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		select {
		case err := <-errChan:
			if err != nil {
				log.Printf("TUI exit error: %v", err)
			}
		case <-shutdownCtx.Done():
			log.Println("Shutdown timeout exceeded, forcing exit")
		}
	}
}

// applyAgentDefaults fills empty agent fields from the configured per-role
// defaults.
func applyAgentDefaults(wf *workflow.Workflow, cfg *config.Config) {
	for _, a := range wf.Agents {
		defaults, ok := cfg.Agents[string(a.Role)]
		if !ok {
			continue
		}
		if a.Model == "" {
			a.Model = defaults.Model
		}
		if a.SystemPrompt == "" {
			a.SystemPrompt = defaults.SystemPrompt
		}
		if a.Temperature == 0 {
			a.Temperature = defaults.Temperature
		}
	}
}

// archive saves the execution's final snapshot if the archive is enabled.
func archive(ctx context.Context, store persistence.Store, ex *workflow.Execution) {
	if store == nil || ex == nil {
		return
	}
	if err := store.SaveExecution(ctx, ex.Snapshot()); err != nil {
		log.Printf("Error archiving execution: %v", err)
	}
}

// simulateCapability is the built-in capability used when no model provider
// is wired up: it answers every prompt with a small JSON document after a
// short randomized delay.
func simulateCapability(ctx context.Context, model, prompt string, payload map[string]any) (string, error) {
	delay := time.Duration(200+rand.Intn(600)) * time.Millisecond
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(delay):
	}

	doc := map[string]any{
		"model":   model,
		"task_id": payload["task_id"],
		"summary": fmt.Sprintf("simulated response (%d prompt chars)", len(prompt)),
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
