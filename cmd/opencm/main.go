package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"opencm/adapters/fsstore"
	"opencm/adapters/postgres"
	"opencm/adapters/rng"
	"opencm/app"
	"opencm/domain/core"
	"opencm/domain/model"
	"opencm/internal/config"
	"opencm/internal/lens"
	"opencm/internal/validate"
	"opencm/ports"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("[Main] no .env file found, using environment variables")
	}

	rootCmd := &cobra.Command{
		Use:   "opencm",
		Short: "OpenCM causal model engine: validate, simulate, compose, compare",
	}

	rootCmd.AddCommand(
		newListCmd(),
		newValidateCmd(),
		newSimulateCmd(),
		newComposeCmd(),
		newCompareCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildService loads config, picks the model source, and runs discovery.
func buildService(ctx context.Context) (*app.LensService, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	var source ports.ModelSource
	if cfg.Database.URL != "" {
		db, err := postgres.Open(cfg.Database.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("database connection failed: %w", err)
		}
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			return nil, nil, err
		}
		source = postgres.NewModelStore(db)
		log.Printf("[Main] using postgres model store")
	} else {
		source = fsstore.New(cfg.Models.Dir)
		log.Printf("[Main] using filesystem model store at %s", cfg.Models.Dir)
	}

	svc := app.NewLensService(source, rng.New())
	if err := svc.Discover(ctx); err != nil {
		return nil, nil, err
	}
	return svc, cfg, nil
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := buildService(cmd.Context())
			if err != nil {
				return err
			}
			reg, err := svc.Registry()
			if err != nil {
				return err
			}
			for _, id := range reg.IDs() {
				m, err := reg.Get(id)
				if err != nil {
					return err
				}
				fmt.Println(m.Summary())
			}
			for _, skipped := range reg.Skipped() {
				fmt.Fprintf(os.Stderr, "skipped %s: %d error(s)\n", skipped.Origin, len(validate.Errors(skipped.Diagnostics)))
			}
			return nil
		},
	}
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file]",
		Short: "Validate a model file and report diagnostics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, diags, err := fsstore.Load(args[0])
			if err != nil {
				return err
			}
			for _, d := range diags {
				fmt.Println(d)
			}
			if m == nil {
				return fmt.Errorf("%s is not a valid model", args[0])
			}
			fmt.Printf("ok: %s (fingerprint %s)\n", m.Summary(), m.Fingerprint)
			return nil
		},
	}
}

func newSimulateCmd() *cobra.Command {
	var samples int
	var seed int64
	var keepSamples bool

	cmd := &cobra.Command{
		Use:   "simulate [model-id] [var=value...]",
		Short: "Run a Monte Carlo intervention against one model",
		Long: `Pin one or more variables and estimate downstream effects.

Example: opencm simulate porter_five_forces SupplierPower=0.85 --samples 2000 --seed 42`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := core.ParseModelID(args[0])
			if err != nil {
				return err
			}
			intervention, err := parseIntervention(args[1:])
			if err != nil {
				return err
			}

			svc, cfg, err := buildService(cmd.Context())
			if err != nil {
				return err
			}
			if samples == 0 {
				samples = cfg.Simulation.Samples
			}
			if seed == 0 {
				seed = cfg.Simulation.Seed
			}

			estimates, diags, err := svc.Simulate(cmd.Context(), id, intervention, app.SimulateOptions{
				Samples:     samples,
				Seed:        seed,
				Workers:     cfg.Simulation.Workers,
				KeepSamples: keepSamples,
			})
			if err != nil {
				return err
			}
			return printJSON(simulationReport{Model: args[0], Estimates: estimates, Diagnostics: diags})
		},
	}

	cmd.Flags().IntVar(&samples, "samples", 0, "Monte Carlo sample count (default from OPENCM_SAMPLES)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Random seed, 0 for a fresh seed")
	cmd.Flags().BoolVar(&keepSamples, "keep-samples", false, "Retain raw per-sample values in the output")

	return cmd
}

func newComposeCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "compose [model-id] [model-id...]",
		Short: "Merge registered models into a single composite model",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := buildService(cmd.Context())
			if err != nil {
				return err
			}
			ids := make([]core.ModelID, len(args))
			for i, a := range args {
				id, err := core.ParseModelID(a)
				if err != nil {
					return err
				}
				ids[i] = id
			}
			merged, err := svc.Compose(cmd.Context(), ids)
			if err != nil {
				return err
			}
			data, err := model.Serialize(merged).Encode()
			if err != nil {
				return err
			}
			if out != "" {
				return os.WriteFile(out, data, 0o644)
			}
			fmt.Println(string(data))
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "Write the composite model to a file instead of stdout")

	return cmd
}

func newCompareCmd() *cobra.Command {
	var modelsFlag string
	var samples int
	var seed int64

	cmd := &cobra.Command{
		Use:   "compare [var=value...]",
		Short: "Run one intervention through several models side by side",
		Long: `Apply the same intervention to multiple lenses and report each
model's effect estimates plus the variables the models share.

Example: opencm compare SupplierPower=0.85 --models porter_five_forces,market_entry`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			intervention, err := parseIntervention(args)
			if err != nil {
				return err
			}

			svc, cfg, err := buildService(cmd.Context())
			if err != nil {
				return err
			}
			if samples == 0 {
				samples = cfg.Simulation.Samples
			}
			if seed == 0 {
				seed = cfg.Simulation.Seed
			}

			reg, err := svc.Registry()
			if err != nil {
				return err
			}
			var ids []core.ModelID
			if modelsFlag == "" {
				ids = reg.IDs()
			} else {
				for _, part := range strings.Split(modelsFlag, ",") {
					id, err := core.ParseModelID(strings.TrimSpace(part))
					if err != nil {
						return err
					}
					ids = append(ids, id)
				}
			}

			result, err := svc.Compare(cmd.Context(), ids, intervention, app.SimulateOptions{
				Samples: samples,
				Seed:    seed,
				Workers: cfg.Simulation.Workers,
			})
			if err != nil {
				return err
			}
			return printJSON(result)
		},
	}

	cmd.Flags().StringVar(&modelsFlag, "models", "", "Comma-separated model ids (default: all registered)")
	cmd.Flags().IntVar(&samples, "samples", 0, "Monte Carlo sample count per model")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Random seed shared across models, 0 for a fresh seed")

	return cmd
}

type simulationReport struct {
	Model       string                                  `json:"model"`
	Estimates   map[core.VariableID]lens.EffectEstimate `json:"estimates"`
	Diagnostics []validate.Diagnostic                   `json:"diagnostics,omitempty"`
}

// parseIntervention turns var=value arguments into a do-operator binding.
func parseIntervention(args []string) (map[core.VariableID]float64, error) {
	intervention := make(map[core.VariableID]float64, len(args))
	for _, arg := range args {
		name, raw, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("invalid intervention %q (expected var=value)", arg)
		}
		id, err := core.ParseVariableID(name)
		if err != nil {
			return nil, fmt.Errorf("invalid intervention %q: %w", arg, err)
		}
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid intervention value %q: %w", arg, err)
		}
		intervention[id] = value
	}
	return intervention, nil
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
