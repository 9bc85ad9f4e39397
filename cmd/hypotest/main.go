package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"hypotest/adapters/cache"
	"hypotest/adapters/stats/engine"
	"hypotest/adapters/stats/suggest"
	"hypotest/adapters/stats/variants"
	"hypotest/domain/core"
	"hypotest/domain/stats"
	"hypotest/internal"
	"hypotest/internal/config"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "hypotest",
		Short: "Run statistical hypothesis tests with cached results",
	}

	rootCmd.AddCommand(
		newRunCmd(),
		newSuggestCmd(),
		newTestsCmd(),
		newCacheCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootstrap loads .env, configuration, and wires the cache and engine.
func bootstrap() (*engine.Engine, *cache.Manager, *internal.Logger, error) {
	logger := internal.NewDefaultLogger()

	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	mgr, err := cache.New(cfg.Cache.Dir, cfg.Cache.TTL(), logger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open result cache: %w", err)
	}

	eng := engine.New(mgr, logger)
	for _, v := range variants.All() {
		if err := eng.Register(v); err != nil {
			return nil, nil, nil, fmt.Errorf("failed to register %s: %w", v.ID, err)
		}
	}
	return eng, mgr, logger, nil
}

// sampleFile is the JSON input format: named groups plus optional params.
type sampleFile struct {
	Samples  map[string][]float64 `json:"samples"`
	Alpha    *float64             `json:"alpha,omitempty"`
	Mu0      *float64             `json:"mu0,omitempty"`
	Tail     string               `json:"tail,omitempty"`
	EqualVar *bool                `json:"equal_var,omitempty"`
	Expected []float64            `json:"expected,omitempty"`
	Paired   *bool                `json:"paired,omitempty"`
	Scale    string               `json:"scale,omitempty"`
}

func loadSampleFile(path string) (*sampleFile, stats.Samples, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read sample file: %w", err)
	}
	var f sampleFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, nil, fmt.Errorf("failed to parse sample file: %w", err)
	}
	if len(f.Samples) == 0 {
		return nil, nil, fmt.Errorf("sample file %s contains no samples", path)
	}

	names := make([]string, 0, len(f.Samples))
	for name := range f.Samples {
		names = append(names, name)
	}
	// deterministic group order
	sort.Strings(names)

	samples := make(stats.Samples, 0, len(names))
	for _, name := range names {
		samples = append(samples, stats.Sample{Name: name, Values: f.Samples[name]})
	}
	return &f, samples, nil
}

func (f *sampleFile) params() stats.Params {
	p := stats.DefaultParams()
	if f.Alpha != nil {
		p.Alpha = *f.Alpha
	}
	if f.Mu0 != nil {
		p.Mu0 = *f.Mu0
	}
	if f.Tail != "" {
		p.Tail = stats.Tail(f.Tail)
	}
	if f.EqualVar != nil {
		p.EqualVar = *f.EqualVar
	}
	p.Expected = f.Expected
	return p
}

func newRunCmd() *cobra.Command {
	var storeRaw bool
	var full bool

	cmd := &cobra.Command{
		Use:   "run [test-id] [sample-file.json]",
		Short: "Run a hypothesis test on samples from a JSON file",
		Long: `Run a registered hypothesis test against named samples.

Example: hypotest run one_sample_t_test sales.json --store-raw`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, _, _, err := bootstrap()
			if err != nil {
				return err
			}

			f, samples, err := loadSampleFile(args[1])
			if err != nil {
				return err
			}

			outcome, err := eng.Run(cmd.Context(), engine.Request{
				Test:     stats.TestID(args[0]),
				Samples:  samples,
				Params:   f.params(),
				StoreRaw: storeRaw,
			})
			if err != nil {
				return err
			}

			if full {
				return printJSON(outcome.Serialize())
			}
			return printJSON(outcome.Summary())
		},
	}

	cmd.Flags().BoolVar(&storeRaw, "store-raw", false, "Store raw samples alongside the cached result")
	cmd.Flags().BoolVar(&full, "full", false, "Print the full serialized outcome instead of the summary")
	return cmd
}

func newSuggestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suggest [sample-file.json]",
		Short: "Suggest an appropriate hypothesis test for the samples",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, samples, err := loadSampleFile(args[0])
			if err != nil {
				return err
			}

			hints := suggest.Hints{Paired: f.Paired}
			if f.Scale != "" {
				hints.Scale = stats.Scale(f.Scale)
			}
			return printJSON(suggest.Suggest(samples, hints))
		},
	}
	return cmd
}

func newTestsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tests",
		Short: "List the registered test variants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, _, _, err := bootstrap()
			if err != nil {
				return err
			}
			for _, id := range eng.List() {
				v, _ := eng.Variant(id)
				fmt.Printf("%-24s %s\n", id, v.Name)
			}
			return nil
		},
	}
}

func newCacheCmd() *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage cached results",
	}

	var includeRaw bool
	getCmd := &cobra.Command{
		Use:   "get [cache-id]",
		Short: "Fetch a cached result by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, mgr, _, err := bootstrap()
			if err != nil {
				return err
			}
			id, err := core.ParseCacheID(args[0])
			if err != nil {
				return err
			}
			payload, raw, err := mgr.Get(cmd.Context(), id, includeRaw)
			if err != nil {
				return err
			}
			fmt.Println(strings.TrimSpace(string(payload)))
			if includeRaw && raw != nil {
				fmt.Println(strings.TrimSpace(string(raw)))
			}
			return nil
		},
	}
	getCmd.Flags().BoolVar(&includeRaw, "raw", false, "Include stored raw samples")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List live cache entries, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, mgr, _, err := bootstrap()
			if err != nil {
				return err
			}
			entries, err := mgr.List(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(entries)
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete [cache-id]",
		Short: "Delete a cached result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, mgr, _, err := bootstrap()
			if err != nil {
				return err
			}
			id, err := core.ParseCacheID(args[0])
			if err != nil {
				return err
			}
			return mgr.Delete(cmd.Context(), id)
		},
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "Purge expired cache entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, mgr, _, err := bootstrap()
			if err != nil {
				return err
			}
			purged, err := mgr.Sweep(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("purged %d expired entries\n", purged)
			return nil
		},
	}

	cacheCmd.AddCommand(getCmd, listCmd, deleteCmd, sweepCmd)
	return cacheCmd
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
