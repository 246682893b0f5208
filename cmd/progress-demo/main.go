package main

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"

	logrusr "github.com/bombsimon/logrusr/v3"
	"github.com/go-logr/logr"
	progress "github.com/konveyor/progress-logger"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v2"
)

var (
	configFile    string
	items         uint64
	workers       int
	logInterval   time.Duration
	itemName      string
	showExpected  bool
	displayMemory bool
	lightUpdates  bool
	localSpeed    bool
	logLevel      int
)

// demoSettings mirrors the command flags; fields are pointers so a config
// file only overrides the keys it actually sets.
type demoSettings struct {
	Items         *uint64 `yaml:"items"`
	Workers       *int    `yaml:"workers"`
	LogInterval   *string `yaml:"logInterval"`
	ItemName      *string `yaml:"itemName"`
	ShowExpected  *bool   `yaml:"showExpected"`
	DisplayMemory *bool   `yaml:"displayMemory"`
	LightUpdates  *bool   `yaml:"lightUpdates"`
	LocalSpeed    *bool   `yaml:"localSpeed"`
}

func DemoCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "progress-demo",
		Short: "Simulate an item-processing workload with throttled progress logging",
		PreRunE: func(c *cobra.Command, args []string) error {
			if configFile == "" {
				return nil
			}
			return applyConfigFile(configFile)
		},
		RunE: func(c *cobra.Command, args []string) error {
			logrusLog := logrus.New()
			logrusLog.SetOutput(os.Stderr)
			logrusLog.SetFormatter(&logrus.TextFormatter{})
			logrusLog.SetLevel(logrus.Level(logLevel))
			log := logrusr.New(logrusLog)

			pl := progress.New(log,
				progress.WithItemName(itemName),
				progress.WithLogInterval(logInterval),
				progress.WithDisplayMemory(displayMemory),
				progress.WithLocalSpeed(localSpeed),
				progress.WithLogTarget("progress-demo"))
			if showExpected {
				pl.SetExpectedUpdates(items)
			}

			if workers <= 1 {
				runSerial(pl)
				return nil
			}
			return runConcurrent(log, pl)
		},
	}

	rootCmd.Flags().StringVar(&configFile, "config", "", "optional YAML file with demo settings, overriding flags")
	rootCmd.Flags().Uint64Var(&items, "items", 50_000_000, "number of items to process")
	rootCmd.Flags().IntVar(&workers, "workers", 1, "number of concurrent workers; 1 runs the single-threaded logger")
	rootCmd.Flags().DurationVar(&logInterval, "interval", time.Second, "minimum time between status lines")
	rootCmd.Flags().StringVar(&itemName, "item-name", "pumpkin", "display name for one unit of work")
	rootCmd.Flags().BoolVar(&showExpected, "expected", false, "display percentage done and estimated time to completion")
	rootCmd.Flags().BoolVar(&displayMemory, "memory", false, "display process and system memory usage on each line")
	rootCmd.Flags().BoolVar(&lightUpdates, "light", false, "use light updates (sampled time checks)")
	rootCmd.Flags().BoolVar(&localSpeed, "local-speed", false, "additionally display the speed over the last interval")
	rootCmd.Flags().IntVar(&logLevel, "verbose", 5, "logrus log level")

	return rootCmd
}

func applyConfigFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	settings := demoSettings{}
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	if settings.Items != nil {
		items = *settings.Items
	}
	if settings.Workers != nil {
		workers = *settings.Workers
	}
	if settings.LogInterval != nil {
		d, err := time.ParseDuration(*settings.LogInterval)
		if err != nil {
			return fmt.Errorf("parsing logInterval: %w", err)
		}
		logInterval = d
	}
	if settings.ItemName != nil {
		itemName = *settings.ItemName
	}
	if settings.ShowExpected != nil {
		showExpected = *settings.ShowExpected
	}
	if settings.DisplayMemory != nil {
		displayMemory = *settings.DisplayMemory
	}
	if settings.LightUpdates != nil {
		lightUpdates = *settings.LightUpdates
	}
	if settings.LocalSpeed != nil {
		localSpeed = *settings.LocalSpeed
	}
	return nil
}

func runSerial(pl *progress.Logger) {
	pl.Start(fmt.Sprintf("Smashing %d %ss (single-threaded)...", items, itemName))
	var sum uint64
	for i := uint64(0); i < items; i++ {
		sum += smash(i)
		if lightUpdates {
			pl.LightUpdate()
		} else {
			pl.Update()
		}
	}
	atomic.AddUint64(&smashed, sum)
	pl.Done()
}

func runConcurrent(log logr.Logger, pl *progress.Logger) error {
	cpl := progress.Wrap(pl)
	cpl.Start(fmt.Sprintf("Smashing %d %ss (%d workers)...", items, itemName, workers))

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		share := items / uint64(workers)
		if w == workers-1 {
			share += items % uint64(workers)
		}
		h := cpl.Spawn()
		g.Go(func() error {
			defer h.Close()
			var sum uint64
			for i := uint64(0); i < share; i++ {
				sum += smash(i)
				if lightUpdates {
					h.LightUpdate()
				} else {
					h.Update()
				}
			}
			atomic.AddUint64(&smashed, sum)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Error(err, "worker failed")
		return err
	}
	cpl.Done()
	return nil
}

// smashed keeps the compiler from optimizing the simulated work away.
var smashed uint64

// smash burns a few cycles per item so rates look like real work.
func smash(i uint64) uint64 {
	x := i ^ 0x9e3779b97f4a7c15
	x ^= x >> 33
	x *= 0xff51afd7ed558ccd
	x ^= x >> 33
	return x
}

func main() {
	if err := DemoCmd().Execute(); err != nil {
		fmt.Printf("%v\n", err)
		os.Exit(1)
	}
}
