package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/artikelwerk/catalog-cli/internal/batch"
	"github.com/artikelwerk/catalog-cli/internal/capture"
	"github.com/artikelwerk/catalog-cli/internal/config"
	"github.com/artikelwerk/catalog-cli/internal/model"
	"github.com/artikelwerk/catalog-cli/internal/ocrpool"
	"github.com/artikelwerk/catalog-cli/internal/reconcile"
	"github.com/artikelwerk/catalog-cli/internal/report"
	"github.com/artikelwerk/catalog-cli/internal/store"
)

var (
	batchManifest string
	batchDir      string
	batchLimit    int
	batchSave     bool
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Reconcile a batch of captured items",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		items, err := loadItems()
		if err != nil {
			return err
		}
		if batchLimit > 0 && len(items) > batchLimit {
			items = items[:batchLimit]
		}
		if len(items) == 0 {
			zap.L().Info("no items to process")
			return nil
		}

		pool, err := newEnginePool(cfg)
		if err != nil {
			return err
		}
		defer pool.Close()

		runner := batch.NewRunner(
			capture.NewLocalProvider(),
			pool,
			newReconciler(cfg),
			cfg.Batch,
		)

		rep, err := runner.Run(ctx, items)
		if err != nil {
			return err
		}
		fmt.Print(report.Render(rep))

		if batchSave {
			return saveReport(ctx, rep)
		}
		return nil
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchManifest, "items", "", "YAML manifest of items (list of {id, dir})")
	batchCmd.Flags().StringVar(&batchDir, "dir", "", "directory whose subdirectories are capture outputs, one per item")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "max number of items to process (0 = all)")
	batchCmd.Flags().BoolVar(&batchSave, "save", false, "persist records and the run report to the configured store")
	rootCmd.AddCommand(batchCmd)
}

// loadItems reads item refs from the manifest or by scanning the capture
// directory, where each subdirectory is one item.
func loadItems() ([]model.ItemRef, error) {
	switch {
	case batchManifest != "":
		data, err := os.ReadFile(batchManifest)
		if err != nil {
			return nil, eris.Wrapf(err, "read manifest %s", batchManifest)
		}
		var items []model.ItemRef
		if err := yaml.Unmarshal(data, &items); err != nil {
			return nil, eris.Wrapf(err, "parse manifest %s", batchManifest)
		}
		return items, nil

	case batchDir != "":
		entries, err := os.ReadDir(batchDir)
		if err != nil {
			return nil, eris.Wrapf(err, "read capture dir %s", batchDir)
		}
		var items []model.ItemRef
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			items = append(items, model.ItemRef{
				ID:  e.Name(),
				Dir: filepath.Join(batchDir, e.Name()),
			})
		}
		sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
		return items, nil

	default:
		return nil, eris.New("either --items or --dir is required")
	}
}

func newEnginePool(cfg *config.Config) (*ocrpool.Pool, error) {
	ocrCfg := cfg.OCR
	return ocrpool.NewPool(ocrCfg.PoolSize, ocrCfg.RecycleAfter, ocrCfg.Timeout, func() (ocrpool.Engine, error) {
		return ocrpool.NewTesseractEngine(ocrCfg)
	})
}

func newReconciler(cfg *config.Config) *reconcile.Reconciler {
	return reconcile.New(reconcile.Options{
		DOMTrust:               cfg.Reconcile.DOMTrust,
		VisionTrust:            cfg.Reconcile.VisionTrust,
		DecimalRepairThreshold: cfg.Autofix.DecimalRepairThreshold,
	})
}

func saveReport(ctx context.Context, rep *model.BatchReport) error {
	st, err := store.New(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Migrate(ctx); err != nil {
		return err
	}
	for _, rec := range rep.Records {
		if err := st.SaveRecord(ctx, rec); err != nil {
			return err
		}
	}
	if err := st.SaveReport(ctx, rep); err != nil {
		return err
	}
	zap.L().Info("run persisted",
		zap.String("run_id", rep.RunID),
		zap.Int("records", len(rep.Records)),
	)
	return nil
}
