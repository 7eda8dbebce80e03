package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/artikelwerk/catalog-cli/internal/capture"
	"github.com/artikelwerk/catalog-cli/internal/model"
	"github.com/artikelwerk/catalog-cli/internal/ocrpool"
)

var reconcileItemDir string

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile a single captured item and print the record as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		if reconcileItemDir == "" {
			return eris.New("--item is required")
		}
		ctx := cmd.Context()
		ref := model.ItemRef{ID: filepath.Base(reconcileItemDir), Dir: reconcileItemDir}
		provider := capture.NewLocalProvider()

		ocrCfg := cfg.OCR
		pool, err := ocrpool.NewPool(1, ocrCfg.RecycleAfter, ocrCfg.Timeout, func() (ocrpool.Engine, error) {
			return ocrpool.NewTesseractEngine(ocrCfg)
		})
		if err != nil {
			return err
		}
		defer pool.Close()

		dom, err := provider.DOMObservation(ctx, ref)
		if err != nil {
			return err
		}
		regions, err := provider.RegionImages(ctx, ref)
		if err != nil {
			return err
		}
		vision, err := pool.RecognizeRegions(ctx, regions)
		if err != nil {
			return err
		}

		rec := newReconciler(cfg).Reconcile(dom, vision)
		rec.Ref = ref

		out, err := json.MarshalIndent(rec, "", "  ")
		if err != nil {
			return eris.Wrap(err, "marshal record")
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	reconcileCmd.Flags().StringVar(&reconcileItemDir, "item", "", "capture directory of one item")
	rootCmd.AddCommand(reconcileCmd)
}
