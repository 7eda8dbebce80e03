package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/artikelwerk/catalog-cli/internal/report"
	"github.com/artikelwerk/catalog-cli/internal/store"
)

var (
	recordsRunID string
	recordsDB    string
)

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "List reconciled records from the configured store",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		storeCfg := cfg.Store
		if recordsDB != "" {
			storeCfg.DatabaseURL = recordsDB
		}
		st, err := store.New(ctx, storeCfg)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return err
		}
		records, err := st.ListRecords(ctx, recordsRunID)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("no records")
			return nil
		}
		fmt.Println(report.RenderRecords(records))
		return nil
	},
}

func init() {
	recordsCmd.Flags().StringVar(&recordsRunID, "run", "", "only records from this run ID")
	recordsCmd.Flags().StringVar(&recordsDB, "db", "", "database path or URL, overrides the configured store")
	rootCmd.AddCommand(recordsCmd)
}
