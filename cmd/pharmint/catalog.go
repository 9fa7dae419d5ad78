package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/pharmint/internal/catalog"
	"github.com/ShayCichocki/pharmint/internal/format"
)

var (
	catalogImportDB  string
	catalogImportDir string
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect and import lookup tables",
	Long: `Inspect and import the lookup tables the analyses read from.

Tables: market, trade, patent, clinical, web, internal.
The memory backend reads <table>.yaml files from data.dir, or the embedded
sample dataset when data.dir is empty. The sqlite backend reads the
database at data.sqlite_path, populated with 'catalog import'.`,
}

var catalogImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Copy fixture tables into the SQLite catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		dir := cfg.Data.Dir
		if catalogImportDir != "" {
			dir = catalogImportDir
		}
		mem, err := loadMemory(dir)
		if err != nil {
			return err
		}

		dbPath := cfg.Data.SQLitePath
		if catalogImportDB != "" {
			dbPath = catalogImportDB
		}
		store, err := catalog.OpenSQL(dbPath)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.Migrate(); err != nil {
			return err
		}
		n, err := store.Import(cmd.Context(), mem)
		if err != nil {
			return err
		}
		v, err := store.SchemaVersion()
		if err != nil {
			return err
		}

		source := dir
		if source == "" {
			source = "embedded sample dataset"
		}
		printStatus(cmd.OutOrStdout(), "✓",
			fmt.Sprintf("Imported %d records from %s into %s (schema v%d)", n, source, store.Path(), v),
			color.FgGreen)
		return nil
	},
}

var catalogListCmd = &cobra.Command{
	Use:   "list <table>",
	Short: "List the keys of a table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		table, err := catalog.ParseTable(args[0])
		if err != nil {
			return err
		}

		a, err := setup()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		keys, err := a.keys(ctx, table)
		if err != nil {
			return err
		}
		records := make(map[string]catalog.Record, len(keys))
		for _, k := range keys {
			rec, ok, err := a.source.Lookup(ctx, table, k)
			if err != nil {
				return err
			}
			if ok {
				records[k] = rec
			}
		}

		fmt.Fprintln(cmd.OutOrStdout(), format.Records(tableMode(), table, keys, records))
		return nil
	},
}

func init() {
	catalogImportCmd.Flags().StringVar(&catalogImportDB, "db", "", "SQLite database path (default data.sqlite_path)")
	catalogImportCmd.Flags().StringVar(&catalogImportDir, "dir", "", "Fixture directory (default data.dir, then the embedded dataset)")

	catalogCmd.AddCommand(catalogImportCmd)
	catalogCmd.AddCommand(catalogListCmd)
}
