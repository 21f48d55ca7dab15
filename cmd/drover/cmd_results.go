package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/user/drover/internal/results"
)

var (
	resultsDataDir string
	resultsLimit   int
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Inspect archived run reports",
}

var resultsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := results.Open(resultsDataDir)
		if err != nil {
			return err
		}
		defer db.Close()

		runs, err := db.List(resultsLimit)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tCREATED\tSCENARIO")
		for _, r := range runs {
			fmt.Fprintf(w, "%d\t%s\t%s\n", r.ID, r.CreatedAt, r.Scenario)
		}
		return w.Flush()
	},
}

var resultsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print one archived report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid run id %q", args[0])
		}
		db, err := results.Open(resultsDataDir)
		if err != nil {
			return err
		}
		defer db.Close()

		raw, err := db.Get(id)
		if err != nil {
			return err
		}
		enc, err := json.MarshalIndent(raw, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(enc))
		return nil
	},
}

func init() {
	resultsCmd.PersistentFlags().StringVar(&resultsDataDir, "data-dir", "data", "archive directory")
	resultsListCmd.Flags().IntVar(&resultsLimit, "limit", 20, "maximum runs to list")
	resultsCmd.AddCommand(resultsListCmd, resultsShowCmd)
}
