package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/setu/internal/emissions"
	"github.com/JaimeStill/setu/pkg/backend"
	"github.com/JaimeStill/setu/pkg/formatting"
)

func (c *cli) logCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Submit emission logs",
	}

	var manual backend.ManualLog
	manualCmd := &cobra.Command{
		Use:   "manual",
		Short: "Log a single activity value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sys, err := c.connect(cmd)
			if err != nil {
				return err
			}
			res, err := sys.emissions.LogManual(cmd.Context(), manual)
			if err != nil {
				return detailError(err)
			}
			return c.print(cmd.OutOrStdout(), res, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Emission logged: %s CO₂e.\n", formatting.FormatEmissions(res.CO2eKg))
				return err
			})
		},
	}
	mf := manualCmd.Flags()
	mf.IntVar(&manual.DeptID, "dept", 0, "department id")
	mf.StringVar(&manual.Category, "category", "", "emission category, e.g. Energy")
	mf.StringVar(&manual.Activity, "activity", "", "activity, e.g. Grid Electricity")
	mf.Float64Var(&manual.Value, "value", 0, "activity value")
	mf.StringVar(&manual.Unit, "unit", "", "optional unit")
	mf.StringVar(&manual.ActivityDate, "date", "", "activity date (YYYY-MM-DD)")
	for _, name := range []string{"dept", "category", "activity", "value", "date"} {
		manualCmd.MarkFlagRequired(name)
	}

	var deptID int
	csvCmd := &cobra.Command{
		Use:   "csv FILE",
		Short: "Upload a CSV of activity values for one department",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sys, err := c.connect(cmd)
			if err != nil {
				return err
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			upload := emissions.CSVUpload{
				DeptID:   deptID,
				Filename: filepath.Base(args[0]),
				Data:     data,
			}
			res, err := sys.emissions.LogCSV(cmd.Context(), upload)
			if err != nil {
				return detailError(err)
			}
			return c.print(cmd.OutOrStdout(), res, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Processed %d rows from %s.\n", res.RowsProcessed, upload.Filename)
				return err
			})
		},
	}
	csvCmd.Flags().IntVar(&deptID, "dept", 0, "department id")
	csvCmd.MarkFlagRequired("dept")

	cmd.AddCommand(manualCmd, csvCmd)
	return cmd
}
