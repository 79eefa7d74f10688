package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"nascal/internal/dategrid"
)

var flagGridYear int

var gridCmd = &cobra.Command{
	Use:   "grid [month]",
	Short: "Print a month as a text grid (month is 0-based, 0 = January)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, st, err := loadApp()
		if err != nil {
			return err
		}

		year := cfg.Year
		if flagGridYear != 0 {
			year = flagGridYear
		}
		month := cfg.StartMonth
		if len(args) == 1 {
			m, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid month %q: %w", args[0], err)
			}
			month = m
		}

		fmt.Println(dategrid.MonthLabel(year, month))
		fmt.Println("Dom Seg Ter Qua Qui Sex Sáb")

		cells := dategrid.MonthGrid(year, month)
		for i, cell := range cells {
			mark := " "
			if len(st.FindByDate(cell.DateISO())) > 0 {
				mark = "*"
			}
			if cell.OutOfMonth {
				fmt.Printf("(%2d)", cell.Date.Day())
			} else {
				fmt.Printf("%3d%s", cell.Date.Day(), mark)
			}
			if (i+1)%7 == 0 {
				fmt.Println()
			}
		}
		return nil
	},
}

func init() {
	gridCmd.Flags().IntVar(&flagGridYear, "year", 0, "year (defaults to the config year)")
}
