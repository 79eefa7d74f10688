package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"nascal/internal/store"
)

var (
	flagTitle string
	flagDate  string
	flagTime  string
	flagDesc  string
	flagType  string
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Create, list and remove events",
}

var eventAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add an event",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, st, err := loadApp()
		if err != nil {
			return err
		}

		ev, err := st.Create(store.Draft{
			Title: flagTitle,
			Date:  flagDate,
			Time:  flagTime,
			Desc:  flagDesc,
			Type:  flagType,
		})
		if err != nil {
			return err
		}

		fmt.Printf("created %s\n", ev.ID)
		return nil
	},
}

var eventListCmd = &cobra.Command{
	Use:   "list [date]",
	Short: "List events, optionally only for one date (YYYY-MM-DD)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, st, err := loadApp()
		if err != nil {
			return err
		}

		var events []store.Event
		if len(args) == 1 {
			events = st.FindByDate(args[0])
		} else {
			for _, ev := range st.ExportAll() {
				events = append(events, ev)
			}
			sort.Slice(events, func(i, j int) bool {
				if events[i].Date != events[j].Date {
					return events[i].Date < events[j].Date
				}
				if events[i].Time != events[j].Time {
					return events[i].Time < events[j].Time
				}
				return events[i].ID < events[j].ID
			})
		}

		if len(events) == 0 {
			fmt.Println("no events")
			return nil
		}
		for _, ev := range events {
			printEvent(ev)
		}
		return nil
	},
}

var eventRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Remove an event by id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, st, err := loadApp()
		if err != nil {
			return err
		}
		if err := st.Delete(args[0]); err != nil {
			return err
		}
		fmt.Printf("removed %s\n", args[0])
		return nil
	},
}

func printEvent(ev store.Event) {
	at := ev.Date
	if ev.Time != "" {
		at += " " + ev.Time
	}
	fmt.Printf("%-14s  %-8s  %s  (%s)\n", at, ev.Type, ev.Title, ev.ID)
	if ev.Desc != "" {
		fmt.Printf("                          %s\n", ev.Desc)
	}
}

func init() {
	eventAddCmd.Flags().StringVar(&flagTitle, "title", "", "event title (required)")
	eventAddCmd.Flags().StringVar(&flagDate, "date", "", "event date YYYY-MM-DD (required)")
	eventAddCmd.Flags().StringVar(&flagTime, "time", "", "event time HH:MM")
	eventAddCmd.Flags().StringVar(&flagDesc, "desc", "", "event description")
	eventAddCmd.Flags().StringVar(&flagType, "type", store.TypeEvent, "event type: event, exam or holiday")

	eventCmd.AddCommand(eventAddCmd)
	eventCmd.AddCommand(eventListCmd)
	eventCmd.AddCommand(eventRmCmd)
}
