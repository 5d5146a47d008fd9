package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/saint-net/open-jobs-searcher/internal/model"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history [domain]",
	Short: "Show recent job lifecycle events",
	Long:  "Prints recent added/removed/reactivated events, newest first, optionally filtered to one site.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 30, "maximum number of events to show")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	repo, err := openRepo()
	if err != nil {
		return err
	}
	defer repo.Close()

	domain := ""
	if len(args) == 1 {
		domain = args[0]
	}

	events, err := repo.History(cmd.Context(), domain, historyLimit)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Println("No events yet.")
		return nil
	}

	fmt.Printf("%-17s %-12s %-30s %-20s %s\n", "When", "Event", "Site", "Location", "Title")
	fmt.Println(strings.Repeat("─", 100))
	for _, e := range events {
		fmt.Printf("%-17s %s %-11s %-30s %-20s %s\n",
			e.CreatedAt.Format("2006-01-02 15:04"),
			eventMark(e.Event), e.Event, e.Domain, e.Location, e.JobTitle)
	}
	return nil
}

func eventMark(event string) string {
	switch event {
	case model.EventAdded:
		return "+"
	case model.EventRemoved:
		return "-"
	case model.EventReactivated:
		return "↻"
	default:
		return " "
	}
}
