// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wevbarker/DRADIS/internal/roster"
	"github.com/wevbarker/DRADIS/pkg/types"
)

var rosterCmd = &cobra.Command{
	Use:   "roster",
	Short: "Manage the collaborator roster (list, add, remove)",
	Long: `Roster manages the collaborator list used for identity boosting: a
document authored by anyone on the roster receives a relevance bonus.
The roster lives in friends.yaml inside the data directory.`,
}

// --- list subcommand ---

var rosterListCmd = &cobra.Command{
	Use:   "list",
	Short: "List roster collaborators",
	RunE:  runRosterList,
}

func runRosterList(cmd *cobra.Command, args []string) error {
	r, err := loadRoster(cmd)
	if err != nil {
		return err
	}

	if len(r.Collaborators) == 0 {
		fmt.Println("Roster is empty.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-30s  %-25s  %s\n", "Name", "Institution", "Notes")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 75))
	for _, c := range r.Collaborators {
		fmt.Fprintf(os.Stdout, "%-30s  %-25s  %s\n", c.Name, c.Institution, c.Notes)
	}
	fmt.Fprintf(os.Stdout, "\n%d collaborators\n", len(r.Collaborators))
	return nil
}

// --- add subcommand ---

var rosterAddCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Add a collaborator to the roster",
	Args:  cobra.ExactArgs(1),
	RunE:  runRosterAdd,
}

func runRosterAdd(cmd *cobra.Command, args []string) error {
	institution, _ := cmd.Flags().GetString("institution")
	notes, _ := cmd.Flags().GetString("notes")

	r, err := loadRoster(cmd)
	if err != nil {
		return err
	}

	c := types.Collaborator{Name: args[0], Institution: institution, Notes: notes}
	if !r.Add(c) {
		return fmt.Errorf("a collaborator with a matching name is already on the roster")
	}
	if err := r.Save(); err != nil {
		return err
	}

	fmt.Printf("Added %s (%d collaborators)\n", c.Name, len(r.Collaborators))
	return nil
}

// --- remove subcommand ---

var rosterRemoveCmd = &cobra.Command{
	Use:   "remove [name]",
	Short: "Remove a collaborator from the roster",
	Long: `Remove deletes the best-matching roster entry by name similarity, so
name variants work: removing "Lasenby, A." removes "Anthony Lasenby".`,
	Args: cobra.ExactArgs(1),
	RunE: runRosterRemove,
}

func runRosterRemove(cmd *cobra.Command, args []string) error {
	r, err := loadRoster(cmd)
	if err != nil {
		return err
	}

	removed, ok := r.Remove(args[0])
	if !ok {
		return fmt.Errorf("no roster entry matches %q", args[0])
	}
	if err := r.Save(); err != nil {
		return err
	}

	fmt.Printf("Removed %s (%d collaborators remain)\n", removed.Name, len(r.Collaborators))
	return nil
}

// --- shared helpers ---

func loadRoster(cmd *cobra.Command) (*roster.Roster, error) {
	return roster.Load(rosterFile(pipelineConfig(cmd)))
}

func init() {
	rosterAddCmd.Flags().String("institution", "", "collaborator affiliation")
	rosterAddCmd.Flags().String("notes", "", "free-form notes (shared papers, context)")

	rosterCmd.AddCommand(rosterListCmd)
	rosterCmd.AddCommand(rosterAddCmd)
	rosterCmd.AddCommand(rosterRemoveCmd)

	rootCmd.AddCommand(rosterCmd)
}
