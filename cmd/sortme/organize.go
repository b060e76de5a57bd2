package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"sortme/internal/action"
	"sortme/internal/preview"
	"sortme/internal/session"
)

func newOrganizeCmd(a *app) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "organize <command...>",
		Short: "Carry out a plain-language organizing command",
		Example: `  sortme organize "put my school pdfs into the CS240 folder"
  sortme organize --dry-run "group the photos by month"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cats, err := a.openCategories()
			if err != nil {
				return err
			}
			defer cats.Close()

			sess, err := a.newSession(cats)
			if err != nil {
				return err
			}
			res, err := sess.Organize(cmd.Context(), strings.Join(args, " "), dryRun)
			if err != nil {
				return err
			}
			printResult(res)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "show the plan without changing anything")
	return cmd
}

func newAskCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question...>",
		Short: "Ask about the folder without changing anything",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cats, err := a.openCategories()
			if err != nil {
				return err
			}
			defer cats.Close()

			sess, err := a.newSession(cats)
			if err != nil {
				return err
			}
			res, err := sess.Preview(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			if res.Plan.Conversation != "" {
				fmt.Println(res.Plan.Conversation)
				return nil
			}
			printResult(res)
			return nil
		},
	}
}

func printResult(res *session.OrganizeResult) {
	plan := res.Plan
	if plan.Conversation != "" {
		fmt.Println(plan.Conversation)
	}
	for _, m := range plan.Resolved {
		fmt.Printf("  %s -> %s (%s)\n", m.Profile.Path, m.Category, m.Reason)
	}
	for _, rej := range plan.Rejected {
		fmt.Printf("  dropped: %s\n", rej.Reason)
	}

	if res.Preview != nil {
		printPreview(res.Preview)
		return
	}
	if res.Ledger == nil {
		if plan.Conversation == "" {
			fmt.Println("nothing to do")
		}
		return
	}
	for _, e := range res.Ledger.Entries {
		mark := "+"
		switch e.Status {
		case action.StatusSkipped:
			mark = "~"
		case action.StatusFailed:
			mark = "!"
		}
		line := fmt.Sprintf("%s %s", mark, e.Op.Describe())
		if e.Reason != "" {
			line += " (" + e.Reason + ")"
		}
		fmt.Println(line)
	}
	fmt.Println(res.Ledger.Summary())
}

func printPreview(pv *preview.Preview) {
	if pv.Truncated {
		fmt.Printf("plan too large to render (%d creates, %d moves, %d renames)\n",
			pv.Creates, pv.Moves, pv.Renames)
		return
	}
	for _, l := range pv.Lines {
		switch l.Type {
		case preview.LineAdded:
			fmt.Println("+ " + l.Text)
		case preview.LineRemoved:
			fmt.Println("- " + l.Text)
		default:
			fmt.Println("  " + l.Text)
		}
	}
	for _, nc := range pv.NoteChanges {
		if nc.Old == "" {
			fmt.Printf("~ note %s: %q\n", nc.Path, nc.New)
			continue
		}
		fmt.Printf("~ note %s: %q -> %q\n", nc.Path, nc.Old, nc.New)
	}
	fmt.Printf("would make %d folders, move %d files, rename %d\n", pv.Creates, pv.Moves, pv.Renames)
}
