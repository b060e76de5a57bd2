package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newScanCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Profile the folder and refresh the index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cats, err := a.openCategories()
			if err != nil {
				return err
			}
			defer cats.Close()

			sess, err := a.newSession(cats)
			if err != nil {
				return err
			}
			sum, err := sess.Scan(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Printf("scanned %s: %d files\n", sum.Root, sum.Files)
			for _, name := range sum.CategoriesAdded {
				fmt.Printf("  new category: %s\n", name)
			}
			for _, issue := range sum.Issues {
				fmt.Printf("  could not read: %s (%s)\n", issue.Path, issue.Reason)
			}
			return nil
		},
	}
}
