package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newCategoriesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "categories",
		Aliases: []string{"cats"},
		Short:   "Manage the known destination folders",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List known categories",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			cats, err := a.openCategories()
			if err != nil {
				return err
			}
			defer cats.Close()

			list, err := cats.List(c.Context())
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Println("no categories yet; scan a folder or add one")
				return nil
			}
			for _, cat := range list {
				if cat.Path != cat.Name {
					fmt.Printf("%s (%s)\n", cat.Name, cat.Path)
					continue
				}
				fmt.Println(cat.Name)
			}
			return nil
		},
	})

	var addPath string
	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Register a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			cats, err := a.openCategories()
			if err != nil {
				return err
			}
			defer cats.Close()

			cat, err := cats.Add(c.Context(), args[0], addPath)
			if err != nil {
				return err
			}
			fmt.Printf("added %s -> %s\n", cat.Name, cat.Path)
			return nil
		},
	}
	add.Flags().StringVar(&addPath, "path", "", "folder path relative to the root (default: the name)")
	cmd.AddCommand(add)

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <name>",
		Short: "Forget a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			cats, err := a.openCategories()
			if err != nil {
				return err
			}
			defer cats.Close()
			return cats.Remove(c.Context(), args[0])
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "route <extension> <category>",
		Short: "Always place an extension into a category",
		Example: `  sortme categories route .pdf Documents`,
		Args: cobra.ExactArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			cats, err := a.openCategories()
			if err != nil {
				return err
			}
			defer cats.Close()
			if err := cats.SetExtensionPref(c.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Printf("files %s now go to %s\n", args[0], args[1])
			return nil
		},
	})

	return cmd
}

func newNotesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notes",
		Short: "Attach short notes the model sees when placing files",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get <path>",
		Short: "Show the note for a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			cats, err := a.openCategories()
			if err != nil {
				return err
			}
			defer cats.Close()

			note, err := cats.Note(c.Context(), args[0])
			if err != nil {
				return err
			}
			if note == "" {
				fmt.Println("(no note)")
				return nil
			}
			fmt.Println(note)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <path> <note...>",
		Short: "Set (or clear, with an empty note) the note for a file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			cats, err := a.openCategories()
			if err != nil {
				return err
			}
			defer cats.Close()

			return cats.SetNote(c.Context(), args[0], strings.Join(args[1:], " "))
		},
	})

	return cmd
}
