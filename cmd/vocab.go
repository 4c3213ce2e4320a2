package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Vovarama1992/language_buddy/internal/vocabulary"
)

func vocabCmd() *cobra.Command {
	vocabCmd := &cobra.Command{Use: "vocab", Short: "Vocabulary operations"}

	// list
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List saved words",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			items := vocabulary.NewService(cmd.Context(), a.store, a.log).List(cmd.Context())
			if len(items) == 0 {
				fmt.Println("(empty)")
				return nil
			}

			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "#\tJAPANESE\tROMAJI\tENGLISH\tREVIEWS\tLAST REVIEWED\tADDED")
			for i, it := range items {
				last := "-"
				if it.LastReviewed != nil {
					last = humanize.Time(*it.LastReviewed)
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\t%s\n",
					i, it.Japanese, it.Romaji, it.English, it.ReviewCount, last, humanize.Time(it.DateAdded))
			}
			return tw.Flush()
		},
	}
	vocabCmd.AddCommand(listCmd)

	// add
	var japanese, english, romaji string
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add a word",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			item, err := vocabulary.NewService(cmd.Context(), a.store, a.log).
				Add(cmd.Context(), japanese, english, romaji)
			if err != nil {
				return err
			}
			fmt.Printf("added %s (%s)\n", item.Japanese, item.English)
			return nil
		},
	}
	addCmd.Flags().StringVarP(&japanese, "japanese", "j", "", "Japanese text (required)")
	addCmd.Flags().StringVarP(&english, "english", "e", "", "English meaning (required)")
	addCmd.Flags().StringVarP(&romaji, "romaji", "r", "", "Romaji reading")
	vocabCmd.AddCommand(addCmd)

	// review
	reviewCmd := &cobra.Command{
		Use:   "review INDEX",
		Short: "Mark a word as reviewed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid index %q", args[0])
			}
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			item, err := vocabulary.NewService(cmd.Context(), a.store, a.log).Review(cmd.Context(), idx)
			if err != nil {
				return err
			}
			fmt.Printf("%s reviewed %d times\n", item.Japanese, item.ReviewCount)
			return nil
		},
	}
	vocabCmd.AddCommand(reviewCmd)

	// remove
	removeCmd := &cobra.Command{
		Use:   "remove INDEX",
		Short: "Remove a word",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid index %q", args[0])
			}
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			return vocabulary.NewService(cmd.Context(), a.store, a.log).Remove(cmd.Context(), idx)
		},
	}
	vocabCmd.AddCommand(removeCmd)

	return vocabCmd
}
