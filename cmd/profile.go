package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Vovarama1992/language_buddy/internal/profile"
)

func profileCmd() *cobra.Command {
	profileCmd := &cobra.Command{Use: "profile", Short: "Learner profile"}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the current profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			p := profile.NewService(a.store, a.log).Load(cmd.Context())
			printProfile(p)
			return nil
		},
	}
	profileCmd.AddCommand(showCmd)

	var level, native string
	var interests []string
	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Change level, native language or interests",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			session, profiles := a.session(cmd.Context(), nil, nil, nil)
			defer session.Close()

			p := profiles.Load(cmd.Context())
			if cmd.Flags().Changed("level") {
				p.Level = profile.Level(strings.ToLower(level))
			}
			if cmd.Flags().Changed("native") {
				p.NativeLanguage = native
			}
			if cmd.Flags().Changed("interest") {
				p.Interests = interests
			}

			if err := session.UpdateProfile(cmd.Context(), p); err != nil {
				return err
			}
			printProfile(profiles.Load(cmd.Context()))
			return nil
		},
	}
	setCmd.Flags().StringVarP(&level, "level", "l", "", "beginner | intermediate | advanced")
	setCmd.Flags().StringVarP(&native, "native", "n", "", "Native language")
	setCmd.Flags().StringSliceVarP(&interests, "interest", "i", nil, "Interests (repeatable, replaces the list)")
	profileCmd.AddCommand(setCmd)

	return profileCmd
}

func printProfile(p profile.Profile) {
	fmt.Printf("native:    %s\n", p.NativeLanguage)
	fmt.Printf("level:     %s\n", p.Level)
	if len(p.Interests) == 0 {
		fmt.Println("interests: -")
		return
	}
	fmt.Printf("interests: %s\n", strings.Join(p.Interests, ", "))
}
