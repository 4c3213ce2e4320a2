package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "buddy",
	Short:         "Language Buddy: spoken English/Japanese practice",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	_ = godotenv.Load()

	rootCmd.AddCommand(
		serveCmd(),
		talkCmd(),
		vocabCmd(),
		profileCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
