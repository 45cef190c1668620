package cli

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var configPath string

// Execute runs the CLI.
func Execute() error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("load .env: %v", err)
	}
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	envConfig := os.Getenv("CONFIG_PATH")
	if envConfig == "" {
		envConfig = "config/config.yaml"
	}

	cmd := &cobra.Command{
		Use:           "study",
		Short:         "Study flashcard decks and quizzes from the terminal",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", envConfig, "path to YAML config")
	cmd.AddCommand(NewDeckCmd(&configPath))
	cmd.AddCommand(NewQuizCmd(&configPath))
	cmd.AddCommand(NewProgressCmd(&configPath))
	cmd.AddCommand(NewMasteryCmd(&configPath))
	cmd.AddCommand(NewMigrateCmd(&configPath))
	return cmd
}
