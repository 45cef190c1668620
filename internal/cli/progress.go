package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"study-engine/internal/app"
	"study-engine/internal/domain"
	"study-engine/internal/progress"
)

// completionChecker is implemented by progress stores that mark finished sessions.
type completionChecker interface {
	Completed(ctx context.Context, id string) (bool, error)
}

// attemptLister is implemented by attempt stores that can list past attempts.
type attemptLister interface {
	app.AttemptRecorder
	Attempts(ctx context.Context, quizID string) ([]domain.QuizAttempt, error)
}

// NewProgressCmd groups progress maintenance commands.
func NewProgressCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Manage saved study progress",
	}
	cmd.AddCommand(&cobra.Command{
		Use:       "clear <deck|quiz> <id>",
		Short:     "Discard saved progress so the next session starts fresh",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"deck", "quiz"},
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer rt.Close()

			switch args[0] {
			case "deck":
				err = rt.svc.ClearDeckProgress(cmd.Context(), args[1])
			case "quiz":
				err = rt.svc.ClearQuizProgress(cmd.Context(), args[1])
			default:
				return fmt.Errorf("unknown kind %q: want deck or quiz", args[0])
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "progress cleared for %s %s\n", args[0], args[1])
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:       "status <deck|quiz> <id>",
		Short:     "Show saved progress and whether the last session finished",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"deck", "quiz"},
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := progressKey(args[0], args[1])
			if err != nil {
				return err
			}
			rt, err := newRuntime(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer rt.Close()
			return printProgressStatus(cmd.Context(), cmd.OutOrStdout(), rt.progress, rt.completed, key)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "attempts <quiz-id>",
		Short: "List recorded quiz attempts, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer rt.Close()
			return printAttempts(cmd.Context(), cmd.OutOrStdout(), rt.attempts, args[0])
		},
	})
	return cmd
}

func progressKey(kind, id string) (string, error) {
	switch kind {
	case "deck":
		return app.DeckKey(id), nil
	case "quiz":
		return app.QuizKey(id), nil
	}
	return "", fmt.Errorf("unknown kind %q: want deck or quiz", kind)
}

func printProgressStatus(ctx context.Context, out io.Writer, m *progress.Manager, completed completionChecker, key string) error {
	done, err := completed.Completed(ctx, key)
	if err != nil {
		return fmt.Errorf("check completion: %w", err)
	}
	if done {
		fmt.Fprintf(out, "%s: completed\n", key)
		return nil
	}
	snap, ok, err := m.Load(ctx, key)
	if err != nil {
		return err
	}
	if !ok || !progress.ShouldOfferResume(snap) {
		fmt.Fprintf(out, "%s: no saved progress\n", key)
		return nil
	}
	fmt.Fprintf(out, "%s: %d known, %d unknown, position %d, studied %s\n",
		key, len(snap.KnownCardIDs), len(snap.UnknownCardIDs), snap.CurrentCardIndex+1, formatSeconds(snap.StudyTime))
	return nil
}

func printAttempts(ctx context.Context, out io.Writer, attempts attemptLister, quizID string) error {
	list, err := attempts.Attempts(ctx, quizID)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintf(out, "no attempts recorded for %s\n", quizID)
		return nil
	}
	for _, a := range list {
		fmt.Fprintf(out, "%s  %3d%%  %s\n", a.Timestamp.UTC().Format("2006-01-02 15:04"), a.Score, a.ID)
	}
	return nil
}
