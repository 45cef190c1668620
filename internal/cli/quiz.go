package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"study-engine/internal/app"
	"study-engine/internal/session"
)

const quizHelp = `1..n select answer  s submit  n next  p previous  f finish  r restart  q quit`

// NewQuizCmd takes a quiz interactively.
func NewQuizCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "quiz <quiz-id>",
		Short: "Take a multiple-choice quiz",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer rt.Close()
			return runQuiz(cmd.Context(), rt.svc, args[0], cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

func runQuiz(ctx context.Context, svc *app.StudyService, quizID string, stdin io.Reader, out io.Writer) error {
	in := bufio.NewScanner(stdin)
	opening, err := svc.OpenQuiz(ctx, quizID)
	if err != nil {
		return err
	}
	resume := false
	if opening.OfferResume {
		snap := opening.Snapshot
		fmt.Fprintf(out, "You have answered %d questions of %q. Resume? [y/N] ",
			len(snap.KnownCardIDs)+len(snap.UnknownCardIDs), opening.Quiz.Title)
		resume = confirm(in)
	}

	c, err := svc.StartQuiz(ctx, opening, resume)
	if err != nil {
		return err
	}
	out = &lockedWriter{w: out}
	defer attachNotices(out, c)()

	fmt.Fprintln(out, quizHelp)
	printQuestion(out, c.State())
	for in.Scan() {
		line := strings.TrimSpace(in.Text())
		var err error
		switch line {
		case "s":
			_, err = c.Submit(ctx)
		case "n":
			_, err = c.Next(ctx)
		case "p":
			_, err = c.Previous(ctx)
		case "f":
			_, err = c.Finish(ctx)
		case "r":
			_, err = c.Restart(ctx)
		case "q":
			return nil
		default:
			n, convErr := strconv.Atoi(line)
			if convErr != nil {
				fmt.Fprintln(out, quizHelp)
				continue
			}
			_, err = c.Select(ctx, n-1)
		}
		if err != nil {
			fmt.Fprintf(out, "! %v\n", err)
		}
		printQuestion(out, c.State())
	}
	return in.Err()
}

func printQuestion(out io.Writer, s session.Quiz) {
	if s.Completed {
		printQuizResult(out, s.Result())
		return
	}
	q, ok := s.Current()
	if !ok {
		fmt.Fprintln(out, "This quiz has no questions.")
		return
	}
	hint := ""
	if q.MultiCorrect() {
		hint = " (select all that apply)"
	}
	fmt.Fprintf(out, "Q%d/%d%s: %s\n", s.CurrentIndex+1, len(s.Questions), hint, q.Text)

	selected := make(map[int]bool)
	for _, i := range s.Pending[s.CurrentIndex] {
		selected[i] = true
	}
	answer, submitted := s.Answers[s.CurrentIndex]
	if submitted {
		for _, orig := range answer.Selected {
			selected[s.Maps[s.CurrentIndex].Shuffled(orig)] = true
		}
	}
	for i, a := range s.DisplayedAnswers(s.CurrentIndex) {
		mark := " "
		if selected[i] {
			mark = "x"
		}
		fmt.Fprintf(out, "  [%s] %d. %s\n", mark, i+1, a.Text)
	}
	if submitted {
		verdict := "incorrect"
		if answer.Correct {
			verdict = "correct"
		}
		fmt.Fprintf(out, "  submitted: %s\n", verdict)
	}
}

func printQuizResult(out io.Writer, r session.QuizResult) {
	fmt.Fprintf(out, "Score %d%%: %d correct, %d incorrect, %d skipped of %d.\n",
		r.Score, r.Correct, r.Incorrect, r.Skipped, r.Total)
	for _, o := range r.Outcomes {
		fmt.Fprintf(out, "  %s: %s\n", o.QuestionID, o.Status)
	}
}
