package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"study-engine/internal/app"
	"study-engine/internal/session"
)

const deckHelp = `f flip  k known  u unknown  z undo  s shuffle  o reset order
r restart  w review unknown  p pause/resume timer  b dismiss break  t speak  q quit`

// NewDeckCmd studies a flashcard deck interactively.
func NewDeckCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "deck <deck-id>",
		Short: "Study a flashcard deck",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer rt.Close()
			return runDeck(cmd.Context(), rt.svc, args[0], cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

func runDeck(ctx context.Context, svc *app.StudyService, deckID string, stdin io.Reader, out io.Writer) error {
	in := bufio.NewScanner(stdin)
	opening, err := svc.OpenDeck(ctx, deckID)
	if err != nil {
		return err
	}
	resume := false
	if opening.OfferResume {
		snap := opening.Snapshot
		fmt.Fprintf(out, "You have progress on %q: %d known, %d unknown, %s studied. Resume? [y/N] ",
			opening.Deck.Title, len(snap.KnownCardIDs), len(snap.UnknownCardIDs), formatSeconds(snap.StudyTime))
		resume = confirm(in)
	}

	c, err := svc.StartDeck(ctx, opening, resume)
	if err != nil {
		return err
	}
	out = &lockedWriter{w: out}
	defer attachNotices(out, c)()

	fmt.Fprintln(out, deckHelp)
	printCard(out, c)
	for in.Scan() {
		var err error
		switch strings.TrimSpace(in.Text()) {
		case "f":
			_, err = c.Flip(ctx)
		case "k":
			_, err = c.Mark(ctx, true)
		case "u":
			_, err = c.Mark(ctx, false)
		case "z":
			_, err = c.Undo(ctx)
		case "s":
			_, err = c.Shuffle(ctx)
		case "o":
			_, err = c.ResetOrder(ctx)
		case "r":
			_, err = c.Restart(ctx)
		case "w":
			_, err = c.RestartWithUnknown(ctx)
		case "p":
			_, err = c.ToggleTimer(ctx)
		case "b":
			_, err = c.DismissBreak(ctx)
		case "t":
			err = c.Speak(ctx)
		case "q":
			return nil
		default:
			fmt.Fprintln(out, deckHelp)
			continue
		}
		if err != nil {
			fmt.Fprintf(out, "! %v\n", err)
		}
		printCard(out, c)
	}
	return in.Err()
}

func printCard(out io.Writer, c *app.DeckController) {
	state := c.State()
	if state.Completed {
		printDeckSummary(out, state.Summary())
		return
	}
	card, ok := c.Current()
	if !ok {
		fmt.Fprintln(out, "Nothing to study.")
		return
	}
	side := card.Front
	if state.Flipped {
		side = card.Back
	}
	mode := ""
	if state.ReviewMode {
		mode = " (review)"
	}
	fmt.Fprintf(out, "[%d/%d]%s %s\n", state.CurrentIndex+1, len(state.Items), mode, side)
}

func printDeckSummary(out io.Writer, sum session.FlashcardSummary) {
	fmt.Fprintf(out, "Session complete: %d/%d known (%d%%), %d unknown, %s studied.\n",
		sum.Known, sum.Total, sum.Percent, sum.Unknown, formatSeconds(sum.StudyTime))
}

// noticeSource is the part of a session controller the terminal drivers observe.
type noticeSource interface {
	Subscribe() (<-chan app.Notice, func())
	Close(ctx context.Context)
}

// attachNotices prints a session's notices to out in the background. The
// returned func closes the session and waits until the last notice is written.
func attachNotices(out io.Writer, c noticeSource) func() {
	notices, cancel := c.Subscribe()
	printed := make(chan struct{})
	go func() {
		defer close(printed)
		printNotices(out, notices)
	}()
	return func() {
		closeSession(c.Close)
		cancel()
		<-printed
	}
}

// lockedWriter serializes writes from the command loop and the notice printer.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

func printNotices(out io.Writer, notices <-chan app.Notice) {
	for n := range notices {
		fmt.Fprintf(out, "* %s\n", n.Message)
		for _, d := range n.Details {
			fmt.Fprintf(out, "  - %s\n", d)
		}
	}
}

func confirm(in *bufio.Scanner) bool {
	if !in.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(in.Text()))
	return answer == "y" || answer == "yes"
}

// closeSession gives the final save a bounded amount of time.
func closeSession(closeFn func(context.Context)) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	closeFn(ctx)
}

func formatSeconds(s int) string {
	return (time.Duration(s) * time.Second).String()
}
