package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/example/psychstudy/internal/cardstore"
	"github.com/example/psychstudy/internal/session"
	"github.com/example/psychstudy/internal/spaced_repetition"
	"github.com/example/psychstudy/pkg/models"
)

const helpText = `Commands:
  lessons              list lessons
  study <lesson|all>   start a session
  flip                 show the answer
  0-3                  rate the card (0 again, 1 hard, 2 good, 3 perfect)
  k                    mark the card as known
  mode term|def        show the term or the definition first
  stats [lesson]       show progress
  reset                bring back known cards
  quit                 exit`

// Console is a line-oriented study driver for one learner
type Console struct {
	scheduler *session.Scheduler
	catalog   []models.Card
	out       io.Writer

	session *session.Session
	mode    session.Mode
	flipped bool
}

// New creates a console over a scheduler and a loaded catalog
func New(scheduler *session.Scheduler, catalog []models.Card, out io.Writer) *Console {
	return &Console{
		scheduler: scheduler,
		catalog:   catalog,
		out:       out,
		mode:      session.TermFirst,
	}
}

// Run reads commands from in until quit or end of input
func (c *Console) Run(in io.Reader) error {
	fmt.Fprintf(c.out, "%d flashcards loaded. Type help for commands.\n", len(c.catalog))

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(c.out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(c.out)
			return scanner.Err()
		}
		if !c.Execute(scanner.Text()) {
			return nil
		}
	}
}

// Execute runs a single command line. It returns false on quit.
func (c *Console) Execute(line string) bool {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(line)))
	if len(fields) == 0 {
		return true
	}
	arg := ""
	if len(fields) > 1 {
		arg = fields[1]
	}

	switch cmd := fields[0]; cmd {
	case "quit", "exit", "q":
		fmt.Fprintln(c.out, "Bye!")
		return false
	case "help", "?":
		fmt.Fprintln(c.out, helpText)
	case "lessons":
		c.lessons()
	case "study":
		c.study(arg)
	case "flip", "f":
		c.flip()
	case "0", "1", "2", "3":
		n, _ := strconv.Atoi(cmd)
		c.rate(spaced_repetition.Rating(n))
	case "k", "know":
		c.markKnown()
	case "mode":
		c.setMode(arg)
	case "stats":
		c.stats(arg)
	case "reset":
		c.scheduler.ResetKnown()
		fmt.Fprintln(c.out, "Known cards reset.")
	default:
		fmt.Fprintf(c.out, "Unknown command %q. Type help for commands.\n", cmd)
	}
	return true
}

func (c *Console) lessons() {
	lessons := cardstore.Lessons(c.catalog)
	if len(lessons) == 0 {
		fmt.Fprintln(c.out, "No flashcards loaded.")
		return
	}
	for _, l := range lessons {
		fmt.Fprintf(c.out, "Lesson %d: %d cards\n", l.Lesson, l.Cards)
	}
}

func (c *Console) study(arg string) {
	filter, err := models.ParseLessonFilter(arg)
	if err != nil {
		fmt.Fprintln(c.out, "Usage: study <lesson|all>")
		return
	}

	sess, err := c.scheduler.StartSession(c.catalog, filter)
	if errors.Is(err, session.ErrEmptyPool) {
		fmt.Fprintln(c.out, "No cards to study! Type reset to bring back the cards you know.")
		return
	}
	if err != nil {
		fmt.Fprintf(c.out, "Could not start session: %v\n", err)
		return
	}

	sess.Mode = c.mode
	c.session = sess
	c.flipped = false
	c.showCard()
}

func (c *Console) active() bool {
	if c.session == nil || c.session.Done() {
		fmt.Fprintln(c.out, "No active session. Type study <lesson|all>.")
		return false
	}
	return true
}

func (c *Console) showCard() {
	question, _, err := c.session.Prompt()
	if err != nil {
		return
	}
	pos, total := c.session.Progress()
	fmt.Fprintf(c.out, "\n[%d/%d] %s\n", pos, total, question)
}

func (c *Console) flip() {
	if !c.active() {
		return
	}
	_, answer, _ := c.session.Prompt()
	c.flipped = true
	fmt.Fprintf(c.out, "  -> %s\n", answer)

	if card, err := c.session.CurrentCard(); err == nil && card.HasVideo() {
		fmt.Fprintf(c.out, "  video (%s): %s\n", card.Timestamp, card.VideoURL())
	}
	fmt.Fprintln(c.out, "Rate 0-3, or k if you know it.")
}

func (c *Console) rate(rating spaced_repetition.Rating) {
	if !c.active() {
		return
	}
	if !c.flipped {
		fmt.Fprintln(c.out, "Flip the card first.")
		return
	}
	if err := c.session.Rate(rating); err != nil {
		fmt.Fprintf(c.out, "Could not rate card: %v\n", err)
		return
	}
	c.advance()
}

func (c *Console) markKnown() {
	if !c.active() {
		return
	}
	if err := c.session.MarkKnown(); err != nil {
		fmt.Fprintf(c.out, "Could not mark card: %v\n", err)
		return
	}
	fmt.Fprintln(c.out, "Marked as known.")
	c.advance()
}

func (c *Console) advance() {
	c.flipped = false
	if _, err := c.session.Advance(); errors.Is(err, session.ErrSessionComplete) {
		summary := c.session.Summary()
		fmt.Fprintf(c.out, "\nSession complete! Reviewed %d, marked as known %d.\n", summary.Reviewed, summary.MarkedKnown)
		return
	}
	c.showCard()
}

func (c *Console) setMode(arg string) {
	switch arg {
	case "term":
		c.mode = session.TermFirst
	case "def":
		c.mode = session.DefinitionFirst
	default:
		fmt.Fprintln(c.out, "Usage: mode term|def")
		return
	}
	if c.session != nil {
		c.session.Mode = c.mode
	}
	fmt.Fprintf(c.out, "Mode: %s\n", c.mode)
}

func (c *Console) stats(arg string) {
	filter, err := models.ParseLessonFilter(arg)
	if err != nil {
		fmt.Fprintln(c.out, "Usage: stats [lesson]")
		return
	}
	st := c.scheduler.Store().Stats(c.catalog, filter)
	due := len(c.scheduler.DueCards(c.catalog, filter))
	fmt.Fprintf(c.out, "Lesson %s: %d total, %d known, %d left, %d due, %d mastered\n",
		filter, st.Total, st.Known, st.Remaining, due, c.scheduler.MasteredCount(c.catalog))
}
