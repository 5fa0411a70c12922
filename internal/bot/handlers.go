package bot

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/example/psychstudy/internal/cardstore"
	"github.com/example/psychstudy/internal/session"
	"github.com/example/psychstudy/internal/spaced_repetition"
	"github.com/example/psychstudy/pkg/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const helpText = `Psychology flashcards 🎓

/lessons - Choose a lesson to study
/study [lesson] - Start a session (all lessons if none given)
/stats [lesson] - Show your progress
/mode term|def - Show the term or the definition first
/reset - Bring back the cards you marked as known
/remind on|off - Daily reminders for due cards`

// handleUpdate handles incoming updates from Telegram
func (b *Bot) handleUpdate(update tgbotapi.Update) {
	if update.Message != nil && update.Message.IsCommand() {
		b.handleCommand(update.Message)
	} else if update.Message != nil {
		msg := tgbotapi.NewMessage(update.Message.Chat.ID, "I don't understand. Use /help to see the commands.")
		b.send(msg)
	} else if update.CallbackQuery != nil {
		b.handleCallbackQuery(update.CallbackQuery)
	}
}

func (b *Bot) handleCommand(message *tgbotapi.Message) {
	chatID := message.Chat.ID
	args := strings.TrimSpace(message.CommandArguments())

	switch message.Command() {
	case "start":
		b.registerLearner(message)
		msg := tgbotapi.NewMessage(chatID, helpText)
		msg.ReplyMarkup = createKeyboard(b.MainMenuButtons())
		b.send(msg)
	case "help", "menu":
		msg := tgbotapi.NewMessage(chatID, helpText)
		msg.ReplyMarkup = createKeyboard(b.MainMenuButtons())
		b.send(msg)
	case "lessons":
		b.showLessons(chatID)
	case "study":
		filter, err := models.ParseLessonFilter(args)
		if err != nil {
			b.send(tgbotapi.NewMessage(chatID, "Usage: /study [lesson number]"))
			return
		}
		b.registerLearner(message)
		b.startStudy(chatID, filter)
	case "stats":
		filter, err := models.ParseLessonFilter(args)
		if err != nil {
			b.send(tgbotapi.NewMessage(chatID, "Usage: /stats [lesson number]"))
			return
		}
		b.showStats(chatID, filter)
	case "mode":
		switch args {
		case "term":
			b.setMode(chatID, session.TermFirst)
		case "def":
			b.setMode(chatID, session.DefinitionFirst)
		default:
			b.send(tgbotapi.NewMessage(chatID, "Usage: /mode term|def"))
		}
	case "reset":
		msg := tgbotapi.NewMessage(chatID, "Are you sure you want to reset all the cards you marked as known?")
		msg.ReplyMarkup = createKeyboard([][]MenuButton{{
			{Text: "✅ Yes, reset", CallbackData: "reset_confirm"},
			{Text: "❌ Cancel", CallbackData: "reset_cancel"},
		}})
		b.send(msg)
	case "remind":
		b.handleRemind(chatID, args)
	case "admin_stats":
		if message.From == nil || !b.isAdmin(message.From.ID) {
			b.send(tgbotapi.NewMessage(chatID, "This command is only available for administrators."))
			return
		}
		b.handleAdminStats(chatID)
	default:
		b.send(tgbotapi.NewMessage(chatID, "Unknown command. Use /help to see the commands."))
	}
}

// handleCallbackQuery handles presses on inline buttons
func (b *Bot) handleCallbackQuery(callback *tgbotapi.CallbackQuery) {
	if callback.Message == nil {
		return
	}
	chatID := callback.Message.Chat.ID
	notice := ""

	switch data := callback.Data; {
	case data == "main_menu":
		msg := tgbotapi.NewMessage(chatID, "Main Menu - choose an option:")
		msg.ReplyMarkup = createKeyboard(b.MainMenuButtons())
		b.send(msg)
	case data == "lessons":
		b.showLessons(chatID)
	case data == "show_stats":
		b.showStats(chatID, models.AllLessons())
	case data == "study_all":
		b.startStudy(chatID, models.AllLessons())
	case data == "study_again":
		filter := models.AllLessons()
		if st := b.chat(chatID); st.session != nil {
			filter = st.session.Filter
		}
		b.startStudy(chatID, filter)
	case strings.HasPrefix(data, "study_"):
		lesson, err := strconv.Atoi(strings.TrimPrefix(data, "study_"))
		if err != nil {
			log.Printf("Error parsing lesson: %v", err)
			break
		}
		b.startStudy(chatID, models.ForLesson(lesson))
	case data == "flip":
		notice = b.flip(chatID)
	case data == "know":
		notice = b.markKnown(chatID)
	case strings.HasPrefix(data, "rate_"):
		rating, err := strconv.Atoi(strings.TrimPrefix(data, "rate_"))
		if err != nil {
			log.Printf("Error parsing rating: %v", err)
			break
		}
		notice = b.rate(chatID, spaced_repetition.Rating(rating))
	case data == "mode_term":
		b.setMode(chatID, session.TermFirst)
	case data == "mode_def":
		b.setMode(chatID, session.DefinitionFirst)
	case data == "reset_confirm":
		b.chat(chatID).scheduler.ResetKnown()
		b.send(tgbotapi.NewMessage(chatID, "Your known cards were reset."))
	case data == "reset_cancel":
		notice = "Cancelled"
	}

	if _, err := b.api.Request(tgbotapi.NewCallback(callback.ID, notice)); err != nil {
		log.Printf("Error answering callback: %v", err)
	}
}

// MainMenuButtons returns the buttons for the main menu
func (b *Bot) MainMenuButtons() [][]MenuButton {
	return [][]MenuButton{
		{
			{Text: "🎯 Study all", CallbackData: "study_all"},
			{Text: "📚 Lessons", CallbackData: "lessons"},
		},
		{
			{Text: "📊 Statistics", CallbackData: "show_stats"},
		},
	}
}

func (b *Bot) registerLearner(message *tgbotapi.Message) {
	learner := &models.Learner{ChatID: message.Chat.ID, NotificationEnabled: true}
	if message.From != nil {
		learner.Username = message.From.UserName
		learner.FirstName = message.From.FirstName
	}
	if err := b.learners.Register(learner); err != nil {
		log.Printf("Error registering learner: %v", err)
	}
}

func (b *Bot) showLessons(chatID int64) {
	lessons := cardstore.Lessons(b.catalog)
	if len(lessons) == 0 {
		b.send(tgbotapi.NewMessage(chatID, "No flashcards are available right now."))
		return
	}

	rows := [][]MenuButton{{{Text: fmt.Sprintf("All lessons (%d)", len(b.catalog)), CallbackData: "study_all"}}}
	for _, l := range lessons {
		rows = append(rows, []MenuButton{{
			Text:         fmt.Sprintf("Lesson %d (%d)", l.Lesson, l.Cards),
			CallbackData: fmt.Sprintf("study_%d", l.Lesson),
		}})
	}

	msg := tgbotapi.NewMessage(chatID, "Choose a lesson:")
	msg.ReplyMarkup = createKeyboard(rows)
	b.send(msg)
}

func (b *Bot) showStats(chatID int64, filter models.LessonFilter) {
	st := b.chat(chatID)
	stats := st.scheduler.Store().Stats(b.catalog, filter)
	due := len(st.scheduler.DueCards(b.catalog, filter))

	text := fmt.Sprintf("📊 Lesson: %s\n\nTotal cards: %d\nKnown: %d\nLeft to study: %d\nDue for review: %d\nMastered by schedule: %d",
		filter, stats.Total, stats.Known, stats.Remaining, due, st.scheduler.MasteredCount(b.catalog))
	msg := tgbotapi.NewMessage(chatID, text)
	if stats.Remaining > 0 {
		msg.ReplyMarkup = createKeyboard([][]MenuButton{{{
			Text:         fmt.Sprintf("▶️ Start studying (%d cards)", stats.Remaining),
			CallbackData: studyCallback(filter),
		}}})
	}
	b.send(msg)
}

func studyCallback(filter models.LessonFilter) string {
	if filter.All {
		return "study_all"
	}
	return fmt.Sprintf("study_%d", filter.Lesson)
}

func (b *Bot) startStudy(chatID int64, filter models.LessonFilter) {
	st := b.chat(chatID)

	sess, err := st.scheduler.StartSession(b.catalog, filter)
	if errors.Is(err, session.ErrEmptyPool) {
		msg := tgbotapi.NewMessage(chatID, "No cards to study! Try /reset to bring back the cards you know.")
		b.send(msg)
		return
	}
	if err != nil {
		log.Printf("Error starting session for chat %d: %v", chatID, err)
		return
	}

	sess.Mode = st.mode
	st.session = sess
	st.flipped = false
	b.showCard(chatID, st)
}

func (b *Bot) showCard(chatID int64, st *chatState) {
	question, _, err := st.session.Prompt()
	if err != nil {
		b.showComplete(chatID, st)
		return
	}

	pos, total := st.session.Progress()
	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("Card %d / %d\n\n%s", pos, total, question))
	msg.ReplyMarkup = createKeyboard([][]MenuButton{
		{{Text: "🔄 Show answer", CallbackData: "flip"}},
		{{Text: "✅ I know this", CallbackData: "know"}},
	})
	b.send(msg)
}

func (b *Bot) flip(chatID int64) string {
	st := b.chat(chatID)
	if st.session == nil || st.session.Done() {
		return "No active session. Use /study to start."
	}

	question, answer, err := st.session.Prompt()
	if err != nil {
		return "No active session. Use /study to start."
	}
	st.flipped = true

	text := fmt.Sprintf("%s\n\n%s", question, answer)
	if card, err := st.session.CurrentCard(); err == nil && b.botCfg.ShowVideoLinks && card.HasVideo() {
		text += fmt.Sprintf("\n\n▶️ Watch (%s): %s", card.Timestamp, card.VideoURL())
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = createKeyboard(ratingButtons())
	b.send(msg)
	return ""
}

func ratingButtons() [][]MenuButton {
	return [][]MenuButton{
		{
			{Text: "😵 Again", CallbackData: "rate_0"},
			{Text: "😕 Hard", CallbackData: "rate_1"},
			{Text: "🙂 Good", CallbackData: "rate_2"},
			{Text: "😎 Perfect", CallbackData: "rate_3"},
		},
		{{Text: "✅ I know this", CallbackData: "know"}},
	}
}

func (b *Bot) rate(chatID int64, rating spaced_repetition.Rating) string {
	st := b.chat(chatID)
	if st.session == nil || st.session.Done() {
		return "No active session. Use /study to start."
	}
	if !st.flipped {
		return "Show the answer first"
	}

	if err := st.session.Rate(rating); err != nil {
		log.Printf("Error rating card in chat %d: %v", chatID, err)
		return "Could not save the rating"
	}
	b.advance(chatID, st)
	return ""
}

func (b *Bot) markKnown(chatID int64) string {
	st := b.chat(chatID)
	if st.session == nil || st.session.Done() {
		return "No active session. Use /study to start."
	}

	if err := st.session.MarkKnown(); err != nil {
		log.Printf("Error marking card known in chat %d: %v", chatID, err)
		return ""
	}
	b.advance(chatID, st)
	return "Marked as known"
}

func (b *Bot) advance(chatID int64, st *chatState) {
	st.flipped = false
	if _, err := st.session.Advance(); errors.Is(err, session.ErrSessionComplete) {
		b.showComplete(chatID, st)
		return
	}
	b.showCard(chatID, st)
}

func (b *Bot) showComplete(chatID int64, st *chatState) {
	summary := st.session.Summary()
	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("🎉 Session complete!\n\nReviewed: %d\nMarked as known: %d",
		summary.Reviewed, summary.MarkedKnown))
	msg.ReplyMarkup = createKeyboard([][]MenuButton{{
		{Text: "🔁 Study again", CallbackData: "study_again"},
		{Text: "🏠 Menu", CallbackData: "main_menu"},
	}})
	b.send(msg)
}

func (b *Bot) setMode(chatID int64, mode session.Mode) {
	st := b.chat(chatID)
	st.mode = mode
	if st.session != nil {
		st.session.Mode = mode
	}

	text := "Showing the term first."
	if mode == session.DefinitionFirst {
		text = "Showing the definition first."
	}
	b.send(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) handleRemind(chatID int64, args string) {
	var enabled bool
	switch args {
	case "on":
		enabled = true
	case "off":
		enabled = false
	case "":
		if b.scheduler == nil {
			b.send(tgbotapi.NewMessage(chatID, "Reminders are disabled on this bot."))
			return
		}
		if err := b.scheduler.RunManualCheck(chatID); err != nil {
			log.Printf("Error running manual check for chat %d: %v", chatID, err)
		}
		return
	default:
		b.send(tgbotapi.NewMessage(chatID, "Usage: /remind on|off"))
		return
	}

	if err := b.learners.SetNotifications(chatID, enabled); err != nil {
		log.Printf("Error updating reminders for chat %d: %v", chatID, err)
		b.send(tgbotapi.NewMessage(chatID, "Send /start first."))
		return
	}
	if enabled {
		b.send(tgbotapi.NewMessage(chatID, "Reminders are on."))
	} else {
		b.send(tgbotapi.NewMessage(chatID, "Reminders are off."))
	}
}

func (b *Bot) handleAdminStats(chatID int64) {
	learners, err := b.learners.GetForNotification()
	if err != nil {
		log.Printf("Error getting learners: %v", err)
		return
	}

	b.mu.Lock()
	active := len(b.chats)
	b.mu.Unlock()

	text := fmt.Sprintf("Catalog: %d cards in %d lessons\nLearners with reminders: %d\nChats since start: %d",
		len(b.catalog), len(cardstore.Lessons(b.catalog)), len(learners), active)
	b.send(tgbotapi.NewMessage(chatID, text))
}
