package bot

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/example/psychstudy/internal/cardstore"
	"github.com/example/psychstudy/internal/config"
	"github.com/example/psychstudy/internal/database"
	"github.com/example/psychstudy/internal/scheduler"
	"github.com/example/psychstudy/internal/session"
	"github.com/example/psychstudy/internal/spaced_repetition"
	"github.com/example/psychstudy/pkg/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jmoiron/sqlx"
)

// sender is the part of the Telegram API the bot uses
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// MenuButton represents a button in the menu
type MenuButton struct {
	Text         string
	CallbackData string
}

// createKeyboard creates a keyboard from menu buttons
func createKeyboard(buttons [][]MenuButton) tgbotapi.InlineKeyboardMarkup {
	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, row := range buttons {
		var keyboardRow []tgbotapi.InlineKeyboardButton
		for _, button := range row {
			keyboardRow = append(keyboardRow, tgbotapi.NewInlineKeyboardButtonData(button.Text, button.CallbackData))
		}
		keyboard = append(keyboard, keyboardRow)
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}

// chatState is the study state of one chat
type chatState struct {
	scheduler *session.Scheduler
	session   *session.Session
	mode      session.Mode
	flipped   bool
}

// Bot is the Telegram front-end of the flashcard engine
type Bot struct {
	api              sender
	token            string
	db               *sqlx.DB
	learners         *database.LearnerRepository
	catalog          []models.Card
	sm2              *spaced_repetition.SM2
	adminUserIDs     map[int64]bool
	schedulerEnabled bool
	scheduler        *scheduler.Scheduler
	cfg              *config.Config
	botCfg           *BotConfig

	mu    sync.Mutex
	chats map[int64]*chatState
}

// New creates a bot instance. The catalog must be fully loaded.
func New(cfg *config.Config, db *sqlx.DB, catalog []models.Card) (*Bot, error) {
	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable is not set")
	}
	if db == nil {
		return nil, fmt.Errorf("database connection is not established")
	}

	sm2 := spaced_repetition.NewSM2()
	sm2.PassThreshold = spaced_repetition.Rating(cfg.PassThreshold)

	return &Bot{
		token:            cfg.TelegramToken,
		db:               db,
		learners:         database.NewLearnerRepository(db),
		catalog:          catalog,
		sm2:              sm2,
		adminUserIDs:     cfg.AdminUserIDs,
		schedulerEnabled: cfg.EnableScheduler,
		cfg:              cfg,
		botCfg:           DefaultConfig(),
		chats:            make(map[int64]*chatState),
	}, nil
}

// Start connects to Telegram and handles updates until ctx is cancelled
func (b *Bot) Start(ctx context.Context) error {
	botAPI, err := tgbotapi.NewBotAPI(b.token)
	if err != nil {
		return fmt.Errorf("unable to create bot: %w", err)
	}

	b.api = botAPI
	log.Printf("Authorized on account %s", botAPI.Self.UserName)

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = b.botCfg.UpdateTimeout
	updates := botAPI.GetUpdatesChan(updateConfig)

	if b.schedulerEnabled {
		b.scheduler = scheduler.New(b.learners, b, b, b.cfg.NotificationStartHour, b.cfg.NotificationEndHour)
		if err := b.scheduler.Start(); err != nil {
			return fmt.Errorf("failed to start reminder scheduler: %w", err)
		}
		log.Println("Reminder scheduler started successfully")
	}

	for {
		select {
		case <-ctx.Done():
			botAPI.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(update)
		}
	}
}

// Stop gracefully stops the bot
func (b *Bot) Stop() {
	if b.scheduler != nil {
		b.scheduler.Stop()
	}
	log.Println("Bot stopped")
}

// chat returns the study state of a chat, creating it on first use.
// Each chat reads and writes its own storage namespace.
func (b *Bot) chat(chatID int64) *chatState {
	b.mu.Lock()
	defer b.mu.Unlock()

	st, ok := b.chats[chatID]
	if !ok {
		kv := database.NewKVRepository(b.db, models.LearnerNamespace(chatID))
		st = &chatState{
			scheduler: session.NewScheduler(cardstore.New(kv), session.WithSM2(b.sm2)),
			mode:      session.TermFirst,
		}
		b.chats[chatID] = st
	}
	return st
}

// DueCount returns how many cards are due for review in a chat
func (b *Bot) DueCount(chatID int64) (int, error) {
	return len(b.chat(chatID).scheduler.DueCards(b.catalog, models.AllLessons())), nil
}

// SendReminders tells a learner how many cards are waiting
func (b *Bot) SendReminders(chatID int64, count int) error {
	cardForm := "cards"
	if count == 1 {
		cardForm = "card"
	}

	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("You have %d %s due for review! Use /study to start.", count, cardForm))
	_, err := b.api.Send(msg)
	if err != nil {
		log.Printf("Error sending reminder to chat %d: %v", chatID, err)
	} else {
		log.Printf("Successfully sent reminder to chat %d for %d cards", chatID, count)
	}
	return err
}

// isAdmin checks if a user is an admin
func (b *Bot) isAdmin(userID int64) bool {
	return b.adminUserIDs[userID]
}

func (b *Bot) send(c tgbotapi.Chattable) {
	if _, err := b.api.Send(c); err != nil {
		log.Printf("Error sending message: %v", err)
	}
}
