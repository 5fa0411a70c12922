package bot

// BotConfig represents the Telegram-specific settings of the bot
type BotConfig struct {
	// Long polling timeout in seconds
	UpdateTimeout int
	// Attach the lecture video link when a card is flipped
	ShowVideoLinks bool
}

// DefaultConfig returns the default bot configuration
func DefaultConfig() *BotConfig {
	return &BotConfig{
		UpdateTimeout:  60,
		ShowVideoLinks: true,
	}
}
