// Package notification delivers out-of-band alerts to the human operating the
// agent. Booking is time-critical; log output alone is easy to miss.
package notification

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Notifier sends a short text message to the user.
type Notifier interface {
	Notify(text string) error
}

// TelegramNotifier posts messages through the Telegram bot API.
type TelegramNotifier struct {
	apiToken   string
	chatID     string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewTelegramNotifier creates a notifier for the given bot token and chat.
// An empty token yields a notifier that drops messages silently.
func NewTelegramNotifier(apiToken, chatID string, logger zerolog.Logger) *TelegramNotifier {
	return &TelegramNotifier{
		apiToken: apiToken,
		chatID:   chatID,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: logger,
	}
}

// Notify sends the text via sendMessage.
func (t *TelegramNotifier) Notify(text string) error {
	if t.apiToken == "" {
		t.logger.Trace().Str("text", text).Msg("No Telegram token configured, dropping notification")
		return nil
	}

	endpoint := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", t.apiToken)
	form := url.Values{
		"chat_id": {t.chatID},
		"text":    {text},
	}

	resp, err := t.httpClient.Post(endpoint, "application/x-www-form-urlencoded",
		strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram sendMessage returned status %d", resp.StatusCode)
	}

	t.logger.Debug().Msg("Telegram notification sent")
	return nil
}
