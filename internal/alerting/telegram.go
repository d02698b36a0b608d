package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// TelegramNotifier posts breach messages through the Bot API.
type TelegramNotifier struct {
	botToken string
	chatID   string
	apiBase  string
	client   *http.Client
	logger   zerolog.Logger
}

// NewTelegramNotifier constructs a notifier for one bot/chat pair.
func NewTelegramNotifier(botToken, chatID, apiBase string, timeout time.Duration, logger zerolog.Logger) *TelegramNotifier {
	if apiBase == "" {
		apiBase = "https://api.telegram.org"
	}
	return &TelegramNotifier{
		botToken: botToken,
		chatID:   chatID,
		apiBase:  apiBase,
		client:   &http.Client{Timeout: timeout},
		logger:   logger.With().Str("component", "telegram").Logger(),
	}
}

// Notify sends one breach message.
func (t *TelegramNotifier) Notify(ctx context.Context, note Notification) error {
	text := fmt.Sprintf(
		"Deformation alert: %s/%s %s = %.1f mm on %s (threshold %.1f mm)",
		note.Station, note.Frame, note.Component,
		note.ValueMM, note.Date.Format("2006-01-02"), note.ThresholdMM,
	)
	if note.Outlier {
		text += " [flagged outlier]"
	}

	payload, err := json.Marshal(map[string]string{
		"chat_id": t.chatID,
		"text":    text,
	})
	if err != nil {
		return fmt.Errorf("marshal telegram payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.apiBase, t.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	defer resp.Body.Close()

	var body struct {
		OK          bool   `json:"ok"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("decode telegram response: %w", err)
	}
	if !body.OK {
		return fmt.Errorf("telegram rejected message: %s", body.Description)
	}

	t.logger.Debug().Str("station", note.Station).Msg("alert dispatched")
	return nil
}

var _ Notifier = (*TelegramNotifier)(nil)
