package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// TelegramNotifier sends messages and chart photos via the Telegram Bot
// API. ErrorChatID, when set, receives fatal-error and degradation
// reports.
type TelegramNotifier struct {
	BotToken    string
	ChatID      string
	ErrorChatID string
	BaseURL     string
	Client      *http.Client
	Backoff     time.Duration
}

// NewTelegramNotifier creates a notifier for the given bot and chats.
func NewTelegramNotifier(botToken, chatID, errorChatID string) *TelegramNotifier {
	return &TelegramNotifier{
		BotToken:    botToken,
		ChatID:      chatID,
		ErrorChatID: errorChatID,
		BaseURL:     "https://api.telegram.org",
		Client:      &http.Client{Timeout: 30 * time.Second},
		Backoff:     time.Second,
	}
}

func (t *TelegramNotifier) apiURL(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", t.BaseURL, t.BotToken, method)
}

// Send sends an HTML-formatted message to the configured chat.
func (t *TelegramNotifier) Send(text string) error {
	return t.sendTo(t.ChatID, text)
}

// SendError best-effort reports to the error chat; falls back to the main
// chat when no error chat is configured. Failures are logged, never
// propagated.
func (t *TelegramNotifier) SendError(text string) {
	chatID := t.ErrorChatID
	if chatID == "" {
		chatID = t.ChatID
	}
	if err := t.sendTo(chatID, text); err != nil {
		log.Printf("[ERROR] send error report: %v", err)
	}
}

func (t *TelegramNotifier) sendTo(chatID, text string) error {
	payload := map[string]string{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": "HTML",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	resp, err := t.Client.Post(t.apiURL("sendMessage"), "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("telegram API error: status %d, body: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// SendPhoto uploads the image at path with an HTML caption.
func (t *TelegramNotifier) SendPhoto(path, caption string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open photo: %w", err)
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range map[string]string{
		"chat_id":    t.ChatID,
		"caption":    caption,
		"parse_mode": "HTML",
	} {
		if err := writer.WriteField(key, value); err != nil {
			return fmt.Errorf("write field %s: %w", key, err)
		}
	}
	part, err := writer.CreateFormFile("photo", filepath.Base(path))
	if err != nil {
		return fmt.Errorf("create photo part: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("copy photo: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close multipart: %w", err)
	}

	resp, err := t.Client.Post(t.apiURL("sendPhoto"), writer.FormDataContentType(), &buf)
	if err != nil {
		return fmt.Errorf("send photo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("telegram API error: status %d, body: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// SendWithRetry sends a message with exponential backoff retry. The alert
// composer routes its text dispatch through it so a transient Telegram
// outage does not drop a breakout notification.
func (t *TelegramNotifier) SendWithRetry(ctx context.Context, text string, maxRetries int) error {
	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		if err := t.Send(text); err != nil {
			lastErr = err
			backoff := t.Backoff << uint(i)
			log.Printf("[WARN] Telegram send failed (attempt %d/%d): %v, retrying in %v", i+1, maxRetries+1, err, backoff)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
				continue
			}
		}
		return nil
	}
	return fmt.Errorf("all %d retries exhausted: %w", maxRetries+1, lastErr)
}
