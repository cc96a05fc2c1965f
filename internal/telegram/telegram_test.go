package telegram

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"yagpt-bot/internal/bot"
)

type stubAPI struct {
	mu       sync.Mutex
	sent     []tgbotapi.MessageConfig
	requests []tgbotapi.Chattable
	calls    []string
	params   []tgbotapi.Params
	sendErr  error
	updates  chan tgbotapi.Update
	stopped  bool
}

func (s *stubAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sendErr != nil {
		return tgbotapi.Message{}, s.sendErr
	}
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		s.sent = append(s.sent, msg)
	}
	return tgbotapi.Message{}, nil
}

func (s *stubAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, c)
	s.calls = append(s.calls, "request")
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (s *stubAPI) MakeRequest(endpoint string, params tgbotapi.Params) (*tgbotapi.APIResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, endpoint)
	s.params = append(s.params, params)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (s *stubAPI) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return s.updates
}

func (s *stubAPI) StopReceivingUpdates() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
}

func (s *stubAPI) sentMessages() []tgbotapi.MessageConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]tgbotapi.MessageConfig(nil), s.sent...)
}

type echoHandler struct {
	mu  sync.Mutex
	got []bot.Inbound
}

func (e *echoHandler) Handle(ctx context.Context, in bot.Inbound) bot.Reply {
	e.mu.Lock()
	e.got = append(e.got, in)
	e.mu.Unlock()
	return bot.Reply{ChatID: in.ChatID, ReplyTo: in.MessageID, Text: "echo: " + in.Text}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func textUpdate(chatID, userID int64, messageID int, text string) tgbotapi.Update {
	return tgbotapi.Update{
		UpdateID: messageID,
		Message: &tgbotapi.Message{
			MessageID: messageID,
			From:      &tgbotapi.User{ID: userID},
			Chat:      &tgbotapi.Chat{ID: chatID},
			Text:      text,
		},
	}
}

func TestAdapter_ProcessUpdateRepliesToMessage(t *testing.T) {
	api := &stubAPI{}
	handler := &echoHandler{}
	adapter := NewAdapter(handler, NewSender(api), discardLogger())

	if !adapter.ProcessUpdate(context.Background(), textUpdate(10, 20, 7, "hi")) {
		t.Fatalf("expected update to be handled")
	}

	if len(handler.got) != 1 || handler.got[0] != (bot.Inbound{ChatID: 10, UserID: 20, MessageID: 7, Text: "hi"}) {
		t.Fatalf("unexpected inbound %+v", handler.got)
	}
	sent := api.sentMessages()
	if len(sent) != 1 {
		t.Fatalf("expected one message sent, got %d", len(sent))
	}
	if sent[0].ChatID != 10 || sent[0].ReplyToMessageID != 7 || sent[0].Text != "echo: hi" {
		t.Fatalf("unexpected message %+v", sent[0])
	}
	if sent[0].ParseMode != "" {
		t.Fatalf("replies must be plain text, got parse mode %q", sent[0].ParseMode)
	}
}

func TestAdapter_IgnoresNonTextUpdates(t *testing.T) {
	api := &stubAPI{}
	handler := &echoHandler{}
	adapter := NewAdapter(handler, NewSender(api), discardLogger())

	updates := []tgbotapi.Update{
		{UpdateID: 1},
		{UpdateID: 2, Message: &tgbotapi.Message{MessageID: 2, Chat: &tgbotapi.Chat{ID: 1}}},
		{UpdateID: 3, EditedMessage: &tgbotapi.Message{MessageID: 3, Chat: &tgbotapi.Chat{ID: 1}, Text: "edited"}},
	}
	for _, u := range updates {
		if adapter.ProcessUpdate(context.Background(), u) {
			t.Fatalf("update %d should be ignored", u.UpdateID)
		}
	}
	if len(handler.got) != 0 || len(api.sentMessages()) != 0 {
		t.Fatalf("ignored updates must not reach the dispatcher or send anything")
	}
}

func TestAdapter_SendFailureIsLogged(t *testing.T) {
	api := &stubAPI{sendErr: errors.New("Forbidden: bot was blocked by the user")}
	adapter := NewAdapter(&echoHandler{}, NewSender(api), discardLogger())

	if !adapter.ProcessUpdate(context.Background(), textUpdate(1, 1, 1, "hi")) {
		t.Fatalf("expected update to be handled even when sending fails")
	}
}

func TestSender_SplitsLongText(t *testing.T) {
	api := &stubAPI{}
	sender := NewSender(api)

	long := strings.Repeat("a", maxMessageRunes) + strings.Repeat("b", 10)
	if err := sender.SendReply(context.Background(), bot.Reply{ChatID: 5, ReplyTo: 9, Text: long}); err != nil {
		t.Fatalf("SendReply() error = %v", err)
	}

	sent := api.sentMessages()
	if len(sent) != 2 {
		t.Fatalf("expected two messages, got %d", len(sent))
	}
	if sent[0].ReplyToMessageID != 9 || sent[1].ReplyToMessageID != 0 {
		t.Fatalf("only the first chunk should be a reply")
	}
	if sent[0].Text+sent[1].Text != long {
		t.Fatalf("chunks do not reassemble the original text")
	}
}

func TestSplitText_PrefersNewlines(t *testing.T) {
	text := strings.Repeat("x", 8) + "\n" + strings.Repeat("y", 4)
	parts := splitText(text, 10)
	if len(parts) != 2 || parts[0] != strings.Repeat("x", 8)+"\n" || parts[1] != "yyyy" {
		t.Fatalf("unexpected parts %q", parts)
	}
	if got := splitText("short", 10); len(got) != 1 || got[0] != "short" {
		t.Fatalf("short text should not be split, got %q", got)
	}
}

func TestSender_SendTextIsStandalone(t *testing.T) {
	api := &stubAPI{}
	if err := NewSender(api).SendText(context.Background(), 42, "hello"); err != nil {
		t.Fatalf("SendText() error = %v", err)
	}
	sent := api.sentMessages()
	if len(sent) != 1 || sent[0].ChatID != 42 || sent[0].ReplyToMessageID != 0 {
		t.Fatalf("unexpected message %+v", sent)
	}
}

func newWebhookServer(t *testing.T, secret string) (*httptest.Server, *stubAPI, *echoHandler) {
	t.Helper()
	api := &stubAPI{}
	handler := &echoHandler{}
	wh := NewWebhookHandler("123:abc", secret, NewAdapter(handler, NewSender(api), discardLogger()), discardLogger())

	r := chi.NewRouter()
	r.Method(http.MethodPost, "/{"+TokenParam+"}", wh)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, api, handler
}

const sampleUpdate = `{"update_id":1,"message":{"message_id":3,"from":{"id":77,"is_bot":false,"first_name":"A"},"chat":{"id":77,"type":"private"},"date":1700000000,"text":"hello"}}`

func TestWebhookHandler(t *testing.T) {
	tests := []struct {
		name        string
		path        string
		contentType string
		body        string
		wantStatus  int
		wantSent    int
	}{
		{"valid update", "/123:abc", "application/json", sampleUpdate, http.StatusOK, 1},
		{"json with charset", "/123:abc", "application/json; charset=utf-8", sampleUpdate, http.StatusOK, 1},
		{"wrong token", "/999:zzz", "application/json", sampleUpdate, http.StatusNotFound, 0},
		{"not json", "/123:abc", "text/plain", "hello", http.StatusUnsupportedMediaType, 0},
		{"missing content type", "/123:abc", "", sampleUpdate, http.StatusUnsupportedMediaType, 0},
		{"malformed json", "/123:abc", "application/json", `{"update_id":`, http.StatusBadRequest, 0},
		{"update without message", "/123:abc", "application/json", `{"update_id":5}`, http.StatusOK, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv, api, _ := newWebhookServer(t, "")

			req, _ := http.NewRequest(http.MethodPost, srv.URL+tc.path, strings.NewReader(tc.body))
			if tc.contentType != "" {
				req.Header.Set("Content-Type", tc.contentType)
			}
			resp, err := srv.Client().Do(req)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()

			if resp.StatusCode != tc.wantStatus {
				t.Fatalf("expected status %d, got %d (%s)", tc.wantStatus, resp.StatusCode, body)
			}
			if tc.wantStatus == http.StatusOK && string(body) != "ok" {
				t.Fatalf("expected body ok, got %q", body)
			}
			if got := len(api.sentMessages()); got != tc.wantSent {
				t.Fatalf("expected %d messages sent, got %d", tc.wantSent, got)
			}
		})
	}
}

func TestWebhookHandler_SecretToken(t *testing.T) {
	srv, api, _ := newWebhookServer(t, "s3cret")

	post := func(secret string) int {
		req, _ := http.NewRequest(http.MethodPost, srv.URL+"/123:abc", strings.NewReader(sampleUpdate))
		req.Header.Set("Content-Type", "application/json")
		if secret != "" {
			req.Header.Set(SecretTokenHeader, secret)
		}
		resp, err := srv.Client().Do(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		resp.Body.Close()
		return resp.StatusCode
	}

	if code := post("wrong"); code != http.StatusForbidden {
		t.Fatalf("expected 403 for wrong secret, got %d", code)
	}
	if code := post(""); code != http.StatusForbidden {
		t.Fatalf("expected 403 for missing secret, got %d", code)
	}
	if code := post("s3cret"); code != http.StatusOK {
		t.Fatalf("expected 200 for matching secret, got %d", code)
	}
	if len(api.sentMessages()) != 1 {
		t.Fatalf("expected only the authorised update to be handled")
	}
}

func TestRegisterWebhook(t *testing.T) {
	api := &stubAPI{}
	if err := RegisterWebhook(api, "https://bot.example.com/123:abc", "s3cret"); err != nil {
		t.Fatalf("RegisterWebhook() error = %v", err)
	}

	if len(api.calls) != 2 || api.calls[0] != "request" || api.calls[1] != "setWebhook" {
		t.Fatalf("expected delete then set, got %v", api.calls)
	}
	if _, ok := api.requests[0].(tgbotapi.DeleteWebhookConfig); !ok {
		t.Fatalf("expected DeleteWebhookConfig, got %T", api.requests[0])
	}
	if api.params[0]["url"] != "https://bot.example.com/123:abc" || api.params[0]["secret_token"] != "s3cret" {
		t.Fatalf("unexpected setWebhook params %v", api.params[0])
	}
}

func TestPoller_RunHandlesUpdatesUntilCancelled(t *testing.T) {
	api := &stubAPI{updates: make(chan tgbotapi.Update, 2)}
	handler := &echoHandler{}
	poller := NewPoller(api, NewAdapter(handler, NewSender(api), discardLogger()), discardLogger())

	api.updates <- textUpdate(1, 1, 1, "first")
	api.updates <- textUpdate(2, 2, 2, "second")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- poller.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for len(api.sentMessages()) < 2 {
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for updates to be handled")
		case <-time.After(10 * time.Millisecond):
		}
	}
	cancel()

	if err := <-done; err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	sent := api.sentMessages()
	if sent[0].Text != "echo: first" || sent[1].Text != "echo: second" {
		t.Fatalf("updates must be handled in order, got %q then %q", sent[0].Text, sent[1].Text)
	}

	api.mu.Lock()
	defer api.mu.Unlock()
	if !api.stopped {
		t.Fatalf("expected StopReceivingUpdates to be called")
	}
	if _, ok := api.requests[0].(tgbotapi.DeleteWebhookConfig); !ok {
		t.Fatalf("expected polling to start by deleting the webhook")
	}
}
