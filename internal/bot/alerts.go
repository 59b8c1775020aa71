package bot

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	tele "gopkg.in/telebot.v3"
)

type messageSender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

var htmlSendOptions = &tele.SendOptions{
	ParseMode:             tele.ModeHTML,
	DisableWebPagePreview: true,
}

// AlertDispatcher delivers reports to the configured primary chat and any
// chats that subscribed via /alerts on.
type AlertDispatcher struct {
	sender      messageSender
	primaryChat int64

	mu          sync.RWMutex
	subscribers map[int64]struct{}
}

func NewAlertDispatcher(sender messageSender, primaryChat int64) *AlertDispatcher {
	return &AlertDispatcher{
		sender:      sender,
		primaryChat: primaryChat,
		subscribers: make(map[int64]struct{}),
	}
}

func (d *AlertDispatcher) Subscribe(chatID int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.subscribers[chatID]; exists {
		return false
	}
	d.subscribers[chatID] = struct{}{}
	return true
}

func (d *AlertDispatcher) Unsubscribe(chatID int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.subscribers[chatID]; !exists {
		return false
	}
	delete(d.subscribers, chatID)
	return true
}

func (d *AlertDispatcher) IsSubscribed(chatID int64) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	_, exists := d.subscribers[chatID]
	return exists
}

func (d *AlertDispatcher) SubscriberCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.subscribers)
}

// BroadcastReport sends one HTML report to every recipient. Delivery is
// best effort: failures are collected and returned but do not stop the
// remaining sends.
func (d *AlertDispatcher) BroadcastReport(ctx context.Context, body string) error {
	_ = ctx
	if d == nil || d.sender == nil || body == "" {
		return nil
	}

	chatIDs := d.recipients()
	if len(chatIDs) == 0 {
		return nil
	}

	var failures []string
	for _, chatID := range chatIDs {
		if _, err := d.sender.Send(&tele.Chat{ID: chatID}, body, htmlSendOptions); err != nil {
			failures = append(failures, fmt.Sprintf("chat %d: %v", chatID, err))
		}
	}
	if len(failures) > 0 {
		return fmt.Errorf("failed sending %d alerts: %s", len(failures), strings.Join(failures, "; "))
	}
	return nil
}

func (d *AlertDispatcher) recipients() []int64 {
	d.mu.RLock()
	defer d.mu.RUnlock()

	seen := make(map[int64]struct{}, len(d.subscribers)+1)
	chatIDs := make([]int64, 0, len(d.subscribers)+1)
	if d.primaryChat != 0 {
		seen[d.primaryChat] = struct{}{}
		chatIDs = append(chatIDs, d.primaryChat)
	}
	for chatID := range d.subscribers {
		if _, ok := seen[chatID]; ok {
			continue
		}
		chatIDs = append(chatIDs, chatID)
	}
	sort.Slice(chatIDs, func(i, j int) bool { return chatIDs[i] < chatIDs[j] })
	return chatIDs
}

func parseAlertMode(args []string) (string, error) {
	if len(args) == 0 {
		return "status", nil
	}

	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "on":
		return "on", nil
	case "off":
		return "off", nil
	case "status":
		return "status", nil
	default:
		return "", fmt.Errorf("invalid mode")
	}
}
