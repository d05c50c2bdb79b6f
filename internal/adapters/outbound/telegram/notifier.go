package telegram

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/charleschow/lol-valuebets/internal/events"
	"github.com/charleschow/lol-valuebets/internal/telemetry"
)

// Telegram allows ~30 messages/min per chat; stay well under it.
const DefaultSendInterval = 2 * time.Second

var (
	ErrQueueFull = errors.New("telegram: send queue full")
	ErrClosed    = errors.New("telegram: notifier closed")
)

// Notifier posts bet alerts to one chat. Sends go through a buffered queue
// drained by a single goroutine so bus handlers never block on Telegram.
type Notifier struct {
	bot      *tgbotapi.BotAPI
	chatID   int64
	interval time.Duration

	mu     sync.Mutex
	closed bool
	queue  chan string
	done   chan struct{}
}

// New authorizes the bot token and starts the sender.
func New(token string, chatID int64) (*Notifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return NewWithBot(bot, chatID, DefaultSendInterval)
}

func NewWithBot(bot *tgbotapi.BotAPI, chatID int64, interval time.Duration) (*Notifier, error) {
	bot.Debug = false
	me, err := bot.GetMe()
	if err != nil {
		return nil, fmt.Errorf("telegram getMe: %w", err)
	}
	n := &Notifier{
		bot:      bot,
		chatID:   chatID,
		interval: interval,
		queue:    make(chan string, 100),
		done:     make(chan struct{}),
	}
	go n.sender()
	telemetry.Infof("telegram: authorized as @%s, chat=%d", me.UserName, chatID)
	return n, nil
}

func (n *Notifier) sender() {
	defer close(n.done)
	var last time.Time
	for text := range n.queue {
		if wait := n.interval - time.Since(last); wait > 0 {
			time.Sleep(wait)
		}
		msg := tgbotapi.NewMessage(n.chatID, text)
		msg.ParseMode = tgbotapi.ModeHTML
		msg.DisableWebPagePreview = true
		if _, err := n.bot.Send(msg); err != nil {
			telemetry.Metrics.NotifyFailures.Inc()
			telemetry.Warnf("telegram: send failed: %v", err)
		}
		last = time.Now()
	}
}

// Close stops accepting messages and waits for the queue to drain.
func (n *Notifier) Close() {
	n.mu.Lock()
	if !n.closed {
		n.closed = true
		close(n.queue)
	}
	n.mu.Unlock()
	<-n.done
}

func (n *Notifier) enqueue(text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return ErrClosed
	}
	select {
	case n.queue <- text:
		return nil
	default:
		return ErrQueueFull
	}
}

// Subscribe queues a message for every new and settled bet.
func (n *Notifier) Subscribe(bus *events.Bus) {
	bus.Subscribe(events.EventBetCreated, func(evt events.Event) error {
		if p, ok := evt.Payload.(events.BetCreatedEvent); ok {
			return n.enqueue(formatCreated(p))
		}
		return nil
	})
	bus.Subscribe(events.EventBetSettled, func(evt events.Event) error {
		if p, ok := evt.Payload.(events.BetSettledEvent); ok {
			return n.enqueue(formatSettled(p))
		}
		return nil
	})
}

func formatCreated(e events.BetCreatedEvent) string {
	b := e.Bet
	var sb strings.Builder
	fmt.Fprintf(&sb, "🎯 <b>%s</b> (%s)\n", esc(b.Matchup()), esc(b.League))
	fmt.Fprintf(&sb, "%s @ <b>%.2f</b>\n", esc(b.Market()), b.Price)
	fmt.Fprintf(&sb, "EV %+.1f%% | emp %.1f%%", b.EV*100, b.EmpiricalProb*100)
	if b.ModelProb != nil {
		fmt.Fprintf(&sb, " | model %.1f%%", *b.ModelProb*100)
	}
	fmt.Fprintf(&sb, "\nStart %s", b.StartTime.UTC().Format("Jan 2 15:04 MST"))
	return sb.String()
}

func formatSettled(e events.BetSettledEvent) string {
	b := e.Bet
	icon := "⚪"
	switch e.NewStatus {
	case "won":
		icon = "✅"
	case "lost":
		icon = "❌"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s <b>%s</b> %s\n", icon, strings.ToUpper(e.NewStatus), esc(b.Matchup()))
	fmt.Fprintf(&sb, "%s @ %.2f", esc(b.Market()), b.Price)
	if e.Realized != nil {
		fmt.Fprintf(&sb, "\nResult: %g", *e.Realized)
	}
	if e.Winner != "" {
		fmt.Fprintf(&sb, "\nWinner: %s", esc(e.Winner))
	}
	return sb.String()
}

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func esc(s string) string { return htmlEscaper.Replace(s) }
