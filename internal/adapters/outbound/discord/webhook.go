package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charleschow/lol-valuebets/internal/events"
	"github.com/charleschow/lol-valuebets/internal/telemetry"
)

type Notifier struct {
	webhookURL string
	httpClient *http.Client
}

func NewNotifier(webhookURL string) *Notifier {
	return &Notifier{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (n *Notifier) Enabled() bool { return n.webhookURL != "" }

type Embed struct {
	Title       string  `json:"title,omitempty"`
	Description string  `json:"description,omitempty"`
	Color       int     `json:"color,omitempty"`
	Fields      []Field `json:"fields,omitempty"`
	Timestamp   string  `json:"timestamp,omitempty"`
}

type Field struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type webhookPayload struct {
	Content string  `json:"content,omitempty"`
	Embeds  []Embed `json:"embeds,omitempty"`
}

func (n *Notifier) SendText(ctx context.Context, msg string) error {
	return n.send(ctx, webhookPayload{Content: msg})
}

func (n *Notifier) SendEmbed(ctx context.Context, embed Embed) error {
	if embed.Timestamp == "" {
		embed.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	return n.send(ctx, webhookPayload{Embeds: []Embed{embed}})
}

func (n *Notifier) send(ctx context.Context, payload webhookPayload) error {
	if !n.Enabled() {
		return nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal discord payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("discord webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		telemetry.Warnf("discord: rate limited")
		return fmt.Errorf("discord rate limited")
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("discord webhook: status=%d", resp.StatusCode)
	}

	return nil
}

// --- Bet alerts ---

const (
	ColorGreen  = 0x2ECC71
	ColorRed    = 0xE74C3C
	ColorYellow = 0xF1C40F
	ColorBlue   = 0x3498DB
	ColorGrey   = 0x95A5A6
)

const notifyTimeout = 10 * time.Second

// Subscribe posts an embed for every new and settled bet. Delivery errors
// are returned to the bus, which counts and logs them; they never reach the
// ledger.
func (n *Notifier) Subscribe(bus *events.Bus) {
	if !n.Enabled() {
		return
	}
	bus.Subscribe(events.EventBetCreated, func(evt events.Event) error {
		p, ok := evt.Payload.(events.BetCreatedEvent)
		if !ok {
			return nil
		}
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		return n.BetCreated(ctx, p)
	})
	bus.Subscribe(events.EventBetSettled, func(evt events.Event) error {
		p, ok := evt.Payload.(events.BetSettledEvent)
		if !ok {
			return nil
		}
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		return n.BetSettled(ctx, p)
	})
}

func (n *Notifier) BetCreated(ctx context.Context, e events.BetCreatedEvent) error {
	b := e.Bet
	fields := []Field{
		{Name: "League", Value: b.League, Inline: true},
		{Name: "Start", Value: b.StartTime.UTC().Format("2006-01-02 15:04 MST"), Inline: true},
		{Name: "Market", Value: b.Market(), Inline: false},
		{Name: "Price", Value: fmt.Sprintf("%.2f", b.Price), Inline: true},
		{Name: "EV", Value: fmt.Sprintf("%+.1f%%", b.EV*100), Inline: true},
		{Name: "Empirical", Value: fmt.Sprintf("%.1f%%", b.EmpiricalProb*100), Inline: true},
	}
	if b.ModelProb != nil {
		fields = append(fields, Field{Name: "Model", Value: fmt.Sprintf("%.1f%%", *b.ModelProb*100), Inline: true})
	}
	fields = append(fields, Field{Name: "Method", Value: b.Method, Inline: true})
	return n.SendEmbed(ctx, Embed{
		Title:  fmt.Sprintf("Value Bet — %s", b.Matchup()),
		Color:  ColorBlue,
		Fields: fields,
	})
}

func (n *Notifier) BetSettled(ctx context.Context, e events.BetSettledEvent) error {
	b := e.Bet
	color := ColorGrey
	switch e.NewStatus {
	case "won":
		color = ColorGreen
	case "lost":
		color = ColorRed
	}
	fields := []Field{
		{Name: "Market", Value: b.Market(), Inline: false},
		{Name: "Price", Value: fmt.Sprintf("%.2f", b.Price), Inline: true},
	}
	if e.Realized != nil {
		fields = append(fields, Field{Name: "Result", Value: fmt.Sprintf("%g", *e.Realized), Inline: true})
	}
	if e.Winner != "" {
		fields = append(fields, Field{Name: "Winner", Value: e.Winner, Inline: true})
	}
	return n.SendEmbed(ctx, Embed{
		Title:       fmt.Sprintf("Bet %s — %s", strings.ToUpper(e.NewStatus), b.Matchup()),
		Description: fmt.Sprintf("%s → %s", e.OldStatus, e.NewStatus),
		Color:       color,
		Fields:      fields,
	})
}
