package notify

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeSender struct {
	err  error
	sent []string
}

func (f *fakeSender) Send(_ context.Context, text string) error {
	f.sent = append(f.sent, text)
	return f.err
}

func TestNotifier_Delivered(t *testing.T) {
	s := &fakeSender{}
	n := New(s, zap.NewNop())
	if got := n.Notify(context.Background(), "hello"); got != Delivered {
		t.Fatalf("want delivered, got %s", got)
	}
	if len(s.sent) != 1 || s.sent[0] != "hello" {
		t.Fatalf("unexpected sends: %v", s.sent)
	}
	if !n.Configured() {
		t.Fatalf("expected configured notifier")
	}
}

func TestNotifier_UnconfiguredIsSkippedAndLogged(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	n := New(Unconfigured{Reason: "telegram token missing"}, zap.New(core))

	if got := n.Notify(context.Background(), "hello"); got != Skipped {
		t.Fatalf("want skipped, got %s", got)
	}
	if n.Configured() {
		t.Fatalf("expected unconfigured notifier")
	}
	entries := logs.FilterMessage("notify_skipped").All()
	if len(entries) != 1 || entries[0].ContextMap()["reason"] != "telegram token missing" {
		t.Fatalf("expected one notify_skipped entry with reason, got %+v", entries)
	}
}

func TestNotifier_TransportErrorIsFailed(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	n := New(&fakeSender{err: errors.New("chat not found")}, zap.New(core))

	if got := n.Notify(context.Background(), "hello"); got != Failed {
		t.Fatalf("want failed, got %s", got)
	}
	if logs.FilterMessage("notify_failed").Len() != 1 {
		t.Fatalf("expected notify_failed log")
	}
}

func TestNotifier_NilSenderDefaultsToUnconfigured(t *testing.T) {
	n := New(nil, nil)
	if got := n.Notify(context.Background(), "x"); got != Skipped {
		t.Fatalf("want skipped, got %s", got)
	}
}

func TestSelect(t *testing.T) {
	cases := []struct {
		name   string
		tg     TelegramOptions
		slack  string
		wantTG bool
		wantSl bool
	}{
		{"telegram", TelegramOptions{Token: "123:abc", ChatID: "42"}, "", true, false},
		{"telegram wins over slack", TelegramOptions{Token: "123:abc", ChatID: "42"}, "https://hooks", true, false},
		{"slack fallback", TelegramOptions{Token: "123:abc"}, "https://hooks", false, true},
		{"token only", TelegramOptions{Token: "123:abc"}, "", false, false},
		{"chat only", TelegramOptions{ChatID: "42"}, "", false, false},
		{"nothing", TelegramOptions{}, " ", false, false},
	}
	for _, c := range cases {
		s, err := Select(c.tg, c.slack)
		if err != nil {
			t.Fatalf("%s: %v", c.name, err)
		}
		_, isTG := s.(*Telegram)
		_, isSlack := s.(*Slack)
		_, isNone := s.(Unconfigured)
		if isTG != c.wantTG || isSlack != c.wantSl || isNone != (!c.wantTG && !c.wantSl) {
			t.Fatalf("%s: got %T", c.name, s)
		}
	}
}

func TestResult_String(t *testing.T) {
	if Delivered.String() != "delivered" || Skipped.String() != "skipped" || Failed.String() != "failed" {
		t.Fatalf("unexpected strings")
	}
}
