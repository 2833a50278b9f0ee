package mqtt

import (
	"errors"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/sweeney/ledclock/internal/logic"
)

// fakeClient implements the parts of paho.Client the publisher uses.
type fakeClient struct {
	paho.Client
	open      bool
	err       error
	published []bufferedMsg
}

func (c *fakeClient) IsConnectionOpen() bool { return c.open }

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	c.published = append(c.published, bufferedMsg{topic: topic, payload: payload.([]byte), qos: qos, retained: retained})
	return &fakeToken{err: c.err}
}

func (c *fakeClient) Disconnect(uint) { c.open = false }

type fakeToken struct {
	paho.Token
	err error
}

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Error() error                   { return t.err }

func newTestPublisher(open bool) (*RealPublisher, *fakeClient) {
	c := &fakeClient{open: open}
	p := newPublisher(zap.NewNop())
	p.client = c
	p.now = func() time.Time { return time.Date(2026, 8, 8, 12, 0, 0, 0, time.UTC) }
	return p, c
}

func TestRealPublisherTopicsAndFlags(t *testing.T) {
	p, c := newTestPublisher(true)

	p.Publish(logic.Event{Type: logic.EventActivated, Occasion: birthday})
	p.PublishChange(logic.Change{Var: 10, Name: "family.0", Value: true})
	p.PublishSystem(SystemEvent{Event: "STARTUP", Retained: true})

	want := []struct {
		topic    string
		qos      byte
		retained bool
	}{
		{Topic, 0, false},
		{"ledclock/vars/family.0", 1, true},
		{TopicSystem, 1, true},
	}
	if len(c.published) != len(want) {
		t.Fatalf("expected %d messages, got %d", len(want), len(c.published))
	}
	for i, w := range want {
		m := c.published[i]
		if m.topic != w.topic || m.qos != w.qos || m.retained != w.retained {
			t.Errorf("message %d: got (%s, %d, %v), want (%s, %d, %v)",
				i, m.topic, m.qos, m.retained, w.topic, w.qos, w.retained)
		}
	}
	if !p.IsConnected() {
		t.Error("expected IsConnected with open connection")
	}
}

func TestRealPublisherBuffersWhileDisconnected(t *testing.T) {
	p, c := newTestPublisher(false)

	p.PublishChange(logic.Change{Var: 10, Name: "family.0", Value: true})
	p.Publish(logic.Event{Type: logic.EventActivated, Occasion: birthday})
	if len(c.published) != 0 {
		t.Fatalf("nothing should reach the client while disconnected, got %d", len(c.published))
	}
	if p.Buffered() != 2 {
		t.Fatalf("expected 2 buffered messages, got %d", p.Buffered())
	}

	// First connect replays without announcing a reconnection
	c.open = true
	p.onConnect(c)
	if p.Buffered() != 0 {
		t.Errorf("buffer should be drained, %d left", p.Buffered())
	}
	if len(c.published) != 2 {
		t.Fatalf("expected 2 replayed messages, got %d", len(c.published))
	}
	if c.published[0].topic != "ledclock/vars/family.0" || c.published[1].topic != Topic {
		t.Errorf("replay out of order: %s, %s", c.published[0].topic, c.published[1].topic)
	}
}

func TestRealPublisherAnnouncesReconnect(t *testing.T) {
	p, c := newTestPublisher(true)
	p.onConnect(c)
	c.published = nil

	c.open = false
	p.PublishSystem(SystemEvent{Event: "HEARTBEAT"})
	c.open = true
	p.onConnect(c)

	if len(c.published) != 2 {
		t.Fatalf("expected RECONNECTED and replayed heartbeat, got %d messages", len(c.published))
	}
	want := `{"system":{"timestamp":"2026-08-08T12:00:00Z","event":"RECONNECTED"}}`
	if string(c.published[0].payload) != want {
		t.Errorf("first message after reconnect:\ngot:  %s\nwant: %s", c.published[0].payload, want)
	}
	if c.published[0].retained {
		t.Error("RECONNECTED should not be retained")
	}
}

func TestRealPublisherPublishError(t *testing.T) {
	p, c := newTestPublisher(true)
	sentinel := errors.New("broker said no")
	c.err = sentinel

	err := p.PublishChange(logic.Change{Name: "family.0"})
	if !errors.Is(err, sentinel) {
		t.Errorf("expected wrapped broker error, got %v", err)
	}
}

func TestRealPublisherClose(t *testing.T) {
	p, c := newTestPublisher(true)
	if err := p.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.open {
		t.Error("expected client disconnected")
	}
}
