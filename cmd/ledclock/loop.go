package main

import (
	"errors"
	"os"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/sweeney/ledclock/internal/clock"
	"github.com/sweeney/ledclock/internal/gpio"
	"github.com/sweeney/ledclock/internal/logic"
	"github.com/sweeney/ledclock/internal/mqtt"
	"github.com/sweeney/ledclock/internal/status"
)

// errDailyRestart ends the process with a failure status so the service
// manager starts it again.
var errDailyRestart = errors.New("daily restart")

// loop owns the engine and everything it talks to. All fields except
// tracker are used from the run goroutine only.
type loop struct {
	reader     gpio.Reader
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus // may be nil
	tracker    *status.Tracker       // may be nil
	engine     *logic.Engine
	clock      *clock.Clock
	restart    clock.RestartSchedule
	heartbeat  time.Duration
	now        func() time.Time
	log        *zap.Logger
}

// run processes one input sample per tick until a signal arrives or the
// daily restart is due. Either way a retained SHUTDOWN is published first.
func (l *loop) run(tick <-chan time.Time, sig <-chan os.Signal) error {
	for {
		select {
		case s := <-sig:
			l.log.Info("received signal, shutting down", zap.Stringer("signal", s))
			l.shutdown(signalName(s))
			return nil

		case <-tick:
			t := l.now()
			levels, err := l.reader.Read()
			if err != nil {
				l.log.Warn("gpio read error", zap.Error(err))
				continue
			}

			tk, date := l.clock.Read(t)
			res := l.engine.Process(logic.Input{
				Time:     t,
				Tick:     tk,
				Date:     date,
				Triggers: levels.Triggers,
				Disable:  levels.Disable,
			})
			l.publish(res)

			if hb := l.engine.CheckHeartbeat(t, l.heartbeat); hb != nil {
				l.sendHeartbeat(hb)
			}

			// Update status tracker for HTTP consumers
			if l.tracker != nil {
				l.tracker.Update(status.FromEngine(l.engine, date))
				l.refreshConnection()
			}

			if l.restart.Due(t.In(l.clock.Location())) {
				l.log.Info("daily restart due", zap.Stringer("at", l.restart))
				l.shutdown("DAILY_RESTART")
				return errDailyRestart
			}
		}
	}
}

func (l *loop) publish(res logic.Result) {
	for _, ev := range res.Events {
		l.log.Info("event",
			zap.String("type", string(ev.Type)),
			zap.String("slot", ev.Slot),
			zap.Int("index", ev.Index),
			zap.Stringer("occasion", ev.Occasion),
		)
		if err := l.publisher.Publish(ev); err != nil {
			// Don't crash on publish failure
			l.log.Warn("publish error", zap.Error(err))
		}
	}
	for _, c := range res.Changes {
		l.log.Debug("output", zap.Int("var", c.Var), zap.String("name", c.Name), zap.Bool("value", c.Value))
		if err := l.publisher.PublishChange(c); err != nil {
			l.log.Warn("publish change error", zap.String("name", c.Name), zap.Error(err))
		}
	}
}

func (l *loop) sendHeartbeat(hb *logic.HeartbeatData) {
	l.log.Info("heartbeat",
		zap.Duration("uptime", hb.Uptime),
		zap.Int("activated", hb.Counts.Activated),
		zap.Int("triggered", hb.Counts.Triggered),
		zap.Int("deferred", hb.Counts.Deferred),
		zap.Int("rearmed", hb.Counts.Rearmed),
	)

	event := mqtt.SystemEvent{
		Timestamp: hb.Timestamp,
		Event:     "HEARTBEAT",
	}
	if l.tracker != nil {
		l.refreshConnection()
		// Refresh network info for heartbeat
		if net := readNetworkInfo(); net != nil {
			l.tracker.SetNetwork(net)
		}
		event.RawPayload = status.FormatStatusEvent(l.tracker.Snapshot(), "HEARTBEAT", "")
	}
	if err := l.publisher.PublishSystem(event); err != nil {
		l.log.Warn("heartbeat publish error", zap.Error(err))
	}
}

func (l *loop) shutdown(reason string) {
	event := mqtt.SystemEvent{
		Timestamp: l.now(),
		Event:     "SHUTDOWN",
		Reason:    reason,
		Retained:  true,
	}
	if l.tracker != nil {
		l.refreshConnection()
		event.RawPayload = status.FormatStatusEvent(l.tracker.Snapshot(), "SHUTDOWN", reason)
	}
	if err := l.publisher.PublishSystem(event); err != nil {
		l.log.Warn("failed to publish shutdown event", zap.Error(err))
	} else {
		l.log.Info("published shutdown event", zap.String("reason", reason))
	}
}

func (l *loop) refreshConnection() {
	if l.mqttStatus != nil {
		l.tracker.SetMQTTConnected(l.mqttStatus.IsConnected())
	}
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}
