package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/sweeney/pi-buzzer/internal/gpio"
	"github.com/sweeney/pi-buzzer/internal/logic"
	"github.com/sweeney/pi-buzzer/internal/monitor"
	"github.com/sweeney/pi-buzzer/internal/mqtt"
	"github.com/sweeney/pi-buzzer/internal/status"
)

// daemon is everything runLoop drives. Only runLoop's goroutine touches it,
// except the arbiter which is safe for concurrent use.
type daemon struct {
	monitor    *monitor.Monitor
	arbiter    *logic.Arbiter
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus // may be nil
	tracker    *status.Tracker       // may be nil
	mock       *gpio.FakeReader      // nil unless the mock backend is in use
	heartbeat  time.Duration
	now        func() time.Time
	after      func(time.Duration, func())
	out        io.Writer
}

func runLoop(d *daemon, tick <-chan time.Time, sig <-chan os.Signal, cmds <-chan string) error {
	lastHeartbeat := d.now()

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			d.shutdown(signalName(s))
			return nil

		case line, ok := <-cmds:
			if !ok {
				// stdin closed; keep running until signalled
				cmds = nil
				continue
			}
			if quit := d.handleCommand(line); quit {
				d.shutdown("QUIT")
				return nil
			}

		case <-tick:
			report := d.monitor.Tick()
			d.handleReport(report)

			t := d.now()
			if d.heartbeat > 0 && t.Sub(lastHeartbeat) >= d.heartbeat {
				lastHeartbeat = t
				log.Printf("heartbeat: round=%d locked=%v degraded=%v", d.arbiter.Round(), d.arbiter.Locked(), d.monitor.Degraded())
				d.publishStatus("HEARTBEAT", "", false, t)
			}
			d.refresh()
		}
	}
}

func (d *daemon) handleReport(r monitor.Report) {
	for _, f := range r.Degraded {
		log.Printf("channel degraded: %s: %v", f.Channel, f.Err)
	}
	for _, ch := range r.Recovered {
		log.Printf("channel recovered: %s", ch)
	}

	for _, dec := range r.Decisions {
		ev := dec.Event
		if dec.Winner {
			log.Printf("winner: round=%d %s (GPIO %d) reaction=%v", dec.Round, ev.Label, ev.Pin, ev.Time.Sub(ev.Onset))
			fmt.Fprintf(d.out, "WINNER: %s\n", ev.Label)
		} else {
			log.Printf("press: round=%d seq=%d %s (GPIO %d) after winner", dec.Round, ev.Seq, ev.Label, ev.Pin)
		}

		if err := d.publisher.PublishPress(dec); err != nil {
			log.Printf("publish error: %v", err)
		}
		// The retained round message always carries every press so far
		if result, ok := d.arbiter.CurrentResult(); ok {
			if err := d.publisher.PublishRound(result); err != nil {
				log.Printf("publish error: %v", err)
			}
		}
	}
}

// handleCommand runs one operator command and reports whether to quit.
func (d *daemon) handleCommand(line string) bool {
	c, err := parseCommand(line)
	if err != nil {
		fmt.Fprintf(d.out, "%v\n", err)
		return false
	}

	switch c.kind {
	case cmdNone:
	case cmdQuit:
		return true
	case cmdReset:
		d.reset()
	case cmdForceReset:
		d.forceReset()
	case cmdStatus:
		d.refresh()
		printStatus(d.out, d.snapshot())
	case cmdPress:
		d.mockPress(c.pin)
	case cmdHelp:
		fmt.Fprintln(d.out, commandHelp)
	}
	return false
}

func (d *daemon) reset() {
	err := d.arbiter.Reset()
	var re *logic.ResetError
	if errors.As(err, &re) {
		log.Printf("reset refused: pins %v still pressed", re.Held)
		fmt.Fprintf(d.out, "cannot reset: %s still pressed (release it, or f to force)\n", d.labels(re.Held))
		return
	}
	if err != nil {
		log.Printf("reset error: %v", err)
		return
	}
	d.afterReset("RESET")
}

func (d *daemon) forceReset() {
	held := d.arbiter.Held()
	d.arbiter.ForceReset()
	if len(held) > 0 {
		log.Printf("force reset with pins %v held; they must be released to count", held)
	}
	d.afterReset("FORCE_RESET")
}

func (d *daemon) afterReset(event string) {
	if d.tracker != nil {
		d.tracker.RecordReset()
	}
	d.refresh()
	round := d.arbiter.Round()
	log.Printf("%s: round %d open", event, round)
	fmt.Fprintf(d.out, "round %d: buzzers armed\n", round)
	d.publishStatus(event, "", false, d.now())
}

// mockPress holds pin pressed for a little over two debounce windows.
func (d *daemon) mockPress(pin int) {
	if d.mock == nil {
		fmt.Fprintln(d.out, "simulated presses need --backend mock")
		return
	}
	ch, ok := d.channel(pin)
	if !ok {
		fmt.Fprintf(d.out, "no player on GPIO %d\n", pin)
		return
	}

	released := gpio.ReleasedLevel(ch.Polarity)
	d.mock.Set(pin, !released)
	log.Printf("mock press: %s", ch)
	d.after(2*ch.Window+10*time.Millisecond, func() {
		d.mock.Set(pin, released)
	})
}

func (d *daemon) channel(pin int) (logic.Channel, bool) {
	for _, ch := range d.arbiter.Channels() {
		if ch.Pin == pin {
			return ch, true
		}
	}
	return logic.Channel{}, false
}

func (d *daemon) labels(pins []int) string {
	names := make([]string, len(pins))
	for i, pin := range pins {
		if ch, ok := d.channel(pin); ok {
			names[i] = ch.String()
		} else {
			names[i] = fmt.Sprintf("GPIO %d", pin)
		}
	}
	return strings.Join(names, ", ")
}

// refresh copies arbiter and monitor state into the tracker.
func (d *daemon) refresh() {
	if d.tracker == nil {
		return
	}
	var result *logic.RoundResult
	if r, ok := d.arbiter.CurrentResult(); ok {
		result = &r
	}
	d.tracker.Update(d.arbiter.Round(), result, d.arbiter.Status(), d.monitor.Degraded())
	if d.mqttStatus != nil {
		d.tracker.SetMQTTConnected(d.mqttStatus.IsConnected())
	}
}

func (d *daemon) snapshot() status.Snapshot {
	if d.tracker == nil {
		return status.Snapshot{}
	}
	return d.tracker.Snapshot()
}

// publishStatus sends a system event carrying the full status snapshot.
func (d *daemon) publishStatus(event, reason string, retained bool, at time.Time) {
	e := mqtt.SystemEvent{
		Timestamp: at,
		Event:     event,
		Reason:    reason,
		Retained:  retained,
	}
	if d.tracker != nil {
		d.refresh()
		e.RawPayload = status.FormatStatusEvent(d.tracker.Snapshot(), event, reason)
	}
	if err := d.publisher.PublishSystem(e); err != nil {
		log.Printf("failed to publish %s event: %v", event, err)
	}
}

func (d *daemon) shutdown(reason string) {
	log.Printf("shutdown: %s", reason)
	d.publishStatus("SHUTDOWN", reason, true, d.now())
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
