package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	nanoid "github.com/matoous/go-nanoid/v2"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sweeney/pi-buzzer/internal/gpio"
	"github.com/sweeney/pi-buzzer/internal/logic"
	"github.com/sweeney/pi-buzzer/internal/monitor"
	"github.com/sweeney/pi-buzzer/internal/mqtt"
	"github.com/sweeney/pi-buzzer/internal/status"
)

// publishQueue bounds the publishes waiting on the broker.
const publishQueue = 1024

func newRunCmd(configPath *string) *cobra.Command {
	o := defaultOptions()

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Monitor the buzzers and arbitrate rounds",
		Long: "Monitor every enabled player's buzzer and report who pressed first.\n\n" +
			"Operator " + commandHelp + "\n",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			chans, err := loadConfig(cmd, *configPath, &o)
			if err != nil {
				return err
			}
			return run(o, chans)
		},
	}

	cmd.Flags().DurationVar(&o.poll, "poll", o.poll, "GPIO polling interval")
	cmd.Flags().DurationVar(&o.debounce, "debounce", o.debounce, "default debounce window")
	cmd.Flags().DurationVar(&o.heartbeat, "heartbeat", o.heartbeat, "heartbeat interval (0 to disable)")
	cmd.Flags().StringVar(&o.broker, "broker", o.broker, "MQTT broker address (empty disables MQTT)")
	cmd.Flags().StringVar(&o.topicPrefix, "topic-prefix", o.topicPrefix, "MQTT topic prefix")
	cmd.Flags().StringVar(&o.tieBreak, "tie-break", o.tieBreak, "order for presses confirmed together: lowest-pin or config-order")
	bindBackendFlags(cmd, &o)
	return cmd
}

func run(o options, chans []logic.Channel) error {
	arbiter, err := logic.NewArbiter(logic.Config{
		Channels: chans,
		Window:   o.debounce,
		TieBreak: logic.TieBreak(o.tieBreak),
	})
	if err != nil {
		return err
	}

	reader, mock, err := openReader(o, chans)
	if err != nil {
		return err
	}
	defer reader.Close()

	publisher, err := openPublisher(o)
	if err != nil {
		return err
	}
	defer publisher.Close()

	tracker := status.NewTracker(time.Now(), status.Config{
		PollMs:      o.poll.Milliseconds(),
		DebounceMs:  o.debounce.Milliseconds(),
		HeartbeatMs: o.heartbeat.Milliseconds(),
		Broker:      o.broker,
		Backend:     o.backend,
		TieBreak:    o.tieBreak,
	})

	d := &daemon{
		monitor:    monitor.New(gpio.NewPinReader(reader, nil), arbiter),
		arbiter:    arbiter,
		publisher:  publisher,
		mqttStatus: publisher,
		tracker:    tracker,
		mock:       mock,
		heartbeat:  o.heartbeat,
		now:        time.Now,
		after:      afterFunc,
		out:        os.Stdout,
	}
	d.refresh()

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	}

	log.Printf("started: players=%d poll=%v debounce=%v backend=%s broker=%q tie-break=%s",
		len(chans), o.poll, o.debounce, o.backend, o.broker, o.tieBreak)
	for _, ch := range chans {
		log.Printf("player: %s polarity=%s window=%v", ch, ch.Polarity, ch.Window)
	}

	interactive := term.IsTerminal(int(os.Stdin.Fd()))
	cmds := make(chan string)
	go readCommands(os.Stdin, os.Stdout, interactive, cmds)

	ticker := time.NewTicker(o.poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(d, ticker.C, sigCh, cmds)
}

type notifier interface {
	mqtt.Publisher
	mqtt.ConnectionStatus
}

// openPublisher returns an asynchronous MQTT publisher, or Discard when no
// broker is configured.
func openPublisher(o options) (notifier, error) {
	if o.broker == "" {
		log.Printf("mqtt: no broker configured, notifications disabled")
		return mqtt.Discard{}, nil
	}

	suffix, err := nanoid.Generate("0123456789abcdefghijklmnopqrstuvwxyz", 6)
	if err != nil {
		return nil, fmt.Errorf("generate client id: %w", err)
	}
	rp, err := mqtt.NewRealPublisher(o.broker, "pi-buzzer-"+suffix, mqtt.TopicsFor(o.topicPrefix))
	if err != nil {
		return nil, fmt.Errorf("init mqtt: %w", err)
	}
	return mqtt.NewAsync(rp, publishQueue), nil
}

func afterFunc(d time.Duration, f func()) {
	time.AfterFunc(d, f)
}
