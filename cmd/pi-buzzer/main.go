// Command pi-buzzer monitors GPIO buzzers, decides which player pressed
// first, and publishes the result to MQTT.
package main

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/sweeney/pi-buzzer/internal/players"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "pi-buzzer <command>",
		Short:         "First-press buzzer arbitration on Raspberry Pi GPIO",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", players.DefaultPath, "player and settings file")

	root.AddCommand(
		newRunCmd(&configPath),
		newStateCmd(&configPath),
		newPlayersCmd(&configPath),
	)
	return root
}
