package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sweeney/pi-buzzer/internal/logic"
	"github.com/sweeney/pi-buzzer/internal/players"
)

func newPlayersCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "players",
		Short: "Manage players and their GPIO pins",
	}

	// edit loads the store, applies fn and saves.
	edit := func(fn func(s *players.Store) error) error {
		s, err := players.Load(*configPath)
		if err != nil {
			return err
		}
		if err := fn(s); err != nil {
			return err
		}
		return s.Save()
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List every player",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := players.Load(*configPath)
				if err != nil {
					return err
				}
				printPlayers(cmd.OutOrStdout(), s.All())
				return nil
			},
		},
		&cobra.Command{
			Use:   "add <name> <pin>",
			Short: "Add an enabled player",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				pin, err := parsePin(args[1])
				if err != nil {
					return err
				}
				return edit(func(s *players.Store) error {
					id, err := s.Add(args[0], pin)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "added %s: %s on GPIO %d\n", id, args[0], pin)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "remove <id>",
			Short: "Remove a player",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return edit(func(s *players.Store) error {
					return s.Remove(args[0])
				})
			},
		},
		&cobra.Command{
			Use:   "enable <id>",
			Short: "Enable a player",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return edit(func(s *players.Store) error {
					return s.SetEnabled(args[0], true)
				})
			},
		},
		&cobra.Command{
			Use:   "disable <id>",
			Short: "Disable a player without removing it",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return edit(func(s *players.Store) error {
					return s.SetEnabled(args[0], false)
				})
			},
		},
		&cobra.Command{
			Use:   "rename <id> <name>",
			Short: "Rename a player",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return edit(func(s *players.Store) error {
					return s.Rename(args[0], args[1])
				})
			},
		},
		&cobra.Command{
			Use:   "pin <id> <pin>",
			Short: "Move a player to another GPIO pin",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				pin, err := parsePin(args[1])
				if err != nil {
					return err
				}
				return edit(func(s *players.Store) error {
					return s.SetPin(args[0], pin)
				})
			},
		},
		&cobra.Command{
			Use:   "polarity <id> <low|high>",
			Short: "Set how a player's buzzer is wired",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return edit(func(s *players.Store) error {
					return s.SetPolarity(args[0], logic.Polarity(args[1]))
				})
			},
		},
		&cobra.Command{
			Use:   "pins",
			Short: "List GPIO pins not used by any player",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := players.Load(*configPath)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), joinInts(s.AvailablePins()))
				return nil
			},
		},
	)
	return cmd
}

func parsePin(arg string) (int, error) {
	pin, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("invalid pin %q", arg)
	}
	return pin, nil
}

func printPlayers(w io.Writer, entries []players.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "no players configured")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tGPIO\tPOLARITY\tENABLED")
	for _, e := range entries {
		pol := e.Polarity
		if pol == "" {
			pol = logic.ActiveLow
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%v\n", e.ID, e.Name, e.Pin, pol, e.Enabled)
	}
	tw.Flush()
}

func joinInts(v []int) string {
	s := make([]string, len(v))
	for i, n := range v {
		s[i] = strconv.Itoa(n)
	}
	return strings.Join(s, " ")
}
