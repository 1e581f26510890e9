package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"restara/internal/catalog"
	"restara/internal/ipc"

	"github.com/spf13/cobra"
)

var profileName string

// send runs one protocol command, prints the reply and hands control back
// so the next invocation is not locked out.
func send(out io.Writer, line string) error {
	c, err := dial()
	if err != nil {
		return err
	}
	defer c.Close()
	defer c.Release()

	reply, err := c.Do(line)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, reply)
	return nil
}

// simple builds a subcommand that forwards its args after verb.
func simple(use, short, verb string, args cobra.PositionalArgs) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, a []string) error {
			return send(cmd.OutOrStdout(), strings.Join(append([]string{verb}, a...), " "))
		},
	}
}

func printStatus(out io.Writer, ev ipc.Event) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TRACK\tVOLUME\tSTATE")
	for _, t := range ev.Mixer.Tracks {
		state := "idle"
		switch {
		case t.Failed:
			state = "failed"
		case !t.Loaded:
			state = "loading"
		case t.Playing:
			state = "playing"
		}
		fmt.Fprintf(w, "%s\t%3.0f%%\t%s\n", t.ID, t.Volume*100, state)
	}
	w.Flush()
	fmt.Fprintf(out, "master %.0f%%  playing %v  timer %s (%s)\n",
		ev.Mixer.Master*100, ev.Mixer.AnyPlaying, ev.Timer.Clock, ev.Timer.Phase)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show mixer and timer state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := dial()
		if err != nil {
			return err
		}
		defer c.Close()
		ev, err := c.Status()
		if err != nil {
			return err
		}
		printStatus(cmd.OutOrStdout(), ev)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the catalog",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := dial()
		if err != nil {
			return err
		}
		defer c.Close()
		reply, err := c.Do("LIST")
		if err != nil {
			return err
		}
		var tracks []catalog.TrackDescriptor
		if err := json.Unmarshal([]byte(reply), &tracks); err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tLABEL\tASSET")
		for _, t := range tracks {
			fmt.Fprintf(w, "%s\t%s\t%s\n", t.ID, t.Label, t.AudioRef)
		}
		return w.Flush()
	},
}

var volumeCmd = &cobra.Command{
	Use:   "volume <track> <value>",
	Short: "Set a track volume on the slider scale",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return send(cmd.OutOrStdout(), fmt.Sprintf("VOLUME %s %s %s", args[0], args[1], profileName))
	},
}

var masterCmd = &cobra.Command{
	Use:   "master <value>",
	Short: "Set the master volume on the slider scale",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return send(cmd.OutOrStdout(), fmt.Sprintf("MASTER %s %s", args[0], profileName))
	},
}

var timerCmd = &cobra.Command{
	Use:   "timer",
	Short: "Control the sleep timer",
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Take control and print every state change",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := dial()
		if err != nil {
			return err
		}
		defer c.Close()
		out := cmd.OutOrStdout()
		return c.Watch(func(ev ipc.Event) bool {
			printStatus(out, ev)
			fmt.Fprintln(out)
			return true
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{volumeCmd, masterCmd} {
		c.Flags().StringVarP(&profileName, "profile", "p", "percent", "slider profile: percent, unit or coarse")
	}

	timerCmd.AddCommand(
		simple("start <minutes>", "Start a countdown", "TIMER START", cobra.ExactArgs(1)),
		simple("pause", "Pause or resume the countdown", "TIMER PAUSE", cobra.NoArgs),
		simple("reset", "Clear the countdown", "TIMER RESET", cobra.NoArgs),
	)

	rootCmd.AddCommand(
		statusCmd,
		listCmd,
		volumeCmd,
		masterCmd,
		timerCmd,
		watchCmd,
		simple("play <track>", "Start a track at its current volume", "PLAY", cobra.ExactArgs(1)),
		simple("stop <track>", "Stop a track, keeping its volume", "STOP", cobra.ExactArgs(1)),
		simple("toggle", "Pause or resume the whole mix", "TOGGLE", cobra.NoArgs),
		simple("reset", "Silence every track", "RESET", cobra.NoArgs),
		simple("icon <track>", "Print the icon currently shown for a track", "ICON", cobra.ExactArgs(1)),
		simple("presets", "Print the timer presets in minutes", "PRESETS", cobra.NoArgs),
		simple("about", "Print the server version", "ABOUT", cobra.NoArgs),
		simple("ping", "Check the server is alive", "PING", cobra.NoArgs),
	)
}
