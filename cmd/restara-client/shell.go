package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"restara/internal/catalog"
	"restara/internal/ipc"
	"restara/pkg/spec"

	"github.com/chzyer/readline"
)

func completer(ids []string) *readline.PrefixCompleter {
	tracks := func() []readline.PrefixCompleterInterface {
		items := make([]readline.PrefixCompleterInterface, len(ids))
		for i, id := range ids {
			items[i] = readline.PcItem(id)
		}
		return items
	}
	return readline.NewPrefixCompleter(
		readline.PcItem("STATUS"),
		readline.PcItem("LIST"),
		readline.PcItem("PRESETS"),
		readline.PcItem("WHOAMI"),
		readline.PcItem("ICON", tracks()...),
		readline.PcItem("VOLUME", tracks()...),
		readline.PcItem("PLAY", tracks()...),
		readline.PcItem("STOP", tracks()...),
		readline.PcItem("MASTER"),
		readline.PcItem("TOGGLE"),
		readline.PcItem("RESET"),
		readline.PcItem("TIMER",
			readline.PcItem("START"),
			readline.PcItem("PAUSE"),
			readline.PcItem("RESET"),
		),
		readline.PcItem("QUIT"),
	)
}

func trackIDs(c *ipc.Client) []string {
	reply, err := c.Do("LIST")
	if err != nil {
		return nil
	}
	var tracks []catalog.TrackDescriptor
	if json.Unmarshal([]byte(reply), &tracks) != nil {
		return nil
	}
	ids := make([]string, len(tracks))
	for i, t := range tracks {
		ids[i] = t.ID
	}
	return ids
}

// runShell is an interactive prompt over one connection.
func runShell(out io.Writer) error {
	c, err := dial()
	if err != nil {
		return err
	}
	defer c.Close()

	about, err := c.Do("ABOUT")
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\n%s\nType a command, QUIT to exit.\n\n", about)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          strings.ToLower(spec.AppName) + "> ",
		AutoComplete:    completer(trackIDs(c)),
		InterruptPrompt: "^C",
		EOFPrompt:       "QUIT",
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	c.OnEvent = func(ev ipc.Event) {
		fmt.Fprintf(rl.Stdout(), "EVENT playing=%v timer=%s\n", ev.Mixer.AnyPlaying, ev.Timer.Clock)
	}

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if err != nil {
			return nil
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.EqualFold(line, "QUIT") {
			fmt.Fprintln(out, "Bye.")
			return nil
		}

		reply, err := c.Do(line)
		if errors.Is(err, ipc.ErrReply) {
			fmt.Fprintln(rl.Stdout(), err)
			continue
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(rl.Stdout(), reply)
	}
}
