package control

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/slok/imgconv/internal/job"
	"github.com/slok/imgconv/internal/log"
)

// Help is the usage line of the interactive controls.
const Help = "controls: [p] pause/resume, [r] resume, [s] stop, then enter"

// ParseCommand maps an input line to a run command.
func ParseCommand(line string) (job.Command, bool) {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "p", "pause":
		return job.CommandTogglePause, true
	case "r", "resume":
		return job.CommandResume, true
	case "s", "q", "stop", "quit":
		return job.CommandStop, true
	}
	return 0, false
}

// ReadCommands reads lines from r and sends the recognized commands on the
// returned channel. The channel is closed on EOF, read error or when ctx is done.
//
// A read blocked on r is not interrupted by ctx, the goroutine ends on the next
// line or EOF.
func ReadCommands(ctx context.Context, r io.Reader, logger log.Logger) <-chan job.Command {
	if logger == nil {
		logger = log.Noop
	}
	logger = logger.WithValues(log.Kv{"svc": "control.Stdin"})

	cmds := make(chan job.Command)
	go func() {
		defer close(cmds)

		sc := bufio.NewScanner(r)
		for sc.Scan() {
			line := sc.Text()
			cmd, ok := ParseCommand(line)
			if !ok {
				if strings.TrimSpace(line) != "" {
					logger.Warningf("Unknown control %q, %s", line, Help)
				}
				continue
			}

			select {
			case cmds <- cmd:
			case <-ctx.Done():
				return
			}
		}
		if err := sc.Err(); err != nil {
			logger.Debugf("Stopped reading controls: %s", err)
		}
	}()

	return cmds
}
