// Package processtest provides a scripted process.Runner for tests.
package processtest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"git.home.luguber.info/inful/sitesetup/internal/process"
)

// Response is the scripted outcome for a command line prefix.
type Response struct {
	Output   string
	ExitCode int
	Err      error // returned as-is when set; otherwise derived from ExitCode
	Hook     func(process.Command)
}

// FakeRunner matches each command line against registered prefixes and
// returns the scripted response. Unmatched commands fail.
type FakeRunner struct {
	mu        sync.Mutex
	responses []entry
	Calls     []process.Command
}

type entry struct {
	prefix string
	resp   Response
}

// On registers a response for commands whose String() starts with prefix.
func (f *FakeRunner) On(prefix string, resp Response) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, entry{prefix: prefix, resp: resp})
	return f
}

// Run implements process.Runner.
func (f *FakeRunner) Run(ctx context.Context, cmd process.Command) (process.Result, error) {
	f.mu.Lock()
	f.Calls = append(f.Calls, cmd)
	responses := append([]entry(nil), f.responses...)
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return process.Result{ExitCode: -1}, fmt.Errorf("%s: %w", cmd.String(), err)
	}

	line := cmd.String()
	for _, e := range responses {
		if !strings.HasPrefix(line, e.prefix) {
			continue
		}
		if e.resp.Hook != nil {
			e.resp.Hook(cmd)
		}
		res := process.Result{ExitCode: e.resp.ExitCode, Output: e.resp.Output}
		if cmd.Stream != nil && e.resp.Output != "" {
			_, _ = cmd.Stream.Write([]byte(e.resp.Output))
		}
		if e.resp.Err != nil {
			return res, e.resp.Err
		}
		if e.resp.ExitCode != 0 {
			return res, fmt.Errorf("%w (%d): %s", process.ErrNonZeroExit, e.resp.ExitCode, line)
		}
		return res, nil
	}
	return process.Result{ExitCode: 127}, fmt.Errorf("start %s: executable not scripted", cmd.Name)
}

// Commands returns the command lines run so far.
func (f *FakeRunner) Commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.Calls))
	for _, c := range f.Calls {
		out = append(out, c.String())
	}
	return out
}
