package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"stitch/internal/driver"
	"stitch/internal/ui"
)

type dirOutcome struct {
	result *driver.DirResult
	err    error
}

func runInstrumentDirWithUI(ctx context.Context, dir string, opts driver.Options) (*driver.DirResult, error) {
	files, err := driver.ListTargets(dir)
	if err != nil {
		return nil, err
	}

	events := make(chan driver.Event, 256)
	outcomeCh := make(chan dirOutcome, 1)

	go func() {
		optsCopy := opts
		optsCopy.Progress = driver.ChannelSink{Ch: events}
		res, err := driver.InstrumentDir(ctx, dir, optsCopy)
		outcomeCh <- dirOutcome{result: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel("instrumenting "+dir, files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.result, uiErr
	}
	return outcome.result, outcome.err
}
