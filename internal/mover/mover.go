// Package mover implements the physical move step: a thin wrapper that
// shells out to the rsync script internal/report generates. The mover
// only ever consumes a plan already written to disk; it never decides
// what to move.
package mover

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"

	"foldersort/internal/errkind"
	"foldersort/internal/logging"
)

// Mover runs a generated copy-plan shell script via /bin/sh, streaming
// its stdout/stderr to the mover log category line by line.
type Mover struct {
	// DryRun, when true, only logs the script path without executing it.
	DryRun bool
}

// RunScript executes scriptPath with /bin/sh -e, so the first failing
// rsync or mkdir aborts the whole run rather than silently continuing
// past a half-copied batch.
func (m *Mover) RunScript(ctx context.Context, scriptPath string) error {
	log := logging.Get(logging.CategoryMover)
	if m.DryRun {
		log.Info("dry run: would execute %s", scriptPath)
		return nil
	}

	cmd := exec.CommandContext(ctx, "/bin/sh", "-e", scriptPath)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("piping mover stdout: %w: %w", errkind.IO, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("piping mover stderr: %w: %w", errkind.IO, err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting mover script %s: %w: %w", scriptPath, errkind.IO, err)
	}

	done := make(chan struct{})
	go streamLines(stdout, log.Info, done)
	go streamLines(stderr, log.Warn, done)
	<-done
	<-done

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("mover script %s failed: %w: %w", scriptPath, errkind.IO, err)
	}
	return nil
}

func streamLines(r io.Reader, emit func(string, ...interface{}), done chan struct{}) {
	defer func() { done <- struct{}{} }()
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		emit("%s", scanner.Text())
	}
}
