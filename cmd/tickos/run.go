package main

import (
	"encoding/json"
	"fmt"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"
	"github.com/viant/tickos/examples/hello"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Invoke a session for a number of ticks",
	Long: `Invoke restores the session snapshot, dispatches tasks while the
configured budget allows, advances the tick and stores the snapshot again.
With --bootstrap the hello program is launched into the session first.`,
	RunE: runRun,
}

var (
	runSession   string
	runTicks     int
	runBootstrap bool
	runLockFile  string
)

func init() {
	runCmd.Flags().StringVarP(&runSession, "session", "s", "", "session id (generated when empty)")
	runCmd.Flags().IntVarP(&runTicks, "ticks", "n", 1, "number of invocations")
	runCmd.Flags().BoolVar(&runBootstrap, "bootstrap", false, "launch the hello program before running")
	runCmd.Flags().StringVar(&runLockFile, "lock", "", "lock file guarding the session against concurrent runs")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, _ []string) error {
	if runTicks < 0 {
		return fmt.Errorf("ticks must be >= 0")
	}
	if runLockFile != "" {
		lock := flock.New(runLockFile)
		locked, err := lock.TryLock()
		if err != nil {
			return fmt.Errorf("failed to lock %s: %w", runLockFile, err)
		}
		if !locked {
			return fmt.Errorf("session is already running (lock %s held)", runLockFile)
		}
		defer func() { _ = lock.Unlock() }()
	}

	srv, err := newService(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = srv.Close() }()

	ctx := cmd.Context()
	session := srv.Host(runSession)
	if runBootstrap {
		pid, err := session.Launch(ctx, &hello.Main{})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "session %s: launched pid %d\n", session.SessionID(), pid)
	}
	encoder := json.NewEncoder(cmd.OutOrStdout())
	for i := 0; i < runTicks; i++ {
		report, err := session.Invoke(ctx)
		if err != nil {
			return err
		}
		if err = encoder.Encode(report); err != nil {
			return err
		}
	}
	return nil
}
