// Package terminal launches commands on pseudo-terminals.
//
// Launch allocates a PTY pair, sizes it, and starts the command with its
// standard streams on the subordinate side in a new session. The returned
// Process exposes:
//   - Write: queued input, applied in order by a single writer
//   - Resize: window size ioctl, ErrNotRunning once the child exited
//   - Terminate / Kill: SIGHUP+SIGTERM / SIGKILL to the process group
//   - Events: Output chunks in read order, then exactly one Exited
//
// After the child exits the remaining output is drained for a bounded
// time before the PTY is closed, so Exited always follows the last Output.
//
// Example:
//
//	launcher := terminal.NewLauncher(terminal.DefaultOptions(), log)
//	proc, err := launcher.Launch(ctx, spec, 80, 24)
//	if err != nil {
//		return err
//	}
//	defer proc.Close()
//
//	for ev := range proc.Events() {
//		switch ev := ev.(type) {
//		case terminal.Output:
//			os.Stdout.Write(ev.Data)
//		case terminal.Exited:
//			fmt.Println(ev.Status.Reason)
//		}
//	}
package terminal
