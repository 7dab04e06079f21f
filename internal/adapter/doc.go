/*
Package adapter attaches a local terminal to a relay session.

The client dials GET /terminal/:target, joins with the surface size and
then relays in both directions: keystrokes from the input reader become
input frames, size changes become resize frames, and output frames are
written to the surface unmodified. When the session exits a disconnect
notice is printed and input is no longer forwarded.

	restore, err := adapter.RawMode(int(os.Stdin.Fd()))
	defer restore()

	surface := adapter.NewTerminalSurface(os.Stdout)
	client := adapter.NewClient("ws://localhost:8000/terminal/shell", log)
	result, err := client.Run(ctx, surface, os.Stdin, adapter.WatchSizes(ctx, surface))
*/
package adapter
