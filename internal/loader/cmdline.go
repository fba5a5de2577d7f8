package loader

import "context"

// SwitchCommandLine hands the command line to the native side ahead of
// initialization. Hosts that need native switches before registration call
// it after LoadNow. It panics when nothing is loaded yet.
func (c *Coordinator) SwitchCommandLine(ctx context.Context) {
	ctx, release := c.acquire(ctx)
	defer release()
	c.ensureCommandLineSwitchedAlreadyLocked(ctx)
}

func (c *Coordinator) ensureCommandLineSwitchedAlreadyLocked(ctx context.Context) {
	if !c.state.Loaded() {
		panic("loader: command line switch requires loaded native modules")
	}
	if c.state.CommandLineSwitched {
		return
	}
	c.deps.Bridge.InitCommandLine(ctx, c.deps.CommandLine.Switches())
	c.deps.CommandLine.EnableNativeProxy()
	c.state.CommandLineSwitched = true
}
