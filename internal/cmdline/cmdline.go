// Package cmdline holds the process command line until the native side owns it.
package cmdline

import (
	"errors"
	"strings"
	"sync"
)

var ErrNativeOwned = errors.New("cmdline: command line is owned by native code")

// CommandLine is the pre-load switch list. After EnableNativeProxy the native
// copy is authoritative and this one is frozen.
type CommandLine struct {
	mu     sync.RWMutex
	args   []string
	native bool
}

// New copies args. A nil slice is an empty command line.
func New(args []string) *CommandLine {
	return &CommandLine{args: append([]string(nil), args...)}
}

// Switches returns the arguments to hand to native code, or nil once the
// handoff happened.
func (c *CommandLine) Switches() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.native {
		return nil
	}
	return append([]string{}, c.args...)
}

// Args returns the last known arguments regardless of ownership.
func (c *CommandLine) Args() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string{}, c.args...)
}

// AppendSwitch adds "--name" or "--name=value".
func (c *CommandLine) AppendSwitch(name, value string) error {
	name = strings.TrimLeft(strings.TrimSpace(name), "-")
	if name == "" {
		return errors.New("cmdline: empty switch name")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.native {
		return ErrNativeOwned
	}
	arg := "--" + name
	if value != "" {
		arg += "=" + value
	}
	c.args = append(c.args, arg)
	return nil
}

func (c *CommandLine) HasSwitch(name string) bool {
	_, ok := c.SwitchValue(name)
	return ok
}

// SwitchValue returns the value of the last occurrence of name.
func (c *CommandLine) SwitchValue(name string) (string, bool) {
	name = strings.TrimLeft(strings.TrimSpace(name), "-")
	c.mu.RLock()
	defer c.mu.RUnlock()
	value, found := "", false
	for _, arg := range c.args {
		if !strings.HasPrefix(arg, "-") {
			continue
		}
		key, v, _ := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if key == name {
			value, found = v, true
		}
	}
	return value, found
}

// EnableNativeProxy is the one-way handoff to native ownership.
func (c *CommandLine) EnableNativeProxy() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.native = true
}

func (c *CommandLine) IsNative() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.native
}
