package cmdline

import (
	"errors"
	"reflect"
	"testing"

	"github.com/danmuck/nativeload/internal/testutil/testlog"
)

func TestSwitchLookup(t *testing.T) {
	testlog.Start(t)
	c := New([]string{"prog", "--enable-logging", "--v=1", "positional", "--v=2"})

	if !c.HasSwitch("enable-logging") {
		t.Fatalf("expected enable-logging switch")
	}
	v, ok := c.SwitchValue("--v")
	if !ok || v != "2" {
		t.Fatalf("expected last value 2, got %q ok=%v", v, ok)
	}
	if c.HasSwitch("positional") {
		t.Fatalf("positional args are not switches")
	}
}

func TestNativeProxyFreezesCommandLine(t *testing.T) {
	testlog.Start(t)
	c := New([]string{"prog"})
	if err := c.AppendSwitch("single-process", ""); err != nil {
		t.Fatalf("append: %v", err)
	}
	want := []string{"prog", "--single-process"}
	if got := c.Switches(); !reflect.DeepEqual(got, want) {
		t.Fatalf("switches mismatch: got=%v want=%v", got, want)
	}

	c.EnableNativeProxy()
	if !c.IsNative() {
		t.Fatalf("expected native ownership")
	}
	if got := c.Switches(); got != nil {
		t.Fatalf("expected nil switches after handoff, got %v", got)
	}
	if err := c.AppendSwitch("late", "1"); !errors.Is(err, ErrNativeOwned) {
		t.Fatalf("expected ErrNativeOwned, got %v", err)
	}
	if got := c.Args(); !reflect.DeepEqual(got, want) {
		t.Fatalf("args changed after handoff: %v", got)
	}
}

func TestAppendSwitchRejectsEmptyName(t *testing.T) {
	testlog.Start(t)
	if err := New(nil).AppendSwitch("--", "x"); err == nil {
		t.Fatalf("expected empty name error")
	}
}
