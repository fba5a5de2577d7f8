package loader

import "context"

// checkVersionAlreadyLocked rejects a module whose reported version is not
// byte-equal to the expected one. It runs after the loaded switch is set:
// loaded records that the mechanics succeeded, not that the module is trusted.
func (c *Coordinator) checkVersionAlreadyLocked(ctx context.Context) error {
	actual := c.deps.Bridge.Version(ctx)
	c.log.Info().
		Str("expected", c.opts.ExpectedVersion).
		Str("actual", actual).
		Msg("native module version")
	if err := checkVersion(c.opts.ExpectedVersion, actual); err != nil {
		return err
	}
	c.versionOK = true
	return nil
}

func checkVersion(expected, actual string) error {
	if expected != actual {
		return &ProcessInitError{Code: CodeWrongVersion, Expected: expected, Actual: actual}
	}
	return nil
}
