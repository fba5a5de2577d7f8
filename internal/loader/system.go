package loader

import "github.com/rs/zerolog"

// loadSystemAlreadyLocked loads every module through the system loader,
// falling back to the workaround loader when an environment is available.
func (c *Coordinator) loadSystemAlreadyLocked(env Environment, logger zerolog.Logger) error {
	for _, module := range c.opts.Modules {
		err := c.deps.System.Load(module)
		if err == nil {
			logger.Debug().Str("module", module).Msg("loaded with system loader")
			continue
		}
		if env != nil && c.deps.Workaround != nil && c.deps.Workaround.TryLoad(env, module) {
			logger.Warn().Err(err).Str("module", module).Msg("system loader failed, loaded with workaround")
			c.telemetry.UsedWorkaroundLoader = true
			continue
		}
		return loadFailed(module, err)
	}
	return nil
}
