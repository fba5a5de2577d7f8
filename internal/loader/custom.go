package loader

import "github.com/rs/zerolog"

// loadCustomAlreadyLocked runs the custom loader over the whole module list.
// A failed shared relocation load disables sharing for the rest of the batch
// and retries the module without it.
func (c *Coordinator) loadCustomAlreadyLocked(env Environment, logger zerolog.Logger) error {
	custom := c.deps.Custom
	custom.Prepare()

	apk := archivePathOf(env)
	if c.opts.Role == RoleMain && apk != "" && !c.archiveChecked {
		c.telemetry.ArchiveDirectLoadSupported = custom.SupportsArchiveDirectLoad(apk)
		c.archiveChecked = true
	}

	archive := ""
	if c.opts.LoadFromArchive {
		archive = apk
	}

	sharing := c.opts.SharedRelocationSharing
	for _, module := range c.opts.Modules {
		mlog := logger.With().Str("module", module).Str("archive", archive).Logger()
		mlog.Info().Msg("loading native module")

		loaded := false
		if sharing {
			c.telemetry.UsedSharedRelocationSharing = true
			if err := custom.LoadSharing(module, archive); err != nil {
				mlog.Warn().Err(err).Msg("shared relocation load failed, retrying without")
				custom.DisableSharing()
				sharing = false
				c.telemetry.FixedAddressLoadFailed = true
			} else {
				loaded = true
			}
		}
		if !loaded {
			if err := custom.LoadDirect(module, archive); err != nil {
				return loadFailed(module, err)
			}
		}
	}

	custom.Finish()
	return nil
}
