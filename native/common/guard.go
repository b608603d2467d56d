package common

import "errors"

var ErrModulePaused = errors.New("module paused")

// PauseView exposes the pause toggles maintained by the factory administrator.
type PauseView interface {
	IsPaused(module string) bool
}

// Guard rejects calls into a paused module. A nil view or empty module name
// leaves the call ungated.
func Guard(p PauseView, module string) error {
	if p == nil || module == "" {
		return nil
	}
	if p.IsPaused(module) {
		return ErrModulePaused
	}
	return nil
}
