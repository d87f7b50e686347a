package service

import (
	"fmt"

	"matcharena/config"
)

// requireAdmin asserts the caller carries the admin capability. State
// preconditions are always re-checked by the operation itself, so a
// forged role claim alone can never move money.
func requireAdmin(cfg *config.Config, uid string) error {
	if !cfg.IsAdmin(uid) {
		return fmt.Errorf("%w: %s is not an admin", ErrUnauthorized, uid)
	}
	return nil
}
