package handle

import "fmt"

// WithInherited clears cloexec on every handle in hs, runs fn, and restores
// the original flag on every handle it actually changed, regardless of
// whether fn succeeded. A failure to restore is surfaced even when fn itself
// succeeded, since it leaves the parent's handle table in an inconsistent
// state for whatever runs next.
func WithInherited(hs []Raw, fn func() error) error {
	changed := make([]Raw, 0, len(hs))
	var prepErr error
	for _, h := range hs {
		wasCloexec, err := IsCloexec(h)
		if err != nil {
			prepErr = fmt.Errorf("inspect cloexec on handle %s: %w", h, err)
			break
		}
		if wasCloexec {
			if err := DisableCloexec(h); err != nil {
				prepErr = fmt.Errorf("clear cloexec on handle %s: %w", h, err)
				break
			}
			changed = append(changed, h)
		}
	}

	var fnErr error
	if prepErr == nil {
		fnErr = fn()
	} else {
		fnErr = prepErr
	}

	var restoreErr error
	for _, h := range changed {
		if err := EnableCloexec(h); err != nil {
			restoreErr = fmt.Errorf("restore cloexec on handle %s: %w", h, err)
		}
	}

	if restoreErr != nil {
		return restoreErr
	}
	return fnErr
}
