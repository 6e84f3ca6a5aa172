package insights

import "time"

// SetNowFunc freezes the package clock for tests; the returned func restores it.
func SetNowFunc(f func() time.Time) func() {
	prev := nowFunc
	nowFunc = f
	return func() { nowFunc = prev }
}
