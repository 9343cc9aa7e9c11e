package memtest

import (
	"errors"
	"fmt"

	"github.com/calvinalkan/memtest/pkg/memtest/internal/oslock"
)

// lockController owns the page lock (and, on Windows, the working-set
// guard) for the duration of a run. Grounded on the teacher's
// lock.go (deadline/shrink retry loop) and pkg/slotcache/lock.go
// (guard-released-on-scope-exit), retargeted from file locks to page
// locks.
type lockController struct {
	locker oslock.Locker
}

func newLockController() *lockController {
	return &lockController{locker: oslock.New()}
}

// lockResult carries what the controller changed so Suite.Run can
// restore it on exit and report it to the caller.
type lockResult struct {
	region     *Region
	wasLocked  bool
	wsRestore  func() error
	unlockAddr uintptr
	unlockLen  uintptr
}

// acquire implements spec.md §4.4: optionally widen the working set,
// then lock (and, in Resizable mode, shrink on quota failure) the
// region. On Disabled, it is a no-op that hands back the region
// unchanged with wasLocked=false.
func (lc *lockController) acquire(region *Region, cfg SuiteConfig) (*lockResult, *SuiteError) {
	if cfg.LockMode == Disabled {
		return &lockResult{region: region}, nil
	}

	var wsRestore func() error

	if cfg.AllowWorkingSetResize {
		regionBytes := uint64(region.Len()) * WordSize

		restore, err := lc.locker.SetWorkingSet(saturatingMul(regionBytes, 2), saturatingMul(regionBytes, 4))
		if err != nil {
			// Working-set resize is best-effort: on OS families (or
			// environments) where it fails, locking is still attempted
			// at the original size.
			cfg.logger().Printf("memtest: working set resize skipped: %v", err)
		} else {
			wsRestore = restore
		}
	}

	result, sErr := lc.lockWithRetry(region, cfg)
	if sErr != nil {
		if wsRestore != nil {
			if err := wsRestore(); err != nil {
				cfg.logger().Printf("memtest: working set restore failed: %v", err)
			}
		}

		return nil, sErr
	}

	result.wsRestore = wsRestore

	return result, nil
}

// lockWithRetry implements the shrink-and-retry loop.
func (lc *lockController) lockWithRetry(region *Region, cfg SuiteConfig) (*lockResult, *SuiteError) {
	current := region
	pageWords := pageSizeWords(lc.locker)

	firstShrink := true

	for {
		addr, length := current.addrLen()

		err := lc.locker.Lock(addr, length)
		if err == nil {
			return &lockResult{region: current, wasLocked: true, unlockAddr: addr, unlockLen: length}, nil
		}

		if !errors.Is(err, oslock.ErrQuotaExceeded) || cfg.LockMode != Resizable {
			return nil, newLockFailedError(err.Error())
		}

		next, shrinkErr := lc.shrink(current, pageWords, firstShrink)
		if shrinkErr != nil {
			return nil, shrinkErr
		}

		firstShrink = false
		current = next
	}
}

// shrink implements spec.md §4.4's clamp rules: on the first shrink,
// clamp to min(memlock_limit/word_size, current_words - words_per_page);
// on subsequent shrinks, subtract one page's worth of words.
func (lc *lockController) shrink(current *Region, pageWords int, first bool) (*Region, *SuiteError) {
	currentWords := current.Len()

	var newWords int

	if first {
		limitBytes, err := lc.locker.MemlockLimit()
		if err != nil {
			return nil, newLockFailedError(fmt.Sprintf("memlock limit unavailable: %v", err))
		}

		limitWords := int(limitBytes / WordSize)

		newWords = min(limitWords, currentWords-pageWords)
	} else {
		newWords = currentWords - pageWords
	}

	if newWords <= 0 {
		return nil, newLockFailedError("decremented to 0")
	}

	return current.Slice(0, newWords), nil
}

// release unlocks the region (if locked) and restores the working set
// (if it was resized), logging any failure rather than surfacing it,
// per spec.md §4.4/§7.
func (lc *lockController) release(result *lockResult, cfg SuiteConfig) {
	if result == nil {
		return
	}

	if result.wasLocked {
		if err := lc.locker.Unlock(result.unlockAddr, result.unlockLen); err != nil {
			cfg.logger().Printf("memtest: unlock failed: %v", err)
		}
	}

	if result.wsRestore != nil {
		if err := result.wsRestore(); err != nil {
			cfg.logger().Printf("memtest: working set restore failed: %v", err)
		}
	}
}

func pageSizeWords(l oslock.Locker) int {
	words := l.PageSize() / WordSize
	if words < 1 {
		return 1
	}

	return words
}

// saturatingMul multiplies a by b, clamping to math.MaxUint64 on
// overflow instead of wrapping, per spec.md §4.4's "saturating
// multiplication" for the working-set resize request.
func saturatingMul(a uint64, b uint64) uint64 {
	if a == 0 || b == 0 {
		return 0
	}

	p := a * b
	if p/a != b {
		return ^uint64(0)
	}

	return p
}
