package session

import (
	"fmt"
	"sync"
)

// UserMutex hands out one mutex per user id, so that commands of the same
// user run one at a time while different users proceed in parallel.
type UserMutex struct {
	// mutexes maps a user id to its mutex and the number of goroutines
	// holding or waiting for it.
	mutexes map[int64]*cntMutex

	mapMtx sync.Mutex
}

type cntMutex struct {
	cnt int
	sync.Mutex
}

func NewUserMutex() *UserMutex {
	return &UserMutex{
		mutexes: make(map[int64]*cntMutex),
	}
}

// Lock blocks until the mutex of userID is available.
func (c *UserMutex) Lock(userID int64) {
	c.mapMtx.Lock()
	mtx, ok := c.mutexes[userID]
	if ok {
		mtx.cnt++
	} else {
		mtx = &cntMutex{cnt: 1}
		c.mutexes[userID] = mtx
	}
	c.mapMtx.Unlock()

	mtx.Lock()
}

// Unlock releases the mutex of userID. Unlocking a user that is not locked
// panics.
func (c *UserMutex) Unlock(userID int64) {
	c.mapMtx.Lock()
	mtx, ok := c.mutexes[userID]
	if !ok {
		c.mapMtx.Unlock()
		panic(fmt.Sprintf("double unlock for user %d", userID))
	}

	// the last holder removes the entry; waiters have already bumped cnt
	mtx.cnt--
	if mtx.cnt == 0 {
		delete(c.mutexes, userID)
	}
	c.mapMtx.Unlock()

	mtx.Unlock()
}
