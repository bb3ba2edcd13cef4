package scopegraph

import (
	"runtime"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
)

// tree is the state shared by every container of one ownership tree.
// The mutex serialises resolutions and destroys; the goroutine that holds
// it may re-enter without blocking, which is how constructors resolve
// their own dependencies.
type tree struct {
	mu       sync.Mutex
	holder   atomic.Int64
	resolver *Resolver
}

// acquire locks the tree unless the calling goroutine already holds it.
func (t *tree) acquire() (release func()) {
	id := goid()
	if t.holder.Load() == id {
		return func() {}
	}
	t.mu.Lock()
	t.holder.Store(id)
	return func() {
		t.holder.Store(0)
		t.mu.Unlock()
	}
}

// goid returns the current goroutine ID.
func goid() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	idField := strings.Fields(strings.TrimPrefix(string(buf[:n]), "goroutine "))[0]
	id, _ := strconv.ParseInt(idField, 10, 64)
	return id
}
