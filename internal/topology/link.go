package topology

import (
	"sync"
	"sync/atomic"

	"github.com/aretw0/dataflow/pkg/domain"
)

// Link owns a live connection handle and disconnects it exactly once.
// When endpoint removal and explicit removal both tear down the same link,
// the first release wins and the second is a no-op.
type Link struct {
	conn     domain.Connection
	once     sync.Once
	released atomic.Bool
}

// NewLink wraps a connection handle.
func NewLink(conn domain.Connection) *Link {
	return &Link{conn: conn}
}

// Release disconnects the underlying handle.
// It reports whether this call performed the release.
func (l *Link) Release() bool {
	done := false
	l.once.Do(func() {
		if l.conn != nil {
			l.conn.Disconnect()
		}
		l.released.Store(true)
		done = true
	})
	return done
}

// Released reports whether the handle has been disconnected.
func (l *Link) Released() bool {
	return l.released.Load()
}
