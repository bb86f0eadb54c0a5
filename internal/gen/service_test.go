package gen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/terrastream/server/internal/geom"
)

func TestSlowEnqueueDeliversWhenSpaceFrees(t *testing.T) {
	s := &Service{
		log:   zap.NewNop(),
		reqCh: make(chan Request, 1),
		done:  make(chan struct{}),
	}

	req := Request{Pos: geom.BlockPos{X: 1}, LOD: 0}
	require.True(t, s.slowEnqueue(req))
	assert.Equal(t, req, <-s.reqCh)
}

func TestSlowEnqueueGivesUpOnStop(t *testing.T) {
	s := &Service{
		log:   zap.NewNop(),
		reqCh: make(chan Request, 1),
		done:  make(chan struct{}),
	}
	s.reqCh <- Request{} // queue full, no worker will ever drain it

	close(s.done)
	assert.False(t, s.slowEnqueue(Request{Pos: geom.BlockPos{X: 2}}),
		"a stopped pool must release the slow path instead of leaking it")
}
