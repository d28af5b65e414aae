package emit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/aquaregwatch/regwatch/lib/models"
)

type countingSub struct {
	calls int
	last  *models.ChangeEvent
}

func (s *countingSub) OnChangeDetected(ctx context.Context, event *models.ChangeEvent) {
	s.calls++
	s.last = event
}

func TestDispatchReachesEverySubscriberOnce(t *testing.T) {
	a := &countingSub{}
	b := &countingSub{}

	reg := NewRegistry(zap.NewNop())
	reg.Register("a", a)
	reg.Register("b", b)

	event := &models.ChangeEvent{SourceID: "fiskeridir-akvakultur", HasChanges: true}
	reg.Dispatch(context.Background(), event)

	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 1, b.calls)
	assert.Same(t, event, a.last)
	assert.Same(t, event, b.last)
}

func TestRegisterReplacesByName(t *testing.T) {
	a := &countingSub{}
	b := &countingSub{}

	reg := NewRegistry(zap.NewNop())
	reg.Register("notify", a)
	reg.Register("notify", b)

	reg.Dispatch(context.Background(), &models.ChangeEvent{SourceID: "x"})

	assert.Equal(t, 0, a.calls)
	assert.Equal(t, 1, b.calls)
}
