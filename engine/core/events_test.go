package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventFireStopsAtFirstHandler(t *testing.T) {
	require.True(t, EventInitialize())
	t.Cleanup(func() { _ = EventShutdown() })

	var calls []string
	first, second := new(int), new(int)
	handler := func(name string, handled bool) FnOnEvent {
		return func(code SystemEventCode, sender, listener interface{}, data EventContext) bool {
			calls = append(calls, name)
			return handled
		}
	}
	require.True(t, EventRegister(EVENT_CODE_RESIZED, first, handler("first", false)))
	require.True(t, EventRegister(EVENT_CODE_RESIZED, second, handler("second", true)))
	assert.False(t, EventRegister(EVENT_CODE_RESIZED, first, handler("again", true)))

	var ctx EventContext
	ctx.Data.U32[0] = 800
	assert.True(t, EventFire(EVENT_CODE_RESIZED, nil, ctx))
	assert.Equal(t, []string{"first", "second"}, calls)

	require.True(t, EventUnregister(EVENT_CODE_RESIZED, second))
	assert.False(t, EventFire(EVENT_CODE_RESIZED, nil, ctx))
	assert.False(t, EventUnregister(EVENT_CODE_RESIZED, second))
}

func TestEventsRequireInitialization(t *testing.T) {
	assert.False(t, EventRegister(EVENT_CODE_APPLICATION_QUIT, nil, func(SystemEventCode, interface{}, interface{}, EventContext) bool { return true }))
	assert.False(t, EventFire(EVENT_CODE_APPLICATION_QUIT, nil, EventContext{}))
}
