package application_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lego-house/internal/application"
	"lego-house/internal/domain"
)

func newDispatcher(volume int) (*application.InputDispatcher, *application.InstallationState, *recordingTransport) {
	state := application.NewInstallationState(domain.ModeOff, volume)
	transport := &recordingTransport{}
	controller := application.NewDeviceController(state, transport, testRange, discardLogger())
	return application.NewInputDispatcher(state, controller, discardLogger()), state, transport
}

func TestInputDispatcher_KeySequence(t *testing.T) {
	d, state, _ := newDispatcher(5)

	for _, k := range []rune{'h', 'a', '+', '-'} {
		assert.True(t, d.Handle(context.Background(), k), "key %q", k)
	}

	assert.Equal(t, domain.HouseRequestSave, state.HouseRequest())
	assert.Equal(t, domain.ModeFirstFloorLight, state.Mode())
	assert.Equal(t, 5, state.Volume())
}

func TestInputDispatcher_UnrecognizedKey(t *testing.T) {
	d, state, transport := newDispatcher(5)
	d.Handle(context.Background(), 'H')
	d.Handle(context.Background(), '2')
	before := state.Snapshot()
	sentBefore := len(transport.commands())

	assert.False(t, d.Handle(context.Background(), 'z'))

	assert.Equal(t, before, state.Snapshot())
	assert.Len(t, transport.commands(), sentBefore)
}

func TestInputDispatcher_HouseKeysAreCaseSensitive(t *testing.T) {
	d, state, transport := newDispatcher(5)

	d.Handle(context.Background(), 'H')
	assert.Equal(t, domain.HouseRequestLoad, state.HouseRequest())

	d.Handle(context.Background(), 'm')
	assert.Equal(t, domain.HouseRequestMove, state.HouseRequest(), "last request wins")

	d.Handle(context.Background(), 'h')
	assert.Equal(t, domain.HouseRequestSave, state.HouseRequest())

	assert.Empty(t, transport.commands())
}

func TestInputDispatcher_ModeTokens(t *testing.T) {
	for _, m := range domain.Modes() {
		d, state, transport := newDispatcher(5)

		require.True(t, d.Handle(context.Background(), rune(m.Token()[0])))

		assert.Equal(t, m, state.Mode())
		sent := transport.commands()
		require.Len(t, sent, 1)
		assert.Equal(t, m, sent[0].Mode)
	}
}

func TestInputDispatcher_FirstFloorShortcutEmitsOnce(t *testing.T) {
	d, _, transport := newDispatcher(5)

	d.Handle(context.Background(), 'a')

	sent := transport.commands()
	require.Len(t, sent, 1)
	assert.Equal(t, domain.ModeFirstFloorLight, sent[0].Mode)
}

func TestInputDispatcher_Volume(t *testing.T) {
	d, state, transport := newDispatcher(9)

	d.Handle(context.Background(), '+')
	d.Handle(context.Background(), '+')
	assert.Equal(t, 10, state.Volume())

	d.Handle(context.Background(), '-')
	assert.Equal(t, 9, state.Volume())
	assert.Len(t, transport.commands(), 3)
}
