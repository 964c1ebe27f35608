package eval

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greynewell/intentbench/benchtest"
	"github.com/greynewell/intentbench/errors"
	"github.com/greynewell/intentbench/logging"
)

func TestWaitReadyPollsUntilReady(t *testing.T) {
	var buf bytes.Buffer
	log := logging.New("test", logging.LevelInfo, logging.WithWriter(&buf), logging.WithFormat("text"))
	fake := &benchtest.Fake{NotReadyFor: 3}

	notReady := 0
	waited, err := WaitReady(context.Background(), fake, time.Millisecond, log, func() { notReady++ })
	require.NoError(t, err)

	assert.Equal(t, 4, fake.ReadyCalls())
	assert.Equal(t, 3, notReady)
	assert.Positive(t, waited)
	assert.Equal(t, 3, bytes.Count(buf.Bytes(), []byte("API is not ready, will retry in 0.001 seconds...")))
}

func TestWaitReadyCancelled(t *testing.T) {
	fake := &benchtest.Fake{NotReadyFor: 1 << 30}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := WaitReady(ctx, fake, 5*time.Millisecond, logging.Discard(), nil)
	require.Error(t, err)
	assert.Equal(t, errors.CodeCancelled, errors.Code(err))
	assert.Greater(t, fake.ReadyCalls(), 1)
}

func TestWaitReadyDefaultInterval(t *testing.T) {
	var buf bytes.Buffer
	log := logging.New("test", logging.LevelInfo, logging.WithWriter(&buf))
	fake := &benchtest.Fake{NotReadyFor: 1}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := WaitReady(ctx, fake, 0, log, nil)
	require.Error(t, err, "the default 5s delay outlasts the deadline")
	assert.Contains(t, buf.String(), "will retry in 5 seconds")
}
