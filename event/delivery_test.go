// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package event

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSubscriber struct {
	err    error
	panics bool
	closed bool
}

func (m *mockSubscriber) Deliver(Event) error {
	if m.panics {
		panic("boom")
	}
	return m.err
}

func (m *mockSubscriber) Close() {
	m.closed = true
}

func TestDeliverFailureUnregisters(t *testing.T) {
	testDefs := []struct {
		name string
		sub  *mockSubscriber
	}{
		{"error", &mockSubscriber{err: errors.New("deliver failed")}},
		{"panic", &mockSubscriber{panics: true}},
	}
	for _, tc := range testDefs {
		t.Run(tc.name, func(t *testing.T) {
			eb := NewEventBus(nil, nil)
			defer eb.Stop()
			subId := eb.RegisterSubscriber("test.fail", tc.sub)
			require.NotZero(t, subId)
			eb.Publish("test.fail", NewEvent("test.fail", "x"))
			eb.mu.RLock()
			_, exists := eb.subscribers["test.fail"][subId]
			eb.mu.RUnlock()
			assert.False(t, exists, "subscriber should be removed")
			assert.True(t, tc.sub.closed, "subscriber should be closed")
		})
	}
}

func TestChannelSubscriberDropsWhenFull(t *testing.T) {
	const bufferSize = 5
	var dropped int
	sub := newChannelSubscriber(bufferSize, func(Event) { dropped++ })
	for i := range bufferSize + 1 {
		require.NoError(t, sub.Deliver(NewEvent("test", i)))
	}
	assert.Equal(t, 1, dropped)
	assert.Len(t, sub.ch, bufferSize)
	first := <-sub.ch
	assert.Equal(t, 0, first.Data)
}

func TestChannelSubscriberDeliverAfterClose(t *testing.T) {
	sub := newChannelSubscriber(5, nil)
	sub.Close()
	sub.Close()
	require.NoError(t, sub.Deliver(NewEvent("test", "after-close")))
}
