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
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	EventQueueSize   = 20
	AsyncQueueLength = 1000
	AsyncWorkers     = 4
)

type EventType string

type SubscriberId int

type HandlerFunc func(Event)

type Event struct {
	Timestamp time.Time
	Data      any
	Type      EventType
}

// NewEvent stamps data with the current time
func NewEvent(t EventType, data any) Event {
	return Event{Type: t, Data: data, Timestamp: time.Now()}
}

type EventBus struct {
	subscribers map[EventType]map[SubscriberId]Subscriber
	metrics     *eventMetrics
	logger      *slog.Logger
	nextSubId   SubscriberId
	mu          sync.RWMutex

	asyncQueue chan Event
	asyncWg    sync.WaitGroup
	handlerWg  sync.WaitGroup
	stopCh     chan struct{}
	stopOnce   sync.Once
	stopMu     sync.RWMutex
	stopped    bool
}

// NewEventBus creates an EventBus and starts its async delivery workers. Stop
// must be called to release them.
func NewEventBus(
	promRegistry prometheus.Registerer,
	logger *slog.Logger,
) *EventBus {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	e := &EventBus{
		subscribers: make(map[EventType]map[SubscriberId]Subscriber),
		logger:      logger.With("component", "event"),
		asyncQueue:  make(chan Event, AsyncQueueLength),
		stopCh:      make(chan struct{}),
	}
	e.initMetrics(promRegistry)
	for range AsyncWorkers {
		e.asyncWg.Add(1)
		go e.runAsyncWorker()
	}
	return e
}

func (e *EventBus) runAsyncWorker() {
	defer e.asyncWg.Done()
	for {
		select {
		case <-e.stopCh:
			return
		case evt := <-e.asyncQueue:
			e.Publish(evt.Type, evt)
		}
	}
}

// Subscriber receives events from the bus. Close must be idempotent.
type Subscriber interface {
	Deliver(Event) error
	Close()
}

// channelSubscriber delivers into a buffered channel. Events are dropped
// when the buffer is full so a slow reader never blocks a publisher.
type channelSubscriber struct {
	ch     chan Event
	onDrop func(Event)
	mu     sync.RWMutex
	closed bool
}

func newChannelSubscriber(buffer int, onDrop func(Event)) *channelSubscriber {
	return &channelSubscriber{
		ch:     make(chan Event, buffer),
		onDrop: onDrop,
	}
}

func (c *channelSubscriber) Deliver(evt Event) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return nil
	}
	select {
	case c.ch <- evt:
	default:
		if c.onDrop != nil {
			c.onDrop(evt)
		}
	}
	return nil
}

func (c *channelSubscriber) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.ch)
}

func (e *EventBus) addSubscriber(
	eventType EventType,
	sub Subscriber,
	kind string,
) SubscriberId {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextSubId++
	subId := e.nextSubId
	typeSubs := e.subscribers[eventType]
	if typeSubs == nil {
		typeSubs = make(map[SubscriberId]Subscriber)
		e.subscribers[eventType] = typeSubs
	}
	typeSubs[subId] = sub
	e.metrics.subscribers.WithLabelValues(string(eventType), kind).Inc()
	return subId
}

// Subscribe returns a channel that receives events of the given type. The
// channel is closed by Unsubscribe or Stop.
func (e *EventBus) Subscribe(
	eventType EventType,
) (SubscriberId, <-chan Event) {
	chSub := newChannelSubscriber(EventQueueSize, func(evt Event) {
		e.metrics.dropped.WithLabelValues(string(evt.Type)).Inc()
		e.logger.Debug("subscriber buffer full, dropping event", "type", evt.Type)
	})
	subId := e.addSubscriber(eventType, chSub, subscriberKindChannel)
	return subId, chSub.ch
}

// SubscribeFunc calls handler for every event of the given type from a
// dedicated goroutine
func (e *EventBus) SubscribeFunc(
	eventType EventType,
	handler HandlerFunc,
) SubscriberId {
	subId, evtCh := e.Subscribe(eventType)
	e.handlerWg.Add(1)
	go func() {
		defer e.handlerWg.Done()
		for evt := range evtCh {
			handler(evt)
		}
	}()
	return subId
}

// RegisterSubscriber adds a custom Subscriber implementation
func (e *EventBus) RegisterSubscriber(
	eventType EventType,
	sub Subscriber,
) SubscriberId {
	return e.addSubscriber(eventType, sub, subscriberKindCustom)
}

// Unsubscribe removes a subscriber and closes it
func (e *EventBus) Unsubscribe(eventType EventType, subId SubscriberId) {
	e.mu.Lock()
	var sub Subscriber
	if typeSubs, ok := e.subscribers[eventType]; ok {
		if s, ok := typeSubs[subId]; ok {
			sub = s
			delete(typeSubs, subId)
			if len(typeSubs) == 0 {
				delete(e.subscribers, eventType)
			}
			e.metrics.subscribers.WithLabelValues(
				string(eventType),
				subscriberKind(s),
			).Dec()
		}
	}
	e.mu.Unlock()
	if sub != nil {
		sub.Close()
	}
}

// Publish delivers an event to all current subscribers of its type. A
// subscriber that fails or panics is removed.
func (e *EventBus) Publish(eventType EventType, evt Event) {
	e.mu.RLock()
	subs := maps.Clone(e.subscribers[eventType])
	e.mu.RUnlock()
	for subId, sub := range subs {
		if err := deliver(sub, evt); err != nil {
			e.Unsubscribe(eventType, subId)
			e.metrics.deliveryErrors.WithLabelValues(
				string(eventType),
				subscriberKind(sub),
			).Inc()
			e.logger.Debug(
				"event delivery error",
				"type", eventType,
				"error", err,
			)
		}
	}
	e.metrics.eventsTotal.WithLabelValues(string(eventType)).Inc()
}

func deliver(sub Subscriber, evt Event) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("subscriber panicked: %v", p)
		}
	}()
	return sub.Deliver(evt)
}

// PublishAsync queues an event for delivery by the worker pool. It returns
// false if the bus is stopped or the queue is full.
func (e *EventBus) PublishAsync(eventType EventType, evt Event) bool {
	e.stopMu.RLock()
	defer e.stopMu.RUnlock()
	if e.stopped {
		return false
	}
	evt.Type = eventType
	select {
	case e.asyncQueue <- evt:
		return true
	default:
		e.logger.Warn("async event queue full, dropping event", "type", eventType)
		e.metrics.dropped.WithLabelValues(string(eventType)).Inc()
		return false
	}
}

// Stop halts the async workers and closes every subscriber. Events still in
// the async queue are discarded. Stop is idempotent.
func (e *EventBus) Stop() {
	e.stopOnce.Do(func() {
		e.stopMu.Lock()
		e.stopped = true
		e.stopMu.Unlock()
		close(e.stopCh)
		e.asyncWg.Wait()

		e.mu.Lock()
		subs := e.subscribers
		e.subscribers = make(map[EventType]map[SubscriberId]Subscriber)
		e.mu.Unlock()
		for _, typeSubs := range subs {
			for _, sub := range typeSubs {
				sub.Close()
			}
		}
		e.metrics.subscribers.Reset()
		// Handlers exit once their channels are closed
		e.handlerWg.Wait()
	})
}
