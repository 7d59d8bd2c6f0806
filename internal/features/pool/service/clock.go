package service

import (
	"context"
	"fmt"
	"time"
)

// Tick is the host time observed by one transaction.
type Tick struct {
	UnixTime int64
	Slot     uint64
	Epoch    uint64
}

type Clock interface {
	Now(ctx context.Context) (Tick, error)
}

// SlotClock derives slot and epoch from wall time elapsed since genesis.
type SlotClock struct {
	genesis       time.Time
	slotDuration  time.Duration
	slotsPerEpoch uint64
	now           func() time.Time
}

func NewSlotClock(genesis time.Time, slotDuration time.Duration, slotsPerEpoch uint64) *SlotClock {
	return &SlotClock{
		genesis:       genesis,
		slotDuration:  slotDuration,
		slotsPerEpoch: slotsPerEpoch,
		now:           time.Now,
	}
}

func (c *SlotClock) Now(_ context.Context) (Tick, error) {
	t := c.now()
	return c.at(t), nil
}

func (c *SlotClock) at(t time.Time) Tick {
	var slot uint64
	if elapsed := t.Sub(c.genesis); elapsed > 0 {
		slot = uint64(elapsed / c.slotDuration)
	}
	return Tick{
		UnixTime: t.Unix(),
		Slot:     slot,
		Epoch:    slot / c.slotsPerEpoch,
	}
}

// SlotSource reports the current chain sequence number.
type SlotSource interface {
	CurrentSlot(ctx context.Context) (uint64, error)
}

// ChainClock takes the slot from a live chain and time from the wall clock.
type ChainClock struct {
	source        SlotSource
	slotsPerEpoch uint64
	now           func() time.Time
}

func NewChainClock(source SlotSource, slotsPerEpoch uint64) *ChainClock {
	return &ChainClock{source: source, slotsPerEpoch: slotsPerEpoch, now: time.Now}
}

func (c *ChainClock) Now(ctx context.Context) (Tick, error) {
	slot, err := c.source.CurrentSlot(ctx)
	if err != nil {
		return Tick{}, fmt.Errorf("failed to read chain slot: %w", err)
	}
	return Tick{
		UnixTime: c.now().Unix(),
		Slot:     slot,
		Epoch:    slot / c.slotsPerEpoch,
	}, nil
}
