// Package stress drives an allocator with a random mix of Calloc, Realloc
// and Free calls and checks that no payload is ever disturbed.
//
// The driver keeps a table of job slots. Each step picks a slot at random.
// An empty slot is filled with a fresh Calloc of random size, which is
// checked for zeroes, filled with random bytes and hashed. A full slot is
// re-hashed and then either freed or reallocated to a new random size and
// refilled.
package stress

import (
	"errors"
	"fmt"
	"math/rand"
)

// Defaults match the classic driver.
const (
	DefaultSlots      = 1
	DefaultRequests   = 25
	DefaultMaxRequest = 4096
)

var (
	// ErrCorrupted indicates a payload changed while its slot was idle.
	ErrCorrupted = errors.New("stress: hash check failed")

	// ErrDirty indicates Calloc returned bytes that were not zero.
	ErrDirty = errors.New("stress: calloc returned non-zero bytes")

	// ErrBadConfig indicates an unusable Config.
	ErrBadConfig = errors.New("stress: invalid config")
)

// Allocator is the part of an allocator the driver exercises.
type Allocator interface {
	Calloc(count, size int) ([]byte, error)
	Realloc(p []byte, n int) ([]byte, error)
	Free(p []byte)
	HeapSize() int
}

// Config controls a run.
type Config struct {
	Seed       int64
	Slots      int
	Requests   int
	MaxRequest int // requests are drawn from [1, MaxRequest)

	// Release frees every slot still live when the run ends.
	Release bool

	// OnEvent, if set, is called after every step.
	OnEvent func(Event)
}

func (c Config) withDefaults() (Config, error) {
	if c.Slots == 0 {
		c.Slots = DefaultSlots
	}
	if c.Requests == 0 {
		c.Requests = DefaultRequests
	}
	if c.MaxRequest == 0 {
		c.MaxRequest = DefaultMaxRequest
	}
	if c.Slots < 0 || c.Requests < 0 || c.MaxRequest < 2 {
		return c, fmt.Errorf("%w: slots=%d requests=%d max=%d", ErrBadConfig, c.Slots, c.Requests, c.MaxRequest)
	}
	return c, nil
}

// Op is the action taken in one step.
type Op uint8

const (
	OpAlloc Op = iota
	OpFree
	OpRealloc
)

func (o Op) String() string {
	switch o {
	case OpAlloc:
		return "allocated"
	case OpFree:
		return "freed"
	case OpRealloc:
		return "reallocated"
	default:
		return fmt.Sprintf("op(%d)", uint8(o))
	}
}

// Event describes one completed step. Data is the slot's payload after the
// step and is nil for OpFree.
type Event struct {
	Step int
	Op   Op
	Slot int
	Size int
	Hash uint64
	Data []byte
}

func (e Event) String() string {
	return fmt.Sprintf("%s: {slot=%d size=%d hash=%x p=%p}", e.Op, e.Slot, e.Size, e.Hash, e.Data)
}

type job struct {
	p    []byte
	hash uint64
}

// Run performs cfg.Requests steps against a and reports what happened. The
// first allocation failure, non-zero Calloc or hash mismatch ends the run
// with an error; the partial report is still returned.
func Run(a Allocator, cfg Config) (Report, error) {
	cfg, err := cfg.withDefaults()
	if err != nil {
		return Report{}, err
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	jobs := make([]job, cfg.Slots)
	var r Report

	live := 0
	for step := range cfg.Requests {
		r.Requests++
		slot := rng.Intn(cfg.Slots)
		j := &jobs[slot]
		ev := Event{Step: step, Slot: slot}

		if j.p == nil {
			size := rng.Intn(cfg.MaxRequest-1) + 1
			p, err := a.Calloc(1, size)
			if err != nil {
				return r.finish(a), fmt.Errorf("stress: step %d: calloc(1, %d): %w", step, size, err)
			}
			for i, b := range p {
				if b != 0 {
					return r.finish(a), fmt.Errorf("%w: step %d, byte %d of %d", ErrDirty, step, i, size)
				}
			}
			j.p, j.hash = p, fillAndHash(rng, p)
			r.Allocs++
			live += size
			ev.Op = OpAlloc
		} else {
			if h := Hash(j.p); h != j.hash {
				return r.finish(a), fmt.Errorf("%w: step %d, slot %d: hash %x, want %x", ErrCorrupted, step, slot, h, j.hash)
			}
			live -= len(j.p)

			if rng.Intn(100) < 50 {
				a.Free(j.p)
				*j = job{}
				r.Frees++
				ev.Op = OpFree
			} else {
				size := rng.Intn(cfg.MaxRequest-1) + 1
				p, err := a.Realloc(j.p, size)
				if err != nil {
					return r.finish(a), fmt.Errorf("stress: step %d: realloc(%d): %w", step, size, err)
				}
				j.p, j.hash = p, fillAndHash(rng, p)
				r.Reallocs++
				live += size
				ev.Op = OpRealloc
			}
		}

		r.PeakLiveBytes = max(r.PeakLiveBytes, live)
		if cfg.OnEvent != nil {
			ev.Size, ev.Hash, ev.Data = len(j.p), j.hash, j.p
			cfg.OnEvent(ev)
		}
	}

	if cfg.Release {
		for i := range jobs {
			if jobs[i].p != nil {
				a.Free(jobs[i].p)
				jobs[i] = job{}
				r.Frees++
			}
		}
		live = 0
	}
	r.LiveBytes = live
	return r.finish(a), nil
}

func fillAndHash(rng *rand.Rand, p []byte) uint64 {
	_, _ = rng.Read(p)
	return Hash(p)
}

// Hash is a multiplicative LCG hash over p, seeded with 1.
func Hash(p []byte) uint64 {
	h := uint64(1)
	for _, b := range p {
		h = h*6364136223846793005 + uint64(b)
	}
	return h
}
