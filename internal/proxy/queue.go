package proxy

import (
	"cmp"
	"slices"

	apperrors "github.com/allisson/credproxy/internal/errors"
)

var (
	// ErrUnknownSlot is returned by Fill for a number that is not queued.
	ErrUnknownSlot = apperrors.New("unknown response slot")

	// ErrSlotFilled is returned by Fill for a slot that already has a result.
	ErrSlotFilled = apperrors.New("response slot already filled")
)

type slot struct {
	number   uint64
	caller   CallerID
	response Response
}

// ResponseQueue releases responses in the order their slots were reserved,
// whatever order they are filled in. A filled slot waits behind every earlier
// slot that is still empty.
//
// ResponseQueue is not safe for concurrent use.
type ResponseQueue struct {
	next  uint64
	slots []slot
}

// NewResponseQueue creates an empty queue.
func NewResponseQueue() *ResponseQueue {
	return &ResponseQueue{}
}

// Reserve appends an empty slot for caller and returns its number. Numbers
// are strictly increasing.
func (q *ResponseQueue) Reserve(caller CallerID) uint64 {
	number := q.next
	q.next++
	q.slots = append(q.slots, slot{number: number, caller: caller})
	return number
}

// Fill stores response in slot number. Each slot is filled once.
func (q *ResponseQueue) Fill(number uint64, response Response) error {
	if response == nil {
		return apperrors.Wrap(apperrors.ErrInvalidInput, "nil response")
	}

	i, found := slices.BinarySearchFunc(q.slots, number, func(s slot, n uint64) int {
		return cmp.Compare(s.number, n)
	})
	if !found {
		return ErrUnknownSlot
	}
	if q.slots[i].response != nil {
		return ErrSlotFilled
	}

	q.slots[i].response = response
	return nil
}

// Drain pops filled slots off the front and stops at the first empty one.
func (q *ResponseQueue) Drain() []Delivery {
	n := 0
	for n < len(q.slots) && q.slots[n].response != nil {
		n++
	}
	if n == 0 {
		return nil
	}

	out := make([]Delivery, n)
	for i := range n {
		out[i] = Delivery{Caller: q.slots[i].caller, Response: q.slots[i].response}
		q.slots[i] = slot{}
	}
	q.slots = q.slots[n:]
	return out
}

// Len returns the number of slots not yet drained.
func (q *ResponseQueue) Len() int {
	return len(q.slots)
}
