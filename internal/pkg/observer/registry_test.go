package observer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistryNotifiesInOrderAndUnsubscribes(t *testing.T) {
	var reg Registry[int]
	var calls []string

	unsubA := reg.Subscribe(func(v int) { calls = append(calls, "a") })
	reg.Subscribe(func(v int) { calls = append(calls, "b") })

	builds := 0
	reg.Notify(func() int { builds++; return builds })
	assert.Equal(t, []string{"a", "b"}, calls)
	assert.Equal(t, 2, builds)

	unsubA()
	unsubA()
	calls = nil
	reg.Notify(func() int { return 0 })
	assert.Equal(t, []string{"b"}, calls)
	assert.Equal(t, 1, reg.Len())
}

func TestRegistryListenerMayUnsubscribeDuringNotify(t *testing.T) {
	var reg Registry[string]
	var unsub func()
	hits := 0
	unsub = reg.Subscribe(func(string) {
		hits++
		unsub()
	})

	reg.Notify(func() string { return "x" })
	reg.Notify(func() string { return "y" })
	assert.Equal(t, 1, hits)
	assert.Zero(t, reg.Len())
}
