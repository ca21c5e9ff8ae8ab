package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBusPublishAndUnsubscribe(t *testing.T) {
	var b Bus[string]
	var got []string
	unsubA := b.Subscribe(func(s string) { got = append(got, "a:"+s) })
	b.Subscribe(func(s string) { got = append(got, "b:"+s) })

	b.Publish("x")
	unsubA()
	unsubA()
	b.Publish("y")

	assert.Equal(t, []string{"a:x", "b:x", "b:y"}, got)
	assert.Equal(t, 1, b.Len())
}

func TestBusUnsubscribeDuringPublish(t *testing.T) {
	var b Bus[int]
	calls := 0
	var unsub func()
	unsub = b.Subscribe(func(int) {
		calls++
		unsub()
	})
	b.Publish(1)
	b.Publish(2)
	assert.Equal(t, 1, calls)
}
