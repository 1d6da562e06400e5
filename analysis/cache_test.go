package analysis

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCacheBasics(t *testing.T) {
	c := NewCache()

	_, ok := c.Get("missing.mp3")
	assert.False(t, ok)

	d := Descriptor{BPM: 128, HasBPM: true, Camelot: "8A"}
	c.Put("track.mp3", d)

	got, ok := c.Get("track.mp3")
	assert.True(t, ok)
	assert.Equal(t, d, got)
	assert.Equal(t, 1, c.Len())

	c.Invalidate("track.mp3")
	_, ok = c.Get("track.mp3")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestCacheInvalidateMissingIsNoop(t *testing.T) {
	c := NewCache()
	c.Invalidate("never-seen.mp3")
	assert.Equal(t, 0, c.Len())
}

func TestCacheConcurrentAccess(t *testing.T) {
	c := NewCache()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				path := fmt.Sprintf("track-%d.mp3", j%10)
				c.Put(path, Descriptor{BPM: 100 + i, HasBPM: true, Camelot: "8A"})
				c.Get(path)
				if j%7 == 0 {
					c.Invalidate(path)
				}
			}
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Len(), 10)
}
