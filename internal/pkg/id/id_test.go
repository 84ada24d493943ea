package id

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNew_SortsInGenerationOrder(t *testing.T) {
	ids := make([]string, 500)
	for i := range ids {
		ids[i] = New()
	}
	assert.True(t, sort.StringsAreSorted(ids))
}

func TestNewAt_OrdersByTimestamp(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	older := NewAt(base)
	newer := NewAt(base.Add(time.Second))
	assert.Less(t, older, newer)
	assert.Len(t, older, 26)
}
