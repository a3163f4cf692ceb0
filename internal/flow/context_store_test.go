package flow

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/BTreeMap/WellbeingBot/internal/models"
)

func TestMemoryContextStoreSingleSlot(t *testing.T) {
	cs := NewMemoryContextStore()
	assert.Equal(t, models.ExpectationNone, cs.Get(1))

	cs.Set(1, models.ExpectationTaskTitle)
	assert.Equal(t, models.ExpectationTaskTitle, cs.Get(1))

	cs.Set(1, models.ExpectationTaskCompletionIndex)
	assert.Equal(t, models.ExpectationTaskCompletionIndex, cs.Get(1))

	assert.Equal(t, models.ExpectationNone, cs.Get(2), "users must not see each other's state")

	cs.Clear(1)
	assert.Equal(t, models.ExpectationNone, cs.Get(1))

	cs.Set(1, models.ExpectationTaskTitle)
	cs.Set(1, models.ExpectationNone)
	assert.Equal(t, models.ExpectationNone, cs.Get(1))
}

func TestMemoryContextStoreTTL(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	cs := NewMemoryContextStore(WithExpectationTTL(time.Minute), withClock(func() time.Time { return now }))

	cs.Set(1, models.ExpectationTaskTitle)
	now = now.Add(59 * time.Second)
	assert.Equal(t, models.ExpectationTaskTitle, cs.Get(1))

	now = now.Add(2 * time.Second)
	assert.Equal(t, models.ExpectationNone, cs.Get(1))
}

func TestMemoryContextStoreNoTTLByDefault(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	cs := NewMemoryContextStore(withClock(func() time.Time { return now }))
	cs.Set(1, models.ExpectationTaskTitle)
	now = now.Add(365 * 24 * time.Hour)
	assert.Equal(t, models.ExpectationTaskTitle, cs.Get(1))
}

func TestMemoryContextStoreConcurrentUsers(t *testing.T) {
	cs := NewMemoryContextStore()
	var wg sync.WaitGroup
	for u := int64(1); u <= 50; u++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				cs.Set(userID, models.ExpectationTaskTitle)
				_ = cs.Get(userID)
				cs.Set(userID, models.ExpectationTaskCompletionIndex)
			}
		}(u)
	}
	wg.Wait()
	for u := int64(1); u <= 50; u++ {
		assert.Equal(t, models.ExpectationTaskCompletionIndex, cs.Get(u))
	}
}
