package memory_test

import (
	"testing"

	"printq/internal/queue"
	"printq/internal/store/memory"
	"printq/internal/store/storetest"
)

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) queue.Store {
		return memory.New()
	})
}
