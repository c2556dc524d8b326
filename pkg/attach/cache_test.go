package attach

import (
	"fmt"
	"testing"
	"time"
)

func TestCacheGetSet(t *testing.T) {
	cache := NewCache(10, time.Hour)

	if _, ok := cache.Get("missing"); ok {
		t.Error("empty cache returned a hit")
	}

	result := UploadResult{FileID: "file-1", ByteSize: 42, Kind: KindImage}
	cache.Set("key", result)

	got, ok := cache.Get("key")
	if !ok {
		t.Fatal("expected hit")
	}
	if got != result {
		t.Errorf("got %+v, want %+v", got, result)
	}
}

func TestCacheTTLExpiryIsMissAndPurges(t *testing.T) {
	cache := NewCache(10, time.Hour)
	current := time.Unix(1000, 0)
	cache.now = func() time.Time { return current }

	cache.Set("key", UploadResult{FileID: "file-1"})

	current = current.Add(30 * time.Minute)
	if _, ok := cache.Get("key"); !ok {
		t.Fatal("entry expired too early")
	}

	current = current.Add(31 * time.Minute)
	if _, ok := cache.Get("key"); ok {
		t.Fatal("expired entry returned as hit")
	}
	if cache.Len() != 0 {
		t.Errorf("expired entry not purged, len = %d", cache.Len())
	}
}

func TestCacheOverflowPurgesExpiredFirst(t *testing.T) {
	cache := NewCache(5, time.Hour)
	current := time.Unix(1000, 0)
	cache.now = func() time.Time { return current }

	for i := 0; i < 5; i++ {
		cache.Set(fmt.Sprintf("old-%d", i), UploadResult{FileID: "old"})
	}

	// All five expire; the insert at capacity should drop only them.
	current = current.Add(2 * time.Hour)
	cache.Set("fresh", UploadResult{FileID: "fresh"})

	if cache.Len() != 1 {
		t.Errorf("len = %d, want 1", cache.Len())
	}
	if _, ok := cache.Get("fresh"); !ok {
		t.Error("fresh entry missing after eviction")
	}
}

func TestCacheOverflowDropsOldestByExpiry(t *testing.T) {
	cache := NewCache(10, time.Hour)
	current := time.Unix(1000, 0)
	cache.now = func() time.Time { return current }

	for i := 0; i < 10; i++ {
		cache.Set(fmt.Sprintf("key-%d", i), UploadResult{FileID: fmt.Sprintf("file-%d", i)})
		current = current.Add(time.Minute)
	}

	// Nothing is expired, so the oldest tenth (one entry) is dropped.
	cache.Set("newest", UploadResult{FileID: "newest"})

	if cache.Len() != 10 {
		t.Errorf("len = %d, want 10", cache.Len())
	}
	if _, ok := cache.Get("key-0"); ok {
		t.Error("oldest entry survived eviction")
	}
	if _, ok := cache.Get("key-1"); !ok {
		t.Error("second-oldest entry evicted, only the oldest tenth should go")
	}
	if _, ok := cache.Get("newest"); !ok {
		t.Error("newest entry missing")
	}
}

func TestCacheClear(t *testing.T) {
	cache := NewCache(10, time.Hour)
	cache.Set("a", UploadResult{})
	cache.Set("b", UploadResult{})

	if n := cache.Clear(); n != 2 {
		t.Errorf("Clear() = %d, want 2", n)
	}
	if cache.Len() != 0 {
		t.Errorf("len after clear = %d", cache.Len())
	}
}
