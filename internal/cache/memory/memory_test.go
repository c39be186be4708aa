package memory

import (
	"testing"
	"time"
)

func TestSetGetDelete(t *testing.T) {
	c := New(time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Fatal("unexpected hit")
	}

	c.Set("k", []byte("value"), time.Minute)
	got, ok := c.Get("k")
	if !ok || string(got) != "value" {
		t.Fatalf("got %q ok=%v", got, ok)
	}

	c.Delete("k")
	if _, ok := c.Get("k"); ok {
		t.Fatal("entry should be gone after delete")
	}
}

func TestExpiry(t *testing.T) {
	c := New(time.Minute)
	c.Set("k", []byte("v"), 10*time.Millisecond)
	time.Sleep(25 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Fatal("entry should have expired")
	}
}
