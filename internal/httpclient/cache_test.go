package httpclient

import "testing"

func TestKeyDeterministicRegardlessOfOrder(t *testing.T) {
	k1 := Key("hackernews", []string{"python", "rust"}, map[string]string{"a": "1", "b": "2"})
	k2 := Key("hackernews", []string{"rust", "python"}, map[string]string{"b": "2", "a": "1"})
	if k1 != k2 {
		t.Errorf("expected order-independent keys, got %q vs %q", k1, k2)
	}
}

func TestKeyDiffersByPlugin(t *testing.T) {
	k1 := Key("hackernews", []string{"python"}, nil)
	k2 := Key("reddit", []string{"python"}, nil)
	if k1 == k2 {
		t.Error("expected different plugins to produce different keys")
	}
}

func TestKeyPrefixed(t *testing.T) {
	k := Key("devto", []string{"go"}, nil)
	if len(k) < len("scraper:devto:") {
		t.Fatalf("key too short: %q", k)
	}
	if k[:len("scraper:devto:")] != "scraper:devto:" {
		t.Errorf("expected scraper:devto: prefix, got %q", k)
	}
}
