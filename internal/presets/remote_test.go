package presets

import "testing"

func TestRemoteKeyWithoutPrefix(t *testing.T) {
	r := &Remote{cfg: RemoteConfig{Bucket: "b"}}
	if got := r.key("wave.json"); got != "wave.json" {
		t.Fatalf("key() = %q, want wave.json", got)
	}
}

func TestRemoteKeyWithPrefix(t *testing.T) {
	r := &Remote{cfg: RemoteConfig{Bucket: "b", Prefix: "presets/"}}
	if got := r.key("wave.json"); got != "presets/wave.json" {
		t.Fatalf("key() = %q, want presets/wave.json", got)
	}
}

func TestRemoteKeyPrefixWithoutTrailingSlash(t *testing.T) {
	r := &Remote{cfg: RemoteConfig{Bucket: "b", Prefix: "presets"}}
	if got := r.key("wave.json"); got != "presets/wave.json" {
		t.Fatalf("key() = %q, want presets/wave.json", got)
	}
}
