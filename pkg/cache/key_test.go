package cache

import "testing"

func TestCacheKey_String(t *testing.T) {
	tests := []struct {
		name string
		key  CacheKey
		want string
	}{
		{
			name: "namespace only",
			key:  CacheKey{Namespace: "catalog"},
			want: "catalog",
		},
		{
			name: "namespace with parts",
			key:  CacheKey{Namespace: "catalog", Parts: []string{"item", "42"}},
			want: "catalog:item:42",
		},
		{
			name: "local key",
			key:  CacheKey{Namespace: "catalog", Parts: []string{"all"}, Local: true},
			want: "catalog:all:local",
		},
		{
			name: "empty and colon-wrapped parts are normalized",
			key:  CacheKey{Namespace: "catalog", Parts: []string{"", ":item:", "7"}},
			want: "catalog:item:7",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.key.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKeyHelpers(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"listing shared", ListingKey(false), "catalog:all"},
		{"listing local", ListingKey(true), "catalog:all:local"},
		{"item shared", ItemKey(42, false), "catalog:item:42"},
		{"item local", ItemKey(42, true), "catalog:item:42:local"},
		{"user cart", CartKey("user:17"), "cart:user:17"},
		{"guest cart", CartKey("guest:abc-123"), "cart:guest:abc-123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestKeys_LocalAndSharedDiffer(t *testing.T) {
	if ListingKey(true) == ListingKey(false) {
		t.Error("local and shared listing keys must differ")
	}
	if ItemKey(1, true) == ItemKey(1, false) {
		t.Error("local and shared item keys must differ")
	}
	if ItemKey(1, false) == ItemKey(11, false) {
		t.Error("item keys must be unique per id")
	}
}
