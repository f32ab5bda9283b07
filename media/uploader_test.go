package media

import (
	"testing"

	"naagrik-api/config"
)

func TestObjectKey(t *testing.T) {
	cases := map[[2]string]string{
		{"abc", ".png"}: "issues/abc.png",
		{"abc", "jpg"}:  "issues/abc.jpg",
		{"abc", ""}:     "issues/abc",
	}
	for in, want := range cases {
		if got := ObjectKey(in[0], in[1]); got != want {
			t.Errorf("ObjectKey(%q, %q) = %q, want %q", in[0], in[1], got, want)
		}
	}
}

func TestPublicBase(t *testing.T) {
	if got := publicBase(config.Storage{Endpoint: "s3.local:9000", Bucket: "photos"}); got != "http://s3.local:9000/photos" {
		t.Errorf("got %q", got)
	}
	if got := publicBase(config.Storage{Endpoint: "s3.local", Bucket: "photos", UseSSL: true}); got != "https://s3.local/photos" {
		t.Errorf("got %q", got)
	}
	if got := publicBase(config.Storage{PublicBaseURL: "https://cdn.example.com/photos/"}); got != "https://cdn.example.com/photos" {
		t.Errorf("got %q", got)
	}
}
