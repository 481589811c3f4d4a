package converter

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

var webmClip = append([]byte{0x1A, 0x45, 0xDF, 0xA3}, bytes.Repeat([]byte{0x42}, 64)...)

func TestConvertDirectMedia(t *testing.T) {
	converted := []byte("converted-mp4-bytes")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/convert" {
			t.Errorf("path = %q, want /convert", r.URL.Path)
		}
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			t.Fatalf("not a multipart request: %v", err)
		}
		if r.FormValue("width") != "1280" || r.FormValue("height") != "720" {
			t.Errorf("dimensions = %s x %s", r.FormValue("width"), r.FormValue("height"))
		}
		if _, _, err := r.FormFile("file"); err != nil {
			t.Errorf("file field missing: %v", err)
		}
		w.Header().Set("Content-Type", "video/mp4")
		w.Write(converted)
	}))
	defer srv.Close()

	res := New(srv.URL).Convert(context.Background(), webmClip, 1280, 720, "webm")
	if !res.Converted {
		t.Fatal("Converted = false for a successful conversion")
	}
	if !bytes.Equal(res.Bytes, converted) {
		t.Error("returned bytes are not the converted payload")
	}
	if res.Ext != "mp4" {
		t.Errorf("ext = %q, want mp4", res.Ext)
	}
}

func TestConvertJSONRedirect(t *testing.T) {
	converted := []byte("redirected-media")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/convert":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"url": "/result/42.mp4"}`))
		case "/result/42.mp4":
			w.Header().Set("Content-Type", "video/mp4")
			w.Write(converted)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	res := New(srv.URL).Convert(context.Background(), webmClip, 1280, 720, "webm")
	if !res.Converted {
		t.Fatal("Converted = false for a redirect conversion")
	}
	if !bytes.Equal(res.Bytes, converted) {
		t.Error("returned bytes are not the redirected payload")
	}
}

func TestConvertServerErrorFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	res := New(srv.URL).Convert(context.Background(), webmClip, 1280, 720, "webm")
	if res.Converted {
		t.Error("Converted = true after a 500")
	}
	if !bytes.Equal(res.Bytes, webmClip) {
		t.Error("fallback bytes differ from the original clip")
	}
	if res.Ext != "webm" {
		t.Errorf("ext = %q, want webm", res.Ext)
	}
}

func TestConvertJSONFailureFlagFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success": false, "url": "/result/42.mp4"}`))
	}))
	defer srv.Close()

	res := New(srv.URL).Convert(context.Background(), webmClip, 1280, 720, "webm")
	if res.Converted {
		t.Error("Converted = true despite success=false")
	}
	if !bytes.Equal(res.Bytes, webmClip) {
		t.Error("fallback bytes differ from the original clip")
	}
}

func TestConvertMalformedJSONFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"nope": tru`))
	}))
	defer srv.Close()

	res := New(srv.URL).Convert(context.Background(), webmClip, 1280, 720, "webm")
	if res.Converted {
		t.Error("Converted = true for malformed JSON")
	}
	if !bytes.Equal(res.Bytes, webmClip) {
		t.Error("fallback bytes differ from the original clip")
	}
}

func TestConvertUnreachableFallsBack(t *testing.T) {
	c := New("http://127.0.0.1:1")
	c.HTTPClient.Timeout = 500 * time.Millisecond

	res := c.Convert(context.Background(), webmClip, 1280, 720, "webm")
	if res.Converted {
		t.Error("Converted = true with no server")
	}
	if !bytes.Equal(res.Bytes, webmClip) {
		t.Error("fallback bytes differ from the original clip")
	}
}

func TestConvertRejectsNonVideo(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	junk := []byte("definitely not a container")
	res := New(srv.URL).Convert(context.Background(), junk, 1280, 720, "webm")
	if called {
		t.Error("non-video payload was uploaded anyway")
	}
	if res.Converted || !bytes.Equal(res.Bytes, junk) {
		t.Error("non-video payload should fall back unchanged")
	}
}

func TestHealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if !New(srv.URL).Healthy(context.Background()) {
		t.Error("Healthy = false for a live server")
	}
	if New("http://127.0.0.1:1").Healthy(context.Background()) {
		t.Error("Healthy = true with no server")
	}
}
