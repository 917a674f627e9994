package lookup

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestYouTube(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "lofi beats" {
			t.Errorf("q = %q", got)
		}
		if got := r.URL.Query().Get("key"); got != "yt-key" {
			t.Errorf("key = %q", got)
		}
		w.Write([]byte(`{"items":[{"id":{"videoId":"abc123"},"snippet":{"title":"Lofi Beats","channelTitle":"ChillCo"}}]}`))
	}))
	defer srv.Close()

	c := New("yt-key", "")
	c.youtubeBase = srv.URL

	v, err := c.YouTube(context.Background(), "lofi beats")
	if err != nil {
		t.Fatalf("youtube: %v", err)
	}
	if v.Title != "Lofi Beats" || v.Channel != "ChillCo" {
		t.Fatalf("hit = %+v", v)
	}
	if !strings.HasSuffix(v.URL, "watch?v=abc123") {
		t.Fatalf("url = %q", v.URL)
	}
}

func TestYouTubeNoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items":[]}`))
	}))
	defer srv.Close()

	c := New("yt-key", "")
	c.youtubeBase = srv.URL
	if _, err := c.YouTube(context.Background(), "gibberish"); err == nil {
		t.Fatal("expected error for empty result set")
	}
}

func TestYouTubeUnconfigured(t *testing.T) {
	c := New("", "")
	if _, err := c.YouTube(context.Background(), "anything"); err == nil {
		t.Fatal("expected configuration error")
	}
}

func TestMovie(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("t"); got != "Heat" {
			t.Errorf("t = %q", got)
		}
		w.Write([]byte(`{"Title":"Heat","Year":"1995","Rated":"R","Genre":"Crime","Plot":"A heist goes wrong.","imdbRating":"8.3","Response":"True"}`))
	}))
	defer srv.Close()

	c := New("", "omdb-key")
	c.omdbBase = srv.URL

	m, err := c.Movie(context.Background(), "Heat")
	if err != nil {
		t.Fatalf("movie: %v", err)
	}
	if m.Title != "Heat" || m.Year != "1995" || m.Rating != "8.3" {
		t.Fatalf("movie = %+v", m)
	}
}

func TestMovieNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Response":"False","Error":"Movie not found!"}`))
	}))
	defer srv.Close()

	c := New("", "omdb-key")
	c.omdbBase = srv.URL
	_, err := c.Movie(context.Background(), "Nope")
	if err == nil || !strings.Contains(err.Error(), "Movie not found") {
		t.Fatalf("err = %v", err)
	}
}
