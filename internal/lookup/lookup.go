// Package lookup provides the external search integrations behind the
// .yt and .movie commands.
package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client talks to the YouTube Data and OMDb APIs.
type Client struct {
	youtubeKey string
	omdbKey    string
	client     *http.Client

	youtubeBase string
	omdbBase    string
}

// New creates a lookup client. Either key may be empty; the matching
// lookups then fail with a configuration error.
func New(youtubeKey, omdbKey string) *Client {
	return &Client{
		youtubeKey:  youtubeKey,
		omdbKey:     omdbKey,
		client:      &http.Client{Timeout: 15 * time.Second},
		youtubeBase: "https://www.googleapis.com/youtube/v3",
		omdbBase:    "https://www.omdbapi.com",
	}
}

// Video is one YouTube search hit.
type Video struct {
	Title   string
	Channel string
	URL     string
}

// YouTube returns the top search result for a query.
func (c *Client) YouTube(ctx context.Context, query string) (*Video, error) {
	if c.youtubeKey == "" {
		return nil, fmt.Errorf("youtube search is not configured")
	}
	q := url.Values{
		"part":       {"snippet"},
		"type":       {"video"},
		"maxResults": {"1"},
		"q":          {query},
		"key":        {c.youtubeKey},
	}
	body, err := c.get(ctx, c.youtubeBase+"/search?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("youtube search: %w", err)
	}

	var out struct {
		Items []struct {
			ID struct {
				VideoID string `json:"videoId"`
			} `json:"id"`
			Snippet struct {
				Title        string `json:"title"`
				ChannelTitle string `json:"channelTitle"`
			} `json:"snippet"`
		} `json:"items"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("parse youtube response: %w", err)
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("no results for %q", query)
	}
	hit := out.Items[0]
	return &Video{
		Title:   hit.Snippet.Title,
		Channel: hit.Snippet.ChannelTitle,
		URL:     "https://www.youtube.com/watch?v=" + hit.ID.VideoID,
	}, nil
}

// Movie holds the OMDb fields the bot renders.
type Movie struct {
	Title  string `json:"Title"`
	Year   string `json:"Year"`
	Rated  string `json:"Rated"`
	Genre  string `json:"Genre"`
	Plot   string `json:"Plot"`
	Rating string `json:"imdbRating"`
	Poster string `json:"Poster"`
}

// Movie looks a title up on OMDb.
func (c *Client) Movie(ctx context.Context, title string) (*Movie, error) {
	if c.omdbKey == "" {
		return nil, fmt.Errorf("movie lookup is not configured")
	}
	q := url.Values{
		"t":      {title},
		"plot":   {"short"},
		"apikey": {c.omdbKey},
	}
	body, err := c.get(ctx, c.omdbBase+"/?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("movie lookup: %w", err)
	}

	var out struct {
		Movie
		Response string `json:"Response"`
		Error    string `json:"Error"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("parse omdb response: %w", err)
	}
	if out.Response != "True" {
		if out.Error != "" {
			return nil, fmt.Errorf("omdb: %s", out.Error)
		}
		return nil, fmt.Errorf("no result for %q", title)
	}
	return &out.Movie, nil
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}
