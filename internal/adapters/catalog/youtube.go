// Package catalog resolves submitted media URLs against the YouTube
// Data API. The coordinator only queues items the catalog could
// resolve; a failed lookup fails the whole add.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	ErrBadURL       = errors.New("invalid video url")
	ErrUnresolvable = errors.New("video not found")
)

var (
	videoIDRe  = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
	durationRe = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)
)

type YouTube struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewYouTube(apiKey, baseURL string) *YouTube {
	return &YouTube{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Resolve canonicalizes the URL to a video id and fetches title and
// duration. It runs outside any room lock; the caller re-validates
// membership afterwards.
func (y *YouTube) Resolve(ctx context.Context, rawURL string) (title string, durationSeconds int, err error) {
	id, err := ExtractVideoID(rawURL)
	if err != nil {
		return "", 0, err
	}

	endpoint := fmt.Sprintf("%s/videos?part=snippet,contentDetails&id=%s&key=%s",
		y.baseURL, url.QueryEscape(id), url.QueryEscape(y.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", 0, fmt.Errorf("catalog request: %w", err)
	}
	resp, err := y.client.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("catalog lookup: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("catalog lookup: unexpected status %d", resp.StatusCode)
	}

	var payload struct {
		Items []struct {
			Snippet struct {
				Title string `json:"title"`
			} `json:"snippet"`
			ContentDetails struct {
				Duration string `json:"duration"`
			} `json:"contentDetails"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", 0, fmt.Errorf("catalog decode: %w", err)
	}
	if len(payload.Items) == 0 {
		return "", 0, ErrUnresolvable
	}

	item := payload.Items[0]
	return item.Snippet.Title, ParseISODuration(item.ContentDetails.Duration), nil
}

// ExtractVideoID accepts the usual YouTube URL shapes (watch?v=,
// youtu.be/, embed/, shorts/) plus a bare 11-character id.
func ExtractVideoID(raw string) (string, error) {
	if videoIDRe.MatchString(raw) {
		return raw, nil
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", ErrBadURL
	}

	var id string
	switch {
	case strings.HasSuffix(u.Host, "youtu.be"):
		id = strings.TrimPrefix(u.Path, "/")
	case strings.Contains(u.Host, "youtube.com"):
		switch {
		case u.Path == "/watch":
			id = u.Query().Get("v")
		case strings.HasPrefix(u.Path, "/embed/"):
			id = strings.TrimPrefix(u.Path, "/embed/")
		case strings.HasPrefix(u.Path, "/shorts/"):
			id = strings.TrimPrefix(u.Path, "/shorts/")
		}
	}
	id = strings.TrimSuffix(id, "/")
	if !videoIDRe.MatchString(id) {
		return "", ErrBadURL
	}
	return id, nil
}

// ParseISODuration converts the API's PT#H#M#S form to seconds.
// Anything unparseable counts as zero.
func ParseISODuration(iso string) int {
	m := durationRe.FindStringSubmatch(iso)
	if m == nil {
		return 0
	}
	hours, _ := strconv.Atoi(zeroIfEmpty(m[1]))
	minutes, _ := strconv.Atoi(zeroIfEmpty(m[2]))
	seconds, _ := strconv.Atoi(zeroIfEmpty(m[3]))
	return hours*3600 + minutes*60 + seconds
}

func zeroIfEmpty(s string) string {
	if s == "" {
		return "0"
	}
	return s
}
