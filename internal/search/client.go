package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const (
	searchEndpoint  = "https://www.googleapis.com/youtube/v3/search"
	musicCategoryID = "10"
)

// Result is one search hit, reduced to what the player and library need.
type Result struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Thumbnail    string `json:"thumbnail"`
	ChannelTitle string `json:"channelTitle"`
}

// Page is one page of results; NextPageToken continues the lazy sequence.
type Page struct {
	Results       []Result `json:"results"`
	NextPageToken string   `json:"nextPageToken,omitempty"`
}

type searchResponse struct {
	NextPageToken string `json:"nextPageToken"`
	Items         []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title      string `json:"title"`
			Thumbnails struct {
				Medium struct {
					URL string `json:"url"`
				} `json:"medium"`
			} `json:"thumbnails"`
			ChannelTitle string `json:"channelTitle"`
		} `json:"snippet"`
	} `json:"items"`
}

type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:     apiKey,
		baseURL:    searchEndpoint,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Search queries the video-search API for music videos matching the query.
// pageToken may be empty for the first page.
func (c *Client) Search(ctx context.Context, query, pageToken string) (*Page, error) {
	params := url.Values{}
	params.Add("part", "snippet")
	params.Add("maxResults", "25")
	params.Add("q", query)
	params.Add("type", "video")
	params.Add("videoCategoryId", musicCategoryID)
	params.Add("key", c.apiKey)
	if pageToken != "" {
		params.Add("pageToken", pageToken)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search: request failed with status %d", resp.StatusCode)
	}

	var searchResp searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, err
	}

	page := &Page{NextPageToken: searchResp.NextPageToken}
	for _, item := range searchResp.Items {
		if item.ID.VideoID == "" {
			continue
		}
		page.Results = append(page.Results, Result{
			ID:           item.ID.VideoID,
			Title:        item.Snippet.Title,
			Thumbnail:    item.Snippet.Thumbnails.Medium.URL,
			ChannelTitle: item.Snippet.ChannelTitle,
		})
	}

	return page, nil
}
