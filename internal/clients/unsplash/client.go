// Package unsplash searches destination photos for generated trips.
package unsplash

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	commonhttp "trip-workers/internal/common/http"
	"trip-workers/internal/common/logger"
	"trip-workers/internal/common/metrics"
)

const searchPath = "/search/photos"

var (
	ErrSearchFailed = errors.New("IMAGE_SEARCH_FAILED")
	ErrEmptyQuery   = errors.New("IMAGE_SEARCH_EMPTY_QUERY")
)

type Config struct {
	BaseURL   string
	AccessKey string
	Timeout   time.Duration
	// CacheTTL of zero disables the Redis cache.
	CacheTTL time.Duration
}

type Client struct {
	config *Config
	http   *commonhttp.Client
	redis  *redis.Client
	logger logger.Logger
}

type searchResponse struct {
	Results []struct {
		URLs struct {
			Regular string `json:"regular"`
		} `json:"urls"`
	} `json:"results"`
}

// NewClient builds the adapter. rdb may be nil, in which case every search
// goes to the API.
func NewClient(config *Config, rdb *redis.Client, log logger.Logger) *Client {
	return &Client{
		config: config,
		http: commonhttp.NewClient(config.BaseURL, config.Timeout, map[string]string{
			"Authorization":  "Client-ID " + config.AccessKey,
			"Accept-Version": "v1",
		}),
		redis:  rdb,
		logger: log.With(map[string]interface{}{"adapter": "unsplash"}),
	}
}

// Search returns up to limit "regular" photo URLs for query, in result order.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if limit <= 0 {
		return []string{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	key := cacheKey(query, limit)
	if urls, ok := c.fromCache(ctx, key); ok {
		return urls, nil
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("per_page", strconv.Itoa(limit))

	var resp searchResponse
	if err := c.http.DoJSON(ctx, http.MethodGet, searchPath, params, nil, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearchFailed, err)
	}

	urls := make([]string, 0, limit)
	for _, r := range resp.Results {
		if len(urls) == limit {
			break
		}
		if r.URLs.Regular != "" {
			urls = append(urls, r.URLs.Regular)
		}
	}

	if len(urls) > 0 {
		c.toCache(ctx, key, urls)
	}
	return urls, nil
}

func cacheKey(query string, limit int) string {
	return fmt.Sprintf("images:%d:%s", limit, strings.ToLower(query))
}

func (c *Client) fromCache(ctx context.Context, key string) ([]string, bool) {
	if c.redis == nil || c.config.CacheTTL <= 0 {
		return nil, false
	}

	val, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("image cache read failed", map[string]interface{}{"error": err.Error()})
		}
		metrics.ImageCacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	}

	var urls []string
	if err := json.Unmarshal([]byte(val), &urls); err != nil {
		metrics.ImageCacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	}

	metrics.ImageCacheLookups.WithLabelValues("hit").Inc()
	return urls, true
}

func (c *Client) toCache(ctx context.Context, key string, urls []string) {
	if c.redis == nil || c.config.CacheTTL <= 0 {
		return
	}

	data, err := json.Marshal(urls)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, key, data, c.config.CacheTTL).Err(); err != nil {
		c.logger.Warn("image cache write failed", map[string]interface{}{"error": err.Error()})
	}
}
