package twitter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"attendmap/internal/domain"
	"attendmap/internal/infra/metrics"
)

const defaultBaseURL = "https://api.twitter.com"

// Формат created_at в ответах API.
const createdAtLayout = "Mon Jan 02 15:04:05 -0700 2006"

// Client выполняет запросы к поисковому API Twitter.
type Client struct {
	http        *http.Client
	baseURL     string
	accessToken string
}

var _ domain.SearchClient = (*Client)(nil)

// NewClient создаёт клиента поиска с bearer-токеном.
func NewClient(accessToken, baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		http:        &http.Client{Timeout: timeout},
		baseURL:     baseURL,
		accessToken: accessToken,
	}
}

type searchEnvelope struct {
	Statuses       []json.RawMessage `json:"statuses"`
	SearchMetadata struct {
		MaxIDStr string `json:"max_id_str"`
	} `json:"search_metadata"`
}

// Search ищет твиты по запросу, при непустом sinceID — строго новее курсора.
func (c *Client) Search(ctx context.Context, query, sinceID string) (domain.SearchResult, error) {
	params := url.Values{"q": {query}}
	if sinceID != "" {
		params.Set("since_id", sinceID)
	}
	endpoint := c.baseURL + "/1.1/search/tweets.json?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.SearchResult{}, fmt.Errorf("twitter: построение запроса: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.ObserveNetworkRequest("twitter", "search", "tweets", start, err)
		return domain.SearchResult{}, fmt.Errorf("twitter: запрос: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.ObserveNetworkRequest("twitter", "search", "tweets", start, err)
		return domain.SearchResult{}, fmt.Errorf("twitter: чтение ответа: %w", err)
	}
	if resp.StatusCode >= 400 {
		err = fmt.Errorf("twitter: неожиданный статус %d", resp.StatusCode)
		metrics.ObserveNetworkRequest("twitter", "search", "tweets", start, err)
		return domain.SearchResult{}, err
	}
	var envelope searchEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		metrics.ObserveNetworkRequest("twitter", "search", "tweets", start, err)
		return domain.SearchResult{}, fmt.Errorf("twitter: разбор ответа: %w", err)
	}
	metrics.ObserveNetworkRequest("twitter", "search", "tweets", start, nil)

	result := domain.SearchResult{MaxID: envelope.SearchMetadata.MaxIDStr}
	parser := Parser{}
	for _, raw := range envelope.Statuses {
		tweet, err := parser.Parse(raw)
		if err != nil {
			return domain.SearchResult{}, fmt.Errorf("twitter: разбор твита: %w", err)
		}
		result.Tweets = append(result.Tweets, tweet)
	}
	return result, nil
}

// Parser разбирает исходный JSON твита. Используется и при поиске,
// и при повторном разборе orig_tweet из базы.
type Parser struct{}

var _ domain.TweetParser = Parser{}

type status struct {
	IDStr     string `json:"id_str"`
	CreatedAt string `json:"created_at"`
	Text      string `json:"text"`
	User      struct {
		ScreenName string `json:"screen_name"`
		Name       string `json:"name"`
	} `json:"user"`
	Coordinates *struct {
		Coordinates [2]float64 `json:"coordinates"`
	} `json:"coordinates"`
}

// Parse восстанавливает RawTweet из исходного ответа API.
func (Parser) Parse(raw []byte) (domain.RawTweet, error) {
	var st status
	if err := json.Unmarshal(raw, &st); err != nil {
		return domain.RawTweet{}, fmt.Errorf("twitter: разбор твита: %w", err)
	}
	if st.IDStr == "" {
		return domain.RawTweet{}, fmt.Errorf("twitter: твит без идентификатора")
	}
	tweet := domain.RawTweet{
		ID:         st.IDStr,
		ScreenName: st.User.ScreenName,
		Name:       st.User.Name,
		Text:       st.Text,
		JSON:       append([]byte(nil), raw...),
	}
	if st.CreatedAt != "" {
		created, err := time.Parse(createdAtLayout, st.CreatedAt)
		if err != nil {
			return domain.RawTweet{}, fmt.Errorf("twitter: разбор даты: %w", err)
		}
		tweet.CreatedAt = created
	}
	if st.Coordinates != nil {
		tweet.Coordinates = &domain.Point{
			Lon: st.Coordinates.Coordinates[0],
			Lat: st.Coordinates.Coordinates[1],
		}
	}
	return tweet, nil
}
