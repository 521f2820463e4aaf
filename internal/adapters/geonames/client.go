package geonames

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"attendmap/internal/domain"
	"attendmap/internal/infra/metrics"
)

const defaultBaseURL = "http://api.geonames.org"

// Client выполняет запросы к веб-сервису Geonames.
type Client struct {
	http     *http.Client
	baseURL  string
	username string
}

var _ domain.Geocoder = (*Client)(nil)

// NewClient создаёт клиента Geonames.
func NewClient(username, baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		http:     &http.Client{Timeout: timeout},
		baseURL:  baseURL,
		username: username,
	}
}

type geonameRecord struct {
	Name string `json:"name"`
	Lng  string `json:"lng"`
	Lat  string `json:"lat"`
}

// Поле geonames отсутствует, когда сервис сообщает об ошибке в status.
type geonamesResponse struct {
	Geonames *[]geonameRecord `json:"geonames"`
	Status   struct {
		Message string `json:"message"`
		Value   int    `json:"value"`
	} `json:"status"`
}

// Forward возвращает координаты топ-1 результата по названию места.
func (c *Client) Forward(ctx context.Context, place string) (domain.Point, error) {
	params := url.Values{
		"username": {c.username},
		"q":        {place},
		"maxRows":  {"1"},
	}
	rec, err := c.topResult(ctx, "/searchJSON", params, "search")
	if err != nil {
		return domain.Point{}, err
	}
	lon, err := strconv.ParseFloat(rec.Lng, 64)
	if err != nil {
		return domain.Point{}, fmt.Errorf("geonames: разбор долготы: %w", err)
	}
	lat, err := strconv.ParseFloat(rec.Lat, 64)
	if err != nil {
		return domain.Point{}, fmt.Errorf("geonames: разбор широты: %w", err)
	}
	return domain.Point{Lon: lon, Lat: lat}, nil
}

// Reverse возвращает имя ближайшего населённого пункта к точке.
func (c *Client) Reverse(ctx context.Context, p domain.Point) (string, error) {
	params := url.Values{
		"username": {c.username},
		"lng":      {strconv.FormatFloat(p.Lon, 'f', -1, 64)},
		"lat":      {strconv.FormatFloat(p.Lat, 'f', -1, 64)},
		"maxRows":  {"1"},
	}
	rec, err := c.topResult(ctx, "/findNearbyPlaceNameJSON", params, "find_nearby")
	if err != nil {
		return "", err
	}
	return rec.Name, nil
}

func (c *Client) topResult(ctx context.Context, path string, params url.Values, operation string) (geonameRecord, error) {
	var none geonameRecord
	endpoint := c.baseURL + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return none, fmt.Errorf("geonames: построение запроса: %w", err)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.ObserveNetworkRequest("geonames", operation, path, start, err)
		return none, fmt.Errorf("geonames: запрос: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.ObserveNetworkRequest("geonames", operation, path, start, err)
		return none, fmt.Errorf("geonames: чтение ответа: %w", err)
	}
	if resp.StatusCode >= 400 {
		err = fmt.Errorf("geonames: неожиданный статус %d", resp.StatusCode)
		metrics.ObserveNetworkRequest("geonames", operation, path, start, err)
		return none, err
	}
	var parsed geonamesResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		metrics.ObserveNetworkRequest("geonames", operation, path, start, err)
		return none, fmt.Errorf("geonames: разбор ответа: %w", err)
	}
	if parsed.Geonames == nil {
		err = &domain.GeocodeServiceError{Message: parsed.Status.Message}
		metrics.ObserveNetworkRequest("geonames", operation, path, start, err)
		return none, err
	}
	if len(*parsed.Geonames) == 0 {
		err = fmt.Errorf("geonames: пустой результат")
		metrics.ObserveNetworkRequest("geonames", operation, path, start, err)
		return none, err
	}
	metrics.ObserveNetworkRequest("geonames", operation, path, start, nil)
	return (*parsed.Geonames)[0], nil
}
