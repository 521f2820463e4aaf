package twitter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"attendmap/internal/domain"
	"attendmap/internal/infra/metrics"
)

// EnvAccessToken — переменная окружения с готовым bearer-токеном.
const EnvAccessToken = "TWITTER_ACCESS_TOKEN"

// AccessToken возвращает bearer-токен в порядке приоритета:
// окружение, хранилище переменных, свежий обмен app-ключей (с сохранением).
func AccessToken(ctx context.Context, appKey, appSecret, baseURL string, vars domain.VarRepo) (string, error) {
	if token := os.Getenv(EnvAccessToken); token != "" {
		return token, nil
	}
	token, err := vars.GetVar(domain.VarAccessToken, "")
	if err != nil {
		return "", err
	}
	if token != "" {
		return token, nil
	}
	token, err = obtainAccessToken(ctx, appKey, appSecret, baseURL)
	if err != nil {
		return "", fmt.Errorf("получение токена: %w", err)
	}
	if err := vars.SetVar(domain.VarAccessToken, token); err != nil {
		return "", fmt.Errorf("сохранение токена: %w", err)
	}
	return token, nil
}

type tokenResponse struct {
	TokenType   string `json:"token_type"`
	AccessToken string `json:"access_token"`
}

func obtainAccessToken(ctx context.Context, appKey, appSecret, baseURL string) (string, error) {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	body := strings.NewReader("grant_type=client_credentials")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/oauth2/token", body)
	if err != nil {
		return "", fmt.Errorf("twitter: построение запроса: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded;charset=UTF-8")
	req.SetBasicAuth(url.QueryEscape(appKey), url.QueryEscape(appSecret))

	client := &http.Client{Timeout: 30 * time.Second}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		metrics.ObserveNetworkRequest("twitter", "oauth2_token", "oauth2", start, err)
		return "", fmt.Errorf("twitter: запрос токена: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.ObserveNetworkRequest("twitter", "oauth2_token", "oauth2", start, err)
		return "", fmt.Errorf("twitter: чтение ответа: %w", err)
	}
	if resp.StatusCode >= 400 {
		err = fmt.Errorf("twitter: неожиданный статус %d", resp.StatusCode)
		metrics.ObserveNetworkRequest("twitter", "oauth2_token", "oauth2", start, err)
		return "", err
	}
	var parsed tokenResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		metrics.ObserveNetworkRequest("twitter", "oauth2_token", "oauth2", start, err)
		return "", fmt.Errorf("twitter: разбор ответа: %w", err)
	}
	if parsed.TokenType != "bearer" || parsed.AccessToken == "" {
		err = fmt.Errorf("twitter: некорректный ответ обмена токена")
		metrics.ObserveNetworkRequest("twitter", "oauth2_token", "oauth2", start, err)
		return "", err
	}
	metrics.ObserveNetworkRequest("twitter", "oauth2_token", "oauth2", start, nil)
	return parsed.AccessToken, nil
}
