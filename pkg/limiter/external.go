package limiter

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// ExternalLimiter запрашивает разрешения у внешнего сервиса. Недоступность сервиса означает запрет.
type ExternalLimiter struct {
	host   *url.URL
	token  string
	client *retryablehttp.Client
}

func NewExternalLimiter(host *url.URL, token string) *ExternalLimiter {
	cl := retryablehttp.NewClient()
	cl.RetryMax = 2
	cl.RetryWaitMin = time.Millisecond * 100
	cl.RetryWaitMax = time.Second
	cl.Logger = slog.Default()
	return &ExternalLimiter{host: host, token: token, client: cl}
}

func (c ExternalLimiter) CanOpenSession(active int) bool {
	return c.doRequest("/can/open/session", url.Values{"active": {strconv.Itoa(active)}})
}

func (c ExternalLimiter) CanSaveDocument(size int) bool {
	return c.doRequest("/can/save/document", url.Values{"size": {strconv.Itoa(size)}})
}

func (c ExternalLimiter) GetRemainingSessions(active int) int {
	resp, err := c.get("/remain/sessions", url.Values{"active": {strconv.Itoa(active)}})
	if err != nil {
		slog.Error("Request remains", "err", err)
		return -1
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return -1
	}

	remain, err := strconv.Atoi(resp.Header.Get("X-Entity-Remain"))
	if err != nil {
		slog.Error("Parse remain answer", "raw", resp.Header.Get("X-Entity-Remain"), "err", err)
		return -1
	}
	return remain
}

func (c ExternalLimiter) doRequest(path string, query url.Values) bool {
	resp, err := c.get(path, query)
	if err != nil {
		slog.Error("Request access rule", "path", path, "err", err)
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (c ExternalLimiter) get(path string, query url.Values) (*http.Response, error) {
	u := c.host.ResolveReference(&url.URL{Path: path, RawQuery: query.Encode()})
	req, err := retryablehttp.NewRequest(http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return c.client.Do(req)
}
