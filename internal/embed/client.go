package embed

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	ferrors "git.home.luguber.info/inful/bang/internal/foundation/errors"
	"git.home.luguber.info/inful/bang/internal/retry"
)

const maxOEmbedResponseBytes = 1 << 20

// Client talks to oEmbed endpoints.
type Client struct {
	http   *http.Client
	policy retry.Policy
}

// NewHTTPClient returns an HTTP client that follows at most five
// redirects and never leaves the original host.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &http.Client{
		Timeout: timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) == 0 {
				return nil
			}
			if req.URL.Host != via[0].URL.Host {
				return errors.New("redirect to different host blocked")
			}
			if len(via) >= 5 {
				return errors.New("too many redirects")
			}
			return nil
		},
	}
}

// NewClient wraps hc, or a default client when hc is nil.
func NewClient(hc *http.Client, policy retry.Policy) *Client {
	if hc == nil {
		hc = NewHTTPClient(0)
	}
	return &Client{http: hc, policy: policy}
}

// OEmbed fetches endpoint?url=rawURL and returns the "html" member of the
// response. Transport failures and 5xx/429 answers are retried.
func (c *Client) OEmbed(ctx context.Context, endpoint, rawURL string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return "", ferrors.EmbedError("invalid oEmbed endpoint").
			WithContext("endpoint", endpoint).Build()
	}
	q := u.Query()
	q.Set("url", rawURL)
	u.RawQuery = q.Encode()

	var body []byte
	err = c.policy.Do(ctx, func(ctx context.Context) error {
		var ferr error
		body, ferr = c.get(ctx, u.String())
		return ferr
	})
	if err != nil {
		return "", err
	}

	var resp oembedBody
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryEmbed, "decode oEmbed response").
			WithContext("url", rawURL).Build()
	}
	if resp.HTML == "" {
		return "", ferrors.EmbedError("oEmbed response has no html").
			WithContext("url", rawURL).Build()
	}
	return resp.HTML, nil
}

func (c *Client) get(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryEmbed, "build request").Build()
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryNetwork, "fetch oEmbed").
			WithContext("url", target).Retryable().Build()
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, ferrors.NetworkError("oEmbed endpoint unavailable").
			WithContext("url", target).
			WithContext("status", strconv.Itoa(resp.StatusCode)).Build()
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, ferrors.EmbedError("oEmbed request rejected").
			WithContext("url", target).
			WithContext("status", strconv.Itoa(resp.StatusCode)).Build()
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxOEmbedResponseBytes+1))
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryNetwork, "read oEmbed response").
			WithContext("url", target).Retryable().Build()
	}
	if len(data) > maxOEmbedResponseBytes {
		return nil, ferrors.EmbedError("oEmbed response too large").
			WithContext("url", target).Build()
	}
	return data, nil
}
