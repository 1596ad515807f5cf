package service

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"wyckoff_keeper/internal/models"
	"wyckoff_keeper/pkg/tracing"
)

type Credentials struct {
	BaseURL    string
	APIKey     string
	APISecret  string
	Passphrase string
	// Simulated включает demo trading OKX (x-simulated-trading: 1).
	Simulated bool
	Timeout   time.Duration
}

// Client — подписанный REST-клиент OKX для USDT-SWAP в cross margin, long/short mode.
type Client struct {
	baseURL   string
	apiKey    string
	apiSecret string
	passph    string
	simulated bool

	http *http.Client
	now  func() time.Time

	instMu      sync.Mutex
	instruments map[string]Instrument
}

func NewClient(cred Credentials) (*Client, error) {
	if cred.APIKey == "" || cred.APISecret == "" || cred.Passphrase == "" {
		return nil, errors.Wrap(models.ErrMissingCredentials, "okx api key, secret and passphrase are required")
	}
	timeout := cred.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	base := strings.TrimRight(cred.BaseURL, "/")
	if base == "" {
		base = "https://www.okx.com"
	}
	return &Client{
		baseURL:     base,
		apiKey:      cred.APIKey,
		apiSecret:   cred.APISecret,
		passph:      cred.Passphrase,
		simulated:   cred.Simulated,
		http:        &http.Client{Timeout: timeout},
		now:         time.Now,
		instruments: make(map[string]Instrument),
	}, nil
}

// sign: base64(hmac_sha256(secret, ts + METHOD + requestPath + body)).
func (c *Client) sign(ts, method, requestPath, body string) string {
	mac := hmac.New(sha256.New, []byte(c.apiSecret))
	mac.Write([]byte(ts + strings.ToUpper(method) + requestPath + body))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

type envelope struct {
	Code string          `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// do sends a signed request. requestPath includes the query string. out receives
// the "data" array of the OKX envelope.
func (c *Client) do(ctx context.Context, method, requestPath string, in, out any) (err error) {
	span, ctx := tracing.StartSpan(ctx, "okx.rest",
		opentracing.Tag{Key: "http.method", Value: method},
		opentracing.Tag{Key: "okx.path", Value: requestPath},
	)
	defer func() { tracing.Finish(span, err) }()

	var payload []byte
	if in != nil {
		payload, err = sonic.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "marshal request")
		}
	}

	ts := c.now().UTC().Format("2006-01-02T15:04:05.000Z")
	sign := c.sign(ts, method, requestPath, string(payload))

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+requestPath, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "new request")
	}
	req.Header.Set("OK-ACCESS-KEY", c.apiKey)
	req.Header.Set("OK-ACCESS-SIGN", sign)
	req.Header.Set("OK-ACCESS-TIMESTAMP", ts)
	req.Header.Set("OK-ACCESS-PASSPHRASE", c.passph)
	req.Header.Set("Content-Type", "application/json")
	if c.simulated {
		req.Header.Set("x-simulated-trading", "1")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, requestPath)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return errors.Errorf("%s %s: http %d: %s", method, requestPath, resp.StatusCode, string(body))
	}

	var env envelope
	if err := sonic.Unmarshal(body, &env); err != nil {
		return errors.Wrapf(err, "decode %s", requestPath)
	}
	if env.Code != "0" {
		return errors.Errorf("okx %s: code=%s msg=%s", requestPath, env.Code, env.Msg)
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	return errors.Wrapf(sonic.Unmarshal(env.Data, out), "decode %s data", requestPath)
}
