package sms

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// Sender delivers an OTP to a mobile number. Delivery is best effort: the
// OTP engine never rolls back issuance when a send fails.
type Sender interface {
	Send(ctx context.Context, mobile, otp string) error
}

// Client sends OTPs through a Fast2SMS-style bulk endpoint.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// NewClient returns a Sender for the given provider endpoint.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Send issues the provider request for a single OTP message.
func (c *Client) Send(ctx context.Context, mobile, otp string) error {
	params := url.Values{}
	params.Set("authorization", c.APIKey)
	params.Set("route", "otp")
	params.Set("variables_values", otp)
	params.Set("flash", "0")
	params.Set("numbers", mobile)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build sms request: %w", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("send sms: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("sms provider returned status %d", resp.StatusCode)
	}
	return nil
}

// LogSender logs instead of delivering. Wired when no provider API key is
// configured so OTP logins still work in development.
type LogSender struct {
	Log *zap.Logger
}

func (s *LogSender) Send(_ context.Context, mobile, otp string) error {
	s.Log.Info("SMS delivery disabled, logging OTP",
		zap.String("mobile", mobile),
		zap.String("otp", otp))
	return nil
}
