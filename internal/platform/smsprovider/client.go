package smsprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Client talks to the SMS provider's REST API. Rate limited so a burst of
// restock alerts cannot trip provider throttling.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	sender     string
	limiter    *rate.Limiter
}

func NewClient(baseURL, apiKey, sender string, rps int) *Client {
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: baseURL,
		apiKey:  apiKey,
		sender:  sender,
		limiter: rate.NewLimiter(rate.Every(time.Second/time.Duration(rps)), 1),
	}
}

type sendRequest struct {
	Sender   string `json:"sender"`
	Receiver string `json:"receiver"`
	Text     string `json:"text"`
}

type sendResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// SendMessage posts one SMS to the provider. No delivery guarantee is
// surfaced back; a non-2xx response is an error the outbox worker retries.
func (c *Client) SendMessage(ctx context.Context, phoneNumber, text string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	payload, err := json.Marshal(sendRequest{Sender: c.sender, Receiver: phoneNumber, Text: text})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/sms/send", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "ApiKey "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("sms provider returned %d: %s", resp.StatusCode, string(body))
	}

	var out sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		// Some providers return an empty body on success.
		return nil
	}
	if out.Status != "" && out.Status != "ok" {
		return fmt.Errorf("sms provider rejected message: %s", out.Message)
	}
	return nil
}

// LogGateway is a development stand-in that prints instead of sending.
type LogGateway struct{}

func (LogGateway) SendMessage(_ context.Context, phoneNumber, text string) error {
	log.Printf("sms (not sent, log gateway) to=%s body=%q", phoneNumber, text)
	return nil
}
