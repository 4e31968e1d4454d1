package utils

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const tsmsEndpoint = "https://tsms.ir/url/tsmshttp.php"

// TSMSClient sends verification SMS through the tsms.ir HTTP API.
// The gateway exposes several sender lines; delivery is attempted on
// the primary line first, then on the fallback one. The API answers
// with the bare string "1" on success.
type TSMSClient struct {
	Username string
	Password string
	Senders  []string
	DryRun   bool

	BaseURL string
	HTTP    *http.Client
}

func NewTSMSClient(username, password, senderPrimary, senderFallback string, dryRun bool) *TSMSClient {
	senders := []string{senderPrimary}
	if senderFallback != "" {
		senders = append(senders, senderFallback)
	}
	return &TSMSClient{
		Username: username,
		Password: password,
		Senders:  senders,
		DryRun:   dryRun,
		BaseURL:  tsmsEndpoint,
		HTTP:     &http.Client{Timeout: 10 * time.Second},
	}
}

// SendCode delivers the login code to the mobile. In dry-run mode no
// request is made and the code is written to the log instead.
func (c *TSMSClient) SendCode(mobile, code string) error {
	message := fmt.Sprintf("کد ورود شما: %s\nهوش‌متر", code)

	if c.DryRun {
		log.Printf("[tsms][dry-run] to=%s code=%s", mobile, code)
		return nil
	}
	if c.Username == "" || c.Password == "" || len(c.Senders) == 0 || c.Senders[0] == "" {
		return fmt.Errorf("tsms: credentials not configured")
	}

	var lastErr error
	for _, sender := range c.Senders {
		if sender == "" {
			continue
		}
		if err := c.send(sender, mobile, message); err != nil {
			log.Printf("[tsms] sender=%s to=%s failed: %v", sender, mobile, err)
			lastErr = err
			continue
		}
		return nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("tsms: no sender configured")
	}
	return fmt.Errorf("tsms: all senders failed: %w", lastErr)
}

func (c *TSMSClient) send(sender, mobile, message string) error {
	params := url.Values{
		"from":     {sender},
		"to":       {mobile},
		"username": {c.Username},
		"password": {c.Password},
		"message":  {message},
	}

	resp, err := c.HTTP.Get(c.BaseURL + "?" + params.Encode())
	if err != nil {
		return fmt.Errorf("tsms request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("tsms read response: %w", err)
	}
	if strings.TrimSpace(string(body)) != "1" {
		return fmt.Errorf("tsms gateway answered %q", strings.TrimSpace(string(body)))
	}
	return nil
}
