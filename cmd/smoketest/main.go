// Command smoketest exercises a running API instance end to end: it pushes
// webhook events for a test buyer and verifies the subscription check
// reflects each transition.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
)

type runner struct {
	baseURL string
	secret  string
	email   string
	client  *http.Client

	passed int
	failed int
}

func main() {
	var (
		baseURL = flag.String("base-url", "http://localhost:8080", "API base URL")
		secret  = flag.String("secret", os.Getenv("WEBHOOK_SECRET"), "webhook shared secret")
		email   = flag.String("email", "smoketest@example.com", "buyer e-mail to exercise")
	)
	flag.Parse()

	r := &runner{
		baseURL: *baseURL,
		secret:  *secret,
		email:   *email,
		client:  &http.Client{Timeout: 15 * time.Second},
	}

	fmt.Printf("%s=== Pipeline Alfa smoke test ===%s\n", colorCyan, colorReset)
	fmt.Printf("Base URL: %s, buyer: %s\n\n", r.baseURL, r.email)

	r.step("purchase activates subscription", func() error {
		if err := r.sendEvent("PURCHASE_COMPLETE", "ACTIVE"); err != nil {
			return err
		}
		return r.expectCheck(true)
	})

	r.step("cancellation deactivates subscription", func() error {
		if err := r.sendEvent("SUBSCRIPTION_CANCELLATION", "CANCELLED"); err != nil {
			return err
		}
		return r.expectCheck(false)
	})

	r.step("restart reactivates subscription", func() error {
		if err := r.sendEvent("SUBSCRIPTION_RESTARTED", "ACTIVE"); err != nil {
			return err
		}
		return r.expectCheck(true)
	})

	r.step("expiry deactivates subscription", func() error {
		if err := r.sendEvent("SUBSCRIPTION_EXPIRED", "EXPIRED"); err != nil {
			return err
		}
		return r.expectCheck(false)
	})

	r.step("webhook rejects a wrong secret", func() error {
		status, err := r.postEvent("PURCHASE_COMPLETE", "ACTIVE", "wrong-secret")
		if err != nil {
			return err
		}
		if status != http.StatusUnauthorized {
			return fmt.Errorf("expected 401, got %d", status)
		}
		return nil
	})

	r.step("check requires an e-mail", func() error {
		resp, err := r.client.Get(r.baseURL + "/api/v1/subscription/check")
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			return fmt.Errorf("expected 400, got %d", resp.StatusCode)
		}
		return nil
	})

	fmt.Printf("\n%s=== Summary ===%s\n", colorCyan, colorReset)
	fmt.Printf("%sPassed: %d%s, %sFailed: %d%s\n", colorGreen, r.passed, colorReset, colorRed, r.failed, colorReset)

	if r.failed > 0 {
		os.Exit(1)
	}
}

func (r *runner) step(name string, fn func() error) {
	if err := fn(); err != nil {
		r.failed++
		fmt.Printf("%s✗ %s%s: %v\n", colorRed, name, colorReset, err)
		return
	}
	r.passed++
	fmt.Printf("%s✓ %s%s\n", colorGreen, name, colorReset)
}

func (r *runner) sendEvent(event, status string) error {
	code, err := r.postEvent(event, status, r.secret)
	if err != nil {
		return err
	}
	if code != http.StatusOK {
		return fmt.Errorf("webhook returned %d", code)
	}
	return nil
}

func (r *runner) postEvent(event, status, secret string) (int, error) {
	payload := map[string]any{
		"event": event,
		"data": map[string]any{
			"buyer":    map[string]any{"email": r.email},
			"purchase": map[string]any{"transaction": fmt.Sprintf("SMOKE-%d", time.Now().UnixMilli())},
			"subscription": map[string]any{
				"status":     status,
				"subscriber": map[string]any{"code": "SMOKE123"},
				"plan":       map[string]any{"id": "smoke-plan", "name": "Plano Smoke"},
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return 0, err
	}

	url := fmt.Sprintf("%s/api/v1/webhook/hotmart?secret=%s", r.baseURL, secret)
	resp, err := r.client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}

func (r *runner) expectCheck(wantActive bool) error {
	url := fmt.Sprintf("%s/api/v1/subscription/check?email=%s", r.baseURL, r.email)
	resp, err := r.client.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("check returned %d", resp.StatusCode)
	}

	var verdict struct {
		HasActiveSubscription bool   `json:"hasActiveSubscription"`
		Message               string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&verdict); err != nil {
		return err
	}

	if verdict.HasActiveSubscription != wantActive {
		return fmt.Errorf("expected active=%t, got active=%t (%s)", wantActive, verdict.HasActiveSubscription, verdict.Message)
	}
	fmt.Printf("  %s→ %s%s\n", colorYellow, verdict.Message, colorReset)
	return nil
}
