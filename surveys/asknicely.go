// ABOUTME: AskNicely API client for triggering NPS surveys
// ABOUTME: Sends one business card per request as query parameters and reads survey_sent back
package surveys

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// BusinessCard is the contact and work metadata AskNicely needs to address
// one survey.
type BusinessCard struct {
	FirstName    string
	LastName     string
	Email        string
	ClientName   string
	ClientKey    string
	ClientType   string
	WorkItemName string
	WorkItemKey  string
	WorkType     string
}

// AskNicelyClient triggers NPS surveys. The endpoint takes its payload as
// query parameters and authenticates with an X-apikey header.
type AskNicelyClient struct {
	httpClient   *http.Client
	baseURL      string
	apiKey       string
	delayMinutes int
	log          *slog.Logger
}

// NewAskNicelyClient builds a client for the tenant's contact-trigger
// endpoint. delayMinutes postpones survey delivery after the trigger.
func NewAskNicelyClient(baseURL, apiKey string, delayMinutes int, logger *slog.Logger) *AskNicelyClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &AskNicelyClient{
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		baseURL:      baseURL,
		apiKey:       apiKey,
		delayMinutes: delayMinutes,
		log:          logger,
	}
}

type triggerResponse struct {
	Result []struct {
		SurveySent bool `json:"survey_sent"`
	} `json:"result"`
}

// TriggerSurvey sends one business card. It returns whether AskNicely
// actually scheduled a survey; the service applies its own throttling rules
// and may decline.
func (c *AskNicelyClient) TriggerSurvey(ctx context.Context, card BusinessCard) (bool, error) {
	params := url.Values{
		"email":            {card.Email},
		"firstname":        {card.FirstName},
		"lastname":         {card.LastName},
		"addcontact":       {"false"},
		"delayminutes":     {strconv.Itoa(c.delayMinutes)},
		"client_name_c":    {card.ClientName},
		"client_key_c":     {card.ClientKey},
		"client_type_c":    {card.ClientType},
		"work_item_name_c": {card.WorkItemName},
		"work_item_key_c":  {card.WorkItemKey},
		"work_type_c":      {card.WorkType},
	}

	reqURL := c.baseURL + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, "POST", reqURL, nil)
	if err != nil {
		return false, fmt.Errorf("surveys: building trigger request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-apikey", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("surveys: sending trigger: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("surveys: reading trigger response: %w", err)
	}
	if resp.StatusCode != http.StatusCreated {
		c.log.Error("survey trigger rejected", "status", resp.StatusCode, "body", string(body))
		return false, fmt.Errorf("surveys: trigger returned %d: %s", resp.StatusCode, string(body))
	}

	var parsed triggerResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return false, fmt.Errorf("surveys: decoding trigger response: %w", err)
	}
	sent := len(parsed.Result) > 0 && parsed.Result[0].SurveySent
	c.log.Info("survey trigger accepted", "email", card.Email, "survey_sent", sent)
	return sent, nil
}
