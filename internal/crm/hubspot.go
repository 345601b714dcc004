package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goldtouch/messenger-relay/internal/config"
)

// Recorder mirrors relay activity into a CRM. Failures are logged by callers
// and never affect request outcome.
type Recorder interface {
	UpsertContact(ctx context.Context, phone, name, email string) (string, error)
	LogCommunication(ctx context.Context, contactID, direction, body string) error
}

// HubSpotClient talks to the HubSpot v3 CRM API.
type HubSpotClient struct {
	cfg    config.CRMConfig
	client *http.Client
}

func NewHubSpotClient(cfg config.CRMConfig) *HubSpotClient {
	return &HubSpotClient{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
				ForceAttemptHTTP2:   true,
			},
		},
	}
}

type searchRequest struct {
	FilterGroups []filterGroup `json:"filterGroups"`
}

type filterGroup struct {
	Filters []filter `json:"filters"`
}

type filter struct {
	PropertyName string `json:"propertyName"`
	Operator     string `json:"operator"`
	Value        string `json:"value"`
}

type searchResponse struct {
	Total   int `json:"total"`
	Results []struct {
		ID string `json:"id"`
	} `json:"results"`
}

type contactRequest struct {
	Properties map[string]string `json:"properties"`
}

type contactResponse struct {
	ID string `json:"id"`
}

// UpsertContact finds a contact by phone and updates it, or creates one when
// no match exists. Returns the contact id.
func (c *HubSpotClient) UpsertContact(ctx context.Context, phone, name, email string) (string, error) {
	props := map[string]string{
		"phone":           phone,
		"hs_lead_status":  "MESSENGER_LEAD",
		"lifecyclestage":  "lead",
	}
	if name != "" {
		props["firstname"] = firstName(name)
		if last := lastName(name); last != "" {
			props["lastname"] = last
		}
	}
	if email != "" {
		props["email"] = email
	}

	existingID, err := c.searchByPhone(ctx, phone)
	if err != nil {
		return "", err
	}

	if existingID != "" {
		var out contactResponse
		url := fmt.Sprintf("%s/crm/v3/objects/contacts/%s", c.cfg.BaseURL, existingID)
		if err := c.do(ctx, http.MethodPatch, url, contactRequest{Properties: props}, &out); err != nil {
			return "", fmt.Errorf("update contact: %w", err)
		}
		return existingID, nil
	}

	var out contactResponse
	url := c.cfg.BaseURL + "/crm/v3/objects/contacts"
	if err := c.do(ctx, http.MethodPost, url, contactRequest{Properties: props}, &out); err != nil {
		return "", fmt.Errorf("create contact: %w", err)
	}
	return out.ID, nil
}

func (c *HubSpotClient) searchByPhone(ctx context.Context, phone string) (string, error) {
	req := searchRequest{
		FilterGroups: []filterGroup{{
			Filters: []filter{{
				PropertyName: "phone",
				Operator:     "EQ",
				Value:        phone,
			}},
		}},
	}

	var out searchResponse
	url := c.cfg.BaseURL + "/crm/v3/objects/contacts/search"
	if err := c.do(ctx, http.MethodPost, url, req, &out); err != nil {
		return "", fmt.Errorf("search contact: %w", err)
	}
	if len(out.Results) == 0 {
		return "", nil
	}
	return out.Results[0].ID, nil
}

type noteRequest struct {
	Properties   noteProperties    `json:"properties"`
	Associations []noteAssociation `json:"associations"`
}

type noteProperties struct {
	Body      string `json:"hs_note_body"`
	Timestamp string `json:"hs_timestamp"`
}

type noteAssociation struct {
	To    associationTarget `json:"to"`
	Types []associationType `json:"types"`
}

type associationTarget struct {
	ID string `json:"id"`
}

type associationType struct {
	AssociationCategory string `json:"associationCategory"`
	AssociationTypeID   int    `json:"associationTypeId"`
}

const noteToContactTypeID = 202

// LogCommunication records a message as a note attached to the contact.
// direction is "inbound" or "outbound".
func (c *HubSpotClient) LogCommunication(ctx context.Context, contactID, direction, body string) error {
	req := noteRequest{
		Properties: noteProperties{
			Body:      fmt.Sprintf("[%s] %s", direction, body),
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
		Associations: []noteAssociation{{
			To: associationTarget{ID: contactID},
			Types: []associationType{{
				AssociationCategory: "HUBSPOT_DEFINED",
				AssociationTypeID:   noteToContactTypeID,
			}},
		}},
	}

	url := c.cfg.BaseURL + "/crm/v3/objects/notes"
	if err := c.do(ctx, http.MethodPost, url, req, nil); err != nil {
		return fmt.Errorf("log communication: %w", err)
	}
	return nil
}

func (c *HubSpotClient) do(ctx context.Context, method, url string, in, out interface{}) error {
	data, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("hubspot returned status %d: %s", resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}

func firstName(name string) string {
	for i := 0; i < len(name); i++ {
		if name[i] == ' ' {
			return name[:i]
		}
	}
	return name
}

func lastName(name string) string {
	for i := 0; i < len(name); i++ {
		if name[i] == ' ' {
			return name[i+1:]
		}
	}
	return ""
}
