package advisory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"matcharena/models"
	"matcharena/service"
)

// Client talks to the advisory sidecar over HTTP. The sidecar hosts the
// text-generation flows; the engine only ever treats their output as
// decoration, so callers wrap every use in a short timeout and drop
// errors on the floor.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns an advisory client, or nil when no URL is configured.
// Services treat a nil Advisor as the feature being disabled.
func New(baseURL string) service.Advisor {
	if baseURL == "" {
		return nil
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 5 * time.Second},
	}
}

type describeRequest struct {
	Title    string `json:"title"`
	GameType string `json:"gameType"`
	EntryFee int64  `json:"entryFee"`
}

type describeResponse struct {
	Description string `json:"description"`
}

// DraftMatchDescription produces a short blurb for a new match
func (c *Client) DraftMatchDescription(ctx context.Context, title string, gameType models.GameType, entryFee int64) (string, error) {
	var resp describeResponse
	err := c.post(ctx, "/flows/describe-match", describeRequest{
		Title:    title,
		GameType: string(gameType),
		EntryFee: entryFee,
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.Description, nil
}

type disputeRequest struct {
	MatchDetails   string `json:"matchDetails"`
	DisputeDetails string `json:"disputeDetails"`
}

type disputeResponse struct {
	Summary         string `json:"summary"`
	SuggestedAction string `json:"suggestedAction"`
}

// SummarizeDispute digests the submissions of a disputed match
func (c *Client) SummarizeDispute(ctx context.Context, match *models.Match) (string, error) {
	var resp disputeResponse
	err := c.post(ctx, "/flows/summarize-dispute", disputeRequest{
		MatchDetails:   formatMatch(match),
		DisputeDetails: formatSubmissions(match),
	}, &resp)
	if err != nil {
		return "", err
	}
	if resp.SuggestedAction != "" {
		return fmt.Sprintf("%s\nSuggested action: %s", resp.Summary, resp.SuggestedAction), nil
	}
	return resp.Summary, nil
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal advisory request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build advisory request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("advisory request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("advisory returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode advisory response: %w", err)
	}
	return nil
}

func formatMatch(m *models.Match) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Match %q (%s), entry fee %d, %d/%d players, status %s.",
		m.Title, m.GameType, m.EntryFee, len(m.Players), m.Capacity, m.Status)
	return b.String()
}

func formatSubmissions(m *models.Match) string {
	if len(m.Submissions) == 0 {
		return "No submissions recorded."
	}

	uids := make([]string, 0, len(m.Submissions))
	for uid := range m.Submissions {
		uids = append(uids, uid)
	}
	sort.Strings(uids)

	var b strings.Builder
	for _, uid := range uids {
		sub := m.Submissions[uid]
		fmt.Fprintf(&b, "Player %s submitted proof %q at %s.\n",
			uid, sub.ProofRef, sub.SubmittedAt.Format(time.RFC3339))
	}
	return b.String()
}
