package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/abenezerk/predict-backend/models"
)

// AccessChecker resolves a user's tier within an experience. The verdict is
// trusted unchanged.
type AccessChecker interface {
	AccessLevel(ctx context.Context, userID, experienceID string) (models.AccessLevel, error)
}

// EntitlementClient talks to the external identity and entitlement API.
type EntitlementClient struct {
	baseURL string
	client  *http.Client
}

func NewEntitlementClient(baseURL string) *EntitlementClient {
	return &EntitlementClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// VerifyToken exchanges a bearer token for the user id it identifies.
func (c *EntitlementClient) VerifyToken(ctx context.Context, token string) (string, error) {
	payload, err := json.Marshal(map[string]string{"token": token})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/verify-token", bytes.NewBuffer(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("entitlement request failed: %w", models.ErrUpstream)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return "", fmt.Errorf("invalid token: %w", models.ErrForbidden)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("entitlement API returned %d: %w", resp.StatusCode, models.ErrUpstream)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read entitlement response: %w", models.ErrUpstream)
	}

	var verifyResp struct {
		UserID string `json:"user_id"`
	}
	if err := json.Unmarshal(body, &verifyResp); err != nil {
		return "", fmt.Errorf("failed to parse entitlement response: %w", models.ErrUpstream)
	}
	if verifyResp.UserID == "" {
		return "", fmt.Errorf("empty user id from entitlement API: %w", models.ErrUpstream)
	}

	return verifyResp.UserID, nil
}

// AccessLevel fetches the caller's tier for the experience. Unknown levels
// collapse to none.
func (c *EntitlementClient) AccessLevel(ctx context.Context, userID, experienceID string) (models.AccessLevel, error) {
	endpoint := fmt.Sprintf("%s/api/access?user_id=%s&experience_id=%s",
		c.baseURL, url.QueryEscape(userID), url.QueryEscape(experienceID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return models.LevelNone, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return models.LevelNone, fmt.Errorf("entitlement request failed: %w", models.ErrUpstream)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.LevelNone, fmt.Errorf("entitlement API returned %d: %w", resp.StatusCode, models.ErrUpstream)
	}

	var accessResp struct {
		AccessLevel string `json:"access_level"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&accessResp); err != nil {
		return models.LevelNone, fmt.Errorf("failed to parse entitlement response: %w", models.ErrUpstream)
	}

	switch models.AccessLevel(accessResp.AccessLevel) {
	case models.LevelAdmin:
		return models.LevelAdmin, nil
	case models.LevelMember:
		return models.LevelMember, nil
	default:
		return models.LevelNone, nil
	}
}
