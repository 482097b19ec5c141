package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var (
	// ErrNotFound means the catalog has no record for the identifier.
	ErrNotFound = errors.New("product not found in catalog")

	// ErrRestricted means the product carries at least one access-restricted
	// asset; such products are skipped entirely.
	ErrRestricted = errors.New("product has restricted assets")
)

// TransientError wraps network/session failures which should be treated
// as "no assets obtained" rather than a hard item failure.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient catalog error: %v", e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// Client fetches candidate assets from the catalog REST service.
type Client struct {
	BaseURL    string
	httpClient *http.Client
}

// NewClient creates a new catalog API client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// apiAsset mirrors the catalog service's asset JSON.
type apiAsset struct {
	Name                   string   `json:"name"`
	AssetState             string   `json:"assetState"`
	PackageFacingIndicator string   `json:"packageFacingIndicator"`
	Languages              []string `json:"languages"`
	CarouselPriority       int      `json:"carouselPriority"`
	RetailerRestrictions   []string `json:"retailerRestrictions"`
	PimRenditions          []struct {
		Format string `json:"format"`
		URL    string `json:"url"`
	} `json:"pimRenditions"`
}

type apiResponse struct {
	Assets []apiAsset `json:"assets"`
}

// Assets looks up all assets for one product version and groups the
// Current ones by package-facing indicator. The slots argument is
// ignored: the API returns every slot in one call.
func (c *Client) Assets(ctx context.Context, bmn string, _ []string) (map[string][]Asset, error) {
	url := fmt.Sprintf("%s/api/v1/assets/version/%s/json", c.BaseURL, bmn)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransientError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		if isNotFoundBody(resp.StatusCode, body) {
			return nil, ErrNotFound
		}
		return nil, &TransientError{Err: fmt.Errorf("catalog API returned status %d", resp.StatusCode)}
	}

	var payload apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &TransientError{Err: fmt.Errorf("failed to decode catalog response: %w", err)}
	}

	if len(payload.Assets) == 0 {
		return nil, ErrNotFound
	}

	// A single restricted asset anywhere in the response disqualifies the
	// whole product, independent of what else exists.
	for _, a := range payload.Assets {
		if AssetState(a.AssetState) == StateRestricted {
			return nil, ErrRestricted
		}
	}

	grouped := make(map[string][]Asset)
	for _, a := range payload.Assets {
		if AssetState(a.AssetState) != StateCurrent {
			continue
		}
		if a.PackageFacingIndicator == "" {
			continue
		}
		jpgURL := jpgRenditionURL(a)
		if jpgURL == "" {
			continue
		}
		grouped[a.PackageFacingIndicator] = append(grouped[a.PackageFacingIndicator], Asset{
			Title:        a.Name,
			Language:     ClassifyLanguages(a.Languages),
			Slot:         a.PackageFacingIndicator,
			State:        StateCurrent,
			Priority:     a.CarouselPriority,
			Restrictions: a.RetailerRestrictions,
			URL:          jpgURL,
		})
	}

	return grouped, nil
}

// isNotFoundBody detects the catalog's structured "not found" condition:
// a 500 response whose JSON body title contains "NotFound".
func isNotFoundBody(statusCode int, body []byte) bool {
	if statusCode != http.StatusInternalServerError {
		return false
	}
	var errBody struct {
		Title string `json:"title"`
	}
	if err := json.Unmarshal(body, &errBody); err != nil {
		return false
	}
	return strings.Contains(errBody.Title, "NotFound")
}

// jpgRenditionURL finds the JPG download URL from the asset's renditions.
func jpgRenditionURL(a apiAsset) string {
	for _, r := range a.PimRenditions {
		if strings.EqualFold(r.Format, "jpg") {
			return r.URL
		}
	}
	return ""
}
