// Package catalog reads launches from the remote SpaceX-style REST API.
// Records are normalized into models.Launch and cached by flight number.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"time"

	"space-trips/internal/logger"
	"space-trips/internal/metrics"
	"space-trips/internal/models"
)

// ErrCatalogUnavailable is returned when the remote catalog cannot be read.
var ErrCatalogUnavailable = errors.New("launch catalog unavailable")

type launchRecord struct {
	FlightNumber   int    `json:"flight_number"`
	MissionName    string `json:"mission_name"`
	LaunchDateUnix int64  `json:"launch_date_unix"`
	LaunchDateUTC  string `json:"launch_date_utc"`
	LaunchSite     *struct {
		SiteName string `json:"site_name"`
	} `json:"launch_site"`
	Links struct {
		MissionPatch      string `json:"mission_patch"`
		MissionPatchSmall string `json:"mission_patch_small"`
	} `json:"links"`
	Rocket struct {
		RocketID   string `json:"rocket_id"`
		RocketName string `json:"rocket_name"`
		RocketType string `json:"rocket_type"`
	} `json:"rocket"`
}

// Client is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      Cache
	logger     logger.Logger
	metrics    metrics.Recorder
}

func NewClient(baseURL string, httpClient *http.Client, cache Cache, log logger.Logger, rec metrics.Recorder) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if cache == nil {
		cache = NewMemoryCache(0)
	}
	if rec == nil {
		rec = metrics.Nop{}
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		cache:      cache,
		logger:     log,
		metrics:    rec,
	}
}

// GetAllLaunches returns the whole collection, sorted by flight number ascending.
// It is served from the cache while the index and every launch in it are present.
func (c *Client) GetAllLaunches(ctx context.Context) ([]models.Launch, error) {
	if launches, ok := c.cachedCollection(ctx); ok {
		c.metrics.RecordCacheLookup(true)
		return launches, nil
	}
	c.metrics.RecordCacheLookup(false)

	records, err := c.fetch(ctx, nil)
	if err != nil {
		return nil, err
	}

	launches := make([]models.Launch, 0, len(records))
	for _, r := range records {
		launches = append(launches, launchReducer(r))
	}
	slices.SortStableFunc(launches, func(a, b models.Launch) int { return a.ID - b.ID })

	c.store(ctx, launches...)
	ids := make([]int, len(launches))
	for i, l := range launches {
		ids[i] = l.ID
	}
	if err := c.cache.SetIndex(ctx, ids); err != nil {
		c.logger.Warn("launch index cache write failed", logger.Error(err))
	}
	return launches, nil
}

func (c *Client) cachedCollection(ctx context.Context) ([]models.Launch, bool) {
	ids, err := c.cache.GetIndex(ctx)
	if err != nil {
		c.logger.Warn("launch index cache read failed", logger.Error(err))
		return nil, false
	}
	if ids == nil {
		return nil, false
	}

	launches := make([]models.Launch, 0, len(ids))
	for _, id := range ids {
		launch, err := c.cache.Get(ctx, id)
		if err != nil || launch == nil {
			return nil, false
		}
		launches = append(launches, *launch)
	}
	return launches, true
}

// GetLaunch returns the launch with the given flight number, or nil when the
// catalog has no such launch.
func (c *Client) GetLaunch(ctx context.Context, id int) (*models.Launch, error) {
	cached, err := c.cache.Get(ctx, id)
	if err != nil {
		c.logger.Warn("launch cache read failed", logger.Int("launch_id", id), logger.Error(err))
	}
	c.metrics.RecordCacheLookup(cached != nil)
	if cached != nil {
		return cached, nil
	}

	records, err := c.fetch(ctx, url.Values{"flight_number": {strconv.Itoa(id)}})
	if err != nil {
		return nil, err
	}
	for _, r := range records {
		if r.FlightNumber != id {
			continue
		}
		launch := launchReducer(r)
		c.store(ctx, launch)
		return &launch, nil
	}
	return nil, nil
}

// GetLaunchesByIDs looks up each id in order, skipping ids the catalog does not know.
func (c *Client) GetLaunchesByIDs(ctx context.Context, ids []int) ([]models.Launch, error) {
	launches := make([]models.Launch, 0, len(ids))
	for _, id := range ids {
		launch, err := c.GetLaunch(ctx, id)
		if err != nil {
			return nil, err
		}
		if launch != nil {
			launches = append(launches, *launch)
		}
	}
	return launches, nil
}

// ListLaunches returns one page of the collection after the given cursor.
func (c *Client) ListLaunches(ctx context.Context, after string, pageSize int) (models.LaunchConnection, error) {
	all, err := c.GetAllLaunches(ctx)
	if err != nil {
		return models.LaunchConnection{}, err
	}
	return Paginate(all, after, pageSize), nil
}

func (c *Client) store(ctx context.Context, launches ...models.Launch) {
	if err := c.cache.Set(ctx, launches...); err != nil {
		c.logger.Warn("launch cache write failed", logger.Int("launches", len(launches)), logger.Error(err))
	}
}

func (c *Client) fetch(ctx context.Context, query url.Values) ([]launchRecord, error) {
	endpoint := c.baseURL + "/launches"
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	start := time.Now()
	records, err := c.doFetch(ctx, endpoint)
	c.metrics.RecordCatalogFetch(time.Since(start), err)
	if err != nil {
		c.logger.Error("launch catalog request failed", logger.String("url", endpoint), logger.Error(err))
		return nil, err
	}
	c.logger.Debug("launch catalog fetched", logger.String("url", endpoint), logger.Int("records", len(records)))
	return records, nil
}

func (c *Client) doFetch(ctx context.Context, endpoint string) ([]launchRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrCatalogUnavailable, resp.StatusCode)
	}

	var records []launchRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode catalog response: %w", err)
	}
	return records, nil
}

func launchReducer(r launchRecord) models.Launch {
	launch := models.Launch{
		ID:     r.FlightNumber,
		Cursor: strconv.Itoa(r.FlightNumber),
		Mission: models.Mission{
			Name:              r.MissionName,
			MissionPatchSmall: r.Links.MissionPatchSmall,
			MissionPatchLarge: r.Links.MissionPatch,
		},
		Rocket: models.Rocket{
			ID:   r.Rocket.RocketID,
			Name: r.Rocket.RocketName,
			Type: r.Rocket.RocketType,
		},
	}
	if r.LaunchSite != nil {
		launch.Site = r.LaunchSite.SiteName
	}
	if t, err := time.Parse(time.RFC3339, r.LaunchDateUTC); err == nil {
		t = t.UTC()
		launch.LaunchDate = &t
	} else if r.LaunchDateUnix > 0 {
		t := time.Unix(r.LaunchDateUnix, 0).UTC()
		launch.LaunchDate = &t
	}
	return launch
}
