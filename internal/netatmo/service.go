package netatmo

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// Service bundles the transport and token manager behind the two API
// operations the tool needs: the directory fetch and the measure fetch.
type Service struct {
	client         *Client
	tokens         *TokenManager
	defaultStation string
	logger         *slog.Logger
}

// NewService creates a service. defaultStation may be empty.
func NewService(client *Client, tokens *TokenManager, defaultStation string, logger *slog.Logger) *Service {
	return &Service{
		client:         client,
		tokens:         tokens,
		defaultStation: defaultStation,
		logger:         logger.With("component", "service"),
	}
}

// FetchStations retrieves the station directory. deviceID scopes the fetch
// to one station; AllStations fetches everything; an empty deviceID scopes
// to the configured default station when one is set.
func (s *Service) FetchStations(ctx context.Context, deviceID string) (*Snapshot, error) {
	token, err := s.tokens.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	form := map[string]string{
		"access_token":  token,
		"get_favorites": "false",
	}
	switch {
	case deviceID == AllStations:
		// unscoped
	case deviceID != "":
		form["device_id"] = deviceID
	case s.defaultStation != "":
		form["device_id"] = s.defaultStation
	}

	var resp struct {
		Body *struct {
			User    User      `json:"user"`
			Devices []Station `json:"devices"`
		} `json:"body"`
		Error *APIError `json:"error"`
	}
	if err := s.client.PostForm(ctx, stationsPath, form, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, resp.Error
	}
	if resp.Body == nil {
		return nil, fmt.Errorf("stations response has no body")
	}

	s.logger.Debug("stations fetched", "count", len(resp.Body.Devices))
	return &Snapshot{
		User:           resp.Body.User,
		Stations:       resp.Body.Devices,
		defaultStation: s.defaultStation,
	}, nil
}

// MeasureRequest describes one page request against the measure endpoint.
type MeasureRequest struct {
	DeviceID  string
	ModuleID  string
	Scale     string // defaults to "max"
	Types     []string
	DateBegin int64
	DateEnd   int64
	Limit     int
	Optimize  bool
	RealTime  bool
}

// MeasurePage is one page of measurements: timestamp (as decimal string)
// to a value tuple in the requested metric order. Values may be null.
type MeasurePage struct {
	Status string                `json:"status"`
	Body   map[string][]*float64 `json:"body"`
}

// Measure requests one page of measurements.
func (s *Service) Measure(ctx context.Context, req MeasureRequest) (*MeasurePage, error) {
	token, err := s.tokens.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	if req.Scale == "" {
		req.Scale = "max"
	}
	form := map[string]string{
		"access_token": token,
		"device_id":    req.DeviceID,
		"scale":        req.Scale,
		"type":         strings.Join(req.Types, ","),
		"optimize":     strconv.FormatBool(req.Optimize),
		"real_time":    strconv.FormatBool(req.RealTime),
	}
	if req.ModuleID != "" {
		form["module_id"] = req.ModuleID
	}
	if req.DateBegin > 0 {
		form["date_begin"] = strconv.FormatInt(req.DateBegin, 10)
	}
	if req.DateEnd > 0 {
		form["date_end"] = strconv.FormatInt(req.DateEnd, 10)
	}
	if req.Limit > 0 {
		form["limit"] = strconv.Itoa(req.Limit)
	}

	var resp struct {
		MeasurePage
		Error *APIError `json:"error"`
	}
	if err := s.client.PostForm(ctx, measurePath, form, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, resp.Error
	}
	return &resp.MeasurePage, nil
}

// ResolveDefaultStation turns a user-supplied value into the station id to
// store as the default. Device ids are stored verbatim, lower-cased,
// without a directory fetch; names need a fresh unscoped fetch. An empty
// value clears the default.
func (s *Service) ResolveDefaultStation(ctx context.Context, value string) (string, error) {
	if value == "" {
		return "", nil
	}
	if IsDeviceID(value) {
		return strings.ToLower(value), nil
	}
	snap, err := s.FetchStations(ctx, AllStations)
	if err != nil {
		return "", err
	}
	st := snap.Station(value)
	if st == nil {
		return "", fmt.Errorf("%w: %q", ErrStationNotFound, value)
	}
	return st.ID, nil
}
