package netatmo

import (
	"regexp"
	"strings"
)

// AllStations requests an unscoped directory fetch.
const AllStations = "*"

// deviceIDPattern matches MAC-like device ids: six hex byte pairs delimited
// by colons or hyphens, lower case.
var deviceIDPattern = regexp.MustCompile(`^[0-9a-f]{2}([:-][0-9a-f]{2}){5}$`)

// IsDeviceID reports whether s looks like a device id rather than a
// station or module name. The check is case-insensitive.
func IsDeviceID(s string) bool {
	return deviceIDPattern.MatchString(strings.ToLower(s))
}

// User describes the account that owns the stations.
type User struct {
	Mail string `json:"mail"`
}

// Place is the station's location metadata.
type Place struct {
	City     string  `json:"city"`
	Country  string  `json:"country"`
	Altitude float64 `json:"altitude"`
}

// DashboardData is the latest reported values of a station or module,
// keyed by sensor name plus a few time_* / date_* bookkeeping entries.
type DashboardData map[string]any

// TimeUTC returns the timestamp of the latest report, or 0 when absent.
func (d DashboardData) TimeUTC() int64 {
	v, ok := d["time_utc"].(float64)
	if !ok {
		return 0
	}
	return int64(v)
}

// Module is a satellite sensor unit attached to a station. The station's
// own built-in sensors are exposed as a synthesized primary Module.
type Module struct {
	ID             string        `json:"_id"`
	Name           string        `json:"module_name"`
	Type           string        `json:"type"`
	DataType       []string      `json:"data_type"`
	LastSetup      int64         `json:"last_setup"`
	Firmware       int           `json:"firmware"`
	RFStatus       int           `json:"rf_status"`
	BatteryPercent int           `json:"battery_percent"`
	LastMessage    int64         `json:"last_message"`
	LastSeen       int64         `json:"last_seen"`
	Dashboard      DashboardData `json:"dashboard_data"`
}

// Station is a weather-station base unit with its attached modules.
type Station struct {
	ID              string        `json:"_id"`
	Name            string        `json:"station_name"`
	ModuleName      string        `json:"module_name"`
	Type            string        `json:"type"`
	DataType        []string      `json:"data_type"`
	DateSetup       int64         `json:"date_setup"`
	LastSetup       int64         `json:"last_setup"`
	LastUpgrade     int64         `json:"last_upgrade"`
	WifiStatus      int           `json:"wifi_status"`
	LastStatusStore int64         `json:"last_status_store"`
	Firmware        int           `json:"firmware"`
	Place           Place         `json:"place"`
	Modules         []Module      `json:"modules"`
	Dashboard       DashboardData `json:"dashboard_data"`
}

// PrimaryModule presents the station's built-in sensors as a Module.
func (s *Station) PrimaryModule() *Module {
	return &Module{
		ID:        s.ID,
		Name:      s.ModuleName,
		Type:      s.Type,
		DataType:  s.DataType,
		LastSetup: s.LastSetup,
		Firmware:  s.Firmware,
		Dashboard: s.Dashboard,
	}
}

// Snapshot is one directory fetch: the account's stations as they were at
// fetch time. It lives for a single command invocation.
type Snapshot struct {
	User     User
	Stations []Station

	defaultStation string
}

// Station resolves ident to a station. An empty ident falls back to the
// configured default station, and an empty default selects the first
// station. Then: exact name match, then case-insensitive id match. Returns
// nil when nothing matches.
func (s *Snapshot) Station(ident string) *Station {
	if ident == "" {
		ident = s.defaultStation
	}
	for i := range s.Stations {
		st := &s.Stations[i]
		if ident == "" {
			return st
		}
		if st.Name == ident {
			return st
		}
		if strings.EqualFold(st.ID, ident) {
			return st
		}
	}
	return nil
}

// Module resolves ident to a module of the given station (station resolved
// with the same rules as Station). The station's own primary module is
// checked first, then its attached modules: exact name match, then
// case-insensitive id match. Returns nil when nothing matches.
func (s *Snapshot) Module(ident, station string) *Module {
	st := s.Station(station)
	if st == nil || ident == "" {
		return nil
	}
	if st.ModuleName == ident || strings.EqualFold(st.ID, ident) {
		return st.PrimaryModule()
	}
	for i := range st.Modules {
		mod := &st.Modules[i]
		if mod.Name == ident || strings.EqualFold(mod.ID, ident) {
			return mod
		}
	}
	return nil
}
