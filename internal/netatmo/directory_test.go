package netatmo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSnapshot() *Snapshot {
	return &Snapshot{
		User: User{Mail: "user@example.com"},
		Stations: []Station{
			{
				ID:         "70:EE:50:09:F0:01",
				Name:       "Home",
				ModuleName: "Indoor",
				Type:       "NAMain",
				DataType:   []string{"Temperature", "CO2", "Humidity", "Noise", "Pressure"},
				Modules: []Module{
					{
						ID:       "02:00:00:09:f0:01",
						Name:     "Garden",
						Type:     "NAModule1",
						DataType: []string{"Temperature", "Humidity"},
					},
					{
						ID:       "05:00:00:09:f0:02",
						Name:     "Rain",
						Type:     "NAModule3",
						DataType: []string{"Rain"},
					},
				},
			},
			{
				ID:         "70:ee:50:22:aa:02",
				Name:       "Cabin",
				ModuleName: "Living room",
				Type:       "NAMain",
				DataType:   []string{"Temperature"},
			},
		},
		defaultStation: "70:ee:50:22:aa:02",
	}
}

func TestSnapshot_Station(t *testing.T) {
	snap := testSnapshot()

	tests := []struct {
		name  string
		ident string
		want  string // station name, "" for nil
	}{
		{"empty ident uses default", "", "Cabin"},
		{"exact name", "Home", "Home"},
		{"id verbatim", "70:EE:50:09:F0:01", "Home"},
		{"id lower-cased query", "70:ee:50:09:f0:01", "Home"},
		{"id upper-cased query", "70:EE:50:22:AA:02", "Cabin"},
		{"unknown id", "a4:2e:06:11:22:33", ""},
		{"unknown name", "Nowhere", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := snap.Station(tt.ident)
			if tt.want == "" {
				assert.Nil(t, st)
				return
			}
			require.NotNil(t, st)
			assert.Equal(t, tt.want, st.Name)
		})
	}
}

func TestSnapshot_Station_NoDefaultPicksFirst(t *testing.T) {
	snap := testSnapshot()
	snap.defaultStation = ""

	st := snap.Station("")
	require.NotNil(t, st)
	assert.Equal(t, "Home", st.Name)
}

func TestSnapshot_Module(t *testing.T) {
	snap := testSnapshot()

	tests := []struct {
		name    string
		ident   string
		station string
		want    string
	}{
		{"primary module by name", "Indoor", "Home", "Indoor"},
		{"primary module by station id", "70:ee:50:09:f0:01", "Home", "Indoor"},
		{"attached module by name", "Garden", "Home", "Garden"},
		{"attached module by id case-insensitive", "02:00:00:09:F0:01", "Home", "Garden"},
		{"unknown module", "Attic", "Home", ""},
		{"unknown station", "Garden", "Nowhere", ""},
		{"empty ident", "", "Home", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mod := snap.Module(tt.ident, tt.station)
			if tt.want == "" {
				assert.Nil(t, mod)
				return
			}
			require.NotNil(t, mod)
			assert.Equal(t, tt.want, mod.Name)
		})
	}
}

func TestStation_PrimaryModule(t *testing.T) {
	snap := testSnapshot()
	mod := snap.Stations[0].PrimaryModule()

	assert.Equal(t, "70:EE:50:09:F0:01", mod.ID)
	assert.Equal(t, "Indoor", mod.Name)
	assert.Equal(t, []string{"Temperature", "CO2", "Humidity", "Noise", "Pressure"}, mod.DataType)
}

func TestIsDeviceID(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"70:ee:50:09:f0:01", true},
		{"70-ee-50-09-f0-01", true},
		{"70:ee-50:09-f0:01", true},
		{"A4:2E:06:11:22:33", true},
		{"70:ee:50:09:f0", false},
		{"70:ee:50:09:f0:01:02", false},
		{"70:ee:50:09:f0:0g", false},
		{"Home", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, IsDeviceID(tt.in))
		})
	}
}

func TestDashboardData_TimeUTC(t *testing.T) {
	assert.Equal(t, int64(1471074923), DashboardData{"time_utc": float64(1471074923)}.TimeUTC())
	assert.Equal(t, int64(0), DashboardData{}.TimeUTC())
	assert.Equal(t, int64(0), DashboardData{"time_utc": "nope"}.TimeUTC())
}
