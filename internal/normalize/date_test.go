package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fy25(t *testing.T) FiscalYear {
	t.Helper()
	fy, err := ParseFiscalYear("FY25")
	require.NoError(t, err)
	return fy
}

func TestParseFiscalYear(t *testing.T) {
	tests := []struct {
		label     string
		wantLabel string
		wantStart int
		wantErr   bool
	}{
		{label: "FY25", wantLabel: "FY25", wantStart: 2024},
		{label: "fy25", wantLabel: "FY25", wantStart: 2024},
		{label: "FY2025", wantLabel: "FY25", wantStart: 2024},
		{label: "FY99", wantLabel: "FY99", wantStart: 2098},
		{label: "2025", wantErr: true},
		{label: "FYxx", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			fy, err := ParseFiscalYear(tt.label)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLabel, fy.Label)
			assert.Equal(t, tt.wantStart, fy.StartYear)
		})
	}
}

func TestFiscalYearForDate(t *testing.T) {
	tests := []struct {
		date string
		want string
	}{
		{"2024-07-01", "FY25"},
		{"2024-11-15", "FY25"},
		{"2025-01-10", "FY25"},
		{"2025-06-30", "FY25"},
		{"2025-07-01", "FY26"},
	}
	for _, tt := range tests {
		d, err := time.Parse("2006-01-02", tt.date)
		require.NoError(t, err)
		assert.Equal(t, tt.want, FiscalYearForDate(d).Label, tt.date)
	}
}

func TestFiscalWeek(t *testing.T) {
	tests := []struct {
		date string
		want int
	}{
		{"2024-07-01", 1},
		{"2024-07-07", 1},
		{"2024-07-08", 2},
		// November 1 is 123 days past July 1.
		{"2024-11-01", 18},
	}
	for _, tt := range tests {
		d, err := time.Parse("2006-01-02", tt.date)
		require.NoError(t, err)
		assert.Equal(t, tt.want, FiscalWeek(d), tt.date)
	}
}

func TestResolveDate(t *testing.T) {
	fy := fy25(t)

	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "iso", raw: "2024-11-01", want: "2024-11-01"},
		{name: "us slash", raw: "11/1/2024", want: "2024-11-01"},
		{name: "two digit year", raw: "11/1/24", want: "2024-11-01"},
		{name: "excel serial", raw: "45597", want: "2024-11-01"},
		{name: "free text range fall", raw: "Nov. 1-3", want: "2024-11-01"},
		{name: "free text range spring", raw: "Mar. 8-10", want: "2025-03-08"},
		{name: "free text ampersand", raw: "Feb 14 & 16", want: "2025-02-14"},
		{name: "full month name", raw: "November 12", want: "2024-11-12"},
		{name: "empty", raw: "", wantErr: true},
		{name: "gibberish", raw: "next week sometime", wantErr: true},
		{name: "serial out of range", raw: "12", wantErr: true},
		{name: "bad month", raw: "Xyz. 4", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveDate(tt.raw, fy)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Format("2006-01-02"))
		})
	}
}
