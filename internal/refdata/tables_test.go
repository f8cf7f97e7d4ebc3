package refdata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTable(t *testing.T) {
	tables, err := Default()
	require.NoError(t, err)

	watts, err := tables.GPUWatts("AGX Xavier")
	require.NoError(t, err)
	assert.Equal(t, 30.0, watts)

	region, err := tables.Region("gcp", "asia-east1")
	require.NoError(t, err)
	assert.Equal(t, "Taiwan", region.Location)
	assert.True(t, region.Impact > 0)

	assert.Contains(t, tables.Providers(), "gcp")
	assert.Contains(t, tables.GPUs(), "Tesla T4")
}

func TestLookupsAreExactMatch(t *testing.T) {
	tables, err := New(
		[]GPU{{Name: "Tesla T4", Watts: 70}},
		[]Provider{{Provider: "gcp", Regions: []Region{{Region: "us-west1", Impact: 117, OffsetRatio: 100}}}},
	)
	require.NoError(t, err)

	_, err = tables.GPUWatts("tesla t4")
	assert.ErrorIs(t, err, ErrUnknownGPU)

	_, err = tables.Region("GCP", "us-west1")
	assert.ErrorIs(t, err, ErrUnknownProvider)

	_, err = tables.Region("gcp", "us-west2")
	assert.ErrorIs(t, err, ErrUnknownRegion)

	_, err = tables.Regions("aws")
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestNewRejectsBadRows(t *testing.T) {
	testCases := []struct {
		name      string
		gpus      []GPU
		providers []Provider
	}{
		{name: "duplicate gpu", gpus: []GPU{{Name: "A", Watts: 1}, {Name: "A", Watts: 2}}},
		{name: "negative watts", gpus: []GPU{{Name: "A", Watts: -1}}},
		{name: "empty gpu name", gpus: []GPU{{Watts: 1}}},
		{
			name: "duplicate region",
			providers: []Provider{{Provider: "p", Regions: []Region{{Region: "r"}, {Region: "r"}}}},
		},
		{
			name:      "negative impact",
			providers: []Provider{{Provider: "p", Regions: []Region{{Region: "r", Impact: -3}}}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.gpus, tc.providers)
			assert.Error(t, err)
		})
	}
}

func TestRegionsSorted(t *testing.T) {
	tables, err := New(nil, []Provider{{
		Provider: "aws",
		Regions:  []Region{{Region: "us-west-2"}, {Region: "eu-west-1"}, {Region: "ap-south-1"}},
	}})
	require.NoError(t, err)

	regions, err := tables.Regions("aws")
	require.NoError(t, err)
	assert.Equal(t, []string{"ap-south-1", "eu-west-1", "us-west-2"}, regions)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.yaml")
	data := []byte(`
gpus:
  - { name: "Custom GPU", watts: 123 }
providers:
  - provider: local
    name: Local DC
    regions:
      - { region: basement, location: "Home", impact: 100, offset_ratio: 50 }
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	tables, err := Load(path)
	require.NoError(t, err)

	watts, err := tables.GPUWatts("Custom GPU")
	require.NoError(t, err)
	assert.Equal(t, 123.0, watts)

	name, err := tables.ProviderName("local")
	require.NoError(t, err)
	assert.Equal(t, "Local DC", name)
}
