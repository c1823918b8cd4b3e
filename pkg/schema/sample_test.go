package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auditdoc/auditdoc/pkg/jsonutil"
)

// checkRecord asserts every key of rec is a declared field and descends into
// nested records.
func checkRecord(t *testing.T, path string, rec map[string]any, fields *Fields) {
	t.Helper()
	for k, v := range rec {
		f, ok := fields.Get(k)
		if !assert.True(t, ok, "sample key %s.%s is not in the catalog", path, k) {
			continue
		}
		nested, ok := f.Nested()
		if !ok {
			continue
		}
		switch tv := v.(type) {
		case map[string]any:
			assert.Equal(t, TypeObject, f.Type(), "%s.%s", path, k)
			checkRecord(t, path+"."+k, tv, nested)
		case []any:
			assert.Equal(t, TypeArray, f.Type(), "%s.%s", path, k)
			for _, item := range tv {
				m, ok := item.(map[string]any)
				require.True(t, ok, "%s.%s items must be records", path, k)
				checkRecord(t, path+"."+k, m, nested)
			}
		default:
			t.Errorf("%s.%s: unexpected %T for nested field", path, k, v)
		}
	}
}

func TestSampleDataMatchesCatalog(t *testing.T) {
	reg := Default()
	data := SampleData()
	assert.Len(t, data, reg.Len(), "every domain has sample data")

	for key, v := range data {
		d, ok := reg.Lookup(key)
		require.True(t, ok, "sample domain %q is not in the catalog", key)
		if d.IsArray() {
			list, ok := v.([]any)
			require.True(t, ok, "%s must be a list", key)
			assert.NotEmpty(t, list, key)
			for _, item := range list {
				rec, ok := item.(map[string]any)
				require.True(t, ok)
				checkRecord(t, key, rec, d.Fields())
			}
			continue
		}
		rec, ok := v.(map[string]any)
		require.True(t, ok, "%s must be a record", key)
		checkRecord(t, key, rec, d.Fields())
	}
}

func TestSampleFindingsAreScored(t *testing.T) {
	findings := SampleData()["findings"].([]any)
	require.Len(t, findings, 5)

	want := []struct {
		score    float64
		severity string
	}{
		{9.8, "Critical"},
		{5.4, "Medium"},
		{3.7, "Low"},
		{6.5, "Medium"},
		{8.1, "High"},
	}
	for i, w := range want {
		f := findings[i].(map[string]any)
		assert.InDelta(t, w.score, f["cvssScore"], 0.001, "finding %d", i)
		assert.Equal(t, w.severity, f["severity"], "finding %d", i)
	}
}

func TestSampleStats(t *testing.T) {
	stats := SampleData()["stats"].(map[string]any)
	assert.Equal(t, 5, stats["total"])
	assert.Equal(t, 1, stats["critical"])
	assert.Equal(t, 1, stats["high"])
	assert.Equal(t, 2, stats["medium"])
	assert.Equal(t, 1, stats["low"])
	assert.Equal(t, 0, stats["none"])
	assert.InDelta(t, 6.7, stats["averageScore"], 0.001)
	assert.Equal(t, map[string]any{"easy": 3, "medium": 1, "complex": 1}, stats["remediation"])
}

func TestComputeStatsEmpty(t *testing.T) {
	stats := computeStats(nil)
	assert.Equal(t, 0, stats["total"])
	assert.InDelta(t, 0.0, stats["averageScore"], 0)
}

func TestSampleAuditStatus(t *testing.T) {
	st := SampleData()["auditStatus"].(map[string]any)
	assert.Equal(t, 1, st["approvalCount"])
	assert.Equal(t, 2, st["requiredApprovals"])
	assert.Equal(t, false, st["isApproved"])
}

func TestSampleDataIsFresh(t *testing.T) {
	first := SampleData()
	first["audit"].(map[string]any)["name"] = "changed"
	first["findings"] = nil

	second := SampleData()
	assert.Equal(t, "ACME Web Application Pentest", second["audit"].(map[string]any)["name"])
	assert.Len(t, second["findings"], 5)
}

func TestSampleDataDeterministicJSON(t *testing.T) {
	a, err := jsonutil.Marshal(SampleData())
	require.NoError(t, err)
	b, err := jsonutil.Marshal(SampleData())
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}
