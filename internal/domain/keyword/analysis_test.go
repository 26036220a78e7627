package keyword

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuckets(t *testing.T) {
	assert.Equal(t, DifficultyEasy, DifficultyBucket(30))
	assert.Equal(t, DifficultyMedium, DifficultyBucket(31))
	assert.Equal(t, DifficultyHard, DifficultyBucket(80))
	assert.Equal(t, DifficultyVeryHard, DifficultyBucket(81))

	assert.Equal(t, VolumeLow, VolumeBucket(1000))
	assert.Equal(t, VolumeMedium, VolumeBucket(10000))
	assert.Equal(t, VolumeHigh, VolumeBucket(50000))
	assert.Equal(t, VolumeVeryHigh, VolumeBucket(50001))
}

func TestClassifyIntent(t *testing.T) {
	tests := []struct {
		keyword string
		want    Intent
	}{
		{"how to clean earbuds", IntentInformational},
		{"best earbuds", IntentCommercial},
		{"buy earbuds", IntentTransactional},
		{"sony official store", IntentNavigational},
		{"earbuds", IntentInformational},
		// informational patterns win over commercial ones
		{"best earbuds guide", IntentInformational},
	}
	for _, tt := range tests {
		t.Run(tt.keyword, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyIntent(tt.keyword))
		})
	}
}

func TestCompositeScore(t *testing.T) {
	assert.Equal(t, 100, CompositeScore(metrics("best wireless running headphones", 12000, 15, 6)))
	assert.Equal(t, 5, CompositeScore(metrics("earbuds", 400, 90, 0.2)))
	assert.Equal(t, 20+10+10+5, CompositeScore(metrics("cheap wireless earbuds", 1000, 60, 1)))
}

func TestSelect(t *testing.T) {
	var ms []Metrics
	for i := 0; i < 40; i++ {
		term := fmt.Sprintf("kw%d", i)
		if i%4 == 0 {
			term = fmt.Sprintf("long tail keyword number %d", i)
		}
		ms = append(ms, metrics(term, int64(100*i), 50, 1))
	}

	sel := Select(ms)
	assert.Len(t, sel.Primary, PrimaryLimit)
	assert.Len(t, sel.Secondary, SecondaryLimit-PrimaryLimit)
	require.NotEmpty(t, sel.LongTail)
	for _, k := range sel.LongTail {
		assert.GreaterOrEqual(t, k.WordCount(), 4)
	}
	for i := 1; i < len(sel.Primary); i++ {
		assert.GreaterOrEqual(t, sel.Primary[i-1].CompositeScore, sel.Primary[i].CompositeScore)
	}
	assert.Len(t, Terms(sel.Primary, 5), 5)

	small := Select(ms[:3])
	assert.Len(t, small.Primary, 3)
	assert.Empty(t, small.Secondary)
}

func TestMerge(t *testing.T) {
	a := []Metrics{metrics("Wireless  Earbuds", 1000, 40, 1)}
	a[0].Related = []string{"x", "y"}
	b := []Metrics{metrics("wireless earbuds", 3000, 60, 2), metrics("earbuds", 10, 10, 0)}
	b[0].Related = []string{"y", "z"}

	merged := Merge(a, b)
	require.Len(t, merged, 2)
	assert.Equal(t, "wireless earbuds", merged[0].Keyword)
	assert.Equal(t, int64(3000), merged[0].SearchVolume)
	assert.Equal(t, []string{"x", "y", "z"}, merged[0].Related)
	assert.Equal(t, 40.0, merged[0].Difficulty)
}

func TestNewMetrics(t *testing.T) {
	_, err := NewMetrics("  ", 10, 0, metrics("", 0, 0, 0).CPC)
	assert.Error(t, err)

	m, err := NewMetrics(" Best  Earbuds ", 10, 20, metrics("", 0, 0, 1.5).CPC)
	require.NoError(t, err)
	assert.Equal(t, "best earbuds", m.Keyword)
	assert.Equal(t, []string{"a b", "c"}, Dedupe([]string{"A  b", "a b", "", "c"}))
}

func TestSERPResult_TopDomains(t *testing.T) {
	r := &SERPResult{Results: []SERPEntry{
		{Position: 1, Domain: "a.com"},
		{Position: 2, Domain: "b.com"},
		{Position: 3, Domain: "a.com"},
		{Position: 4, Domain: ""},
		{Position: 5, Domain: "c.com"},
	}}
	assert.Equal(t, []string{"a.com", "b.com"}, r.TopDomains(2))
	assert.Equal(t, []string{"a.com", "b.com", "c.com"}, r.TopDomains(0))

	var nilResult *SERPResult
	assert.Nil(t, nilResult.TopDomains(3))
}
