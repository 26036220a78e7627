package pipeline

import (
	"errors"
	"testing"

	"github.com/seoblog/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validBrief() Brief {
	return Brief{ProductName: "AirPods Pro", Niche: "audio", TargetAudience: "commuters"}
}

func TestNewBrief(t *testing.T) {
	t.Run("fills defaults", func(t *testing.T) {
		b, err := NewBrief(Brief{ProductName: " AirPods Pro ", Niche: "audio", TargetAudience: "commuters", TargetKeywords: []string{" ", ""}})
		require.NoError(t, err)
		assert.Equal(t, "AirPods Pro", b.ProductName)
		assert.Equal(t, []string{"seo", "blog", "content"}, b.TargetKeywords)
		assert.Equal(t, DefaultContentLength, b.ContentLength)
		assert.True(t, b.Budget.Equal(decimal.NewFromInt(2000)))
		assert.Equal(t, PublishStatusDraft, b.PublishStatus)
		assert.False(t, b.SkipQualityCheck)
	})

	t.Run("keeps explicit values", func(t *testing.T) {
		in := validBrief()
		in.TargetKeywords = []string{"wireless earbuds"}
		in.Budget = decimal.NewFromFloat(99.5)
		in.PublishStatus = PublishStatusPublish
		b, err := NewBrief(in)
		require.NoError(t, err)
		assert.Equal(t, []string{"wireless earbuds"}, b.TargetKeywords)
		assert.Equal(t, "99.5", b.Budget.String())
		assert.Equal(t, PublishStatusPublish, b.PublishStatus)
	})

	tests := []struct {
		name   string
		mutate func(*Brief)
	}{
		{"missing product", func(b *Brief) { b.ProductName = "" }},
		{"missing niche", func(b *Brief) { b.Niche = "  " }},
		{"missing audience", func(b *Brief) { b.TargetAudience = "" }},
		{"negative budget", func(b *Brief) { b.Budget = decimal.NewFromInt(-1) }},
		{"unknown status", func(b *Brief) { b.PublishStatus = "scheduled" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := validBrief()
			tt.mutate(&b)
			_, err := NewBrief(b)
			require.Error(t, err)
			var de *shared.DomainError
			require.True(t, errors.As(err, &de))
			assert.Equal(t, "INVALID_BRIEF", de.Code)
		})
	}
}

func TestStages(t *testing.T) {
	stages := Stages()
	require.Len(t, stages, 7)
	assert.Equal(t, StageMarketResearch, stages[0])
	assert.Equal(t, StagePublisher, stages[6])
	assert.Equal(t, 5, StageContentWriter.Index())
	assert.Equal(t, "Quality Check", StageQualityChecker.DisplayName())
	assert.True(t, StageContentWriter.IsCritical())
	assert.False(t, StagePublisher.IsCritical())
	assert.False(t, StageName("bogus").IsValid())

	stages[0] = "mutated"
	assert.Equal(t, StageMarketResearch, Stages()[0])
}
