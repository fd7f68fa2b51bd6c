package crawler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFeedItems_Aliases(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []FeedItem
	}{
		{
			name: "bare array",
			body: `[{"seq":1,"title":"피정","date":"2025-12-01"}]`,
			want: []FeedItem{{ID: "1", Title: "피정", Date: "2025-12-01"}},
		},
		{
			name: "upper case vendor fields",
			body: `{"rows":[{"IDX":"77","SUBJECT":"순례","SDATE":"20251203"}]}`,
			want: []FeedItem{{ID: "77", Title: "순례", Date: "20251203"}},
		},
		{
			name: "nested data list",
			body: `{"data":{"list":[{"no":5,"subject":"특강","start_date":"2025-12-05"}]}}`,
			want: []FeedItem{{ID: "5", Title: "특강", Date: "2025-12-05"}},
		},
		{
			name: "alias order prefers seq over id",
			body: `{"items":[{"id":"x","seq":9,"title":"","subject":"미사"}]}`,
			want: []FeedItem{{ID: "9", Title: "미사"}},
		},
		{
			name: "non object entries skipped",
			body: `{"result":["junk",{"idx":3}]}`,
			want: []FeedItem{{ID: "3"}},
		},
		{
			name: "unknown wrapper",
			body: `{"events":[{"seq":1}]}`,
			want: []FeedItem{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := ParseFeedItems([]byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.want, items)
		})
	}
}

func TestParseFeedItems_InvalidJSON(t *testing.T) {
	_, err := ParseFeedItems([]byte("<html>"))
	assert.Error(t, err)
}
