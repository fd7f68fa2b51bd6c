package crawler

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Diocesan calendar feeds are produced by several CMS vendors and agree on
// nothing. Field names are tried in the order listed.
var (
	feedListKeys    = []string{"list", "data", "items", "result", "rows"}
	feedIDFields    = []string{"seq", "idx", "SEQ", "IDX", "id", "no"}
	feedTitleFields = []string{"title", "subject", "TITLE", "SUBJECT"}
	feedDateFields  = []string{"date", "startDate", "start_date", "SDATE", "sdate"}
)

// FeedItem is the normalized view of one feed entry
type FeedItem struct {
	ID    string
	Title string
	Date  string
}

// ParseFeedItems decodes a feed body that is either a JSON array or an
// object wrapping the array under one of the known list keys.
func ParseFeedItems(body []byte) ([]FeedItem, error) {
	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode feed: %w", err)
	}

	entries := feedEntries(raw)
	items := make([]FeedItem, 0, len(entries))
	for _, entry := range entries {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		items = append(items, FeedItem{
			ID:    firstField(m, feedIDFields),
			Title: firstField(m, feedTitleFields),
			Date:  firstField(m, feedDateFields),
		})
	}
	return items, nil
}

func feedEntries(raw any) []any {
	switch v := raw.(type) {
	case []any:
		return v
	case map[string]any:
		for _, key := range feedListKeys {
			if nested, ok := v[key]; ok {
				// Some vendors nest one level deeper, e.g. {"data":{"list":[...]}}
				if entries := feedEntries(nested); len(entries) > 0 {
					return entries
				}
			}
		}
	}
	return nil
}

// firstField returns the first non-empty alias value rendered as a string
func firstField(m map[string]any, aliases []string) string {
	for _, name := range aliases {
		v, ok := m[name]
		if !ok || v == nil {
			continue
		}
		var s string
		switch t := v.(type) {
		case string:
			s = t
		case float64:
			s = strconv.FormatFloat(t, 'f', -1, 64)
		case bool:
			s = strconv.FormatBool(t)
		default:
			s = fmt.Sprint(t)
		}
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}
