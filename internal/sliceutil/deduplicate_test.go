package sliceutil

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

type faqItem struct {
	Key    string
	Answer string
}

func byKey(f faqItem) string { return f.Key }

func TestDeduplicate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		items []faqItem
		want  []faqItem
	}{
		{
			name:  "no duplicates",
			items: []faqItem{{"a", "1"}, {"b", "2"}, {"c", "3"}},
			want:  []faqItem{{"a", "1"}, {"b", "2"}, {"c", "3"}},
		},
		{
			name:  "first occurrence kept",
			items: []faqItem{{"a", "1"}, {"b", "2"}, {"a", "3"}, {"c", "4"}},
			want:  []faqItem{{"a", "1"}, {"b", "2"}, {"c", "4"}},
		},
		{
			name:  "all duplicates",
			items: []faqItem{{"a", "1"}, {"a", "2"}, {"a", "3"}},
			want:  []faqItem{{"a", "1"}},
		},
		{
			name:  "empty",
			items: []faqItem{},
			want:  []faqItem{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Deduplicate(tt.items, byKey))
		})
	}
}

func TestDeduplicate_Nil(t *testing.T) {
	t.Parallel()
	assert.Nil(t, Deduplicate[faqItem](nil, byKey))
	assert.Nil(t, DeduplicateLast[faqItem](nil, byKey))
}

func TestDeduplicateLast(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		items []faqItem
		want  []faqItem
	}{
		{
			name:  "last value wins at first position",
			items: []faqItem{{"a", "1"}, {"b", "2"}, {"a", "3"}, {"c", "4"}},
			want:  []faqItem{{"a", "3"}, {"b", "2"}, {"c", "4"}},
		},
		{
			name:  "repeated overrides",
			items: []faqItem{{"a", "1"}, {"a", "2"}, {"b", "x"}, {"a", "3"}},
			want:  []faqItem{{"a", "3"}, {"b", "x"}},
		},
		{
			name:  "no duplicates",
			items: []faqItem{{"a", "1"}, {"b", "2"}},
			want:  []faqItem{{"a", "1"}, {"b", "2"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, DeduplicateLast(tt.items, byKey))
		})
	}
}

func TestDeduplicate_DoesNotModifyInput(t *testing.T) {
	t.Parallel()

	items := []faqItem{{"a", "1"}, {"a", "2"}}
	DeduplicateLast(items, byKey)
	Deduplicate(items, byKey)
	assert.Equal(t, []faqItem{{"a", "1"}, {"a", "2"}}, items)
}

func BenchmarkDeduplicate(b *testing.B) {
	items := make([]faqItem, 1000)
	for i := range items {
		items[i] = faqItem{Key: strconv.Itoa(i % 100)}
	}

	for b.Loop() {
		Deduplicate(items, byKey)
	}
}
