package feed

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRSS = `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>Example Wire</title>
    <item>
      <title>Company Beats Estimates</title>
      <link>https://news.example.com/a</link>
      <description>Summary text</description>
      <pubDate>Thu, 30 Jul 2026 10:00:00 +0000</pubDate>
    </item>
  </channel>
</rss>`

const sampleAtom = `<?xml version="1.0"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Example Atom Wire</title>
  <entry>
    <title>Guidance Raised</title>
    <summary>Summary text</summary>
    <published>2026-07-30T10:00:00Z</published>
    <link rel="alternate" href="https://news.example.com/b"/>
  </entry>
</feed>`

func TestAdapter_Parse_RSS(t *testing.T) {
	a := New(nil, "")
	entries, err := a.Parse(context.Background(), strings.NewReader(sampleRSS))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Company Beats Estimates", entries[0].Title)
	assert.Equal(t, "https://news.example.com/a", entries[0].Link)
	require.NotNil(t, entries[0].PublishedParsed)
}

func TestAdapter_Parse_Atom(t *testing.T) {
	a := New(nil, "")
	entries, err := a.Parse(context.Background(), strings.NewReader(sampleAtom))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Guidance Raised", entries[0].Title)
	assert.Equal(t, "https://news.example.com/b", entries[0].Link)
}

func TestAdapter_Parse_UnknownFormatErrors(t *testing.T) {
	a := New(nil, "")
	_, err := a.Parse(context.Background(), strings.NewReader(`{"not":"a feed"}`))
	assert.Error(t, err)
}
