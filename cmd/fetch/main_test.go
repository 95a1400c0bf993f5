package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"holiday-viewer/internal/holidayapi"
	"holiday-viewer/internal/model"
	"holiday-viewer/internal/source"
)

type cannedFetcher map[string]string

func (f cannedFetcher) Fetch(ctx context.Context, endpoint string, _ url.Values) (json.RawMessage, bool) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return nil, false
	}
	body, ok := f[endpoint]
	if !ok {
		return nil, false
	}
	return json.RawMessage(body), true
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("broken pipe")
}

var today = civil.Date{Year: 2026, Month: time.October, Day: 19}

func TestRun(t *testing.T) {
	registry := source.NewDefaultRegistry(cannedFetcher{
		holidayapi.EndpointFestivals: `{"祭り・文化行事": [
			{"名称": "時代祭", "日付情報": "10月22日"},
			{"名称": "祇園祭", "日付情報": "7月17日"}
		]}`,
	})
	q := model.Query{Country: model.CountryJP, Year: 2026, View: model.ViewFestivals}

	var buf bytes.Buffer
	ok, err := run(context.Background(), &buf, registry, q, today)
	require.NoError(t, err)
	assert.True(t, ok, "fetch runs without a deadline of its own")

	var out output
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, q, out.Query)
	assert.True(t, out.Available)
	assert.Len(t, out.Events, 2)
	require.Len(t, out.Upcoming, 1)
	assert.Equal(t, "時代祭", out.Upcoming[0].Name)
	assert.Contains(t, buf.String(), "時代祭", "non-ASCII text is not escaped")
}

func TestRunNoData(t *testing.T) {
	registry := source.NewDefaultRegistry(cannedFetcher{})
	q := model.Query{Country: model.CountryUS, Year: 2026, View: model.ViewPublicHolidays}

	var buf bytes.Buffer
	ok, err := run(context.Background(), &buf, registry, q, today)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, buf.String(), `"available": false`)
}

func TestRunReportsWriteError(t *testing.T) {
	registry := source.NewDefaultRegistry(cannedFetcher{})
	q := model.Query{Country: model.CountryUS, Year: 2026, View: model.ViewPublicHolidays}

	_, err := run(context.Background(), failingWriter{}, registry, q, today)
	assert.EqualError(t, err, "broken pipe")
}
