package dataset

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/playgcn/core"
)

const header = "track_id,track_name,track_artist,track_popularity,track_album_id,track_album_name,track_album_release_date,playlist_name,playlist_id,playlist_genre,playlist_subgenre,danceability,energy,key,loudness,mode,speechiness,acousticness,instrumentalness,liveness,valence,tempo,duration_ms"

func csvOf(lines ...string) string {
	return strings.Join(append([]string{header}, lines...), "\n") + "\n"
}

func TestReadParsesRows(t *testing.T) {
	in := csvOf(
		"t1,One,A,66,a1,Al,2019,PL,p1,pop,dance pop,0.5,0.6,6,-2.5,1,0.05,0.1,0,0.06,0.5,120,194754",
		"t2,Two,B,,a2,Al,2019,PL,p1,pop,dance pop,0.1,0.2,3,-4,0,0.01,0.2,0.3,0.4,0.5,99.5,1000",
	)
	rows, stats, err := Read(context.Background(), strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, Stats{Rows: 2}, stats)

	r := rows[0]
	assert.Equal(t, 2, r.Line)
	assert.Equal(t, "t1", r.TrackID)
	assert.Equal(t, "p1", r.PlaylistID)
	assert.Equal(t, "dance pop", r.PlaylistSubgenre)
	assert.Equal(t, 66, r.TrackPopularity)
	assert.Equal(t, [NumAudioFeatures]float64{0.5, 0.6, 6, -2.5, 1, 0.05, 0.1, 0, 0.06, 0.5, 120, 194754}, r.Audio)
	assert.Equal(t, 0, rows[1].TrackPopularity, "empty popularity defaults to zero")
}

func TestReadResolvesColumnsByName(t *testing.T) {
	cols := RequiredColumns()
	// 倒序表头 + 额外列
	reversed := make([]string, 0, len(cols)+1)
	reversed = append(reversed, "extra")
	for i := len(cols) - 1; i >= 0; i-- {
		reversed = append(reversed, cols[i])
	}
	values := map[string]string{
		ColTrackID: "tx", ColPlaylistID: "px", ColTrackPopularity: "10",
		"danceability": "0.25", "duration_ms": "42",
	}
	record := make([]string, 0, len(reversed))
	for _, c := range reversed {
		v, ok := values[c]
		if !ok {
			v = "0"
			if c == "extra" || c == ColTrackName || c == ColTrackArtist {
				v = "x"
			}
		}
		record = append(record, v)
	}
	in := strings.Join(reversed, ",") + "\n" + strings.Join(record, ",") + "\n"

	rows, _, err := Read(context.Background(), strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "tx", rows[0].TrackID)
	assert.Equal(t, "px", rows[0].PlaylistID)
	assert.Equal(t, 0.25, rows[0].Audio[0])
	assert.Equal(t, 42.0, rows[0].Audio[NumAudioFeatures-1])
}

func TestReadMissingColumn(t *testing.T) {
	in := strings.Replace(header, ",tempo", "", 1) + "\n"
	_, _, err := Read(context.Background(), strings.NewReader(in))
	require.Error(t, err)
	assert.True(t, core.IsInvalidInput(err))
	assert.Contains(t, err.Error(), `"tempo"`)
}

func TestReadEmptyInput(t *testing.T) {
	_, _, err := Read(context.Background(), strings.NewReader(""))
	assert.True(t, core.IsInvalidInput(err))
}

func TestReadMalformedNumber(t *testing.T) {
	in := csvOf(
		"t1,One,A,66,a1,Al,2019,PL,p1,pop,dance pop,oops,0.6,6,-2.5,1,0.05,0.1,0,0.06,0.5,120,194754",
		"t2,Two,B,50,a2,Al,2019,PL,p1,pop,dance pop,0.1,0.2,3,-4,0,0.01,0.2,0.3,0.4,0.5,99.5,1000",
	)

	t.Run("default returns error", func(t *testing.T) {
		_, _, err := Read(context.Background(), strings.NewReader(in))
		require.Error(t, err)
		assert.True(t, core.IsInvalidInput(err))
		assert.Contains(t, err.Error(), "line 2")
		assert.Contains(t, err.Error(), "danceability")
	})

	t.Run("skip malformed", func(t *testing.T) {
		rows, stats, err := Read(context.Background(), strings.NewReader(in), WithSkipMalformed(true))
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "t2", rows[0].TrackID)
		assert.Equal(t, Stats{Rows: 1, Malformed: 1}, stats)
	})
}

func TestReadKeepsRowsWithEmptyKeys(t *testing.T) {
	in := csvOf(
		",One,A,66,a1,Al,2019,PL,p1,pop,dance pop,0.5,0.6,6,-2.5,1,0.05,0.1,0,0.06,0.5,120,194754",
		"t2,Two,B,50,a2,Al,2019,PL,,pop,dance pop,0.1,0.2,3,-4,0,0.01,0.2,0.3,0.4,0.5,99.5,1000",
	)
	rows, _, err := Read(context.Background(), strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Empty(t, rows[0].TrackID)
	assert.Empty(t, rows[1].PlaylistID)
}

func TestLoadTestdata(t *testing.T) {
	rows, stats, err := Load(context.Background(), "testdata/playlists.csv")
	require.NoError(t, err)
	assert.Len(t, rows, 9)
	assert.Equal(t, 9, stats.Rows)
	assert.Equal(t, "Artist D", rows[4].TrackArtist)
}

func TestLoadMissingFile(t *testing.T) {
	_, _, err := Load(context.Background(), "testdata/does-not-exist.csv")
	assert.Error(t, err)
}
