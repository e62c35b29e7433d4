package schema

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjection_SelectSQL(t *testing.T) {
	tests := []struct {
		name       string
		projection Projection
		want       string
	}{
		{
			name: "plain projection",
			projection: Projection{
				Name:    "songs",
				From:    "staging_songs",
				Columns: []Column{{Name: "song_id"}, {Name: "title"}},
			},
			want: "SELECT song_id, title FROM staging_songs",
		},
		{
			name: "distinct with renames",
			projection: Projection{
				Name:     "artists",
				From:     "staging_songs",
				Distinct: true,
				Columns: []Column{
					{Name: "artist_id"},
					{Name: "name", Expr: "artist_name"},
				},
			},
			want: "SELECT DISTINCT artist_id, artist_name AS name FROM staging_songs",
		},
		{
			name: "filtered projection",
			projection: Projection{
				Name:    "events",
				From:    "staging_events",
				Columns: []Column{{Name: "*"}, {Name: "event_time", Expr: "epoch_ms(ts)"}},
				Where:   "page = 'NextSong'",
			},
			want: "SELECT *, epoch_ms(ts) AS event_time FROM staging_events WHERE page = 'NextSong'",
		},
		{
			name: "joined projection with alias",
			projection: Projection{
				Name:  "songplays",
				From:  "events",
				Alias: "l",
				Columns: []Column{
					{Name: "song_id", Expr: "s.song_id"},
				},
				Joins: []Join{
					{Table: "songs", Alias: "s", On: "s.title = l.song"},
				},
			},
			want: "SELECT s.song_id AS song_id FROM events l INNER JOIN songs s ON s.title = l.song",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.projection.SelectSQL())
		})
	}
}

func TestOutputTables_Definitions(t *testing.T) {
	require.Len(t, OutputTables, 5)

	names := make([]string, len(OutputTables))
	for i, p := range OutputTables {
		names[i] = p.Name
	}
	assert.Equal(t, []string{"songs", "artists", "users", "time", "songplays"}, names)

	tests := []struct {
		name        string
		projection  Projection
		wantColumns []string
		partitionBy []string
		distinct    bool
	}{
		{
			name:        "songs",
			projection:  Songs,
			wantColumns: []string{"song_id", "title", "artist_id", "year", "duration"},
			partitionBy: []string{"year", "artist_id"},
		},
		{
			name:        "artists",
			projection:  Artists,
			wantColumns: []string{"artist_id", "name", "location", "latitude", "longitude"},
			distinct:    true,
		},
		{
			name:        "users",
			projection:  Users,
			wantColumns: []string{"user_id", "first_name", "last_name", "gender", "level"},
			distinct:    true,
		},
		{
			name:        "time",
			projection:  Time,
			wantColumns: []string{"start_time", "hour", "day", "week", "month", "year", "weekday"},
			partitionBy: []string{"year", "month"},
			distinct:    true,
		},
		{
			name: "songplays",
			projection: Songplays,
			wantColumns: []string{
				"songplay_id", "start_time", "user_id", "song_id", "artist_id",
				"session_id", "location", "user_agent", "month", "year",
			},
			partitionBy: []string{"year", "month"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantColumns, tt.projection.ColumnNames())
			assert.Equal(t, tt.partitionBy, tt.projection.PartitionBy)
			assert.Equal(t, tt.distinct, tt.projection.Distinct)
		})
	}
}

func TestSongplays_JoinConditions(t *testing.T) {
	sql := Songplays.SelectSQL()

	// Both joins are strict-equality inner joins; a duration or name
	// mismatch must produce no row.
	assert.Contains(t, sql, "INNER JOIN songs s ON s.title = l.song AND s.duration = l.length")
	assert.Contains(t, sql, "INNER JOIN artists a ON a.artist_id = s.artist_id AND a.name = l.artist")
	assert.NotContains(t, strings.ToUpper(sql), "LEFT JOIN")
}

func TestEvents_FiltersToPlaybackEvents(t *testing.T) {
	sql := Events.SelectSQL()
	assert.Contains(t, sql, "WHERE page = 'NextSong'")
	assert.Contains(t, sql, "epoch_ms(ts) AS event_time")
}

func TestUsers_ExcludesBlankIDs(t *testing.T) {
	assert.Contains(t, Users.SelectSQL(), "WHERE trim(userId) <> ''")
}
