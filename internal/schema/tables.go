package schema

// Staging relation names and the input path patterns that feed them.
// Song metadata is laid out in depth-4 id-prefix directories; log events
// are a single flat directory.
const (
	StagingSongs  = "staging_songs"
	StagingEvents = "staging_events"

	SongDataPattern = "song_data/*/*/*/*.json"
	LogDataPattern  = "log_data/*.json"
)

// EventsRelation is the filtered event relation the log-stage projections
// read from: playback events only, with the epoch-millisecond ts column
// decomposed into a proper timestamp up front.
const EventsRelation = "events"

// Events materializes the playback events. Only "NextSong" page hits are
// actual plays; everything else is discarded here. event_time converts ts
// from epoch milliseconds to a plain UTC-based timestamp, so the calendar
// fields derived from it do not depend on any session timezone setting.
var Events = Projection{
	Name: EventsRelation,
	From: StagingEvents,
	Columns: []Column{
		{Name: "*"},
		{Name: "event_time", Expr: "epoch_ms(ts)"},
	},
	Where: "page = 'NextSong'",
}

// Songs projects one row per source song record.
var Songs = Projection{
	Name: "songs",
	From: StagingSongs,
	Columns: []Column{
		{Name: "song_id"},
		{Name: "title"},
		{Name: "artist_id"},
		{Name: "year"},
		{Name: "duration"},
	},
	PartitionBy: []string{"year", "artist_id"},
}

// Artists projects one row per distinct artist tuple. Artist attributes are
// denormalized onto song records, so DISTINCT collapses the duplicates.
var Artists = Projection{
	Name:     "artists",
	From:     StagingSongs,
	Distinct: true,
	Columns: []Column{
		{Name: "artist_id"},
		{Name: "name", Expr: "artist_name"},
		{Name: "location", Expr: "artist_location"},
		{Name: "latitude", Expr: "artist_latitude"},
		{Name: "longitude", Expr: "artist_longitude"},
	},
}

// Users projects one row per distinct user attribute tuple, excluding rows
// with a blank user id. A user whose level changed mid-log appears once per
// level value; no latest-wins resolution is applied.
var Users = Projection{
	Name:     "users",
	From:     EventsRelation,
	Distinct: true,
	Columns: []Column{
		{Name: "user_id", Expr: "userId"},
		{Name: "first_name", Expr: "firstName"},
		{Name: "last_name", Expr: "lastName"},
		{Name: "gender"},
		{Name: "level"},
	},
	Where: "trim(userId) <> ''",
}

// Time decomposes each distinct event timestamp into calendar fields.
// weekday is 1-indexed with Sunday=1 (dayofweek is 0-indexed from Sunday);
// week is the ISO week of year.
var Time = Projection{
	Name:     "time",
	From:     EventsRelation,
	Distinct: true,
	Columns: []Column{
		{Name: "start_time", Expr: "event_time"},
		{Name: "hour", Expr: "hour(event_time)"},
		{Name: "day", Expr: "day(event_time)"},
		{Name: "week", Expr: "weekofyear(event_time)"},
		{Name: "month", Expr: "month(event_time)"},
		{Name: "year", Expr: "year(event_time)"},
		{Name: "weekday", Expr: "dayofweek(event_time) + 1"},
	},
	PartitionBy: []string{"year", "month"},
}

// Songplays joins playback events to the persisted songs and artists tables.
// Both joins require exact equality (duration included, no tolerance), so
// events referencing unknown or mismatched songs drop out silently.
// songplay_id is unique and monotone within a run only; it is not stable
// across runs.
var Songplays = Projection{
	Name:  "songplays",
	From:  EventsRelation,
	Alias: "l",
	Columns: []Column{
		{Name: "songplay_id", Expr: "row_number() OVER ()"},
		{Name: "start_time", Expr: "l.event_time"},
		{Name: "user_id", Expr: "l.userId"},
		{Name: "song_id", Expr: "s.song_id"},
		{Name: "artist_id", Expr: "a.artist_id"},
		{Name: "session_id", Expr: "l.sessionId"},
		{Name: "location", Expr: "l.location"},
		{Name: "user_agent", Expr: "l.userAgent"},
		{Name: "month", Expr: "month(l.event_time)"},
		{Name: "year", Expr: "year(l.event_time)"},
	},
	Joins: []Join{
		{Table: "songs", Alias: "s", On: "s.title = l.song AND s.duration = l.length"},
		{Table: "artists", Alias: "a", On: "a.artist_id = s.artist_id AND a.name = l.artist"},
	},
	PartitionBy: []string{"year", "month"},
}

// OutputTables lists the five persisted tables in write order.
var OutputTables = []Projection{Songs, Artists, Users, Time, Songplays}
