package pipeline

// events.go - Stage 2: log event transform

import (
	"context"

	"github.com/beatlake/beatlake/internal/schema"
)

// processLogData loads the user-activity event logs, filters them to
// playback events, and persists the users, time, and songplays tables.
//
// The songplays join reads the songs and artists tables back from their
// persisted parquet output rather than from any in-memory state, which is
// why this stage must not start before the songs stage has finished.
func (p *Pipeline) processLogData(ctx context.Context) (int64, error) {
	glob := joinLakePath(p.inputPath, schema.LogDataPattern)
	if err := p.db.LoadJSON(ctx, schema.StagingEvents, glob); err != nil {
		return 0, err
	}

	// Materialize playback events with the derived event_time column;
	// all three projections below read from this relation.
	if err := p.db.CreateTableAs(ctx, schema.EventsRelation, schema.Events.SelectSQL()); err != nil {
		return 0, err
	}

	var total int64
	for _, proj := range []schema.Projection{schema.Users, schema.Time} {
		n, err := p.writeTable(ctx, proj)
		if err != nil {
			return total, err
		}
		total += n
	}

	// Register the stage-1 outputs as join inputs.
	for _, proj := range []schema.Projection{schema.Songs, schema.Artists} {
		glob := joinLakePath(p.outputPath, proj.Name, parquetGlob(proj.PartitionBy))
		if err := p.db.ReadParquet(ctx, proj.Name, glob); err != nil {
			return total, err
		}
	}

	n, err := p.writeTable(ctx, schema.Songplays)
	if err != nil {
		return total, err
	}
	return total + n, nil
}
