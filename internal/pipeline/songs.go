package pipeline

// songs.go - Stage 1: song metadata transform

import (
	"context"
	"fmt"
	"time"

	"github.com/beatlake/beatlake/internal/schema"
	"github.com/beatlake/beatlake/pkg/adapter"
)

// timedStage runs a stage function and reports its wall-clock duration.
func (p *Pipeline) timedStage(ctx context.Context, fn func(context.Context) (int64, error)) (int64, int64, error) {
	start := time.Now()
	rowsWritten, err := fn(ctx)
	return rowsWritten, time.Since(start).Milliseconds(), err
}

// processSongData loads the nested song-metadata JSON files and persists
// the songs and artists tables. songs is partitioned by (year, artist_id);
// artists is flat.
func (p *Pipeline) processSongData(ctx context.Context) (int64, error) {
	glob := joinLakePath(p.inputPath, schema.SongDataPattern)
	if err := p.db.LoadJSON(ctx, schema.StagingSongs, glob); err != nil {
		return 0, err
	}

	var total int64
	for _, proj := range []schema.Projection{schema.Songs, schema.Artists} {
		n, err := p.writeTable(ctx, proj)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// writeTable persists a projection under the output root, partitioned per
// its definition, and returns the row count written.
func (p *Pipeline) writeTable(ctx context.Context, proj schema.Projection) (int64, error) {
	selectSQL := proj.SelectSQL()

	n, err := p.countRows(ctx, selectSQL)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s rows: %w", proj.Name, err)
	}

	dest := joinLakePath(p.outputPath, proj.Name)
	opts := adapter.WriteOptions{PartitionBy: proj.PartitionBy}
	if err := p.db.WriteParquet(ctx, selectSQL, dest, opts); err != nil {
		return 0, err
	}

	p.logger.Debug("table written", "table", proj.Name, "dest", dest, "rows", n)
	return n, nil
}
