package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rushteam/playgcn/core"
	"github.com/rushteam/playgcn/pkg/logging"
)

const cancelCheckEvery = 1024

// Option 配置 Reader。
type Option func(*Reader)

// WithSkipMalformed 为 true 时，数值列无法解析的行被丢弃并计数，而不是返回错误。
func WithSkipMalformed(skip bool) Option {
	return func(r *Reader) {
		r.skipMalformed = skip
	}
}

// WithComma 设置分隔符，默认 ','。
func WithComma(comma rune) Option {
	return func(r *Reader) {
		r.comma = comma
	}
}

// Reader 逐行读取 CSV 并转换为 Row。
type Reader struct {
	src           io.Reader
	comma         rune
	skipMalformed bool
	stats         Stats
}

// NewReader 创建 Reader。
func NewReader(src io.Reader, opts ...Option) *Reader {
	r := &Reader{src: src, comma: ','}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Stats 返回已读取的统计。
func (r *Reader) Stats() Stats { return r.stats }

// columns 记录必需列在表头中的位置。
type columns map[string]int

func resolveColumns(header []string) (columns, error) {
	cols := make(columns, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, dup := cols[name]; !dup {
			cols[name] = i
		}
	}
	for _, name := range RequiredColumns() {
		if _, ok := cols[name]; !ok {
			return nil, core.InvalidInput(core.ModuleDataset, "dataset: missing required column %q", name)
		}
	}
	return cols, nil
}

// ReadAll 读取全部行。
func (r *Reader) ReadAll(ctx context.Context) ([]Row, error) {
	cr := csv.NewReader(r.src)
	cr.Comma = r.comma
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, core.InvalidInput(core.ModuleDataset, "dataset: empty input, header row required")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols, err := resolveColumns(header)
	if err != nil {
		return nil, err
	}

	var rows []Row
	line := 1
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}
		if line%cancelCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		row, err := parseRecord(record, cols, line)
		if err != nil {
			if r.skipMalformed && core.IsInvalidInput(err) {
				r.stats.Malformed++
				logging.Ctx(ctx).Debug().Err(err).Int("line", line).Msg("skip malformed row")
				continue
			}
			return nil, err
		}
		rows = append(rows, row)
	}
	r.stats.Rows = len(rows)
	return rows, nil
}

func field(record []string, cols columns, name string) string {
	i := cols[name]
	if i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func parseRecord(record []string, cols columns, line int) (Row, error) {
	row := Row{
		Line:             line,
		TrackID:          field(record, cols, ColTrackID),
		TrackName:        field(record, cols, ColTrackName),
		TrackArtist:      field(record, cols, ColTrackArtist),
		TrackAlbumID:     field(record, cols, ColTrackAlbumID),
		TrackAlbumName:   field(record, cols, ColTrackAlbumName),
		TrackReleaseDate: field(record, cols, ColTrackReleaseDate),
		PlaylistName:     field(record, cols, ColPlaylistName),
		PlaylistID:       field(record, cols, ColPlaylistID),
		PlaylistGenre:    field(record, cols, ColPlaylistGenre),
		PlaylistSubgenre: field(record, cols, ColPlaylistSubgenre),
	}

	if s := field(record, cols, ColTrackPopularity); s != "" {
		pop, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Row{}, core.InvalidInput(core.ModuleDataset, "dataset: line %d column %q: invalid number %q", line, ColTrackPopularity, s)
		}
		row.TrackPopularity = int(pop)
	}

	for i, name := range AudioFeatureNames {
		s := field(record, cols, name)
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Row{}, core.InvalidInput(core.ModuleDataset, "dataset: line %d column %q: invalid number %q", line, name, s)
		}
		row.Audio[i] = v
	}
	return row, nil
}

// Read 从 src 读取全部行。
func Read(ctx context.Context, src io.Reader, opts ...Option) ([]Row, Stats, error) {
	r := NewReader(src, opts...)
	rows, err := r.ReadAll(ctx)
	return rows, r.Stats(), err
}

// Load 打开 path 并读取全部行。
func Load(ctx context.Context, path string, opts ...Option) ([]Row, Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	rows, stats, err := Read(ctx, f, opts...)
	if err != nil {
		return nil, stats, fmt.Errorf("load %s: %w", path, err)
	}
	logging.Ctx(ctx).Info().
		Str("path", path).
		Int("rows", stats.Rows).
		Int("malformed", stats.Malformed).
		Msg("dataset loaded")
	return rows, stats, nil
}
