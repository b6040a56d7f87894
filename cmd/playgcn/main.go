// Command playgcn 读取歌单 CSV，训练二部图 GCN，并为指定歌单输出 Top-K 推荐曲目。
//
//	playgcn -data playlists.csv -playlist-id 37i9dQZF1DXcBWIGoYBM5M -k 10
//	PLAYGCN_TRAIN_EPOCHS=200 playgcn -config playgcn.yaml -playlist 0
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/rushteam/playgcn/config"
	"github.com/rushteam/playgcn/dataset"
	"github.com/rushteam/playgcn/pkg/logging"
	"github.com/rushteam/playgcn/pkg/metrics"
	"github.com/rushteam/playgcn/service"
)

type cliFlags struct {
	config      string
	data        string
	playlist    int
	playlistID  string
	k           int
	epochs      int
	pipeline    string
	textfile    string
	logLevel    string
	showSummary bool
}

func parseFlags(args []string) (*cliFlags, error) {
	fs := flag.NewFlagSet("playgcn", flag.ContinueOnError)
	f := &cliFlags{}
	fs.StringVar(&f.config, "config", "", "YAML config file")
	fs.StringVar(&f.data, "data", "", "playlist CSV path (overrides data.path)")
	fs.IntVar(&f.playlist, "playlist", 0, "playlist node index in [0, P)")
	fs.StringVar(&f.playlistID, "playlist-id", "", "playlist id; takes precedence over -playlist")
	fs.IntVar(&f.k, "k", 0, "number of tracks to recommend (overrides recommend.k)")
	fs.IntVar(&f.epochs, "epochs", 0, "training epochs (overrides train.epochs)")
	fs.StringVar(&f.pipeline, "pipeline", "", "pipeline YAML (overrides recommend.pipeline)")
	fs.StringVar(&f.textfile, "metrics-textfile", "", "write prometheus metrics to this file on exit")
	fs.StringVar(&f.logLevel, "log-level", "", "log level (overrides log.level)")
	fs.BoolVar(&f.showSummary, "summary", true, "print graph and training summary")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *cliFlags) apply(s *config.Settings) {
	if f.data != "" {
		s.Data.Path = f.data
	}
	if f.k > 0 {
		s.Recommend.K = f.k
	}
	if f.epochs > 0 {
		s.Train.Epochs = f.epochs
	}
	if f.pipeline != "" {
		s.Recommend.Pipeline = f.pipeline
	}
	if f.textfile != "" {
		s.Metrics.Textfile = f.textfile
	}
	if f.logLevel != "" {
		s.Log.Level = f.logLevel
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		logging.Logger().Error().Err(err).Msg("playgcn failed")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	f, err := parseFlags(args)
	if err != nil {
		return err
	}
	settings, err := config.Load(f.config, f.apply)
	if err != nil {
		return err
	}
	logging.Init(settings.Log)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	m := metrics.NewTraining(reg)
	if settings.Metrics.Textfile != "" {
		defer func() {
			if err := prometheus.WriteToTextfile(settings.Metrics.Textfile, reg); err != nil {
				logging.Logger().Warn().Err(err).Str("path", settings.Metrics.Textfile).Msg("write metrics textfile")
			}
		}()
	}

	rec, err := service.BuildFromFile(ctx, settings.Data.Path,
		service.OptionsFromSettings(settings, m),
		dataset.WithSkipMalformed(settings.Data.SkipMalformed))
	if err != nil {
		return err
	}

	if f.showSummary {
		s := rec.Summary()
		fmt.Fprintf(out, "playlists=%d tracks=%d edges=%d epochs=%d final_loss=%.6f train=%s\n",
			s.Playlists, s.Tracks, s.Edges, s.Epochs, s.FinalLoss, s.TrainDuration)
	}

	var recs []service.Recommendation
	if f.playlistID != "" {
		recs, err = rec.Recommend(ctx, f.playlistID, settings.Recommend.K)
	} else {
		recs, err = rec.TopK(ctx, f.playlist, settings.Recommend.K)
	}
	if err != nil {
		return err
	}

	for i, r := range recs {
		fmt.Fprintf(out, "%2d. %-24s %-40s %-24s %.6f\n", i+1, r.TrackID, r.Name, r.Artist, r.Score)
	}
	return nil
}
