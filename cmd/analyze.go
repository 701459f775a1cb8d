package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"firestige.xyz/microburst/internal/capture"
	"firestige.xyz/microburst/internal/config"
	"firestige.xyz/microburst/internal/core"
	"firestige.xyz/microburst/internal/core/decoder"
	"firestige.xyz/microburst/internal/detector"
	"firestige.xyz/microburst/internal/log"
	"firestige.xyz/microburst/internal/pipeline"
	"firestige.xyz/microburst/internal/report"
	"firestige.xyz/microburst/internal/sink/console"
)

// loadConfig reads the config file, applies command line overrides and
// initializes logging.
func loadConfig(cmd *cobra.Command, flags *rootFlags, args []string) (*config.GlobalConfig, error) {
	cfg, err := config.Load(flags.configFile)
	if err != nil {
		return nil, err
	}
	if err := applyFlags(cmd, flags, args, cfg); err != nil {
		return nil, err
	}
	if err := log.Init(cfg.Log); err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}
	return cfg, nil
}

// applyFlags overlays the flags the user set onto cfg.
func applyFlags(cmd *cobra.Command, flags *rootFlags, args []string, cfg *config.GlobalConfig) error {
	changed := func(name string) bool {
		f := cmd.Flags().Lookup(name)
		return f != nil && f.Changed
	}

	if len(args) > 0 {
		cfg.Capture.Path = args[0]
	}
	if changed("stdin") {
		cfg.Capture.Stdin = flags.stdin
	}
	if changed("status") {
		cfg.Status.Enabled = flags.status
	}
	if changed("log-level") {
		cfg.Log.Level = strings.ToLower(flags.logLevel)
	}
	if changed("flush") {
		cfg.Detector.FlushOnEOF = flags.flush
	}

	if cfg.Detector.Options == nil {
		cfg.Detector.Options = make(map[string]map[string]interface{})
	}
	window := cfg.Detector.Options[detector.WindowName]
	if window == nil {
		window = make(map[string]interface{})
		cfg.Detector.Options[detector.WindowName] = window
	}
	if changed("burst-thresh") {
		if flags.burstThresh < 0 {
			return fmt.Errorf("%w: --burst-thresh must not be negative", core.ErrConfigInvalid)
		}
		window["threshold_bps"] = flags.burstThresh * 1e9
	}
	if changed("timebin") {
		window["time_bin_ns"] = flags.timeBin
	}

	if changed("mode") {
		cfg.Detector.Mode = strings.ToLower(flags.mode)
	}
	if changed("src-octet") {
		index, value, err := parseSrcOctet(flags.srcOctet)
		if err != nil {
			return err
		}
		cfg.Filter.Enabled = true
		cfg.Filter.SrcOctetIndex = index
		cfg.Filter.SrcOctetValue = value
	}
	if len(flags.opts) > 0 {
		opts := cfg.Detector.ModeOptions()
		for k, v := range flags.opts {
			opts[k] = v
		}
	}
	return nil
}

// parseSrcOctet parses "i=v" with i in 0..3 and v in 0..255.
func parseSrcOctet(s string) (int, int, error) {
	k, v, ok := strings.Cut(s, "=")
	if !ok {
		return 0, 0, fmt.Errorf("%w: --src-octet %q must look like i=v", core.ErrConfigInvalid, s)
	}
	index, err := strconv.Atoi(strings.TrimSpace(k))
	if err != nil || index < 0 || index > 3 {
		return 0, 0, fmt.Errorf("%w: --src-octet index %q must be 0-3", core.ErrConfigInvalid, k)
	}
	value, err := strconv.ParseUint(strings.TrimSpace(v), 0, 8)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: --src-octet value %q must be 0-255", core.ErrConfigInvalid, v)
	}
	return index, int(value), nil
}

// runAnalyze wires the capture, detector and sink and runs them to the end
// of the input.
func runAnalyze(ctx context.Context, cfg *config.GlobalConfig, stdout io.Writer) error {
	runID := uuid.NewString()
	logger := log.GetLogger().WithField("run", runID)

	var offset int64
	if cfg.Capture.LocalTime {
		offset = core.LocalUTCOffset(time.Now())
	}
	opts := capture.Options{LocalOffsetNS: offset, MaxRecordBytes: cfg.Capture.MaxRecordBytes}

	var (
		src *capture.Reader
		err error
	)
	if cfg.Capture.Stdin {
		src, err = capture.OpenStdin(opts)
	} else {
		if cfg.Capture.Path == "" {
			return fmt.Errorf("%w: no capture file given", core.ErrConfigInvalid)
		}
		src, err = capture.Open(cfg.Capture.Path, opts)
	}
	if err != nil {
		return fmt.Errorf("open capture: %w", err)
	}
	defer src.Close()

	det, err := detector.New(cfg.Detector.Mode, cfg.Detector.ModeOptions())
	if err != nil {
		return err
	}

	sink := console.NewWriterSink(stdout)
	defer sink.Close()
	summary := report.NewSummary()

	b := pipeline.NewBuilder().
		WithRunID(runID).
		WithSource(src).
		WithDetector(det).
		WithSink(sink).
		WithSummary(summary).
		WithFlushOnEOF(cfg.Detector.FlushOnEOF)
	if cfg.Filter.Enabled {
		filter, err := decoder.NewSourceOctetFilter(cfg.Filter.SrcOctetIndex, byte(cfg.Filter.SrcOctetValue))
		if err != nil {
			return err
		}
		b.WithFilter(filter)
		logger = logger.WithField("filter", filter.String())
	}
	if cfg.Status.Enabled {
		b.WithStatusInterval(cfg.Status.Interval)
	}
	p, err := b.Build()
	if err != nil {
		return err
	}

	logger.WithFields(map[string]interface{}{
		"source":   src.Name(),
		"detector": det.Name(),
		"linktype": src.LinkType().String(),
	}).Info("analysis started")

	if err := p.Run(ctx); err != nil {
		return err
	}

	if src.Truncated() {
		logger.WithError(src.TruncationErr()).Warn("capture ended on a truncated record")
	}
	stats := p.Stats()
	if stats.Overflows > 0 {
		logger.WithField("overflows", stats.Overflows).
			Warn("window ring overflowed, bandwidth is understated; raise ring_capacity or lower the time bin")
	}
	logger.WithFields(stats.Fields()).Debug("pipeline counters")
	logger.WithFields(summary.Result().Fields()).Info("analysis finished")
	return nil
}
