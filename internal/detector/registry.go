package detector

import (
	"fmt"
	"sort"
	"sync"

	"github.com/mitchellh/mapstructure"

	"firestige.xyz/microburst/internal/core"
)

// Constructor builds a detector from a free-form option map.
type Constructor func(opts map[string]interface{}) (Detector, error)

var (
	mu       sync.RWMutex
	registry = make(map[string]Constructor)
)

func init() {
	Register(WindowName, func(opts map[string]interface{}) (Detector, error) {
		cfg := DefaultWindowConfig()
		if err := decodeOptions(opts, &cfg); err != nil {
			return nil, err
		}
		if cfg.TimeBinNS <= 0 {
			return nil, fmt.Errorf("%w: window time_bin_ns must be positive", core.ErrConfigInvalid)
		}
		if cfg.ThresholdBps < 0 {
			return nil, fmt.Errorf("%w: window threshold_bps must not be negative", core.ErrConfigInvalid)
		}
		if cfg.RingCapacity <= 0 {
			return nil, fmt.Errorf("%w: window ring_capacity must be positive", core.ErrConfigInvalid)
		}
		return NewWindow(cfg), nil
	})
	Register(GapName, func(opts map[string]interface{}) (Detector, error) {
		cfg := DefaultGapConfig()
		if err := decodeOptions(opts, &cfg); err != nil {
			return nil, err
		}
		if cfg.GapNS < 0 {
			return nil, fmt.Errorf("%w: gap gap_ns must not be negative", core.ErrConfigInvalid)
		}
		return NewGap(cfg), nil
	})
}

// Register makes a detector available by name. A later registration under
// the same name replaces the earlier one.
func Register(name string, ctor Constructor) {
	mu.Lock()
	defer mu.Unlock()
	registry[name] = ctor
}

// New builds the detector registered under name.
func New(name string, opts map[string]interface{}) (Detector, error) {
	mu.RLock()
	ctor, ok := registry[name]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", core.ErrUnknownDetector, name, Names())
	}
	return ctor(opts)
}

// Names lists registered detectors in sorted order.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// decodeOptions overlays opts onto out. String values are converted, so
// options taken from the command line decode like typed YAML values.
func decodeOptions(opts map[string]interface{}, out interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(opts); err != nil {
		return fmt.Errorf("%w: %v", core.ErrConfigInvalid, err)
	}
	return nil
}
