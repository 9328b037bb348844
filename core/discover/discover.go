// Package discover resolves segment configurations to files on disk,
// either from a parsed plan or from the default naming convention
// (<ordinal>_<role>.<ext> in one directory).
package discover

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"segstitch/logger"
	"segstitch/model"
)

var (
	// ErrNoSegments aborts the run: nothing resolved at all.
	ErrNoSegments = errors.New("no segments resolved")
	// ErrEmptyFilter aborts the run: an explicit ordinal filter matched
	// nothing.
	ErrEmptyFilter = errors.New("ordinal filter matched no segments")
)

// Convention describes the default file naming used when no plan is given.
type Convention struct {
	PrimarySuffix   string
	OverlaySuffixes []string
	// Pad is the fixed zero-padded width of the ordinal in file names;
	// 0 accepts any digit width.
	Pad int
}

// Options parameterize a discovery run.
type Options struct {
	Root       string
	Plan       map[int]model.SegmentConfig // nil switches to convention mode
	Filter     *Filter
	Convention Convention
	Placement  model.PlacementPolicy
}

// Resolve produces the ordered list of segment configurations whose files
// exist on disk. Plan-declared segments with a missing primary are dropped
// with a warning; missing overlays drop only the overlay. Failing to
// resolve anything is fatal.
func Resolve(opts Options) ([]model.SegmentConfig, error) {
	var configs []model.SegmentConfig
	var matched int
	var err error
	if opts.Plan != nil {
		configs, matched = fromPlan(opts)
	} else {
		configs, matched, err = fromConvention(opts)
		if err != nil {
			return nil, err
		}
	}

	sort.Slice(configs, func(i, j int) bool { return configs[i].ID < configs[j].ID })

	if len(configs) == 0 {
		// An explicit filter that matched no candidate at all is its own
		// failure; candidates that matched but were missing on disk fall
		// under the generic empty result.
		if opts.Filter != nil && matched == 0 {
			return nil, ErrEmptyFilter
		}
		return nil, ErrNoSegments
	}
	return configs, nil
}

// fromPlan validates every plan-declared reference against the filesystem.
// The second return value counts plan segments that passed the filter,
// whether or not they resolved.
func fromPlan(opts Options) ([]model.SegmentConfig, int) {
	var configs []model.SegmentConfig
	matched := 0
	for ord, cfg := range opts.Plan {
		if !opts.Filter.Match(ord) {
			continue
		}
		matched++

		primary := resolvePath(opts.Root, cfg.PrimaryPath)
		if _, err := os.Stat(primary); err != nil {
			logger.Warn("plan references a missing primary file, dropping segment",
				logger.Int("segment", ord),
				logger.String("path", cfg.PrimaryPath))
			continue
		}

		resolved := model.SegmentConfig{ID: ord, PrimaryPath: primary}
		for _, ov := range cfg.Overlays {
			path := resolvePath(opts.Root, ov.Path)
			if _, err := os.Stat(path); err != nil {
				logger.Warn("plan references a missing overlay file, dropping overlay",
					logger.Int("segment", ord),
					logger.String("path", ov.Path))
				continue
			}
			ov.Path = path
			resolved.Overlays = append(resolved.Overlays, ov)
		}
		configs = append(configs, resolved)
	}
	return configs, matched
}

// fromConvention scans the root directory for <ordinal>_<primary-suffix>
// files and pairs each with any <ordinal>_<overlay-suffix> neighbors.
// Overlays are optional per segment; their placement falls back to the
// named positions of the placement policy. The second return value counts
// primaries that passed the filter.
func fromConvention(opts Options) ([]model.SegmentConfig, int, error) {
	entries, err := os.ReadDir(opts.Root)
	if err != nil {
		return nil, 0, fmt.Errorf("reading %s: %w", opts.Root, err)
	}

	digits := `\d+`
	if opts.Convention.Pad > 0 {
		digits = fmt.Sprintf(`\d{%d}`, opts.Convention.Pad)
	}
	primaryRe := regexp.MustCompile(`^(` + digits + `)_` + regexp.QuoteMeta(opts.Convention.PrimarySuffix) + `\.\w+$`)

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}

	var configs []model.SegmentConfig
	matched := 0
	for _, name := range names {
		m := primaryRe.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		ord, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if !opts.Filter.Match(ord) {
			continue
		}
		matched++

		cfg := model.SegmentConfig{
			ID:          ord,
			PrimaryPath: filepath.Join(opts.Root, name),
		}

		for i, suffix := range opts.Convention.OverlaySuffixes {
			overlayName, ok := findWithPrefix(names, m[1]+"_"+suffix+".")
			if !ok {
				continue
			}
			cfg.Overlays = append(cfg.Overlays, model.OverlayRef{
				Path: filepath.Join(opts.Root, overlayName),
				Role: roleForSuffix(suffix),
				Placement: model.OverlayPlacement{
					Policy:   model.PolicyNormal,
					Position: opts.Placement.Fallback(i),
				},
			})
		}
		configs = append(configs, cfg)
	}
	return configs, matched, nil
}

func findWithPrefix(names []string, prefix string) (string, bool) {
	for _, n := range names {
		if strings.HasPrefix(n, prefix) {
			return n, true
		}
	}
	return "", false
}

func roleForSuffix(suffix string) model.Role {
	if suffix == "comment" {
		return model.RoleComment
	}
	return model.RolePip
}

// resolvePath resolves a plan reference against the root directory;
// absolute references are kept as-is.
func resolvePath(root, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}
