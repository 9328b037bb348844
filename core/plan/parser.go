// Package plan parses the declarative composition plan: an indentation-based
// text format declaring, per segment, the primary track, its overlays, and
// how each overlay is placed and duration-reconciled.
//
//	slide=011_slide.mp4
//	  pip=011_pip.mp4
//	    coords: [120, 80]
//	    width: 480
//	    duration: "fill"
//	  comment=011_comment.mp4
//	    coords: [1400, 800]
//	    width: 360
//	    duration: "normal"
//
// Parsing is purely syntactic: file references are not checked against the
// filesystem here, that is discovery's job.
package plan

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"segstitch/logger"
	"segstitch/model"
)

// ordinalRe extracts the numeric ordinal embedded at the front of a primary
// track's file name, e.g. "011_slide.mp4" -> 11.
var ordinalRe = regexp.MustCompile(`^(\d+)_`)

var roleKeys = map[string]model.Role{
	"pip":     model.RolePip,
	"comment": model.RoleComment,
}

// lineKind classifies a lexed plan line.
type lineKind int

const (
	lineBlank lineKind = iota
	lineSlide          // slide=<path>
	lineOverlay        // pip=<path> | comment=<path>
	lineAttr           // coords: / width: / duration:
)

// token is one lexed line of the plan.
type token struct {
	kind lineKind
	num  int // 1-based line number
	key  string
	val  string
	role model.Role
}

// lexLine strips comments and classifies a single line. Unrecognized
// non-blank lines come back as lineBlank so they terminate attribute blocks
// the same way a comment does.
func lexLine(raw string, num int) token {
	// Trailing "#" comments are stripped before value parsing.
	if i := strings.Index(raw, "#"); i >= 0 {
		raw = raw[:i]
	}
	line := strings.TrimSpace(raw)
	if line == "" {
		return token{kind: lineBlank, num: num}
	}

	if eq := strings.Index(line, "="); eq > 0 {
		key := strings.TrimSpace(line[:eq])
		val := strings.TrimSpace(line[eq+1:])
		if key == "slide" {
			return token{kind: lineSlide, num: num, key: key, val: val}
		}
		if role, ok := roleKeys[key]; ok {
			return token{kind: lineOverlay, num: num, key: key, val: val, role: role}
		}
	}

	if colon := strings.Index(line, ":"); colon > 0 {
		key := strings.TrimSpace(line[:colon])
		val := strings.TrimSpace(line[colon+1:])
		switch key {
		case "coords", "width", "duration":
			return token{kind: lineAttr, num: num, key: key, val: val}
		}
	}

	return token{kind: lineBlank, num: num}
}

// overlayDraft accumulates attribute lines for the nearest preceding
// overlay declaration.
type overlayDraft struct {
	path     string
	role     model.Role
	hasCoord bool
	x, y     int
	width    int
	policy   model.DurationPolicy
}

// finalize converts a draft to an OverlayRef, or reports that the overlay
// must be skipped because its placement is incomplete. The lenient skip (as
// opposed to a hard validation error) matches the historical behavior.
func (d *overlayDraft) finalize() (model.OverlayRef, bool) {
	if d == nil || d.path == "" {
		return model.OverlayRef{}, false
	}
	if !d.hasCoord || d.width <= 0 {
		logger.Debug("overlay placement incomplete, skipping",
			logger.String("overlay", d.path),
			logger.Bool("hasCoords", d.hasCoord),
			logger.Int("width", d.width))
		return model.OverlayRef{}, false
	}
	policy := d.policy
	if policy == "" {
		policy = model.PolicyNormal
	}
	return model.OverlayRef{
		Path: d.path,
		Role: d.role,
		Placement: model.OverlayPlacement{
			X:      d.x,
			Y:      d.y,
			Width:  d.width,
			Policy: policy,
		},
	}, true
}

// parser carries the cursor state while walking lexed lines.
type parser struct {
	configs map[int]model.SegmentConfig
	seg     *model.SegmentConfig
	overlay *overlayDraft
}

// Parse reads a plan document and returns segment ordinal -> SegmentConfig.
// A slide whose file name does not embed an ordinal is logged and skipped;
// the rest of the document still parses.
func Parse(r io.Reader) (map[int]model.SegmentConfig, error) {
	p := &parser{configs: make(map[int]model.SegmentConfig)}

	scanner := bufio.NewScanner(r)
	num := 0
	for scanner.Scan() {
		num++
		tok := lexLine(scanner.Text(), num)
		switch tok.kind {
		case lineBlank:
			// A blank or comment line ends the current attribute block.
			p.closeOverlay()
		case lineSlide:
			p.closeOverlay()
			p.closeSegment()
			p.openSegment(tok)
		case lineOverlay:
			p.closeOverlay()
			if p.seg == nil {
				logger.Warn("overlay declared before any slide, ignoring",
					logger.Int("line", tok.num),
					logger.String("overlay", tok.val))
				continue
			}
			p.overlay = &overlayDraft{path: tok.val, role: tok.role}
		case lineAttr:
			p.applyAttr(tok)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading plan: %w", err)
	}

	p.closeOverlay()
	p.closeSegment()
	return p.configs, nil
}

// ParseFile parses the plan document at path.
func ParseFile(path string) (map[int]model.SegmentConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening plan %s: %w", path, err)
	}
	defer f.Close()
	return Parse(f)
}

func (p *parser) openSegment(tok token) {
	ord, ok := extractOrdinal(tok.val)
	if !ok {
		logger.Warn("slide file name does not embed a segment ordinal, skipping",
			logger.Int("line", tok.num),
			logger.String("slide", tok.val))
		return
	}
	p.seg = &model.SegmentConfig{ID: ord, PrimaryPath: tok.val}
}

func (p *parser) closeSegment() {
	if p.seg == nil {
		return
	}
	p.configs[p.seg.ID] = *p.seg
	p.seg = nil
}

func (p *parser) closeOverlay() {
	if p.overlay == nil {
		return
	}
	if ref, ok := p.overlay.finalize(); ok && p.seg != nil {
		p.seg.Overlays = append(p.seg.Overlays, ref)
	}
	p.overlay = nil
}

func (p *parser) applyAttr(tok token) {
	if p.overlay == nil {
		logger.Debug("attribute outside an overlay block, ignoring",
			logger.Int("line", tok.num),
			logger.String("key", tok.key))
		return
	}
	switch tok.key {
	case "coords":
		x, y, err := parseCoords(tok.val)
		if err != nil {
			logger.Warn("bad coords value",
				logger.Int("line", tok.num),
				logger.String("value", tok.val),
				logger.ErrorField(err))
			return
		}
		p.overlay.x, p.overlay.y = x, y
		p.overlay.hasCoord = true
	case "width":
		w, err := strconv.Atoi(tok.val)
		if err != nil || w <= 0 {
			logger.Warn("bad width value",
				logger.Int("line", tok.num),
				logger.String("value", tok.val))
			return
		}
		p.overlay.width = w
	case "duration":
		switch model.DurationPolicy(unquote(tok.val)) {
		case model.PolicyFill:
			p.overlay.policy = model.PolicyFill
		case model.PolicyNormal:
			p.overlay.policy = model.PolicyNormal
		default:
			logger.Warn("unknown duration policy, using normal",
				logger.Int("line", tok.num),
				logger.String("value", tok.val))
			p.overlay.policy = model.PolicyNormal
		}
	}
}

// extractOrdinal pulls the leading-digits ordinal out of a file reference.
func extractOrdinal(path string) (int, bool) {
	m := ordinalRe.FindStringSubmatch(filepath.Base(path))
	if m == nil {
		return 0, false
	}
	ord, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return ord, true
}

// parseCoords parses "[x, y]".
func parseCoords(val string) (int, int, error) {
	s := strings.TrimSpace(val)
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return 0, 0, fmt.Errorf("coords must look like [x, y]")
	}
	parts := strings.Split(s[1:len(s)-1], ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("coords must have exactly two components")
	}
	x, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("bad x: %w", err)
	}
	y, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("bad y: %w", err)
	}
	return x, y, nil
}

// unquote strips one layer of single or double quotes.
func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
