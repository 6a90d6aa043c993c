// Package script parses generated dialogue scripts into ordered turns.
//
// Two textual dialects are recognised structurally. The structured-tuple
// dialect is a literal list of ("Speaker N", "text"[, "delivery note"])
// groups; the tagged-line dialect is one "<Speaker N> [text]" per line.
package script

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/rcliao/podcaster/internal/model"
)

// ErrParse is returned when a transcript matches neither dialect.
var ErrParse = errors.New("unrecognized script")

// Dialect identifies which transcript format produced a parse.
type Dialect string

const (
	DialectTuple  Dialect = "tuple"
	DialectTagged Dialect = "tagged"
)

var taggedLine = regexp.MustCompile(`^\s*<Speaker\s+(\d+)>\s*\[(.*)\]\s*$`)

// Parser converts raw transcripts into turns for a fixed set of speakers.
type Parser struct {
	speakers map[int]bool
}

// NewParser returns a parser accepting the given speaker ids. With no ids,
// speakers 1 and 2 are accepted.
func NewParser(speakers ...int) *Parser {
	if len(speakers) == 0 {
		speakers = []int{1, 2}
	}
	p := &Parser{speakers: make(map[int]bool, len(speakers))}
	for _, s := range speakers {
		p.speakers[s] = true
	}
	return p
}

// Parse interprets raw and returns its turns in transcript order. On failure
// it returns an empty slice and an error wrapping ErrParse.
func (p *Parser) Parse(raw string) ([]model.Turn, error) {
	turns, _, err := p.ParseDialect(raw)
	return turns, err
}

// ParseDialect is Parse that also reports the dialect that matched.
func (p *Parser) ParseDialect(raw string) ([]model.Turn, Dialect, error) {
	text := stripFence(raw)
	if text == "" {
		return []model.Turn{}, "", fmt.Errorf("%w: empty transcript", ErrParse)
	}

	var tupleErr error
	if text[0] == '[' || text[0] == '(' {
		turns, err := p.parseTuples(text)
		if err == nil {
			return turns, DialectTuple, nil
		}
		tupleErr = err
	}

	turns, err := p.parseTagged(text)
	if err != nil {
		return []model.Turn{}, "", err
	}
	if len(turns) == 0 {
		if tupleErr != nil {
			return []model.Turn{}, "", fmt.Errorf("%w: %v", ErrParse, tupleErr)
		}
		return []model.Turn{}, "", fmt.Errorf("%w: no speaker lines found", ErrParse)
	}
	return turns, DialectTagged, nil
}

// Speakers returns the accepted speaker ids in ascending order.
func (p *Parser) Speakers() []int {
	ids := make([]int, 0, len(p.speakers))
	for id := range p.speakers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func (p *Parser) checkSpeaker(id int) error {
	if !p.speakers[id] {
		return fmt.Errorf("%w: unknown speaker %d", ErrParse, id)
	}
	return nil
}

func (p *Parser) parseTagged(text string) ([]model.Turn, error) {
	turns := []model.Turn{}
	for lineNo, line := range strings.Split(text, "\n") {
		m := taggedLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		id, _ := strconv.Atoi(m[1])
		if err := p.checkSpeaker(id); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo+1, err)
		}
		utterance := strings.TrimSpace(m[2])
		if utterance == "" {
			continue
		}
		turns = append(turns, model.Turn{Index: len(turns), Speaker: id, Text: utterance})
	}
	return turns, nil
}

func (p *Parser) parseTuples(text string) ([]model.Turn, error) {
	root, err := parseLiteral(text)
	if err != nil {
		return nil, err
	}
	if root.isStr {
		return nil, errors.New("literal is a string, not a sequence")
	}

	groups := root.items
	if allStrings(root.items) {
		// A single bare group such as ("Speaker 1", "Hello").
		groups = []node{root}
	}

	turns := make([]model.Turn, 0, len(groups))
	for i, g := range groups {
		if g.isStr || !allStrings(g.items) {
			return nil, fmt.Errorf("group %d: expected a tuple of strings", i+1)
		}
		if len(g.items) != 2 && len(g.items) != 3 {
			return nil, fmt.Errorf("group %d: expected 2 or 3 elements, got %d", i+1, len(g.items))
		}
		id, ok := model.ParseSpeakerLabel(strings.TrimSpace(g.items[0].str))
		if !ok {
			return nil, fmt.Errorf("group %d: bad speaker label %q", i+1, g.items[0].str)
		}
		if err := p.checkSpeaker(id); err != nil {
			return nil, fmt.Errorf("group %d: %w", i+1, err)
		}
		utterance := strings.TrimSpace(g.items[1].str)
		if utterance == "" {
			return nil, fmt.Errorf("group %d: empty utterance", i+1)
		}
		turn := model.Turn{Index: len(turns), Speaker: id, Text: utterance}
		if len(g.items) == 3 {
			turn.Note = strings.TrimSpace(g.items[2].str)
		}
		turns = append(turns, turn)
	}
	if len(turns) == 0 {
		return nil, errors.New("empty sequence")
	}
	return turns, nil
}

// stripFence removes a surrounding Markdown code fence, if any.
func stripFence(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		text = text[nl+1:]
	} else {
		return ""
	}
	text = strings.TrimSpace(text)
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// Format renders turns in the tagged-line dialect.
func Format(turns []model.Turn) string {
	var b strings.Builder
	for _, t := range turns {
		fmt.Fprintf(&b, "<%s> [%s]\n", t.Label(), t.Text)
	}
	return b.String()
}
