// Package repair patches the known structural defects of individual
// collection shards before they are parsed.
package repair

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"byweb/internal/config"
)

// ErrUnknownStrategy is returned for a strategy name that has no fix.
var ErrUnknownStrategy = errors.New("unknown repair strategy")

// Strategy is one file-specific fix.
type Strategy string

// Known strategies.
const (
	// EncodeURL base64-encodes the URL field, which holds unescaped markup.
	EncodeURL Strategy = config.RepairEncodeURL
	// CloseRoot appends the missing closing tag of the root element.
	CloseRoot Strategy = config.RepairCloseRoot
)

// order fixes the sequence in which strategies run: the URL field is
// rewritten before the closing tag is added.
var order = map[Strategy]int{
	EncodeURL: 0,
	CloseRoot: 1,
}

// Plan maps shard index to the strategies that shard needs.
type Plan struct {
	shards map[int][]Strategy
}

// NewPlan builds a plan from the repairs configuration table.
func NewPlan(entries []config.RepairConfig) (*Plan, error) {
	p := &Plan{shards: make(map[int][]Strategy)}

	for _, e := range entries {
		seen := make(map[Strategy]bool)

		var list []Strategy

		for _, name := range e.Strategies {
			s := Strategy(name)
			if _, ok := order[s]; !ok {
				return nil, fmt.Errorf("%w: %q for shard %d", ErrUnknownStrategy, name, e.Shard)
			}

			if !seen[s] {
				seen[s] = true
				list = append(list, s)
			}
		}

		sort.SliceStable(list, func(i, j int) bool { return order[list[i]] < order[list[j]] })

		p.shards[e.Shard] = append(p.shards[e.Shard], list...)
	}

	return p, nil
}

// For returns the ordered strategies for shard i; nil means leave it alone.
func (p *Plan) For(i int) []Strategy {
	if p == nil {
		return nil
	}

	return p.shards[i]
}

// Len returns the number of shards with repairs.
func (p *Plan) Len() int {
	if p == nil {
		return 0
	}

	return len(p.shards)
}

// Result reports what a repair changed.
type Result struct {
	Applied     []Strategy
	URLsEncoded int
	RootClosed  bool
}

// Repairer applies strategies to decompressed shard files.
type Repairer struct {
	rootTag  string
	urlField string
}

// NewRepairer creates a repairer for documents rooted at rootTag whose URL
// lives in urlField.
func NewRepairer(rootTag, urlField string) *Repairer {
	return &Repairer{rootTag: rootTag, urlField: urlField}
}

// Apply runs strategies against the file at path in plan order.
func (r *Repairer) Apply(path string, strategies []Strategy) (Result, error) {
	var res Result

	for _, s := range strategies {
		switch s {
		case EncodeURL:
			n, err := r.encodeURLFile(path)
			if err != nil {
				return res, fmt.Errorf("%s on %s: %w", s, path, err)
			}

			res.URLsEncoded = n
		case CloseRoot:
			closed, err := CloseRootTag(path, r.rootTag)
			if err != nil {
				return res, fmt.Errorf("%s on %s: %w", s, path, err)
			}

			res.RootClosed = closed
		default:
			return res, fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
		}

		res.Applied = append(res.Applied, s)
	}

	return res, nil
}

func (r *Repairer) encodeURLFile(path string) (int, error) {
	in, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open: %w", err)
	}
	defer in.Close()

	tmp := path + ".repair"

	out, err := os.Create(tmp)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", tmp, err)
	}

	w := bufio.NewWriter(out)

	n, err := EncodeField(in, w, r.urlField)
	if err == nil {
		err = w.Flush()
	}

	if closeErr := out.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		_ = os.Remove(tmp)

		return 0, err
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)

		return 0, fmt.Errorf("failed to replace %s: %w", path, err)
	}

	return n, nil
}

// EncodeField copies in to out line by line, replacing the text of every
// <field>...</field> that opens and closes on one line with its standard
// base64 encoding. It returns the number of fields encoded.
func EncodeField(in io.Reader, out io.Writer, field string) (int, error) {
	open := "<" + field + ">"
	closeTag := "</" + field + ">"

	br := bufio.NewReader(in)
	count := 0

	for {
		line, readErr := br.ReadString('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return count, fmt.Errorf("failed to read line: %w", readErr)
		}

		if strings.Contains(line, open) {
			var n int

			line, n = encodeLine(line, open, closeTag)
			count += n
		}

		if _, err := io.WriteString(out, line); err != nil {
			return count, fmt.Errorf("failed to write line: %w", err)
		}

		if readErr != nil {
			return count, nil
		}
	}
}

func encodeLine(line, open, closeTag string) (string, int) {
	var sb strings.Builder

	count := 0
	rest := line

	for {
		start := strings.Index(rest, open)
		if start < 0 {
			break
		}

		valueStart := start + len(open)

		end := strings.Index(rest[valueStart:], closeTag)
		if end < 0 {
			break
		}

		value := rest[valueStart : valueStart+end]

		sb.WriteString(rest[:valueStart])
		sb.WriteString(base64.StdEncoding.EncodeToString([]byte(value)))
		sb.WriteString(closeTag)

		rest = rest[valueStart+end+len(closeTag):]
		count++
	}

	sb.WriteString(rest)

	return sb.String(), count
}

// tailSize bounds how much of the file end is inspected for the root tag.
const tailSize = 4096

// CloseRootTag appends "</root>" to the file unless it already ends with it
// (ignoring trailing whitespace). It reports whether the file changed.
func CloseRootTag(path, root string) (bool, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return false, fmt.Errorf("failed to open: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return false, fmt.Errorf("failed to stat: %w", err)
	}

	offset := max(info.Size()-tailSize, 0)

	tail := make([]byte, info.Size()-offset)
	if _, err := f.ReadAt(tail, offset); err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("failed to read tail: %w", err)
	}

	closeTag := []byte("</" + root + ">")
	if bytes.HasSuffix(bytes.TrimRight(tail, " \t\r\n"), closeTag) {
		return false, nil
	}

	if _, err := f.WriteAt(append(append([]byte("\n"), closeTag...), '\n'), info.Size()); err != nil {
		return false, fmt.Errorf("failed to append closing tag: %w", err)
	}

	return true, nil
}
