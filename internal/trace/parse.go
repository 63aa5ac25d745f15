package trace

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

const (
	commentPrefix = "#"
	maxLineSize   = 64 * 1024
)

// ParseFile reads and parses the trace at path. Syntax errors carry the path.
func ParseFile(path string) ([]Op, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("trace: %w", err)
	}
	defer f.Close()

	ops, err := Parse(f)
	var serr *SyntaxError
	if errors.As(err, &serr) {
		serr.File = path
	}
	return ops, err
}

// Parse reads a trace from r.
func Parse(r io.Reader) ([]Op, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxLineSize)

	var ops []Op
	for lineNum := 1; scanner.Scan(); lineNum++ {
		trim := strings.TrimSpace(scanner.Text())
		if trim == "" || strings.HasPrefix(trim, commentPrefix) {
			continue
		}
		op, err := parseLine(trim)
		if err != nil {
			return nil, &SyntaxError{Line: lineNum, Msg: err.Error()}
		}
		op.Line = lineNum
		ops = append(ops, op)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("trace: read: %w", err)
	}
	return ops, nil
}

func parseLine(line string) (Op, error) {
	fields := strings.Fields(line)
	switch fields[0] {
	case "a":
		if len(fields) != 3 {
			return Op{}, fmt.Errorf("alloc wants 2 arguments, got %d", len(fields)-1)
		}
		id, err := parseNonNegative("id", fields[1])
		if err != nil {
			return Op{}, err
		}
		size, err := parseNonNegative("size", fields[2])
		if err != nil {
			return Op{}, err
		}
		return Op{Kind: KindAlloc, ID: id, Size: size}, nil

	case "f":
		if len(fields) != 2 {
			return Op{}, fmt.Errorf("free wants 1 argument, got %d", len(fields)-1)
		}
		id, err := parseNonNegative("id", fields[1])
		if err != nil {
			return Op{}, err
		}
		return Op{Kind: KindFree, ID: id}, nil

	case "r":
		return Op{}, errors.New("realloc is not supported")

	default:
		return Op{}, fmt.Errorf("unknown operation %q", fields[0])
	}
}

func parseNonNegative(what, s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s %q", what, s)
	}
	return n, nil
}
