package parser

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/Amkushu999/Proxych/internal/model"
)

// ErrMalformed is returned (wrapped) for every input Parse rejects.
// Callers map it to model.KindMalformedDescriptor.
var ErrMalformed = errors.New("malformed proxy descriptor")

// Parse turns a raw proxy string into a validated Descriptor.
//
// Recognized formats, colon-delimited:
//
//	host:port
//	host:port:username:password
//
// The port must be an integer in [1, 65535] and the host non-empty with
// no whitespace. With 4 fields, username and password may be empty
// strings but both fields must be present. Anything else fails with
// ErrMalformed. No network or I/O side effects.
func Parse(raw string) (model.Descriptor, error) {
	fields := strings.Split(raw, ":")

	switch len(fields) {
	case 2, 4:
	default:
		return model.Descriptor{}, fmt.Errorf("%w: expected 2 or 4 colon-delimited fields, got %d in %q", ErrMalformed, len(fields), raw)
	}

	host := fields[0]
	if host == "" {
		return model.Descriptor{}, fmt.Errorf("%w: empty host in %q", ErrMalformed, raw)
	}
	if strings.ContainsAny(host, " \t") {
		return model.Descriptor{}, fmt.Errorf("%w: whitespace in host %q", ErrMalformed, host)
	}

	port, err := strconv.Atoi(fields[1])
	if err != nil {
		return model.Descriptor{}, fmt.Errorf("%w: non-numeric port %q", ErrMalformed, fields[1])
	}
	if port < 1 || port > 65535 {
		return model.Descriptor{}, fmt.Errorf("%w: port %d out of range [1, 65535]", ErrMalformed, port)
	}

	d := model.Descriptor{
		Host: host,
		Port: port,
		Raw:  raw,
	}
	if len(fields) == 4 {
		d.Username = fields[2]
		d.Password = fields[3]
	}
	return d, nil
}

// LoadFromFile reads a proxy list line by line and parses each entry.
// Empty lines and lines starting with '#' are ignored; malformed lines
// are collected so the caller can report them instead of silently
// dropping input.
func LoadFromFile(path string) ([]model.Descriptor, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open input file: %w", err)
	}
	defer f.Close()

	var (
		out []model.Descriptor
		bad []string
	)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		d, err := Parse(line)
		if err != nil {
			bad = append(bad, line)
			continue
		}
		out = append(out, d)
	}
	if err := sc.Err(); err != nil {
		return nil, nil, fmt.Errorf("scan input file: %w", err)
	}
	return out, bad, nil
}
