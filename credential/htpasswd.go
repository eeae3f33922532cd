package credential

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	htpasswd "github.com/tg123/go-htpasswd"
)

// ParseHtpasswd reads user:hash lines. Blank lines and lines starting
// with # are ignored. When a user appears more than once the last entry
// wins, as Apache does.
func ParseHtpasswd(r io.Reader) (*Snapshot, error) {
	var source bytes.Buffer
	sc := bufio.NewScanner(io.TeeReader(r, &source))
	users := make(map[string]htpasswd.EncodedPasswd)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		idx := strings.IndexByte(text, ':')
		if idx <= 0 || idx == len(text)-1 {
			return nil, MalformedLine{Line: line}
		}
		user, stored := text[:idx], text[idx+1:]
		v, err := parseHash(user, stored)
		if err != nil {
			return nil, fmt.Errorf("unable to parse htpasswd line %v, cause %w", line, err)
		}
		users[user] = v
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("unable to read htpasswd contents, cause %w", err)
	}
	return newSnapshot(users, source.Bytes()), nil
}

// ParseInline parses htpasswd contents where entries are separated by
// commas instead of newlines, which is handy for environment variables.
//
// argon2id hashes contain commas in their parameter list, so a segment
// without a ':' is glued back to the entry before it.
func ParseInline(contents string) (*Snapshot, error) {
	var lines []string
	for _, seg := range strings.Split(contents, ",") {
		if len(lines) > 0 && !strings.Contains(seg, ":") {
			lines[len(lines)-1] += "," + seg
			continue
		}
		lines = append(lines, seg)
	}
	return ParseHtpasswd(strings.NewReader(strings.Join(lines, "\n")))
}

// LoadHtpasswdFile reads and parses the htpasswd file at path
func LoadHtpasswdFile(path string) (*Snapshot, error) {
	fd, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read htpasswd file %v, cause %w", path, err)
	}
	defer fd.Close()
	snap, err := ParseHtpasswd(fd)
	if err != nil {
		return nil, fmt.Errorf("failed to load htpasswd file %v, cause %w", path, err)
	}
	return snap, nil
}
