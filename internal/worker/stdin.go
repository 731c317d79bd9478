package worker

import (
	"bufio"
	"io"
	"strings"
)

// ReadInputs reads one lookup target per line from r. Lines are trimmed;
// blank lines and lines starting with '#' are dropped, so annotated target
// lists can be piped in as-is. Duplicates are kept: every line yields one
// record, in order.
func ReadInputs(r io.Reader) ([]string, error) {
	var inputs []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		inputs = append(inputs, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return inputs, nil
}
