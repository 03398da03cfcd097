// Package markdown inspects analyst response markdown for executable
// content. Responses carry generated SQL inside fenced code blocks; this
// package pulls the statements out so they can be run against the
// warehouse.
package markdown

import (
	"regexp"
	"strings"
)

// sqlFence matches a SQL fenced code block. The opener is matched anywhere,
// not just at line start: streamed responses can butt the fence directly
// against preceding prose, which a strict markdown block parser would
// reject but the service's own tooling accepts.
var sqlFence = regexp.MustCompile("(?is)```sql\n(.*?)\n```")

// ExtractSQL returns the contents of every SQL fenced code block in source,
// in document order. The language tag is matched case-insensitively.
// Statements are returned with surrounding whitespace trimmed; empty
// blocks are skipped.
func ExtractSQL(source string) []string {
	if source == "" {
		return nil
	}
	var statements []string
	for _, match := range sqlFence.FindAllStringSubmatch(source, -1) {
		if stmt := strings.TrimSpace(match[1]); stmt != "" {
			statements = append(statements, stmt)
		}
	}
	return statements
}
