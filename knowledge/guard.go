package knowledge

import (
	"regexp"
	"strings"

	"github.com/teranos/roomq/errors"
)

var (
	readOnlyPrefix = regexp.MustCompile(`(?i)^(MATCH|OPTIONAL\s+MATCH|WITH|CALL|RETURN)\b`)
	writeClause    = regexp.MustCompile(`(?i)\b(CREATE|MERGE|DELETE|DETACH|SET|REMOVE|DROP|FOREACH)\b|\bLOAD\s+CSV\b`)
	lineComment    = regexp.MustCompile(`(?m)//.*$`)
)

// CheckReadOnly rejects any query that does not start with a read clause or
// that contains a write clause anywhere. Violations are errors.ErrReadOnlyViolation.
func CheckReadOnly(cypher string) error {
	text := strings.TrimSpace(lineComment.ReplaceAllString(cypher, ""))
	if text == "" {
		return errors.Mark(errors.New("empty query"), errors.ErrReadOnlyViolation)
	}
	if !readOnlyPrefix.MatchString(text) {
		return errors.Mark(errors.Newf("query must start with MATCH, OPTIONAL MATCH, WITH, CALL or RETURN: %q", firstLine(text)), errors.ErrReadOnlyViolation)
	}
	if m := writeClause.FindString(text); m != "" {
		return errors.Mark(errors.Newf("query contains write clause %s", strings.ToUpper(m)), errors.ErrReadOnlyViolation)
	}
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
