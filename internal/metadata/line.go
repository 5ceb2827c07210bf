package metadata

import (
	"regexp"

	"git.home.luguber.info/inful/zensite/internal/literal"
)

var (
	// key: a double-quoted string (escapes allowed) or a run of non-'=' characters.
	assignmentPattern = regexp.MustCompile(`^\s*("(?:\\.|[^"\\])+"|[^=]+?)\s*=\s*(.*?)\s*$`)
	inlinePattern     = regexp.MustCompile(`^#\s*("(?:\\.|[^"\\])+"|[^=]+?)\s*=\s*(.*?)\s*$`)
)

// ParseAssignment parses a directory metadata line of the form `key = value`.
// matched is false when the line does not have that shape at all; err is set
// when it does but the key or value is not a valid literal.
func ParseAssignment(line string) (key string, value literal.Value, matched bool, err error) {
	return parseWith(assignmentPattern, line)
}

// ParseInline parses an inline document metadata line of the form
// `# key = value`.
func ParseInline(line string) (key string, value literal.Value, matched bool, err error) {
	return parseWith(inlinePattern, line)
}

func parseWith(re *regexp.Regexp, line string) (string, literal.Value, bool, error) {
	m := re.FindStringSubmatch(line)
	if m == nil {
		return "", literal.Value{}, false, nil
	}
	key, err := literal.ParseKey(m[1])
	if err != nil {
		return "", literal.Value{}, true, err
	}
	value, err := literal.Parse(m[2])
	if err != nil {
		return "", literal.Value{}, true, err
	}
	return key, value, true, nil
}
