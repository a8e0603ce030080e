package admin

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ajitpratap0/logexport/internal/export"
	"github.com/ajitpratap0/logexport/pkg/errors"
)

// Selection is the outcome of parsing one answer to the selection prompt.
type Selection struct {
	Groups []export.LogGroup
	// Confirm is true when the user must approve the selection; "all" is
	// taken as already confirmed
	Confirm bool
}

// ParseSelection interprets input against groups. Accepted forms:
//
//	all        every group (case-insensitive)
//	3          a single 1-based index
//	1, 4,7     comma-separated indices
//	/lambda/   a regular expression, matched anywhere in the name
//
// Errors are validation errors whose message is suitable for re-prompting.
func ParseSelection(input string, groups []export.LogGroup) (Selection, error) {
	input = strings.TrimSpace(input)

	if strings.EqualFold(input, "all") {
		return Selection{Groups: groups}, nil
	}

	if strings.HasPrefix(input, "/") && strings.HasSuffix(input, "/") {
		pattern := ""
		if len(input) >= 2 {
			pattern = input[1 : len(input)-1]
		}
		return selectByPattern(pattern, groups)
	}

	return selectByIndex(input, groups)
}

func selectByPattern(pattern string, groups []export.LogGroup) (Selection, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Selection{}, errors.Wrap(err, errors.ErrorTypeValidation, "invalid regex pattern")
	}

	var matched []export.LogGroup
	for _, g := range groups {
		if re.MatchString(g.Name) {
			matched = append(matched, g)
		}
	}
	if len(matched) == 0 {
		return Selection{}, errors.Newf(errors.ErrorTypeValidation, "no log groups matched the pattern '%s'", pattern)
	}
	return Selection{Groups: matched, Confirm: true}, nil
}

func selectByIndex(input string, groups []export.LogGroup) (Selection, error) {
	total := len(groups)
	seen := make(map[int]bool)
	var selected []export.LogGroup

	for _, part := range strings.Split(input, ",") {
		idx, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return Selection{}, errors.New(errors.ErrorTypeValidation,
				"invalid input, please enter valid numbers, 'all', or a regex pattern")
		}
		if idx < 1 || idx > total {
			return Selection{}, errors.Newf(errors.ErrorTypeValidation,
				"invalid selection: %d, please enter numbers between 1 and %d", idx, total)
		}
		if seen[idx] {
			continue
		}
		seen[idx] = true
		selected = append(selected, groups[idx-1])
	}
	return Selection{Groups: selected, Confirm: true}, nil
}
