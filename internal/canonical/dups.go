package canonical

import "strings"

// Separator divides the changed lines from the full report in Diff output.
const Separator = "=================================================="

// ChangeMark prefixes lines that are new or changed since the oldest
// snapshot.
const ChangeMark = "** "

// PossibleDups lists every surname that has more than one canonical name,
// as "surname: given1, given2", in display order.
func (t *Table) PossibleDups() []string {
	var (
		out    []string
		prev   string
		givens []string
	)
	flush := func() {
		if len(givens) > 1 {
			out = append(out, prev+": "+strings.Join(givens, ", "))
		}
	}
	for i, name := range t.names {
		surname, given, _ := strings.Cut(name, ", ")
		if i > 0 && surname == prev {
			givens = append(givens, given)
			continue
		}
		if i > 0 {
			flush()
		}
		prev = surname
		givens = []string{given}
	}
	if len(t.names) > 0 {
		flush()
	}
	return out
}

// Diff compares a report with an earlier one. The result lists the new or
// changed lines, then Separator, then the whole report with changed lines
// prefixed by ChangeMark. Without an earlier report nothing is marked.
func Diff(current, earlier []string) []string {
	old := parseDups(earlier)
	var changes, marked []string
	for _, line := range current {
		surname, givens, _ := strings.Cut(line, ": ")
		mark := ""
		if len(old) > 0 {
			if prevGivens, ok := old[surname]; !ok || prevGivens != givens {
				mark = ChangeMark
			}
		}
		if mark != "" {
			changes = append(changes, line)
		}
		marked = append(marked, mark+line)
	}
	out := make([]string, 0, len(changes)+1+len(marked))
	out = append(out, changes...)
	out = append(out, Separator)
	return append(out, marked...)
}

func parseDups(lines []string) map[string]string {
	out := make(map[string]string, len(lines))
	for _, line := range lines {
		if strings.HasPrefix(line, "==========") {
			continue
		}
		surname, givens, ok := strings.Cut(line, ": ")
		if !ok {
			continue
		}
		out[strings.TrimPrefix(surname, ChangeMark)] = givens
	}
	return out
}
