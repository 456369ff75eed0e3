package ingest

import (
	"bufio"
	"regexp"
	"strings"
	"time"

	"github.com/harrisonrobin/taskrules/pkg/model"
)

var (
	textRulePattern   = regexp.MustCompile(`(?i)^rule\s+\d+:\s*if\s+(.+?)\s+then\s+(.+)$`)
	textTaskPattern   = regexp.MustCompile(`^-?\s*(.+?)\s*\(Assigned:\s*(.+?),\s*Due:\s*(.+?),\s*Time:\s*(.+?)\)`)
	textPersonPattern = regexp.MustCompile(`^-?\s*(.+?)\s*\((.+?),\s*(.+?)\)`)
)

// parseText scans loosely structured line-oriented text, the kind that comes
// out of document extraction. Each line is tested independently against the
// rule, task and person shapes; a line may yield more than one record, and
// lines matching nothing are ignored rather than reported.
func parseText(content string) Result {
	res := newResult()

	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "Rule") && strings.Contains(line, ":") {
			if m := textRulePattern.FindStringSubmatch(line); m != nil {
				res.Rules = append(res.Rules, model.Rule{
					ID:      newID("rule"),
					If:      strings.TrimSpace(m[1]),
					Then:    parseEffectsClause(m[2]),
					Enabled: true,
				})
			}
		}

		if strings.Contains(line, "Assigned:") && strings.Contains(line, "Due:") {
			if m := textTaskPattern.FindStringSubmatch(line); m != nil {
				now := time.Now()
				res.Tasks = append(res.Tasks, model.Task{
					ID:                 newID("task"),
					Title:              strings.TrimSpace(m[1]),
					AssignedTo:         strings.TrimSpace(m[2]),
					DueDate:            strings.TrimSpace(m[3]),
					DueTime:            strings.TrimSpace(m[4]),
					Priority:           model.PriorityMedium,
					Status:             model.StatusPending,
					OriginalProperties: model.Properties{},
					AppliedProperties:  model.Properties{},
					AppliedRules:       []string{},
					CreatedAt:          now,
					UpdatedAt:          now,
				})
			}
		}

		if strings.Contains(line, "@") && strings.Contains(line, "(") {
			if m := textPersonPattern.FindStringSubmatch(line); m != nil {
				res.People = append(res.People, model.Person{
					ID:         newID("person"),
					Name:       strings.TrimSpace(m[1]),
					Email:      strings.TrimSpace(m[2]),
					Department: strings.TrimSpace(m[3]),
				})
			}
		}
	}
	return res
}

// parseEffectsClause splits an effects clause like
// `priority = "High", project = Work` into key/value pairs. A clause with no
// pairs at all becomes a single effect under the key "property".
func parseEffectsClause(clause string) model.Properties {
	props := model.Properties{}
	for _, segment := range strings.Split(clause, ",") {
		parts := strings.SplitN(segment, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := trimQuotes(strings.TrimSpace(parts[0]))
		value := trimQuotes(strings.TrimSpace(parts[1]))
		if key != "" && value != "" {
			props[key] = value
		}
	}
	if len(props) == 0 {
		props["property"] = strings.TrimSpace(clause)
	}
	return props
}
