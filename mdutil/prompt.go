// Copyright © 2025 The agnix authors

package mdutil

import (
	"regexp"
	"strings"
)

var (
	criticalKeywordRe = regexp.MustCompile(`(?i)\b(critical|important|must|required|essential|mandatory|crucial|never|always)\b`)
	cotPhraseRe       = regexp.MustCompile(`(?i)\b(think\s+step\s+by\s+step|let'?s\s+think|reason\s+through|break\s+(?:it\s+)?down\s+into\s+steps|work\s+through\s+this\s+(?:step\s+by\s+step|systematically))\b`)
	simpleTaskRe      = regexp.MustCompile(`(?i)\b(read\s+(?:the\s+)?file|write\s+(?:the\s+)?file|copy\s+(?:the\s+)?file|move\s+(?:the\s+)?file|delete\s+(?:the\s+)?file|list\s+files|run\s+(?:the\s+)?(?:command|script)|execute\s+(?:the\s+)?(?:command|script)|format\s+(?:the\s+)?(?:code|output)|rename\s+(?:the\s+)?file|create\s+(?:a\s+)?(?:file|directory|folder)|check\s+(?:if|whether)\s+(?:file|directory)\s+exists)\b`)
	weakLanguageRe    = regexp.MustCompile(`(?i)\b(should|try\s+to|consider|maybe|might|could|possibly|preferably|ideally|optionally)\b`)
	criticalSectionRe = regexp.MustCompile(`(?i)^#+\s*.*\b(critical|important|required|mandatory|rules|must|essential|security|danger)\b`)
	ambiguousTermRe   = regexp.MustCompile(`(?i)\b(usually|sometimes|if\s+possible|when\s+appropriate|as\s+needed|often|occasionally|generally|typically|normally|frequently|regularly|commonly)\b`)
)

// cotProximityLines is how close (in lines) a chain-of-thought phrase must
// be to a simple-task indicator to be flagged.
const cotProximityLines = 5

// minMiddleZoneLines is the minimum document length for the middle-zone
// check; shorter documents have no meaningful middle.
const minMiddleZoneLines = 10

// PromptFinding is one prompt-engineering heuristic hit.
type PromptFinding struct {
	Line    int
	Column  int
	Term    string
	Context string
}

// FindCriticalInMiddle flags critical-sounding keywords positioned in the
// 40-60% zone of the document, where model recall is weakest ("lost in
// the middle").
func FindCriticalInMiddle(content string) []PromptFinding {
	if len(content) > MaxScanSize {
		return nil
	}
	lines := strings.Split(content, "\n")
	total := len(lines)
	if total < minMiddleZoneLines {
		return nil
	}
	var out []PromptFinding
	for i, line := range lines {
		m := criticalKeywordRe.FindStringIndex(line)
		if m == nil {
			continue
		}
		percent := float64(i) / float64(total) * 100
		if percent >= 40 && percent < 60 {
			out = append(out, PromptFinding{
				Line:   i + 1,
				Column: m[0] + 1,
				Term:   line[m[0]:m[1]],
			})
		}
	}
	return out
}

// FindCoTOnSimpleTasks flags chain-of-thought phrasing within a few lines
// of a simple mechanical task, where step-by-step prompting only adds
// latency.
func FindCoTOnSimpleTasks(content string) []PromptFinding {
	if len(content) > MaxScanSize {
		return nil
	}
	lines := strings.Split(content, "\n")

	type taskHit struct {
		line int
		text string
	}
	var tasks []taskHit
	for i, line := range lines {
		if m := simpleTaskRe.FindString(line); m != "" {
			tasks = append(tasks, taskHit{line: i, text: m})
		}
	}
	if len(tasks) == 0 {
		return nil
	}

	var out []PromptFinding
	for i, line := range lines {
		m := cotPhraseRe.FindStringIndex(line)
		if m == nil {
			continue
		}
		for _, task := range tasks {
			distance := i - task.line
			if distance < 0 {
				distance = -distance
			}
			if distance <= cotProximityLines {
				out = append(out, PromptFinding{
					Line:    i + 1,
					Column:  m[0] + 1,
					Term:    line[m[0]:m[1]],
					Context: task.text,
				})
				break
			}
		}
	}
	return out
}

// FindWeakLanguage flags hedging terms ("should", "try to", "consider")
// inside sections whose heading marks them as critical.
func FindWeakLanguage(content string) []PromptFinding {
	if len(content) > MaxScanSize {
		return nil
	}
	var out []PromptFinding
	var section string
	for i, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, "#") {
			if criticalSectionRe.MatchString(line) {
				section = strings.TrimSpace(strings.TrimLeft(line, "#"))
			} else {
				section = ""
			}
		}
		if section == "" {
			continue
		}
		if m := weakLanguageRe.FindStringIndex(line); m != nil {
			out = append(out, PromptFinding{
				Line:    i + 1,
				Column:  m[0] + 1,
				Term:    line[m[0]:m[1]],
				Context: section,
			})
		}
	}
	return out
}

// FindAmbiguousTerms flags vague quantifiers ("usually", "if possible")
// outside code blocks and parenthesised asides.
func FindAmbiguousTerms(content string) []PromptFinding {
	if len(content) > MaxScanSize {
		return nil
	}
	var out []PromptFinding
	forEachScannableLine(content, func(line string, lineNum, _ int) {
		trimmed := strings.TrimLeft(line, " \t")
		if strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "#!") {
			return
		}
		for _, m := range ambiguousTermRe.FindAllStringIndex(line, -1) {
			// Terms inside parentheses are descriptive asides, not
			// instructions.
			before, after := line[:m[0]], line[m[1]:]
			if open := strings.LastIndexByte(before, '('); open >= 0 &&
				!strings.ContainsRune(before[open:], ')') &&
				strings.ContainsRune(after, ')') {
				continue
			}
			out = append(out, PromptFinding{
				Line:   lineNum,
				Column: m[0] + 1,
				Term:   line[m[0]:m[1]],
			})
		}
	})
	return out
}
