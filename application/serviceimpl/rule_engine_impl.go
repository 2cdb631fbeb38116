package serviceimpl

import (
	"path"
	"regexp"
	"strings"

	"drivesync/domain/models"
	"drivesync/domain/services"
)

type ruleEngine struct{}

// NewRuleEngine returns the compiled-rule engine grounded on the exclusion
// and rename rule classes of the reference sync service: glob/regex/
// substring/exact exclusion matching plus regex-substitution renaming.
// Rename regexes are compiled once per ApplyRenames call; exclusion regex
// and wildcard patterns are checked once by CompileExclusions and compiled
// again on every match.
func NewRuleEngine() services.RuleEngine {
	return &ruleEngine{}
}

func (e *ruleEngine) CompileExclusions(specs []models.ExclusionRuleSpec) ([]services.ExclusionRule, error) {
	out := make([]services.ExclusionRule, 0, len(specs))
	for _, s := range specs {
		if s.Mode == models.MatchModeRegex || s.Mode == models.MatchModeWildcard {
			pattern := s.Pattern
			if s.Mode == models.MatchModeWildcard {
				pattern = wildcardToRegex(pattern)
			}
			if _, err := regexp.Compile(pattern); err != nil {
				return nil, &services.ValidationError{Field: "exclude.pattern", Reason: err.Error()}
			}
		}
		out = append(out, services.ExclusionRule{
			Pattern:       s.Pattern,
			Target:        s.Target,
			ItemType:      s.ItemType,
			Mode:          s.Mode,
			CaseSensitive: s.CaseSensitive,
		})
	}
	return out, nil
}

func (e *ruleEngine) CompileRenames(specs []models.RenameRuleSpec) ([]services.RenameRule, error) {
	out := make([]services.RenameRule, 0, len(specs))
	for _, s := range specs {
		if _, err := regexp.Compile(s.MatchRegex); err != nil {
			return nil, &services.ValidationError{Field: "rename.match_regex", Reason: err.Error()}
		}
		out = append(out, services.RenameRule{
			MatchRegex:    s.MatchRegex,
			ReplaceString: s.ReplaceString,
			TargetScope:   s.TargetScope,
			CaseSensitive: s.CaseSensitive,
		})
	}
	return out, nil
}

type compiledFilter struct {
	rules []services.ExclusionRule
}

func (e *ruleEngine) NewFilter(rules []services.ExclusionRule) services.Filter {
	return &compiledFilter{rules: rules}
}

// Excluded reports whether any rule matches item, per the algorithm in
// §4.4: item-type gate, target selection, case folding, then mode match.
func (f *compiledFilter) Excluded(item models.BaseFileInfo) bool {
	for _, r := range f.rules {
		if matchExclusionRule(item, r) {
			return true
		}
	}
	return false
}

func matchExclusionRule(i models.BaseFileInfo, r services.ExclusionRule) bool {
	if r.ItemType == models.ItemTypeFile && i.IsFolder {
		return false
	}
	if r.ItemType == models.ItemTypeFolder && !i.IsFolder {
		return false
	}

	var value string
	switch r.Target {
	case models.MatchTargetName:
		value = i.FileName
	case models.MatchTargetPath:
		value = i.FilePath
	case models.MatchTargetExtension:
		if i.IsFolder {
			return false
		}
		dot := strings.LastIndex(i.FileName, ".")
		if dot < 0 {
			return false
		}
		value = i.FileName[dot+1:]
	default:
		return false
	}

	pattern := r.Pattern
	if !r.CaseSensitive {
		value = strings.ToLower(value)
		pattern = strings.ToLower(pattern)
	}

	switch r.Mode {
	case models.MatchModeExact:
		return value == pattern
	case models.MatchModeContains:
		return strings.Contains(value, pattern)
	case models.MatchModeRegex:
		re, err := regexp.Compile(pattern)
		if err != nil {
			return false
		}
		return re.MatchString(value)
	case models.MatchModeWildcard:
		re, err := regexp.Compile(wildcardToRegex(pattern))
		if err != nil {
			return false
		}
		return re.MatchString(value)
	default:
		return false
	}
}

// wildcardToRegex escapes the pattern as a regex then restores the glob
// operators * and ? to .* and . respectively, anchoring the whole match.
func wildcardToRegex(pattern string) string {
	escaped := regexp.QuoteMeta(pattern)
	escaped = strings.ReplaceAll(escaped, `\*`, ".*")
	escaped = strings.ReplaceAll(escaped, `\?`, ".")
	return "^" + escaped + "$"
}

func (e *ruleEngine) ApplyExclusions(items []models.BaseFileInfo, rules []services.ExclusionRule) []models.BaseFileInfo {
	if len(rules) == 0 {
		return items
	}
	out := make([]models.BaseFileInfo, 0, len(items))
	for _, it := range items {
		excluded := false
		for _, r := range rules {
			if matchExclusionRule(it, r) {
				excluded = true
				break
			}
		}
		if !excluded {
			out = append(out, it)
		}
	}
	return out
}

// ApplyRenames rewrites name/path-scoped items whose compiled regex
// produces a different value than the input. Reapplying the same rule set
// to its own output is a no-op: once file_name == regex-substituted
// file_name, a second pass substitutes nothing further.
func (e *ruleEngine) ApplyRenames(items []models.BaseFileInfo, rules []services.RenameRule) []models.BaseFileInfo {
	if len(rules) == 0 {
		return items
	}
	compiled := make([]*regexp.Regexp, len(rules))
	for i, r := range rules {
		pattern := r.MatchRegex
		if !r.CaseSensitive {
			pattern = "(?i)" + pattern
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			compiled[i] = nil
			continue
		}
		compiled[i] = re
	}

	out := make([]models.BaseFileInfo, len(items))
	copy(out, items)

	for idx, it := range out {
		for i, r := range rules {
			re := compiled[i]
			if re == nil {
				continue
			}
			switch r.TargetScope {
			case models.RenameScopeName:
				newName := re.ReplaceAllString(it.FileName, r.ReplaceString)
				if newName != it.FileName {
					dir := path.Dir(it.FilePath)
					newPath := newName
					if dir != "." && dir != "/" {
						newPath = dir + "/" + newName
					} else if dir == "/" {
						newPath = "/" + newName
					}
					it.FileName = newName
					it.FilePath = newPath
				}
			case models.RenameScopePath:
				newPath := re.ReplaceAllString(it.FilePath, r.ReplaceString)
				if newPath != it.FilePath {
					it.FilePath = newPath
					it.FileName = path.Base(newPath)
				}
			}
		}
		out[idx] = it
	}
	return out
}
