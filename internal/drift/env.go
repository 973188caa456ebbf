package drift

import (
	"bufio"
	"bytes"
	"context"
	"regexp"
	"strings"

	"github.com/vibecheck/vibecheck/internal/types"
)

// reProcessEnv captures `process.env.NAME` or `process.env['NAME']`/`process.env["NAME"]`.
var reProcessEnv = regexp.MustCompile(`process\.env(?:\.([A-Za-z_][A-Za-z0-9_]*)|\[['"]([A-Za-z_][A-Za-z0-9_]*)['"]\])`)

// reEnvFileLine captures a `.env` file's `NAME=value` declarations.
var reEnvFileLine = regexp.MustCompile(`^\s*(?:export\s+)?([A-Za-z_][A-Za-z0-9_]*)\s*=`)

type liveEnvVar struct {
	name     string
	required bool
	typeTag  string
}

// inferEnvType infers a type tag from text adjacent to a process.env
// reference, per spec.md §4.J's env extraction rules.
func inferEnvType(name, line string) string {
	upper := strings.ToUpper(name)
	switch {
	case strings.Contains(line, "parseInt") || strings.Contains(line, "Number("):
		return "number"
	case strings.Contains(line, "=== 'true'") || strings.Contains(line, `=== "true"`):
		return "boolean"
	case strings.Contains(upper, "URL") || strings.Contains(upper, "ENDPOINT"):
		return "url"
	case strings.Contains(upper, "SECRET") || strings.Contains(upper, "KEY") || strings.Contains(upper, "TOKEN"):
		return "secret"
	default:
		return "string"
	}
}

// isEnvRequired reports whether the reference on line has no `??`/`||`
// fallback, meaning the variable is required.
func isEnvRequired(line string) bool {
	return !strings.Contains(line, "??") && !strings.Contains(line, "||")
}

// extractLiveEnv scans the candidate file set for `process.env.X` usages.
func extractLiveEnv(ctx context.Context, root string, files []string, maxBytes int64) map[string]liveEnvVar {
	out := make(map[string]liveEnvVar)
	for _, relPath := range files {
		select {
		case <-ctx.Done():
			return out
		default:
		}
		if !looksLikeServerFile(relPath) {
			continue
		}
		data, ok := readCapped(root, relPath, maxBytes)
		if !ok {
			continue
		}
		scanner := bufio.NewScanner(bytes.NewReader(data))
		scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
		for scanner.Scan() {
			line := scanner.Text()
			for _, m := range reProcessEnv.FindAllStringSubmatch(line, -1) {
				name := m[1]
				if name == "" {
					name = m[2]
				}
				if name == "" {
					continue
				}
				v := liveEnvVar{
					name:     name,
					required: isEnvRequired(line),
					typeTag:  inferEnvType(name, line),
				}
				if existing, ok := out[name]; ok {
					// once required anywhere, stays required; keep the
					// first inferred type rather than flip-flopping.
					existing.required = existing.required || v.required
					out[name] = existing
					continue
				}
				out[name] = v
			}
		}
	}
	return out
}

// extractEnvFileDefs parses any .env* file in the candidate set for
// NAME=value declarations.
func extractEnvFileDefs(ctx context.Context, root string, files []string, maxBytes int64) map[string]bool {
	defs := make(map[string]bool)
	for _, relPath := range files {
		select {
		case <-ctx.Done():
			return defs
		default:
		}
		base := relPath[strings.LastIndex(relPath, "/")+1:]
		if !strings.HasPrefix(base, ".env") {
			continue
		}
		data, ok := readCapped(root, relPath, maxBytes)
		if !ok {
			continue
		}
		scanner := bufio.NewScanner(bytes.NewReader(data))
		for scanner.Scan() {
			line := scanner.Text()
			if strings.HasPrefix(strings.TrimSpace(line), "#") {
				continue
			}
			if m := reEnvFileLine.FindStringSubmatch(line); m != nil {
				defs[m[1]] = true
			}
		}
	}
	return defs
}

// detectEnvDrift implements spec.md §4.J's env drift rules.
func detectEnvDrift(ctx context.Context, root string, files []string, maxBytes int64, rec types.EnvRecord) []types.DriftItem {
	live := extractLiveEnv(ctx, root, files, maxBytes)
	envFileDefs := extractEnvFileDefs(ctx, root, files, maxBytes)

	truth := make(map[string]types.EnvVariable, len(rec.Variables))
	for _, v := range rec.Variables {
		truth[v.Name] = v
	}

	var items []types.DriftItem
	for name, v := range live {
		tv, declared := truth[name]
		_, definedInEnvFile := envFileDefs[name]
		if !declared && !definedInEnvFile {
			sev := types.SevHigh
			if v.required {
				sev = types.SevCritical
			}
			items = append(items, types.DriftItem{
				ChangeType:    types.DriftAdded,
				Category:      types.DriftEnv,
				Identifier:    name,
				Severity:      sev,
				CodebaseValue: v.typeTag,
			})
			continue
		}
		if declared && tv.Type != v.typeTag {
			items = append(items, types.DriftItem{
				ChangeType:     types.DriftModified,
				Category:       types.DriftEnv,
				Identifier:     name,
				Severity:       types.SevMedium,
				TruthpackValue: tv.Type,
				CodebaseValue:  v.typeTag,
			})
		}
	}
	for name, tv := range truth {
		if tv.Required {
			if _, used := live[name]; !used {
				items = append(items, types.DriftItem{
					ChangeType:     types.DriftRemoved,
					Category:       types.DriftEnv,
					Identifier:     name,
					Severity:       types.SevLow,
					TruthpackValue: tv.Type,
				})
			}
		}
	}
	return items
}
