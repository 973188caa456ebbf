package drift

import (
	"bufio"
	"bytes"
	"context"
	"regexp"
	"strings"

	"github.com/vibecheck/vibecheck/internal/types"
)

// reAuthDecorator matches route-level auth decorators/guards:
// `@RequireAuth(['admin'])`, `requireAuth('/admin')`, `withAuth(handler, { roles: [...] })`.
var reAuthDecorator = regexp.MustCompile(`(?i)(requireAuth|withAuth|@RequireAuth|isAuthenticated|authMiddleware|requireRole)\s*\(([^)]*)\)`)

// reRolesList pulls a bracketed string-literal list out of a decorator's argument text.
var reRolesList = regexp.MustCompile(`\[([^\]]*)\]`)

// reStringLiteral pulls individual quoted tokens out of a list body.
var reStringLiteral = regexp.MustCompile(`['"` + "`" + `]([^'"` + "`" + `]+)['"` + "`" + `]`)

type liveAuthRule struct {
	path         string
	requiresAuth bool
	roles        []string
}

// extractAuthRules scans middleware/guard/route files for auth decorators
// and attributes them to the nearest recognizable route path in the same
// file — a file-scoped approximation of "per-route" auth, in keeping with
// spec.md's scanning-not-compiling approach (§9 design note).
func extractAuthRules(ctx context.Context, root string, files []string, maxBytes int64) map[string]liveAuthRule {
	out := make(map[string]liveAuthRule)
	for _, relPath := range files {
		select {
		case <-ctx.Done():
			return out
		default:
		}
		if !looksLikeServerFile(relPath) {
			continue
		}
		if !looksLikeAuthRelevantFile(relPath) {
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
			m := reAuthDecorator.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			roles := extractRoles(m[2])
			path := extractPathOnLine(line)
			if path == "" {
				path = relPath
			}
			out[path] = liveAuthRule{path: path, requiresAuth: true, roles: roles}
		}
	}
	return out
}

func looksLikeAuthRelevantFile(relPath string) bool {
	p := strings.ToLower(relPath)
	for _, hint := range []string{"auth", "middleware", "guard", "route", "api"} {
		if strings.Contains(p, hint) {
			return true
		}
	}
	return false
}

func extractRoles(argText string) []string {
	m := reRolesList.FindStringSubmatch(argText)
	if m == nil {
		return nil
	}
	var roles []string
	for _, lit := range reStringLiteral.FindAllStringSubmatch(m[1], -1) {
		roles = append(roles, lit[1])
	}
	return roles
}

func extractPathOnLine(line string) string {
	if m := reExpressRoute.FindStringSubmatch(line); m != nil {
		return m[2]
	}
	return ""
}

// detectAuthDrift implements spec.md §4.J's auth drift severities:
// requires_auth flipping to false or a role set shrinking are critical;
// new protection is low-to-medium.
func detectAuthDrift(ctx context.Context, root string, files []string, maxBytes int64, rec types.AuthRecord) []types.DriftItem {
	live := extractAuthRules(ctx, root, files, maxBytes)

	truth := make(map[string]types.AuthRule, len(rec.Rules))
	for _, r := range rec.Rules {
		truth[r.Path] = r
	}

	var items []types.DriftItem
	for path, lr := range live {
		tr, existed := truth[path]
		if !existed {
			items = append(items, types.DriftItem{
				ChangeType:    types.DriftAdded,
				Category:      types.DriftAuth,
				Identifier:    path,
				Severity:      types.SevLow,
				CodebaseValue: strings.Join(lr.roles, ","),
			})
			continue
		}
		if tr.RequiresAuth && !lr.requiresAuth {
			items = append(items, types.DriftItem{
				ChangeType:     types.DriftModified,
				Category:       types.DriftAuth,
				Identifier:     path,
				Severity:       types.SevCritical,
				TruthpackValue: "requiresAuth=true",
				CodebaseValue:  "requiresAuth=false",
			})
			continue
		}
		if roleSetShrank(tr.Roles, lr.roles) {
			items = append(items, types.DriftItem{
				ChangeType:     types.DriftModified,
				Category:       types.DriftAuth,
				Identifier:     path,
				Severity:       types.SevCritical,
				TruthpackValue: strings.Join(tr.Roles, ","),
				CodebaseValue:  strings.Join(lr.roles, ","),
			})
		}
	}
	for path, tr := range truth {
		if !tr.RequiresAuth {
			continue
		}
		if _, stillExists := live[path]; !stillExists {
			items = append(items, types.DriftItem{
				ChangeType:     types.DriftRemoved,
				Category:       types.DriftAuth,
				Identifier:     path,
				Severity:       types.SevCritical,
				TruthpackValue: strings.Join(tr.Roles, ","),
			})
		}
	}
	return items
}

// roleSetShrank reports whether live is missing any role truth declared.
func roleSetShrank(truth, live []string) bool {
	if len(truth) == 0 {
		return false
	}
	liveSet := make(map[string]bool, len(live))
	for _, r := range live {
		liveSet[r] = true
	}
	for _, r := range truth {
		if !liveSet[r] {
			return true
		}
	}
	return false
}
