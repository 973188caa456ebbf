package drift

import (
	"context"
	"regexp"
	"strings"

	"github.com/vibecheck/vibecheck/internal/types"
)

// httpMethods is the set of verbs route extraction recognizes.
var httpMethods = map[string]bool{
	"GET": true, "POST": true, "PUT": true, "PATCH": true,
	"DELETE": true, "HEAD": true, "OPTIONS": true,
}

// reNextAppExport matches Next.js App Router's `export async function GET(...)`
// or `export function POST(...)` handler exports.
var reNextAppExport = regexp.MustCompile(`(?m)^export\s+(?:async\s+)?function\s+(GET|POST|PUT|PATCH|DELETE|HEAD|OPTIONS)\s*\(`)

// reExpressRoute matches `<router>.<method>('<path>', ...)` Express/Fastify style calls.
var reExpressRoute = regexp.MustCompile(`(?i)\b\w+\.(get|post|put|patch|delete|head|options)\s*\(\s*['"` + "`" + `]([^'"` + "`" + `]+)['"` + "`" + `]`)

// isNextAppRouteFile reports whether relPath looks like a Next.js App
// Router route/page file: app/**/(route|page).(ts|tsx|js|jsx).
func isNextAppRouteFile(relPath string) bool {
	p := strings.ReplaceAll(relPath, "\\", "/")
	if !strings.Contains(p, "app/") {
		return false
	}
	base := p[strings.LastIndex(p, "/")+1:]
	for _, name := range []string{"route.ts", "route.tsx", "route.js", "route.jsx", "page.ts", "page.tsx", "page.js", "page.jsx"} {
		if base == name {
			return true
		}
	}
	return false
}

// isNextPagesAPIFile reports whether relPath is under pages/api/**.
func isNextPagesAPIFile(relPath string) bool {
	p := strings.ReplaceAll(relPath, "\\", "/")
	return strings.Contains(p, "pages/api/")
}

// normalizeNextPath derives the route path from a Next.js file path,
// normalizing dynamic segments ([id], [...slug]) to :param.
func normalizeNextPath(relPath, rootMarker string) string {
	p := strings.ReplaceAll(relPath, "\\", "/")
	idx := strings.Index(p, rootMarker)
	if idx < 0 {
		return p
	}
	rest := p[idx+len(rootMarker):]
	rest = strings.TrimSuffix(rest, ".ts")
	rest = strings.TrimSuffix(rest, ".tsx")
	rest = strings.TrimSuffix(rest, ".js")
	rest = strings.TrimSuffix(rest, ".jsx")
	for _, suffix := range []string{"/route", "/page", "/index"} {
		rest = strings.TrimSuffix(rest, suffix)
	}
	if rest == "" {
		rest = "/"
	}
	if !strings.HasPrefix(rest, "/") {
		rest = "/" + rest
	}
	segs := strings.Split(rest, "/")
	for i, s := range segs {
		if strings.HasPrefix(s, "[...") && strings.HasSuffix(s, "]") {
			segs[i] = ":" + strings.TrimSuffix(strings.TrimPrefix(s, "[..."), "]")
		} else if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
			segs[i] = ":" + strings.TrimSuffix(strings.TrimPrefix(s, "["), "]")
		}
	}
	out := strings.Join(segs, "/")
	if out == "" {
		return "/"
	}
	return out
}

// normalizeExpressPath normalizes Express/Fastify `:id`-style params,
// which already use the `:param` convention, so this is a passthrough
// kept for symmetry with normalizeNextPath.
func normalizeExpressPath(p string) string { return p }

func routeKey(method, path string) string { return method + " " + path }

// extractRoutes builds the live-code route view across the candidate
// file set. Route.Handler carries the defining file path, which also
// serves as the "handler fingerprint" spec.md §4.J's modified-route rule
// compares on: a route whose handling file changed is a modified route.
func extractRoutes(ctx context.Context, root string, files []string, maxBytes int64) map[string]types.Route {
	out := make(map[string]types.Route)
	for _, relPath := range files {
		select {
		case <-ctx.Done():
			return out
		default:
		}
		switch {
		case isNextAppRouteFile(relPath):
			data, ok := readCapped(root, relPath, maxBytes)
			if !ok {
				continue
			}
			text := string(data)
			for _, m := range reNextAppExport.FindAllStringSubmatch(text, -1) {
				method := m[1]
				routePath := normalizeNextPath(relPath, "app/")
				out[routeKey(method, routePath)] = types.Route{Method: method, Path: routePath, Handler: relPath}
			}
		case isNextPagesAPIFile(relPath):
			data, ok := readCapped(root, relPath, maxBytes)
			if !ok {
				continue
			}
			text := string(data)
			routePath := normalizeNextPath(relPath, "pages/api/")
			routePath = "/api/" + strings.TrimPrefix(routePath, "/")
			// Pages API files export a single default handler covering
			// all methods unless req.method is switched on explicitly.
			methods := []string{"GET", "POST", "PUT", "PATCH", "DELETE"}
			if found := reExpressRoute.FindAllStringSubmatch(text, -1); len(found) == 0 {
				for _, method := range methods {
					if strings.Contains(text, "'"+method+"'") || strings.Contains(text, "\""+method+"\"") {
						out[routeKey(method, routePath)] = types.Route{Method: method, Path: routePath, Handler: relPath}
					}
				}
				if len(out) == 0 {
					out[routeKey("GET", routePath)] = types.Route{Method: "GET", Path: routePath, Handler: relPath}
				}
			}
		default:
			if !looksLikeServerFile(relPath) {
				continue
			}
			data, ok := readCapped(root, relPath, maxBytes)
			if !ok {
				continue
			}
			text := string(data)
			for _, m := range reExpressRoute.FindAllStringSubmatch(text, -1) {
				method := strings.ToUpper(m[1])
				if !httpMethods[method] {
					continue
				}
				routePath := normalizeExpressPath(m[2])
				out[routeKey(method, routePath)] = types.Route{Method: method, Path: routePath, Handler: relPath}
			}
		}
	}
	return out
}

func looksLikeServerFile(relPath string) bool {
	p := strings.ToLower(relPath)
	for _, ext := range []string{".ts", ".tsx", ".js", ".jsx"} {
		if strings.HasSuffix(p, ext) {
			return true
		}
	}
	return false
}

// detectRouteDrift diffs the live route view against the truthpack's
// recorded routes (spec.md §4.J route extraction).
func detectRouteDrift(ctx context.Context, root string, files []string, maxBytes int64, rec types.RoutesRecord) []types.DriftItem {
	live := extractRoutes(ctx, root, files, maxBytes)

	truth := make(map[string]types.Route, len(rec.Routes))
	for _, r := range rec.Routes {
		truth[routeKey(r.Method, r.Path)] = r
	}

	var items []types.DriftItem
	for key, r := range live {
		tr, existed := truth[key]
		if !existed {
			items = append(items, types.DriftItem{
				ChangeType:    types.DriftAdded,
				Category:      types.DriftRoute,
				Identifier:    key,
				Severity:      types.SevLow,
				Location:      r.Handler,
				CodebaseValue: r.Handler,
			})
			continue
		}
		if tr.Handler != r.Handler {
			items = append(items, types.DriftItem{
				ChangeType:     types.DriftModified,
				Category:       types.DriftRoute,
				Identifier:     key,
				Severity:       types.SevMedium,
				Location:       r.Handler,
				TruthpackValue: tr.Handler,
				CodebaseValue:  r.Handler,
			})
		}
	}
	for key, tr := range truth {
		if _, stillExists := live[key]; !stillExists {
			items = append(items, types.DriftItem{
				ChangeType:     types.DriftRemoved,
				Category:       types.DriftRoute,
				Identifier:     key,
				Severity:       types.SevMedium,
				TruthpackValue: tr.Handler,
			})
		}
	}
	return items
}
