package dosing

import (
	"sort"
	"strings"
)

// VerbMarker prefixes verb-shorthand tokens such as "@ate".
const VerbMarker = "@"

// administrationMethods maps each canonical route to its accepted aliases.
// Verb shorthands carry the @ marker and are only candidates for verb tokens;
// plain aliases are only candidates for plain route tokens. Aliases are unique
// across routes.
var administrationMethods = map[string][]string{
	"oral":          {"oral", "swallowed", "chewed", "@ate"},
	"insufflation":  {"insufflation", "snorted", "intranasal", "nasal", "@sniffed"},
	"inhalation":    {"inhalation", "inhaled", "smoked", "vaporized"},
	"intravenous":   {"intravenous-injection", "intra-arterial", "injected", "@injected"},
	"intramuscular": {"intramuscular-injection"},
	"subcutaneous":  {"subcutaneous-injection", "intradermal"},
	"rectal":        {"rectal", "intrarectal", "plugged", "@boofed"},
	"transdermal":   {"transdermal", "dermal", "applied", "topical"},
	"sublingual":    {"sublingual", "dissolved"},
	"buccal":        {"buccal"},
	"other": {
		"intravaginal", "intrathecal", "intraperitoneal", "intraosseous",
		"intravitreal", "intrapleural", "intrapericardial", "intravesical",
		"intralesional", "ocular", "otic", "epidural", "absorbed",
		"administered",
	},
}

// routeAliases is the reverse mapping, alias -> canonical route.
var routeAliases = func() map[string]string {
	m := make(map[string]string)
	for route, aliases := range administrationMethods {
		for _, alias := range aliases {
			m[alias] = route
		}
	}
	return m
}()

// sortedAliases keeps near-match resolution deterministic across runs.
var sortedAliases = func() []string {
	aliases := make([]string, 0, len(routeAliases))
	for alias := range routeAliases {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)
	return aliases
}()

// CommonRoutes lists the canonical routes most users mean, used in error hints.
var CommonRoutes = []string{
	"oral", "insufflation", "inhalation", "intravenous", "sublingual", "rectal",
}

// RouteVocabulary returns the canonical route -> aliases mapping with aliases
// in their declared order and routes sorted, for the route reference endpoint.
func RouteVocabulary() map[string][]string {
	out := make(map[string][]string, len(administrationMethods))
	for route, aliases := range administrationMethods {
		out[route] = append([]string(nil), aliases...)
	}
	return out
}

// CanonicalRoutes returns the sorted canonical route names.
func CanonicalRoutes() []string {
	routes := make([]string, 0, len(administrationMethods))
	for route := range administrationMethods {
		routes = append(routes, route)
	}
	sort.Strings(routes)
	return routes
}

// IsCanonicalRoute reports whether name is a canonical route.
func IsCanonicalRoute(name string) bool {
	_, ok := administrationMethods[strings.ToLower(name)]
	return ok
}

// ResolveRoute resolves a plain (non-verb) route token to its canonical route.
// Exact alias match wins; otherwise a substring containment match is tried in
// both directions over the plain alias set.
func ResolveRoute(token string) (string, bool) {
	token = strings.ToLower(strings.TrimSpace(token))
	if token == "" || strings.HasPrefix(token, VerbMarker) {
		return "", false
	}
	return resolveAgainst(token, false)
}

// ResolveVerb resolves a verb-shorthand token (including its marker) to its
// canonical route, considering only verb aliases.
func ResolveVerb(token string) (string, bool) {
	token = strings.ToLower(strings.TrimSpace(token))
	if !strings.HasPrefix(token, VerbMarker) {
		return "", false
	}
	return resolveAgainst(token, true)
}

func resolveAgainst(token string, verb bool) (string, bool) {
	if route, ok := routeAliases[token]; ok {
		if verb == strings.HasPrefix(token, VerbMarker) {
			return route, true
		}
	}

	// Near-match fallback: the alias contains the token or the token contains
	// the alias core. Verb tokens are compared without their marker.
	core := strings.TrimPrefix(token, VerbMarker)
	if len(core) < 3 {
		return "", false
	}
	for _, alias := range sortedAliases {
		if verb != strings.HasPrefix(alias, VerbMarker) {
			continue
		}
		aliasCore := strings.TrimPrefix(alias, VerbMarker)
		if strings.Contains(aliasCore, core) || strings.Contains(core, aliasCore) {
			return routeAliases[alias], true
		}
	}
	return "", false
}
