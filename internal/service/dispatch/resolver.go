// Package dispatch selects and invokes the provider for an intent: the
// capability resolver picks an operation from a dynamically discovered set,
// and the attempt chain runs providers in order until one succeeds.
package dispatch

import (
	"strings"

	"github.com/mcbarin/personal-ai-assistant/internal/core"
)

// Rule is one row of the resolution strategy table: a predicate over a
// normalized capability name plus a description for logs and tests.
type Rule struct {
	Desc  string
	Match func(name string) bool
}

// normalize folds case and unifies separators so that "API-post-page",
// "api_post_page" and "API Post Page" all compare equal.
func normalize(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, "_", "-")
	name = strings.ReplaceAll(name, " ", "-")
	return name
}

func tokens(name string) []string {
	return strings.Split(normalize(name), "-")
}

func hasToken(name string, candidates ...string) bool {
	for _, tok := range tokens(name) {
		for _, c := range candidates {
			if tok == c || tok == c+"s" {
				return true
			}
		}
	}
	return false
}

var (
	createVerbs    = []string{"create", "post", "add", "new"}
	taskNouns      = []string{"page", "task", "todo", "item"}
	excludedTokens = []string{"comment", "update", "patch", "delete", "remove", "database", "block", "property"}

	knownAliases = []string{
		"create-page",
		"create-pages",
		"notion-create-page",
		"pages-create",
		"create-task",
		"add-task",
		"create-todo",
	}
)

// TaskCreationRules is the ordered strategy table for resolving a remote
// task-creation capability. Earlier rules win.
func TaskCreationRules() []Rule {
	return []Rule{
		{
			Desc: "exact HTTP-POST-style page creation name",
			Match: func(name string) bool {
				switch normalize(name) {
				case "api-post-page", "post-page", "api-create-a-page":
					return true
				}
				return false
			},
		},
		{
			Desc: "creation verb plus target noun, no modifier tokens",
			Match: func(name string) bool {
				return hasToken(name, createVerbs...) &&
					hasToken(name, taskNouns...) &&
					!hasToken(name, excludedTokens...)
			},
		},
		{
			Desc: "known alias",
			Match: func(name string) bool {
				n := normalize(name)
				for _, alias := range knownAliases {
					if n == alias {
						return true
					}
				}
				return false
			},
		},
	}
}

// Resolve walks the strategy table top-down and, within each rule, the
// capabilities in their discovered order. First match wins; no match means
// the caller must use its built-in provider.
func Resolve(caps []core.Capability, rules []Rule) (core.Capability, bool) {
	for _, rule := range rules {
		for _, c := range caps {
			if rule.Match(c.Name) {
				return c, true
			}
		}
	}
	return core.Capability{}, false
}
