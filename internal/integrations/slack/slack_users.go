package slackbot

import (
	"log"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/slack-go/slack"
)

const userCacheTTL = 5 * time.Minute

var userCache struct {
	sync.Mutex
	users     []slack.User
	fetchedAt time.Time
}

func getCachedUsers(api *slack.Client) ([]slack.User, error) {
	userCache.Lock()
	defer userCache.Unlock()

	if userCache.users != nil && time.Since(userCache.fetchedAt) < userCacheTTL {
		return userCache.users, nil
	}

	users, err := api.GetUsers()
	if err != nil {
		return nil, err
	}
	userCache.users = users
	userCache.fetchedAt = time.Now()
	return users, nil
}

// ResolveUserIDs turns a mix of Slack user IDs and display names into IDs.
// Names that match no workspace member are returned as unresolved.
func ResolveUserIDs(api *slack.Client, identifiers []string) ([]string, []string, error) {
	var ids []string
	var names []string

	for _, raw := range identifiers {
		val := strings.TrimSpace(raw)
		if val == "" {
			continue
		}
		if isLikelySlackID(val) {
			ids = append(ids, val)
		} else {
			names = append(names, val)
		}
	}

	if len(names) == 0 {
		log.Printf("resolve users: ids=%d names=0", len(ids))
		return uniqueStrings(ids), nil, nil
	}

	users, err := getCachedUsers(api)
	if err != nil {
		log.Printf("resolve users: get users error: %v", err)
		return uniqueStrings(ids), names, err
	}

	matched, unresolved := matchUserNames(users, names)
	ids = append(ids, matched...)
	log.Printf("resolve users: ids=%d unresolved=%d", len(ids), len(unresolved))
	return uniqueStrings(ids), unresolved, nil
}

// matchUserNames tries an exact case-insensitive match on user name, real
// name and display name first, then falls back to token matching so that
// "김담당" finds a member displayed as "김담당 (거제시)".
func matchUserNames(users []slack.User, names []string) ([]string, []string) {
	nameToID := make(map[string]string)
	for _, user := range users {
		addName := func(n string) {
			n = strings.ToLower(strings.TrimSpace(n))
			if n == "" {
				return
			}
			if _, exists := nameToID[n]; !exists {
				nameToID[n] = user.ID
			}
		}
		addName(user.Name)
		addName(user.RealName)
		addName(user.Profile.DisplayName)
	}

	var ids, unresolved []string
	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		if id, ok := nameToID[key]; ok {
			ids = append(ids, id)
			continue
		}
		if id, ok := fuzzyUserID(users, name); ok {
			ids = append(ids, id)
			continue
		}
		unresolved = append(unresolved, name)
	}
	return ids, unresolved
}

func fuzzyUserID(users []slack.User, name string) (string, bool) {
	found := ""
	for _, user := range users {
		candidates := []string{user.Name, user.RealName, user.Profile.DisplayName}
		for _, c := range candidates {
			if c != "" && nameMatches(name, c) {
				if found != "" && found != user.ID {
					// ambiguous
					return "", false
				}
				found = user.ID
				break
			}
		}
	}
	return found, found != ""
}

func isLikelySlackID(val string) bool {
	if len(val) < 9 {
		return false
	}
	for i, r := range val {
		if i == 0 {
			if r != 'U' && r != 'W' {
				return false
			}
			continue
		}
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}

func uniqueStrings(vals []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, v := range vals {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

var parenPattern = regexp.MustCompile(`\([^)]*\)|（[^）]*）`)

func normalizeNameTokens(s string) []string {
	if s == "" {
		return nil
	}
	s = parenPattern.ReplaceAllString(s, " ")
	s = strings.ToLower(s)
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	parts := strings.Fields(b.String())
	if len(parts) == 0 {
		return nil
	}
	return parts
}

func nameMatches(entry, candidate string) bool {
	entryTokens := normalizeNameTokens(entry)
	candTokens := normalizeNameTokens(candidate)
	if len(entryTokens) == 0 || len(candTokens) == 0 {
		return false
	}
	// Either side may carry extra tokens ("Alice" vs "Alice Smith").
	if allIn(entryTokens, candTokens) || allIn(candTokens, entryTokens) {
		return true
	}
	return false
}

func allIn(needles, haystack []string) bool {
	set := make(map[string]bool, len(haystack))
	for _, t := range haystack {
		set[t] = true
	}
	for _, t := range needles {
		if !set[t] {
			return false
		}
	}
	return true
}
