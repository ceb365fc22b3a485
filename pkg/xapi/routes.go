package xapi

import (
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// Route is the HTTP method and path template of an operation.
type Route struct {
	Method string
	Path   string
}

var routes = map[string]Route{
	"posts.create":   {http.MethodPost, "/2/tweets"},
	"posts.delete":   {http.MethodDelete, "/2/tweets/{id}"},
	"posts.get":      {http.MethodGet, "/2/tweets/{id}"},
	"posts.search":   {http.MethodGet, "/2/tweets/search/recent"},
	"posts.counts":   {http.MethodGet, "/2/tweets/counts/recent"},
	"posts.timeline": {http.MethodGet, "/2/users/{id}/timelines/reverse_chronological"},

	"users.me":        {http.MethodGet, "/2/users/me"},
	"users.get":       {http.MethodGet, "/2/users/by/username/{username}"},
	"users.posts":     {http.MethodGet, "/2/users/{id}/tweets"},
	"users.mentions":  {http.MethodGet, "/2/users/{id}/mentions"},
	"users.followers": {http.MethodGet, "/2/users/{id}/followers"},
	"users.following": {http.MethodGet, "/2/users/{id}/following"},

	"likes.create": {http.MethodPost, "/2/users/{id}/likes"},
	"likes.delete": {http.MethodDelete, "/2/users/{id}/likes/{tweet_id}"},
	"likes.list":   {http.MethodGet, "/2/users/{id}/liked_tweets"},

	"dms.send": {http.MethodPost, "/2/dm_conversations/with/{participant_id}/messages"},
	"dms.list": {http.MethodGet, "/2/dm_events"},

	"media.upload":     {http.MethodPost, "/2/media/upload"},
	"media.initialize": {http.MethodPost, "/2/media/upload/initialize"},
	"media.append":     {http.MethodPost, "/2/media/upload/{id}/append"},
	"media.finalize":   {http.MethodPost, "/2/media/upload/{id}/finalize"},
	"media.status":     {http.MethodGet, "/2/media/upload"},
	"media.metadata":   {http.MethodPost, "/2/media/metadata"},

	"usage.get": {http.MethodGet, "/2/usage/tweets"},
}

// RouteFor returns the route of an operation identifier.
func RouteFor(operationID string) (Route, bool) {
	r, ok := routes[operationID]
	return r, ok
}

// expand substitutes {name} placeholders with escaped parameter values.
func (r Route) expand(params map[string]string) (string, error) {
	path := r.Path
	for {
		open := strings.IndexByte(path, '{')
		if open < 0 {
			return path, nil
		}
		end := strings.IndexByte(path[open:], '}')
		if end < 0 {
			return "", fmt.Errorf("malformed route %q", r.Path)
		}
		name := path[open+1 : open+end]
		value, ok := params[name]
		if !ok || value == "" {
			return "", fmt.Errorf("missing path parameter %q for %s", name, r.Path)
		}
		path = path[:open] + url.PathEscape(value) + path[open+end+1:]
	}
}

// Operations returns the identifiers of every routed operation, sorted.
func Operations() []string {
	ids := make([]string, 0, len(routes))
	for id := range routes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
