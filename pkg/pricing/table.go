package pricing

import "github.com/ogulcanaydogan/xcli/pkg/model"

// DefaultCost is charged for operations missing from the table. It is set at
// the price of a typical write so unknown calls are never under-counted.
const DefaultCost = 0.01

// DefaultMethod is assumed for operations missing from the table.
const DefaultMethod = model.MethodGet

// defaultTable is the built-in per-request price list in USD.
var defaultTable = []Endpoint{
	// posts
	{ID: "posts.create", Method: model.MethodPost, Cost: 0.01},
	{ID: "posts.delete", Method: model.MethodDelete, Cost: 0.01},
	{ID: "posts.get", Method: model.MethodGet, Cost: 0.005},
	{ID: "posts.search", Method: model.MethodGet, Cost: 0.005},
	{ID: "posts.counts", Method: model.MethodGet, Cost: 0.005},
	{ID: "posts.timeline", Method: model.MethodGet, Cost: 0.005},

	// users
	{ID: "users.me", Method: model.MethodGet, Cost: 0.01},
	{ID: "users.get", Method: model.MethodGet, Cost: 0.01},
	{ID: "users.posts", Method: model.MethodGet, Cost: 0.005},
	{ID: "users.mentions", Method: model.MethodGet, Cost: 0.005},
	{ID: "users.followers", Method: model.MethodGet, Cost: 0.01},
	{ID: "users.following", Method: model.MethodGet, Cost: 0.01},

	// likes
	{ID: "likes.create", Method: model.MethodPost, Cost: 0.015},
	{ID: "likes.delete", Method: model.MethodDelete, Cost: 0.01},
	{ID: "likes.list", Method: model.MethodGet, Cost: 0.005},

	// direct messages
	{ID: "dms.send", Method: model.MethodPost, Cost: 0.015},
	{ID: "dms.list", Method: model.MethodGet, Cost: 0.01},

	// media
	{ID: "media.upload", Method: model.MethodPost, Cost: 0.005},
	{ID: "media.initialize", Method: model.MethodPost, Cost: 0.005},
	{ID: "media.append", Method: model.MethodPost, Cost: 0.005},
	{ID: "media.finalize", Method: model.MethodPost, Cost: 0.005},
	{ID: "media.status", Method: model.MethodGet, Cost: 0.001},
	{ID: "media.metadata", Method: model.MethodPost, Cost: 0.005},

	// account usage
	{ID: "usage.get", Method: model.MethodGet, Cost: 0},
}
