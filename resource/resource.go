/*
	resource package defines the resource record produced by the importer,
	the rules for building one from a parsed URL and the contract that
	resource stores must satisfy.
*/

package resource

import (
	"net/url"
	"strings"
)

const (
	// Sentinel marks an absent title, description or URL component.
	Sentinel = "-"

	// DefaultCreator is the provenance tag of records created by the importer.
	DefaultCreator = "api"

	// Live and Dead are the two values of Resource.LiveStatus.
	Live = "1"
	Dead = "0"
)

// Columns lists the persisted resource fields in their positional order.
// Stores must write Resource.Values in exactly this order.
var Columns = []string{
	"id", "url", "scheme", "host", "path", "live_status", "title",
	"auto_descr", "man_descr", "crea_user", "crea_time", "modi_user", "modi_time",
}

// Resource describes one ingested URL. It serves as a model / schema object.
type Resource struct {
	ID         string `json:"id"`          // Hex encoded hash of URL
	URL        string `json:"url"`         // Normalized URL
	Scheme     string `json:"scheme"`      // URL scheme
	Host       string `json:"host"`        // URL host without port
	Path       string `json:"path"`        // URL path
	LiveStatus string `json:"live_status"` // Live or Dead
	Title      string `json:"title"`       // Page title
	AutoDescr  string `json:"auto_descr"`  // Extracted meta description
	ManDescr   string `json:"man_descr"`   // Curated description, never set by the importer
	CreaUser   string `json:"crea_user"`
	CreaTime   string `json:"crea_time"`
	ModiUser   string `json:"modi_user"`
	ModiTime   string `json:"modi_time"`
}

// New returns a blank resource populated with the default values.
func New() *Resource {
	return &Resource{
		URL:        Sentinel,
		Scheme:     Sentinel,
		Host:       Sentinel,
		Path:       Sentinel,
		LiveStatus: Live,
		Title:      Sentinel,
		AutoDescr:  Sentinel,
		CreaUser:   DefaultCreator,
		ModiUser:   DefaultCreator,
	}
}

// FromURL builds a blank resource for u whose creation and modification
// times are both set to timestamp. The ID is derived from the serialized URL.
func FromURL(u *url.URL, timestamp string) *Resource {
	r := New()

	r.URL = u.String()
	r.ID = DeriveID(r.URL)
	r.Scheme = orSentinel(u.Scheme)
	r.Host = orSentinel(u.Hostname())

	path := u.Path
	if path == "" {
		path = u.Opaque
	}
	r.Path = orSentinel(path)

	r.CreaTime = timestamp
	r.ModiTime = timestamp

	return r
}

// IsLive reports whether the resource was reachable at import time.
func (r *Resource) IsLive() bool {
	return r.LiveStatus == Live
}

// MarkDead flags the resource as unreachable.
func (r *Resource) MarkDead() {
	r.LiveStatus = Dead
}

// Values returns the resource fields in the order defined by Columns.
func (r *Resource) Values() []interface{} {
	return []interface{}{
		r.ID, r.URL, r.Scheme, r.Host, r.Path, r.LiveStatus, r.Title,
		r.AutoDescr, r.ManDescr, r.CreaUser, r.CreaTime, r.ModiUser, r.ModiTime,
	}
}

// NormalizeURL lowercases the scheme and host of u and gives hierarchical
// web URLs with an empty path the root path, so that equivalent spellings
// of the same address serialize, and therefore hash, identically.
func NormalizeURL(u *url.URL) *url.URL {
	n := *u
	n.Scheme = strings.ToLower(n.Scheme)
	n.Host = strings.ToLower(n.Host)

	if n.Opaque == "" && n.Path == "" && (n.Scheme == "http" || n.Scheme == "https") {
		n.Path = "/"
	}

	return &n
}

func orSentinel(s string) string {
	if s == "" {
		return Sentinel
	}

	return s
}
