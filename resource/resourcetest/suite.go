package resourcetest

import (
	"context"
	"fmt"
	"sort"

	check "gopkg.in/check.v1"

	"github.com/mycok/halreslib/resource"
)

// BaseSuite defines a set of re-usable tests that can be executed against
// any concrete type that implements the resource.Store interface.
type BaseSuite struct {
	s resource.Store
}

// SetStore configures the test-suite to run all tests against s.
func (s *BaseSuite) SetStore(store resource.Store) {
	s.s = store
}

// TestInsertAndListURLs verifies that every inserted resource is listed.
func (s *BaseSuite) TestInsertAndListURLs(c *check.C) {
	batch := []*resource.Resource{
		MakeResource("https://example.com/a", resource.Live),
		MakeResource("https://example.com/b", resource.Dead),
		MakeResource("https://example.com/c", resource.Live),
	}

	err := s.s.Insert(context.TODO(), batch)
	c.Assert(err, check.IsNil)

	assertURLs(c, s.s, "https://example.com/a", "https://example.com/b", "https://example.com/c")
}

// TestInsertEmptyBatch verifies that inserting an empty batch is a no-op.
func (s *BaseSuite) TestInsertEmptyBatch(c *check.C) {
	c.Assert(s.s.Insert(context.TODO(), nil), check.IsNil)

	urls, err := s.s.ListURLs(context.TODO())
	c.Assert(err, check.IsNil)
	c.Assert(urls, check.HasLen, 0)
}

// TestDuplicateIDsAreKept verifies that re-inserting a URL adds a new row
// instead of merging with the existing one.
func (s *BaseSuite) TestDuplicateIDsAreKept(c *check.C) {
	first := MakeResource("https://example.com/dup", resource.Live)
	second := MakeResource("https://example.com/dup", resource.Dead)
	c.Assert(first.ID, check.Equals, second.ID)

	c.Assert(s.s.Insert(context.TODO(), []*resource.Resource{first}), check.IsNil)
	c.Assert(s.s.Insert(context.TODO(), []*resource.Resource{second}), check.IsNil)

	assertURLs(c, s.s, "https://example.com/dup", "https://example.com/dup")
}

// TestSuccessiveInsertsAccumulate verifies that batches are appended.
func (s *BaseSuite) TestSuccessiveInsertsAccumulate(c *check.C) {
	for i := 0; i < 3; i++ {
		batch := []*resource.Resource{
			MakeResource(fmt.Sprintf("https://example.com/%d/x", i), resource.Live),
			MakeResource(fmt.Sprintf("https://example.com/%d/y", i), resource.Live),
		}
		c.Assert(s.s.Insert(context.TODO(), batch), check.IsNil)
	}

	urls, err := s.s.ListURLs(context.TODO())
	c.Assert(err, check.IsNil)
	c.Assert(urls, check.HasLen, 6)
}

// MakeResource returns a fully populated resource for rawURL.
func MakeResource(rawURL, liveStatus string) *resource.Resource {
	r := resource.New()
	r.URL = rawURL
	r.ID = resource.DeriveID(rawURL)
	r.Scheme = "https"
	r.Host = "example.com"
	r.LiveStatus = liveStatus
	r.CreaTime = "2024-01-01T00:00:00Z"
	r.ModiTime = r.CreaTime

	if liveStatus == resource.Live {
		r.Title = "Title of " + rawURL
		r.AutoDescr = "Description of " + rawURL
	}

	return r
}

func assertURLs(c *check.C, store resource.Store, expected ...string) {
	urls, err := store.ListURLs(context.TODO())
	c.Assert(err, check.IsNil)

	sort.Strings(urls)
	sort.Strings(expected)
	c.Assert(urls, check.DeepEquals, expected)
}
