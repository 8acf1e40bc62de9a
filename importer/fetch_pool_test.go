package importer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/golang/mock/gomock"
	check "gopkg.in/check.v1"

	mock_importer "github.com/mycok/halreslib/importer/mocks"
)

var _ = check.Suite(new(fetchPoolTestSuite))

type fetchPoolTestSuite struct {
	ctrl      *gomock.Controller
	urlGetter *mock_importer.MockURLGetter
}

func (s *fetchPoolTestSuite) SetUpTest(c *check.C) {
	s.ctrl = gomock.NewController(c)
	s.urlGetter = mock_importer.NewMockURLGetter(s.ctrl)
}

func (s *fetchPoolTestSuite) TearDownTest(c *check.C) {
	s.ctrl.Finish()
}

func (s *fetchPoolTestSuite) TestFetcherRecordsResponse(c *check.C) {
	s.urlGetter.EXPECT().Do(requestFor("https://example.com/a")).Return(makeResponse(200, "hello"), nil)

	payload := s.fetch(c, "https://example.com/a")
	c.Assert(payload.StatusCode, check.Equals, 200)
	c.Assert(payload.Body.String(), check.Equals, "hello")
	c.Assert(payload.Err, check.IsNil)
	c.Assert(payload.BodyErr, check.IsNil)
}

func (s *fetchPoolTestSuite) TestFetcherRecordsTransportError(c *check.C) {
	s.urlGetter.EXPECT().Do(requestFor("https://example.com/a")).Return(nil, errors.New("dial tcp: no such host"))

	payload := s.fetch(c, "https://example.com/a")
	c.Assert(payload.Err, check.ErrorMatches, "dial tcp: no such host")
	c.Assert(payload.StatusCode, check.Equals, 0)
}

func (s *fetchPoolTestSuite) TestFetcherPassesNonSuccessStatusThrough(c *check.C) {
	s.urlGetter.EXPECT().Do(requestFor("https://example.com/a")).Return(makeResponse(404, "gone"), nil)

	payload := s.fetch(c, "https://example.com/a")
	c.Assert(payload.Err, check.IsNil)
	c.Assert(payload.StatusCode, check.Equals, 404)
	c.Assert(payload.Body.String(), check.Equals, "gone")
}

func (s *fetchPoolTestSuite) TestFetcherRecordsBodyError(c *check.C) {
	resp := makeResponse(200, "")
	resp.Body = brokenBody{}
	s.urlGetter.EXPECT().Do(requestFor("https://example.com/a")).Return(resp, nil)

	payload := s.fetch(c, "https://example.com/a")
	c.Assert(payload.Err, check.IsNil)
	c.Assert(payload.BodyErr, check.Equals, errBrokenBody)
}

func (s *fetchPoolTestSuite) TestFetcherToleratesNilBody(c *check.C) {
	resp := makeResponse(204, "")
	resp.Body = nil
	s.urlGetter.EXPECT().Do(requestFor("https://example.com/a")).Return(resp, nil)

	payload := s.fetch(c, "https://example.com/a")
	c.Assert(payload.StatusCode, check.Equals, 204)
	c.Assert(payload.Body.Len(), check.Equals, 0)
}

func (s *fetchPoolTestSuite) TestFetchKeepsInputOrder(c *check.C) {
	urls := makeURLs(50)

	// Earlier URLs take longer so that completion order is reversed.
	client := &http.Client{
		Transport: roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			var idx int
			_, _ = fmt.Sscanf(req.URL.Path, "/%d", &idx)
			time.Sleep(time.Duration(len(urls)-idx) * time.Millisecond)

			if idx%7 == 0 {
				return nil, errors.New("unreachable")
			}

			return makeResponse(200, req.URL.Path), nil
		}),
	}

	results, err := NewFetchPool(client, 8).Fetch(context.TODO(), urls)
	c.Assert(err, check.IsNil)
	c.Assert(results, check.HasLen, len(urls))

	for i, res := range results {
		c.Assert(res.URL, check.Equals, urls[i])

		if i%7 == 0 {
			c.Assert(res.Err, check.NotNil, check.Commentf("url %d", i))
			continue
		}

		c.Assert(res.Err, check.IsNil, check.Commentf("url %d", i))
		c.Assert(string(res.Body), check.Equals, fmt.Sprintf("/%d", i))
	}
}

func (s *fetchPoolTestSuite) TestFetchNeverExceedsWorkerCap(c *check.C) {
	const numOfWorkers = 16

	var inFlight, maxInFlight, calls int32
	client := &http.Client{
		Transport: roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			atomic.AddInt32(&calls, 1)
			cur := atomic.AddInt32(&inFlight, 1)
			defer atomic.AddInt32(&inFlight, -1)

			for {
				seen := atomic.LoadInt32(&maxInFlight)
				if cur <= seen || atomic.CompareAndSwapInt32(&maxInFlight, seen, cur) {
					break
				}
			}

			time.Sleep(2 * time.Millisecond)

			return makeResponse(200, "ok"), nil
		}),
	}

	results, err := NewFetchPool(client, numOfWorkers).Fetch(context.TODO(), makeURLs(100))
	c.Assert(err, check.IsNil)
	c.Assert(results, check.HasLen, 100)
	c.Assert(atomic.LoadInt32(&calls), check.Equals, int32(100))
	c.Assert(atomic.LoadInt32(&maxInFlight) <= numOfWorkers, check.Equals, true,
		check.Commentf("observed %d concurrent requests", maxInFlight))

	for _, res := range results {
		c.Assert(res.IsSuccessStatus(), check.Equals, true)
	}
}

func (s *fetchPoolTestSuite) TestFetchWithNoURLs(c *check.C) {
	results, err := NewFetchPool(s.urlGetter, 4).Fetch(context.TODO(), nil)
	c.Assert(err, check.IsNil)
	c.Assert(results, check.HasLen, 0)
}

func (s *fetchPoolTestSuite) TestFetchWithCancelledContext(c *check.C) {
	ctx, cancel := context.WithCancel(context.TODO())
	cancel()

	s.urlGetter.EXPECT().Do(gomock.Any()).Return(makeResponse(200, "ok"), nil).AnyTimes()

	results, err := NewFetchPool(s.urlGetter, 4).Fetch(ctx, makeURLs(10))
	c.Assert(err, check.ErrorMatches, "fetch pool: .*context canceled")
	c.Assert(results, check.IsNil)
}

func (s *fetchPoolTestSuite) TestFetcherBindsRequestToContext(c *check.C) {
	type ctxKey struct{}
	ctx := context.WithValue(context.TODO(), ctxKey{}, "run")

	s.urlGetter.EXPECT().Do(requestFor("https://example.com/a")).DoAndReturn(
		func(req *http.Request) (*http.Response, error) {
			c.Assert(req.Method, check.Equals, http.MethodGet)
			c.Assert(req.Context().Value(ctxKey{}), check.Equals, "run")

			return makeResponse(200, "ok"), nil
		},
	)

	processed, err := newURLFetcher(s.urlGetter).Process(ctx, &fetchPayload{URL: "https://example.com/a"})
	c.Assert(err, check.IsNil)
	c.Assert(processed.(*fetchPayload).StatusCode, check.Equals, 200)
}

func (s *fetchPoolTestSuite) TestFetcherRecordsInvalidRequestURL(c *check.C) {
	payload := s.fetch(c, "http://[::1")
	c.Assert(payload.Err, check.NotNil)
	c.Assert(payload.StatusCode, check.Equals, 0)
}

func (s *fetchPoolTestSuite) TestCancelAbortsBlockedFetches(c *check.C) {
	var started int32
	client := &http.Client{
		Transport: roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			atomic.AddInt32(&started, 1)

			select {
			case <-req.Context().Done():
				return nil, req.Context().Err()
			case <-time.After(30 * time.Second):
				return makeResponse(200, "too late"), nil
			}
		}),
	}

	ctx, cancel := context.WithCancel(context.TODO())
	time.AfterFunc(50*time.Millisecond, cancel)

	startedAt := time.Now()
	results, err := NewFetchPool(client, 4).Fetch(ctx, makeURLs(8))
	elapsed := time.Since(startedAt)

	c.Assert(err, check.ErrorMatches, "fetch pool: .*context canceled")
	c.Assert(results, check.IsNil)
	c.Assert(atomic.LoadInt32(&started) > 0, check.Equals, true)
	c.Assert(elapsed < 5*time.Second, check.Equals, true,
		check.Commentf("fetch returned after %s", elapsed))
}

func (s *fetchPoolTestSuite) TestIsSuccessStatus(c *check.C) {
	c.Assert(FetchResult{StatusCode: 200}.IsSuccessStatus(), check.Equals, true)
	c.Assert(FetchResult{StatusCode: 299}.IsSuccessStatus(), check.Equals, true)
	c.Assert(FetchResult{StatusCode: 199}.IsSuccessStatus(), check.Equals, false)
	c.Assert(FetchResult{StatusCode: 301}.IsSuccessStatus(), check.Equals, false)
	c.Assert(FetchResult{StatusCode: 500}.IsSuccessStatus(), check.Equals, false)
	c.Assert(FetchResult{}.IsSuccessStatus(), check.Equals, false)
}

func (s *fetchPoolTestSuite) fetch(c *check.C, url string) *fetchPayload {
	payload := &fetchPayload{URL: url}
	processed, err := newURLFetcher(s.urlGetter).Process(context.TODO(), payload)
	c.Assert(err, check.IsNil)
	c.Assert(processed, check.FitsTypeOf, payload)

	return processed.(*fetchPayload)
}

// requestFor matches requests whose URL equals the wrapped string.
type requestFor string

func (m requestFor) Matches(x interface{}) bool {
	req, ok := x.(*http.Request)

	return ok && req.URL.String() == string(m)
}

func (m requestFor) String() string {
	return "request for " + string(m)
}

func makeURLs(n int) []string {
	urls := make([]string, n)
	for i := range urls {
		urls[i] = fmt.Sprintf("http://example.com/%d", i)
	}

	return urls
}
