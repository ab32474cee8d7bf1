package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
)

const (
	userAgent    = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	origin       = "https://catalog.apps.asu.edu"
	unknownTitle = "Unknown Title"
	unknownClass = "Unknown"
)

// SectionSnapshot is one observation of a class section.
type SectionSnapshot struct {
	SectionID  string
	Title      string
	Capacity   int
	Enrolled   int
	ObservedAt time.Time
}

// Available reports whether at least one seat is open.
func (s SectionSnapshot) Available() bool {
	return s.Enrolled < s.Capacity
}

// FetchError is returned for any failure to get a usable class list for a
// course: transport, HTTP status, or body decoding.
type FetchError struct {
	Course string
	Term   string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s (term %s): %v", e.Course, e.Term, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

type Client struct {
	http    *fasthttp.Client
	url     string
	timeout time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

func NewClient(baseURL, searchPath string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		http: &fasthttp.Client{
			Name:                     userAgent,
			NoDefaultUserAgentHeader: true,
		},
		url:     strings.TrimRight(baseURL, "/") + searchPath,
		timeout: timeout,
		logger:  logger,
		now:     time.Now,
	}
}

type searchResponse struct {
	Classes []classEntry `json:"classes"`
}

type classEntry struct {
	SeatInfo struct {
		Capacity flexInt `json:"ENRL_CAP"`
		Enrolled flexInt `json:"ENRL_TOT"`
	} `json:"seatInfo"`
	Class struct {
		Title    string     `json:"COURSETITLELONG"`
		ClassNbr flexString `json:"CLASSNBR"`
	} `json:"CLAS"`
}

// Fetch runs one catalog search for a course and returns every section the
// catalog lists for it. An empty class list is not an error.
func (c *Client) Fetch(ctx context.Context, subject, catalogNumber, term string) ([]SectionSnapshot, error) {
	course := subject + " " + catalogNumber
	fail := func(err error) error {
		return &FetchError{Course: course, Term: term, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return nil, fail(err)
	}

	args := fasthttp.AcquireArgs()
	defer fasthttp.ReleaseArgs(args)
	args.Add("refine", "Y")
	args.Add("catalogNbr", catalogNumber)
	args.Add("subject", subject)
	args.Add("term", term)
	uri := c.url + "?" + string(args.QueryString())

	req := fasthttp.AcquireRequest()
	req.SetRequestURI(uri)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Encoding", "gzip")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Authorization", "Bearer null")
	req.Header.Set("Origin", origin)
	req.Header.Set("Referer", origin+"/")
	req.Header.SetUserAgent(userAgent)

	resp := fasthttp.AcquireResponse()
	release := func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}

	c.logger.Debug("catalog request", "course", course, "url", uri)
	// fasthttp has no context support, so the request runs on its own
	// goroutine and ctx only decides how long Fetch waits for it.
	done := make(chan error, 1)
	go func() { done <- c.http.DoTimeout(req, resp, c.timeout) }()
	select {
	case <-ctx.Done():
		go func() {
			<-done
			release()
		}()
		return nil, fail(ctx.Err())
	case err := <-done:
		defer release()
		if err != nil {
			return nil, fail(err)
		}
	}

	status := resp.StatusCode()
	if status < 200 || status >= 300 {
		return nil, fail(fmt.Errorf("unexpected status %d", status))
	}

	body := resp.Body()
	if bytes.EqualFold(resp.Header.Peek(fasthttp.HeaderContentEncoding), []byte("gzip")) {
		b, err := resp.BodyGunzip()
		if err != nil {
			return nil, fail(fmt.Errorf("gunzip body: %w", err))
		}
		body = b
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fail(fmt.Errorf("parse classes: %w", err))
	}

	if len(parsed.Classes) == 0 {
		c.logger.Warn("no classes found", "course", course, "term", term)
		return []SectionSnapshot{}, nil
	}

	observed := c.now()
	sections := make([]SectionSnapshot, 0, len(parsed.Classes))
	for _, cl := range parsed.Classes {
		sections = append(sections, cl.snapshot(observed))
	}
	return sections, nil
}

func (e classEntry) snapshot(observed time.Time) SectionSnapshot {
	title := strings.TrimSpace(e.Class.Title)
	if title == "" {
		title = unknownTitle
	}
	id := strings.TrimSpace(string(e.Class.ClassNbr))
	if id == "" {
		id = unknownClass
	}
	return SectionSnapshot{
		SectionID:  id,
		Title:      title,
		Capacity:   max(0, int(e.SeatInfo.Capacity)),
		Enrolled:   max(0, int(e.SeatInfo.Enrolled)),
		ObservedAt: observed,
	}
}

// flexInt accepts a JSON number, a numeric string, or null.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" || s == `""` {
		*f = 0
		return nil
	}
	s = strings.Trim(s, `"`)
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return fmt.Errorf("invalid seat count %s", string(b))
	}
	*f = flexInt(n)
	return nil
}

// flexString accepts a JSON string, a number, or null.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("invalid class number %s", string(b))
	}
	*f = flexString(n.String())
	return nil
}
