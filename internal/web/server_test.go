package web

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/net/html"

	"github.com/ppiankov/askcup/internal/answer"
	"github.com/ppiankov/askcup/internal/model"
)

const brazilReply = `{"answer":"Brazil has won 5 World Cups","sources":[{"type":"match","home_team":"Brazil","away_team":"Germany","year":2014}]}`

// fakeBackend stands in for the answer service
type fakeBackend struct {
	status int
	body   string
	calls  atomic.Int32
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/ask" {
		http.NotFound(w, r)
		return
	}
	b.calls.Add(1)
	if b.status != 0 {
		w.WriteHeader(b.status)
		return
	}
	_, _ = fmt.Fprint(w, b.body)
}

type testEnv struct {
	backend     *fakeBackend
	backendPort string
	ui          *httptest.Server
	client      *http.Client
}

func newTestEnv(t *testing.T, backend *fakeBackend) *testEnv {
	t.Helper()

	be := httptest.NewServer(backend)
	t.Cleanup(be.Close)

	cfg := model.DefaultConfig()
	cfg.AnswerService.BaseURL = be.URL
	asker, err := answer.NewClient(cfg.AnswerService)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	srv, err := NewServer(ctx, cfg.Server, asker, asker.FailureMessage())
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	ui := httptest.NewServer(srv.Handler())
	t.Cleanup(ui.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	u, err := url.Parse(be.URL)
	if err != nil {
		t.Fatal(err)
	}
	return &testEnv{
		backend:     backend,
		backendPort: u.Port(),
		ui:          ui,
		client:      &http.Client{Jar: jar, Timeout: 5 * time.Second},
	}
}

func (e *testEnv) post(t *testing.T, path string, form url.Values) *http.Response {
	t.Helper()
	resp, err := e.client.PostForm(e.ui.URL+path, form)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	return resp
}

func (e *testEnv) state(t *testing.T) stateResponse {
	t.Helper()
	resp, err := e.client.Get(e.ui.URL + "/api/state")
	if err != nil {
		t.Fatalf("GET /api/state: %v", err)
	}
	defer resp.Body.Close()

	var st stateResponse
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	return st
}

// waitSettled polls until the page leaves the loading state
func (e *testEnv) waitSettled(t *testing.T) stateResponse {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		st := e.state(t)
		if st.State != "loading" {
			return st
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("page stayed in loading state")
	return stateResponse{}
}

func TestIndex_Idle(t *testing.T) {
	env := newTestEnv(t, &fakeBackend{body: brazilReply})

	resp, err := env.client.Get(env.ui.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("expected request id header")
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if n := countClass(doc, "sample"); n != len(model.SampleQuestions) {
		t.Errorf("expected %d samples, got %d", len(model.SampleQuestions), n)
	}
}

// submitButton fetches the page and returns the ask form's button
func (e *testEnv) submitButton(t *testing.T) *html.Node {
	t.Helper()
	resp, err := e.client.Get(e.ui.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	doc, err := html.Parse(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	buttons := findClass(doc, "primary")
	if len(buttons) != 1 {
		t.Fatalf("expected one submit button, got %d", len(buttons))
	}
	return buttons[0]
}

func isDisabled(n *html.Node) bool {
	for _, a := range n.Attr {
		if a.Key == "disabled" {
			return true
		}
	}
	return false
}

func TestIndex_TypedQuestionCanBeSubmitted(t *testing.T) {
	env := newTestEnv(t, &fakeBackend{body: brazilReply})

	if isDisabled(env.submitButton(t)) {
		t.Fatal("fresh page renders the submit button disabled")
	}

	env.post(t, "/ask", url.Values{"question": {"Who won the 2010 FIFA World Cup?"}}).Body.Close()
	env.waitSettled(t)
	env.post(t, "/reset", nil).Body.Close()

	if isDisabled(env.submitButton(t)) {
		t.Fatal("page after reset renders the submit button disabled")
	}

	env.post(t, "/ask", url.Values{"question": {"Who won the 1998 FIFA World Cup?"}}).Body.Close()
	if st := env.waitSettled(t); st.State != "answered" {
		t.Fatalf("expected answered after typed question, got %s", st.State)
	}
	if got := env.backend.calls.Load(); got != 2 {
		t.Errorf("expected 2 backend calls, got %d", got)
	}
}

func TestAsk_Answered(t *testing.T) {
	env := newTestEnv(t, &fakeBackend{body: brazilReply})

	resp := env.post(t, "/ask", url.Values{"question": {"How many World Cups has Brazil won?"}})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected redirect to page, got %d", resp.StatusCode)
	}

	st := env.waitSettled(t)
	if st.State != "answered" {
		t.Fatalf("expected answered, got %s (%s)", st.State, st.Error)
	}
	if st.Answer != "Brazil has won 5 World Cups" {
		t.Errorf("unexpected answer %q", st.Answer)
	}
	if len(st.Chips) != 1 || st.Chips[0] != "⚽ Brazil vs Germany (2014)" {
		t.Errorf("unexpected chips %v", st.Chips)
	}
	if st.ShowSamples {
		t.Error("samples hidden once answered")
	}
	if env.backend.calls.Load() != 1 {
		t.Errorf("expected one backend call, got %d", env.backend.calls.Load())
	}

	page, err := env.client.Get(env.ui.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer page.Body.Close()
	body, _ := io.ReadAll(page.Body)
	if !strings.Contains(string(body), "Brazil has won 5 World Cups") {
		t.Error("answer not rendered in page")
	}
}

func TestAsk_BackendFailure(t *testing.T) {
	env := newTestEnv(t, &fakeBackend{status: http.StatusInternalServerError})

	env.post(t, "/ask", url.Values{"question": {"Who won the 2014 FIFA World Cup?"}}).Body.Close()

	st := env.waitSettled(t)
	if st.State != "error" {
		t.Fatalf("expected error state, got %s", st.State)
	}
	want := answer.FailureMessage(env.backendPort)
	if st.Error != want {
		t.Errorf("error = %q, want %q", st.Error, want)
	}
	if st.Answer != "" || len(st.Sources) != 0 {
		t.Error("failed request must not carry an answer")
	}
}

func TestAsk_BlankIgnored(t *testing.T) {
	env := newTestEnv(t, &fakeBackend{body: brazilReply})

	env.post(t, "/ask", url.Values{"question": {"   "}}).Body.Close()

	st := env.state(t)
	if st.State != "idle" {
		t.Errorf("expected idle, got %s", st.State)
	}
	if env.backend.calls.Load() != 0 {
		t.Error("blank question must not reach the backend")
	}
}

func TestSample(t *testing.T) {
	env := newTestEnv(t, &fakeBackend{body: brazilReply})

	env.post(t, "/sample", url.Values{"q": {model.SampleQuestions[1]}}).Body.Close()

	st := env.state(t)
	if st.Question != model.SampleQuestions[1] {
		t.Errorf("question = %q", st.Question)
	}
	if st.State != "idle" || !st.CanSubmit {
		t.Errorf("expected idle and submittable, got %+v", st)
	}
	if env.backend.calls.Load() != 0 {
		t.Error("picking a sample must not submit")
	}

	resp := env.post(t, "/sample", url.Values{"q": {"Who is the best player ever?"}})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown sample, got %d", resp.StatusCode)
	}
}

func TestReset(t *testing.T) {
	env := newTestEnv(t, &fakeBackend{body: brazilReply})

	env.post(t, "/ask", url.Values{"question": {"q"}}).Body.Close()
	env.waitSettled(t)

	env.post(t, "/reset", nil).Body.Close()

	st := env.state(t)
	if st.State != "idle" || st.Question != "" || len(st.Sources) != 0 {
		t.Errorf("expected clean idle page, got %+v", st)
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	env := newTestEnv(t, &fakeBackend{body: brazilReply})
	env.post(t, "/sample", url.Values{"q": {model.SampleQuestions[0]}}).Body.Close()

	jar, _ := cookiejar.New(nil)
	other := &http.Client{Jar: jar}
	resp, err := other.Get(env.ui.URL + "/api/state")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var st stateResponse
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		t.Fatal(err)
	}
	if st.Question != "" {
		t.Errorf("second browser saw first browser's question %q", st.Question)
	}
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t, &fakeBackend{})
	resp, err := env.client.Get(env.ui.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

func TestUnknownPath(t *testing.T) {
	env := newTestEnv(t, &fakeBackend{})
	resp, err := env.client.Get(env.ui.URL + "/nope")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}

func findClass(n *html.Node, class string) []*html.Node {
	var out []*html.Node
	if n.Type == html.ElementNode {
		for _, a := range n.Attr {
			if a.Key == "class" && a.Val == class {
				out = append(out, n)
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, findClass(c, class)...)
	}
	return out
}

func countClass(n *html.Node, class string) int {
	count := 0
	if n.Type == html.ElementNode {
		for _, a := range n.Attr {
			if a.Key == "class" && a.Val == class {
				count++
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		count += countClass(c, class)
	}
	return count
}
