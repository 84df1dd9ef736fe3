package corenlp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/cognicore/annotok/pkg/annotok/annotate"
	"github.com/cognicore/annotok/pkg/annotok/pipeline"
)

type roundTrip func(*http.Request) *http.Response

func (rt roundTrip) RoundTrip(req *http.Request) (*http.Response, error) {
	return rt(req), nil
}

func jsonResponse(body string) *http.Response {
	return &http.Response{
		StatusCode: 200,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

const twoSentences = `{
	"sentences": [
		{"index": 0, "tokens": [
			{"index": 1, "word": "Cats", "originalText": "Cats", "lemma": "cat", "pos": "NNS", "characterOffsetBegin": 0, "characterOffsetEnd": 4},
			{"index": 2, "word": "sleep", "lemma": "sleep", "pos": "VBP", "characterOffsetBegin": 5, "characterOffsetEnd": 10},
			{"index": 3, "word": ".", "lemma": ".", "pos": ".", "characterOffsetBegin": 10, "characterOffsetEnd": 11}
		]},
		{"index": 1, "tokens": [
			{"index": 1, "word": "Dogs", "lemma": "dog", "pos": "NNS", "characterOffsetBegin": 12, "characterOffsetEnd": 16}
		]}
	]
}`

func TestAnnotateRequestAndResponse(t *testing.T) {
	settings, err := pipeline.BuildSettings(pipeline.Options{Lemmatize: true})
	if err != nil {
		t.Fatal(err)
	}

	var gotBody string
	var gotProps map[string]string
	client := NewClient("http://corenlp.test:9000", settings, &http.Client{
		Transport: roundTrip(func(req *http.Request) *http.Response {
			if req.Method != http.MethodPost {
				t.Errorf("method = %s", req.Method)
			}
			body, _ := io.ReadAll(req.Body)
			gotBody = string(body)
			if err := json.Unmarshal([]byte(req.URL.Query().Get("properties")), &gotProps); err != nil {
				t.Errorf("properties not JSON: %v", err)
			}
			if req.URL.Query().Get("pipelineLanguage") != "" {
				t.Error("pipelineLanguage must not be sent for english")
			}
			return jsonResponse(twoSentences)
		}),
	})

	doc, err := client.Annotate(context.Background(), "Cats sleep. Dogs")
	if err != nil {
		t.Fatalf("Annotate: %v", err)
	}
	if gotBody != "Cats sleep. Dogs" {
		t.Errorf("body = %q", gotBody)
	}
	if gotProps["annotators"] != "tokenize,ssplit,pos,lemma" {
		t.Errorf("annotators = %q", gotProps["annotators"])
	}
	if gotProps["outputFormat"] != "json" {
		t.Errorf("outputFormat = %q", gotProps["outputFormat"])
	}
	if gotProps["pos.model"] != pipeline.EnglishModel {
		t.Errorf("pos.model = %q", gotProps["pos.model"])
	}

	if len(doc.Sentences) != 2 {
		t.Fatalf("expected 2 sentences, got %d", len(doc.Sentences))
	}
	toks := doc.Tokens()
	if len(toks) != 4 {
		t.Fatalf("expected 4 tokens, got %d", len(toks))
	}
	want := annotate.Token{Text: "Cats", Lemma: "cat", POS: "NNS", Begin: 0, End: 4}
	if toks[0] != want {
		t.Errorf("token 0 = %+v, want %+v", toks[0], want)
	}
	if toks[3].Begin != 12 || toks[3].End != 16 || toks[3].Lemma != "dog" {
		t.Errorf("token 3 = %+v", toks[3])
	}
}

func TestAnnotateConvertsUTF16Offsets(t *testing.T) {
	text := "café 😀 ok"
	client := &Client{
		BaseURL: "http://corenlp.test",
		HTTPClient: &http.Client{Transport: roundTrip(func(*http.Request) *http.Response {
			return jsonResponse(`{"sentences":[{"tokens":[
				{"word":"café","pos":"NN","characterOffsetBegin":0,"characterOffsetEnd":4},
				{"word":"😀","pos":"SYM","characterOffsetBegin":5,"characterOffsetEnd":7},
				{"word":"ok","pos":"UH","characterOffsetBegin":8,"characterOffsetEnd":10}
			]}]}`)
		})},
	}

	doc, err := client.Annotate(context.Background(), text)
	if err != nil {
		t.Fatalf("Annotate: %v", err)
	}
	for _, tok := range doc.Tokens() {
		if got := text[tok.Begin:tok.End]; got != tok.Text {
			t.Errorf("text[%d:%d] = %q, want %q", tok.Begin, tok.End, got, tok.Text)
		}
	}
}

func TestAnnotateNonEnglishLanguage(t *testing.T) {
	settings, _ := pipeline.BuildSettings(pipeline.Options{Language: "de"})
	var lang string
	client := NewClient("http://corenlp.test/", settings, &http.Client{
		Transport: roundTrip(func(req *http.Request) *http.Response {
			lang = req.URL.Query().Get("pipelineLanguage")
			return jsonResponse(`{"sentences":[]}`)
		}),
	})
	doc, err := client.Annotate(context.Background(), "")
	if err != nil {
		t.Fatalf("Annotate: %v", err)
	}
	if lang != "de" {
		t.Errorf("pipelineLanguage = %q", lang)
	}
	if len(doc.Tokens()) != 0 {
		t.Errorf("expected no tokens")
	}
}

func TestAnnotateHTTPError(t *testing.T) {
	client := &Client{
		BaseURL: "http://corenlp.test",
		HTTPClient: &http.Client{Transport: roundTrip(func(*http.Request) *http.Response {
			return &http.Response{
				StatusCode: 500,
				Body:       io.NopCloser(strings.NewReader("java.lang.OutOfMemoryError")),
				Header:     make(http.Header),
			}
		})},
	}
	_, err := client.Annotate(context.Background(), "text")
	if err == nil || !strings.Contains(err.Error(), "OutOfMemoryError") {
		t.Fatalf("expected status error with body, got %v", err)
	}
}

func TestAnnotateBadJSON(t *testing.T) {
	client := &Client{
		BaseURL: "http://corenlp.test",
		HTTPClient: &http.Client{Transport: roundTrip(func(*http.Request) *http.Response {
			return jsonResponse("not json")
		})},
	}
	if _, err := client.Annotate(context.Background(), "text"); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestAnnotateRequiresBaseURL(t *testing.T) {
	if _, err := (&Client{}).Annotate(context.Background(), "x"); err == nil {
		t.Fatal("expected error")
	}
}

type failingTransport struct{}

func (failingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	return nil, errors.New("connection refused")
}

func TestBuilderWarmsUp(t *testing.T) {
	calls := 0
	httpClient := &http.Client{Transport: roundTrip(func(req *http.Request) *http.Response {
		calls++
		body, _ := io.ReadAll(req.Body)
		if string(body) != warmupText {
			t.Errorf("warmup body = %q", body)
		}
		return jsonResponse(`{"sentences":[]}`)
	})}

	svc, err := Builder("http://corenlp.test", httpClient, nil)(context.Background(), annotate.Settings{Language: "en"})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if svc == nil || calls != 1 {
		t.Fatalf("expected one warmup call, got %d", calls)
	}
}

func TestBuilderFailsWhenServerDown(t *testing.T) {
	httpClient := &http.Client{Transport: failingTransport{}}
	_, err := Builder("http://corenlp.test", httpClient, nil)(context.Background(), annotate.Settings{})
	if err == nil {
		t.Fatal("expected build failure")
	}
}

func TestByteOffsets(t *testing.T) {
	offs := byteOffsets("a😀b")
	// a=1 unit, 😀=2 units, b=1 unit, plus end
	want := []int{0, 1, 1, 5, 6}
	if len(offs) != len(want) {
		t.Fatalf("got %v, want %v", offs, want)
	}
	for i := range want {
		if offs[i] != want[i] {
			t.Errorf("offs[%d] = %d, want %d", i, offs[i], want[i])
		}
	}
}
