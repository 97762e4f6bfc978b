package media

import (
	"bytes"
	"io"
	"net/http"
	"testing"
)

func TestExtractHTMLImgDoubleQuotes(t *testing.T) {
	body := `Some text <img src="https://example.com/image.png" alt="Test"> more text`
	items := ExtractURLs(body)
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].URL != "https://example.com/image.png" || items[0].Type != Image || items[0].AltText != "Test" {
		t.Errorf("unexpected item: %+v", items[0])
	}
}

func TestExtractHTMLImgSingleQuotes(t *testing.T) {
	body := `<img src='https://example.com/image.jpg' />`
	items := ExtractURLs(body)
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].AltText != "" {
		t.Errorf("expected no alt text, got %q", items[0].AltText)
	}
}

func TestExtractHTMLImgWithExtraAttributes(t *testing.T) {
	body := `<img width="800" height="600" src="https://github.com/user-attachments/assets/abc123.png" alt="Screenshot">`
	items := ExtractURLs(body)
	if len(items) != 1 || items[0].URL != "https://github.com/user-attachments/assets/abc123.png" {
		t.Fatalf("unexpected items: %+v", items)
	}
}

func TestExtractHTMLVideo(t *testing.T) {
	body := `<video controls src="https://example.com/clip.mp4"></video>`
	items := ExtractURLs(body)
	if len(items) != 1 || items[0].Type != Video {
		t.Fatalf("expected 1 video item, got %+v", items)
	}
}

func TestExtractMarkdownImage(t *testing.T) {
	body := `before ![a screenshot](https://example.com/shot.png) after`
	items := ExtractURLs(body)
	if len(items) != 1 || items[0].AltText != "a screenshot" {
		t.Fatalf("unexpected items: %+v", items)
	}
}

func TestExtractDeduplicatesAcrossForms(t *testing.T) {
	body := `<img src="https://example.com/dup.png"> and ![alt](https://example.com/dup.png)`
	items := ExtractURLs(body)
	if len(items) != 1 {
		t.Fatalf("expected dedup to 1 item, got %d", len(items))
	}
}

func TestExtensionPrefersContentType(t *testing.T) {
	if got := extension("https://example.com/file", "image/png"); got != "png" {
		t.Errorf("expected png, got %q", got)
	}
	if got := extension("https://example.com/file.jpg", ""); got != "jpg" {
		t.Errorf("expected jpg from URL, got %q", got)
	}
	if got := extension("https://example.com/file", ""); got != "png" {
		t.Errorf("expected png default, got %q", got)
	}
}

func TestExtractAssetID(t *testing.T) {
	id, ok := extractAssetID("https://github.com/user-attachments/assets/6ad6bd37-7044-4a5d-8c74-cb7576e415c2")
	if !ok || id != "6ad6bd37-7044-4a5d-8c74-cb7576e415c2" {
		t.Fatalf("unexpected asset id: %q ok=%v", id, ok)
	}

	id2, ok2 := extractAssetID("https://private-user-images.githubusercontent.com/x/535780376-6ad6bd37-7044-4a5d-8c74-cb7576e415c2.png?jwt=abc")
	if !ok2 || id2 != id {
		t.Fatalf("expected matching asset id, got %q ok=%v", id2, ok2)
	}
}

// fakeClient lets tests stand in for an HTTP round trip without a
// network call.
type fakeClient struct {
	body        []byte
	contentType string
	status      int
}

func (f *fakeClient) Get(url string) (*http.Response, error) {
	return &http.Response{
		StatusCode: f.status,
		Header:     http.Header{"Content-Type": []string{f.contentType}},
		Body:       io.NopCloser(bytes.NewReader(f.body)),
	}, nil
}

func TestProcessBodyRewritesToLocalPath(t *testing.T) {
	dir := t.TempDir()
	client := &fakeClient{body: []byte("fake-bytes"), contentType: "image/png", status: 200}
	body := `<img src="https://example.com/shot.png" alt="x">`

	got, warnings := ProcessBody(client, body, dir)
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if got == body {
		t.Fatal("expected body to be rewritten")
	}
}

func TestProcessBodyKeepsOriginalOnFailure(t *testing.T) {
	dir := t.TempDir()
	client := &fakeClient{body: nil, contentType: "", status: 404}
	body := `<img src="https://example.com/missing.png">`

	got, warnings := ProcessBody(client, body, dir)
	if got != body {
		t.Errorf("expected body unchanged on failure, got %q", got)
	}
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning, got %v", warnings)
	}
}

func TestProcessBodyWithHTMLMatchesBySignedAssetID(t *testing.T) {
	dir := t.TempDir()
	client := &fakeClient{body: []byte("fake-bytes"), contentType: "image/png", status: 200}

	body := `<img src="https://github.com/user-attachments/assets/6ad6bd37-7044-4a5d-8c74-cb7576e415c2">`
	bodyHTML := `<img src="https://private-user-images.githubusercontent.com/x/535780376-6ad6bd37-7044-4a5d-8c74-cb7576e415c2.png?jwt=abc">`

	got, warnings := ProcessBodyWithHTML(client, body, bodyHTML, dir)
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if got == body {
		t.Fatal("expected original body to be rewritten using the signed URL download")
	}
}
