// Package media scans issue bodies for referenced images and videos,
// downloads each into the per-issue directory, and rewrites the body to
// reference the local copies. GitHub's signed attachment URLs only
// appear in the HTML-rendered body, so the production path extracts
// media from both the raw and HTML bodies and matches them by the
// attachment's UUID to find a downloadable URL for each reference in the
// original body.
package media

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// Type distinguishes an image reference from a video reference. Videos
// are annotated as unreadable by the agent after download.
type Type int

const (
	Image Type = iota
	Video
)

// Item is one media reference extracted from an issue body.
type Item struct {
	URL           string
	Type          Type
	AltText       string
	OriginalMatch string // the exact substring to replace in the body
}

var (
	imgTagRe = regexp.MustCompile(`<img\s+[^>]*?/?>`)
	srcRe    = regexp.MustCompile(`src\s*=\s*["']([^"']+)["']`)
	altRe    = regexp.MustCompile(`alt\s*=\s*["']([^"']*)["']`)
	videoRe  = regexp.MustCompile(`<video\s+[^>]*?src\s*=\s*["']([^"']+)["'][^>]*?/?>`)
	mdImgRe  = regexp.MustCompile(`!\[([^\]]*)\]\(([^)]+)\)`)
	assetIDRe = regexp.MustCompile(`([0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12})`)
)

// ExtractURLs scans body for HTML <img>/<video> tags and markdown
// ![alt](url) references, in that order, deduplicating by URL across the
// three forms.
func ExtractURLs(body string) []Item {
	var items []Item

	for _, tag := range imgTagRe.FindAllString(body, -1) {
		srcMatch := srcRe.FindStringSubmatch(tag)
		if srcMatch == nil {
			continue
		}
		if containsURL(items, srcMatch[1]) {
			continue
		}
		alt := ""
		if altMatch := altRe.FindStringSubmatch(tag); altMatch != nil {
			alt = altMatch[1]
		}
		items = append(items, Item{URL: srcMatch[1], Type: Image, AltText: alt, OriginalMatch: tag})
	}

	for _, match := range videoRe.FindAllStringSubmatch(body, -1) {
		if containsURL(items, match[1]) {
			continue
		}
		items = append(items, Item{URL: match[1], Type: Video, OriginalMatch: match[0]})
	}

	for _, match := range mdImgRe.FindAllStringSubmatch(body, -1) {
		alt, url, full := match[1], match[2], match[0]
		typ := Image
		if isVideoURL(url) {
			typ = Video
		}
		if containsURL(items, url) {
			continue
		}
		items = append(items, Item{URL: url, Type: typ, AltText: alt, OriginalMatch: full})
	}

	return items
}

func containsURL(items []Item, url string) bool {
	for _, i := range items {
		if i.URL == url {
			return true
		}
	}
	return false
}

func isVideoURL(url string) bool {
	lower := strings.ToLower(url)
	for _, ext := range []string{".mp4", ".webm", ".mov", ".avi", ".mkv"} {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	for _, ext := range []string{".mp4?", ".webm?", ".mov?"} {
		if strings.Contains(lower, ext) {
			return true
		}
	}
	return false
}

var contentTypeExt = map[string]string{
	"image/png":       "png",
	"image/jpeg":      "jpg",
	"image/jpg":       "jpg",
	"image/gif":       "gif",
	"image/webp":      "webp",
	"image/svg+xml":   "svg",
	"video/mp4":       "mp4",
	"video/webm":      "webm",
	"video/quicktime": "mov",
}

var urlExts = map[string]bool{
	"png": true, "jpg": true, "jpeg": true, "gif": true, "webp": true,
	"svg": true, "mp4": true, "webm": true, "mov": true, "avi": true, "mkv": true,
}

// extension picks a file extension: content-type first, then the URL's
// own extension, defaulting to "png" when neither yields a recognized
// extension.
func extension(url, contentType string) string {
	if ext, ok := contentTypeExt[contentType]; ok {
		return ext
	}
	urlPath, _, _ := strings.Cut(url, "?")
	if dot := strings.LastIndex(urlPath, "."); dot >= 0 {
		ext := strings.ToLower(urlPath[dot+1:])
		if urlExts[ext] {
			return ext
		}
	}
	return "png"
}

// HTTPClient is the minimal interface media downloads need, satisfied by
// *http.Client, so tests can substitute a fake transport.
type HTTPClient interface {
	Get(url string) (*http.Response, error)
}

// NewClient builds an HTTP client for media downloads. GitHub's signed
// attachment URLs embed their own JWT and need no additional auth
// header, so this client is intentionally simple beyond a distinguishing
// user agent.
func NewClient() *http.Client {
	return &http.Client{
		Timeout: 30 * time.Second,
		Transport: &userAgentTransport{agent: "pleb-media-downloader", base: http.DefaultTransport},
	}
}

type userAgentTransport struct {
	agent string
	base  http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", t.agent)
	return t.base.RoundTrip(req)
}

// Download fetches item.URL and writes it to destDir as
// "{image|video}-{index}.{ext}", returning the local path.
func Download(client HTTPClient, item Item, destDir string, index int) (string, error) {
	resp, err := client.Get(item.URL)
	if err != nil {
		return "", fmt.Errorf("fetch media from %s: %w", item.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("download media from %s: HTTP %d", item.URL, resp.StatusCode)
	}

	contentType, _, _ := strings.Cut(resp.Header.Get("Content-Type"), ";")
	contentType = strings.TrimSpace(contentType)
	ext := extension(item.URL, contentType)

	prefix := "image"
	if item.Type == Video {
		prefix = "video"
	}
	filename := fmt.Sprintf("%s-%d.%s", prefix, index, ext)
	destPath := filepath.Join(destDir, filename)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read media bytes from %s: %w", item.URL, err)
	}
	if err := os.WriteFile(destPath, body, 0644); err != nil {
		return "", fmt.Errorf("write media to %s: %w", destPath, err)
	}
	return destPath, nil
}

func replacementText(item Item, localPath string) string {
	if item.Type == Video {
		return localPath + " [Video - not readable by the agent]"
	}
	return localPath
}

// extractAssetID pulls the UUID portion out of a GitHub attachment URL,
// whether it's a user-attachments link or a private-user-images signed
// URL, so a body-item and an html-item referring to the same upload can
// be matched even though their URLs differ.
func extractAssetID(url string) (string, bool) {
	m := assetIDRe.FindStringSubmatch(url)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// ProcessBody downloads every media reference found directly in body and
// rewrites the body to point at local copies. Used when no HTML-rendered
// body is available. Download failures keep the original URL and are
// reported via the returned warnings, not as a fatal error.
func ProcessBody(client HTTPClient, body, destDir string) (string, []string) {
	items := ExtractURLs(body)
	if len(items) == 0 {
		return body, nil
	}

	var warnings []string
	processed := body
	for index, item := range items {
		localPath, err := Download(client, item, destDir, index)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("failed to download %s: %v (keeping original URL)", item.URL, err))
			continue
		}
		processed = strings.ReplaceAll(processed, item.OriginalMatch, replacementText(item, localPath))
	}
	return processed, warnings
}

// ProcessBodyWithHTML is the production path for GitHub issues: it
// extracts media from bodyHTML (which carries signed, downloadable
// URLs), matches each reference in the original body to its signed URL
// by attachment UUID, downloads using the signed URL, and rewrites the
// original body in place.
func ProcessBodyWithHTML(client HTTPClient, body, bodyHTML, destDir string) (string, []string) {
	htmlItems := ExtractURLs(bodyHTML)
	if len(htmlItems) == 0 {
		return body, nil
	}

	signedURLs := make(map[string]Item)
	for _, item := range htmlItems {
		if id, ok := extractAssetID(item.URL); ok {
			signedURLs[id] = item
		}
	}

	bodyItems := ExtractURLs(body)
	var warnings []string
	processed := body
	downloadIndex := 0

	for _, bodyItem := range bodyItems {
		downloadItem := bodyItem
		if id, ok := extractAssetID(bodyItem.URL); ok {
			if signed, found := signedURLs[id]; found {
				downloadItem = signed
			}
		}

		localPath, err := Download(client, downloadItem, destDir, downloadIndex)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("failed to download %s: %v (keeping original URL)", bodyItem.URL, err))
			continue
		}
		processed = strings.ReplaceAll(processed, bodyItem.OriginalMatch, replacementText(bodyItem, localPath))
		downloadIndex++
	}

	return processed, warnings
}
