package fetch

import "net/http"

// SetHTTPClient swaps the HTTP client so tests can trust httptest TLS servers.
func SetHTTPClient(f *Fetcher, client *http.Client) {
	f.client = client
}
