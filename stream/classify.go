package stream

import (
	"net/url"
	"runtime"
	"strings"
	"sync"
)

const (
	httpPrefix  = "http://"
	httpsPrefix = "https://"
)

// services maps hostname suffixes to providers. Evaluated top to
// bottom, first match wins; a host matching nothing is Unsupported.
var services = []struct {
	suffix   string
	provider Provider
}{
	{"twitch.tv", Twitch},
	{"chaturbate.com", Chaturbate},
	{"mixer.com", Mixer},
	{"mixlr.com", Mixlr},
	{"kick.com", Kick},
}

// TryClassify parses a raw text line into a stream identity.
//
// A line without a scheme is coerced to https, and http is upgraded to
// https, so "twitch.tv/foo", "http://twitch.tv/foo" and
// "https://twitch.tv/foo" all classify to the same stream. Returns
// false when the line is not an absolute URL, or when the provider
// needs a name and the URL path has none.
func TryClassify(line string) (*Stream, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, false
	}

	lower := strings.ToLower(line)
	if !strings.HasPrefix(lower, httpPrefix) && !strings.HasPrefix(lower, httpsPrefix) {
		line = httpsPrefix + line
	} else if strings.HasPrefix(lower, httpPrefix) {
		line = line[:len("http")] + "s" + line[len("http"):]
	}

	uri, err := url.Parse(line)
	if err != nil || !uri.IsAbs() || uri.Hostname() == "" {
		return nil, false
	}

	provider := Unsupported
	host := strings.ToLower(uri.Hostname())
	for _, service := range services {
		if strings.HasSuffix(host, service.suffix) {
			provider = service.provider
			break
		}
	}

	s := &Stream{
		URI:      uri,
		Provider: provider,
	}

	if provider == Unsupported {
		s.DisplayName = uri.Hostname()

		return s, true
	}

	name, ok := nameFromPath(uri)
	if !ok {
		return nil, false
	}

	s.Name = name
	s.DisplayName = name

	return s, true
}

// nameFromPath extracts the stream name as the first non-empty path
// segment of the URL.
func nameFromPath(uri *url.URL) (string, bool) {
	for _, segment := range strings.Split(uri.Path, "/") {
		if segment != "" {
			return segment, true
		}
	}

	return "", false
}

// ClassifyMany classifies lines concurrently, skipping lines that start
// with commentPrefix and lines that fail to classify. Duplicates by URI
// are dropped, first seen wins. The order of the returned slice is not
// significant; the set itself is invariant to input ordering.
func ClassifyMany(lines []string, commentPrefix string) []*Stream {
	jobs := make(chan string)
	classified := make(chan *Stream)

	var wg sync.WaitGroup
	for i := 0; i < runtime.NumCPU(); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for line := range jobs {
				if s, ok := TryClassify(line); ok {
					classified <- s
				}
			}
		}()
	}

	go func() {
		for _, line := range lines {
			if commentPrefix != "" && strings.HasPrefix(strings.TrimSpace(line), commentPrefix) {
				continue
			}

			jobs <- line
		}
		close(jobs)

		wg.Wait()
		close(classified)
	}()

	// Dedup in a single-threaded reduction so the workers share nothing
	// but the channel.
	seen := make(map[string]struct{})
	ss := make([]*Stream, 0)

	for s := range classified {
		if _, dup := seen[s.Key()]; dup {
			continue
		}

		seen[s.Key()] = struct{}{}
		ss = append(ss, s)
	}

	return ss
}
