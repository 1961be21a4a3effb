package urlgoscraper

import (
	"os"
	"strings"
)

func SaveUrls(filename string, data []string) error {
	content := strings.Join(data, "\n")
	return os.WriteFile(filename, []byte(content), 0666)
}

// LoadUrls reads one url per line, skipping blank lines and # comments.
func LoadUrls(filename string) ([]string, error) {
	bytes, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	urls := []string{}
	for _, line := range strings.Split(string(bytes), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	return urls, nil
}
