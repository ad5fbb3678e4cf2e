package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	t.Run("desktop chrome", func(t *testing.T) {
		ua := "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
		assert.Equal(t, "chrome/120 windows 10 desktop", Summarize(ua))
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Equal(t, "unknown", Summarize(""))
		assert.Equal(t, "unknown", Summarize("   "))
	})

	t.Run("deterministic", func(t *testing.T) {
		ua := "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"
		assert.Equal(t, Summarize(ua), Summarize(ua))
		assert.Contains(t, Summarize(ua), "mobile")
	})
}
