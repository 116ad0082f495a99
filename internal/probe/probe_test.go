package probe

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/loykin/devterm/internal/platform"
)

func TestPIDProber_Self(t *testing.T) {
	st := PIDProber{}.Probe(context.Background(), os.Getpid())
	assert.Equal(t, Alive, st.State)
	assert.NotEmpty(t, st.Process)
}

func TestPIDProber_Invalid(t *testing.T) {
	assert.Equal(t, Gone, PIDProber{}.Probe(context.Background(), 0).State)
	assert.Equal(t, Gone, PIDProber{}.Probe(context.Background(), -4).State)
}

func TestFor(t *testing.T) {
	assert.IsType(t, PIDProber{}, For(platform.Linux))
	assert.IsType(t, PIDProber{}, For(platform.Windows))
	assert.Equal(t, Unknown, For(platform.Darwin).Probe(context.Background(), os.Getpid()).State)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "alive", Alive.String())
	assert.Equal(t, "gone", Gone.String())
	assert.Equal(t, "unknown", Unknown.String())
}
