package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// run drives a ProgressLog through the whole surface; code accepting the
// interface must behave identically whether handed a real logger or Discard.
func run(pl ProgressLog) {
	pl.Start("begin")
	for i := 0; i < 10; i++ {
		pl.Update()
	}
	pl.UpdateWithCount(5)
	pl.LightUpdate()
	pl.UpdateAndDisplay()
	pl.Refresh()
	pl.Log("midway")
	pl.Done()
}

func TestDiscardDoesNothing(t *testing.T) {
	pl := Discard()
	run(pl)

	assert.Equal(t, uint64(0), pl.Count())
	_, started := pl.Elapsed()
	assert.False(t, started)
}

func TestRealLoggersSatisfyTheSameContract(t *testing.T) {
	sink := &lineSink{}
	run(New(sink.logger()))
	assert.NotZero(t, sink.count())

	sink2 := &lineSink{}
	run(Wrap(New(sink2.logger())))
	assert.NotZero(t, sink2.count())
}
