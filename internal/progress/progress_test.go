package progress

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTracker_AnalyzerAdvancesBar(t *testing.T) {
	var buf bytes.Buffer
	tr := newTracker(&buf, "Indexing", 3)

	at := tr.Analyzer()
	at.Add(3)
	at.Tick("A.swift")
	at.Tick("B.swift")

	assert.Equal(t, 2, at.Current())
	assert.Equal(t, int64(2), tr.bar.State().CurrentNum)
}

func TestTracker_FinishError(t *testing.T) {
	var buf bytes.Buffer
	tr := newTracker(&buf, "Indexing", 1)
	tr.FinishError(errors.New("boom"))
	assert.Contains(t, buf.String(), "Indexing error: boom")
}
