package timeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveTopicNameLookupHit(t *testing.T) {
	lookup := map[string]string{"a.b.C": "Display"}
	assert.Equal(t, "Display", ResolveTopicName("a.b.C", lookup))
}

func TestResolveTopicNameFallbackLastSegment(t *testing.T) {
	assert.Equal(t, "C", ResolveTopicName("a.b.C", map[string]string{}))
	assert.Equal(t, "GenAIAnsGeneration",
		ResolveTopicName("copilots_header_21961.topic.GenAIAnsGeneration", nil))
}

func TestResolveTopicNameNoDots(t *testing.T) {
	assert.Equal(t, "NoDotsHere", ResolveTopicName("NoDotsHere", map[string]string{}))
	assert.Equal(t, "", ResolveTopicName("", nil))
}

func TestShortName(t *testing.T) {
	assert.Equal(t, "Source", shortName("kb.docs.Source"))
	assert.Equal(t, "Plain", shortName("Plain"))
}
