package stringsutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitTrim(t *testing.T) {
	assert.Nil(t, SplitTrim("", ","))
	assert.Equal(t, []string{"http://a:9200", "http://b:9200"}, SplitTrim(" http://a:9200, ,http://b:9200 ", ","))
}

func TestRemoveEmptyStrings(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, RemoveEmptyStrings([]string{"", "a", "", "b"}))
	assert.Nil(t, RemoveEmptyStrings([]string{""}))
}
