package localization

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalizer_Fallbacks(t *testing.T) {
	l, err := NewLocalizer(fstest.MapFS{
		"en.json":   {Data: []byte(`{"hello":"Hello %s","bye":"Bye"}`)},
		"uk.json":   {Data: []byte(`{"hello":"Привіт %s"}`)},
		"notes.txt": {Data: []byte("ignored")},
	})
	require.NoError(t, err)

	assert.Equal(t, "Привіт Alice", l.Format("uk", "hello", "Alice"))
	assert.Equal(t, "Bye", l.GetString("uk", "bye"))
	assert.Equal(t, "Bye", l.GetString("fr", "bye"))
	assert.Equal(t, "missing.key", l.GetString("en", "missing.key"))
}

func TestLocalizer_BadFile(t *testing.T) {
	_, err := NewLocalizer(fstest.MapFS{"en.json": {Data: []byte(`{`)}})
	assert.Error(t, err)
}

func TestDefault_HasNotificationTexts(t *testing.T) {
	l := Default()
	assert.Equal(t, "Your account Alice was judged as guilt.", l.Format("en", "notify.judged", "Alice", "guilt"))
	assert.NotEqual(t, "notify.reported", l.GetString("zh-CN", "notify.reported"))
}
