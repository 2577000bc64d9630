package ddarchives

import (
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vectorcore/pipeline/pkg/event"
	"github.com/vectorcore/pipeline/pkg/logschema"
)

func TestEncoder_Normalize(t *testing.T) {
	logschema.Init(logschema.Default)

	ts, err := time.Parse(time.RFC3339Nano, "2021-08-23T18:00:27.879+02:00")
	require.NoError(t, err)

	l := event.NewLog()
	l.Insert("message", "test message")
	l.Insert("service", "test-service")
	l.Insert("not_a_reserved_attribute", "value")
	l.Insert("tags", []event.Value{"t1:v1", "t2:v2"})
	l.Insert("timestamp", ts)

	enc, err := NewEncoder()
	require.NoError(t, err)

	normalized := enc.Normalize(l)

	assert.Equal(t, 6, normalized.Len())
	for _, key := range []string{"_id", "message", "date", "service", "tags", "attributes"} {
		_, ok := normalized.Get(key)
		assert.True(t, ok, "missing key %q", key)
	}

	date, _ := normalized.Get("date")
	assert.Equal(t, "2021-08-23T16:00:27.879Z", date)

	attrs, _ := normalized.Get("attributes")
	attrLog := attrs.(event.Log)
	v, ok := attrLog.Get("not_a_reserved_attribute")
	require.True(t, ok)
	assert.Equal(t, "value", v)

	id, _ := normalized.Get("_id")
	raw, err := base64.StdEncoding.DecodeString(id.(string))
	require.NoError(t, err)
	require.Len(t, raw, 18)

	var millis uint64
	for i := 0; i < 6; i++ {
		millis = millis<<8 | uint64(raw[i])
	}
	now := time.Now().UnixNano() / int64(time.Millisecond)
	assert.InDelta(t, now, millis, float64(5000))

	// Round trip through JSON.
	marshaled, err := normalized.MarshalJSON()
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(marshaled, &decoded))
	assert.Len(t, decoded, 6)
}

func TestIDGenerator_UniqueWithinMillisecond(t *testing.T) {
	gen, err := NewIDGenerator()
	require.NoError(t, err)

	seen := map[string]bool{}
	for i := 0; i < 10000; i++ {
		id := gen.Generate()
		assert.False(t, seen[id], "duplicate id generated")
		seen[id] = true
	}
}

func TestAssembleKey(t *testing.T) {
	rb := &RequestBuilder{KeyPrefix: "audit"}
	key := rb.assembleKey("/dt=20210823/hour=16/")
	assert.Regexp(t, `^audit/dt=20210823/hour=16/[0-9a-f-]{36}\.json\.gz$`, key)
}

func TestConfig_StorageClassGating(t *testing.T) {
	for _, class := range []StorageClass{StorageClassDeepArchive, StorageClassGlacier} {
		cfg := Config{Service: "aws_s3", Bucket: "b", AWSS3: S3Config{Options: S3Options{StorageClass: class}}}
		err := cfg.Validate()
		assert.Error(t, err)
	}

	for _, class := range []StorageClass{
		StorageClassStandard, StorageClassStandardIA, StorageClassIntelligentTiering,
		StorageClassOnezoneIA, StorageClassReducedRedundancy,
	} {
		cfg := Config{Service: "aws_s3", Bucket: "b", AWSS3: S3Config{Options: S3Options{StorageClass: class}}}
		assert.NoError(t, cfg.Validate())
	}
}

func TestConfig_UnsupportedService(t *testing.T) {
	cfg := Config{Service: "azure_blob", Bucket: "b"}
	err := cfg.Validate()
	require.Error(t, err)
	var svcErr *UnsupportedServiceError
	assert.ErrorAs(t, err, &svcErr)
}
