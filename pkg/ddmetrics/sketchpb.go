package ddmetrics

import (
	"github.com/golang/protobuf/proto"
)

// The types below mirror the wire shape of Datadog's public
// SketchPayload protobuf (metric name, tags, and a GK-style sketch of
// bin key/count pairs per timestamp) used by the Sketch intake (spec.md
// §4.3 Encoding/Sketch). No .proto file for it ships in this module -
// protoc isn't run as part of the build - so the messages are written
// by hand with the same field numbers and protobuf struct tags protoc
// would generate, and marshaled with the teacher's golang/protobuf
// through its struct-tag reflection path rather than generated
// Marshal/Unmarshal methods.

type pbDogsketch struct {
	Ts  int64   `protobuf:"varint,1,opt,name=ts,proto3" json:"ts,omitempty"`
	K   []int32 `protobuf:"zigzag32,2,rep,packed,name=k,proto3" json:"k,omitempty"`
	N   []int32 `protobuf:"zigzag32,3,rep,packed,name=n,proto3" json:"n,omitempty"`
	Min float64 `protobuf:"fixed64,4,opt,name=min,proto3" json:"min,omitempty"`
	Max float64 `protobuf:"fixed64,5,opt,name=max,proto3" json:"max,omitempty"`
	Sum float64 `protobuf:"fixed64,6,opt,name=sum,proto3" json:"sum,omitempty"`
	Cnt int64   `protobuf:"varint,7,opt,name=cnt,proto3" json:"cnt,omitempty"`
}

func (m *pbDogsketch) Reset()         { *m = pbDogsketch{} }
func (m *pbDogsketch) String() string { return proto.CompactTextString(m) }
func (*pbDogsketch) ProtoMessage()    {}

type pbSketchSeries struct {
	Metric      string         `protobuf:"bytes,1,opt,name=metric,proto3" json:"metric,omitempty"`
	Tags        []string       `protobuf:"bytes,3,rep,name=tags,proto3" json:"tags,omitempty"`
	Dogsketches []*pbDogsketch `protobuf:"bytes,7,rep,name=dogsketches,proto3" json:"dogsketches,omitempty"`
}

func (m *pbSketchSeries) Reset()         { *m = pbSketchSeries{} }
func (m *pbSketchSeries) String() string { return proto.CompactTextString(m) }
func (*pbSketchSeries) ProtoMessage()    {}

type pbSketchPayload struct {
	Sketches []*pbSketchSeries `protobuf:"bytes,1,rep,name=sketches,proto3" json:"sketches,omitempty"`
}

func (m *pbSketchPayload) Reset()         { *m = pbSketchPayload{} }
func (m *pbSketchPayload) String() string { return proto.CompactTextString(m) }
func (*pbSketchPayload) ProtoMessage()    {}
