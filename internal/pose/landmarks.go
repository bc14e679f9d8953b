// Package pose provides body landmark types, geometry helpers and pose
// detection backends for the rep counter.
package pose

import (
	"fmt"
	"math"
)

// JointID identifies one of the body landmarks the trackers consume.
type JointID int

// Joint identifiers. The set is the subset of the MediaPipe pose topology
// used for exercise tracking.
const (
	LeftShoulder JointID = iota
	RightShoulder
	LeftElbow
	RightElbow
	LeftWrist
	RightWrist
	LeftHip
	RightHip
	LeftKnee
	RightKnee
	LeftAnkle
	RightAnkle
	NumJoints
)

var jointNames = [NumJoints]string{
	LeftShoulder:  "left_shoulder",
	RightShoulder: "right_shoulder",
	LeftElbow:     "left_elbow",
	RightElbow:    "right_elbow",
	LeftWrist:     "left_wrist",
	RightWrist:    "right_wrist",
	LeftHip:       "left_hip",
	RightHip:      "right_hip",
	LeftKnee:      "left_knee",
	RightKnee:     "right_knee",
	LeftAnkle:     "left_ankle",
	RightAnkle:    "right_ankle",
}

// String returns the wire name of the joint, e.g. "left_wrist".
func (j JointID) String() string {
	if j < 0 || j >= NumJoints {
		return fmt.Sprintf("joint(%d)", int(j))
	}
	return jointNames[j]
}

// MarshalText lets JointID serve as a JSON object key.
func (j JointID) MarshalText() ([]byte, error) {
	if j < 0 || j >= NumJoints {
		return nil, fmt.Errorf("unknown joint %d", int(j))
	}
	return []byte(jointNames[j]), nil
}

// UnmarshalText parses a wire name back into a JointID.
func (j *JointID) UnmarshalText(text []byte) error {
	id, ok := ParseJoint(string(text))
	if !ok {
		return fmt.Errorf("unknown joint %q", text)
	}
	*j = id
	return nil
}

// ParseJoint maps a wire name to its JointID.
func ParseJoint(name string) (JointID, bool) {
	for i, n := range jointNames {
		if n == name {
			return JointID(i), true
		}
	}
	return 0, false
}

// Point is a landmark position in image space. Y grows downwards.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Finite reports whether both coordinates are usable numbers.
func (p Point) Finite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) &&
		!math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// Frame is one landmark observation. Joints may be partial.
type Frame struct {
	// Timestamp is the capture time in unix milliseconds.
	Timestamp int64             `json:"timestamp"`
	Joints    map[JointID]Point `json:"joints"`
}

// NewFrame creates an empty frame with the given timestamp.
func NewFrame(timestamp int64) *Frame {
	return &Frame{
		Timestamp: timestamp,
		Joints:    make(map[JointID]Point, NumJoints),
	}
}

// Set records a joint position and returns the frame for chaining.
func (f *Frame) Set(id JointID, p Point) *Frame {
	if f.Joints == nil {
		f.Joints = make(map[JointID]Point, NumJoints)
	}
	f.Joints[id] = p
	return f
}

// Get returns a joint if it is present with finite coordinates.
func (f *Frame) Get(id JointID) (Point, bool) {
	if f == nil {
		return Point{}, false
	}
	p, ok := f.Joints[id]
	if !ok || !p.Finite() {
		return Point{}, false
	}
	return p, true
}

// Lookup returns the requested joints only if every one of them is present.
func (f *Frame) Lookup(ids ...JointID) (Joints, bool) {
	j := make(Joints, len(ids))
	for _, id := range ids {
		p, ok := f.Get(id)
		if !ok {
			return nil, false
		}
		j[id] = p
	}
	return j, true
}

// Clone returns a deep copy of the frame.
func (f *Frame) Clone() *Frame {
	if f == nil {
		return nil
	}
	c := NewFrame(f.Timestamp)
	for id, p := range f.Joints {
		c.Joints[id] = p
	}
	return c
}

// Joints is a validated set of landmark positions.
type Joints map[JointID]Point

// Has reports whether the joint is part of the set.
func (j Joints) Has(id JointID) bool {
	_, ok := j[id]
	return ok
}
